package cli

import (
	"fmt"
	"os"

	"github.com/memberfolio/folio/internal/config"
	"github.com/memberfolio/folio/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	version    = "dev"
	cfg        = &config.Config{}
	logger     = zap.NewNop()
	configFile string
	verbose    bool
)

// isInteractive reports whether the login form can be shown.
var isInteractive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Command-line client for Member Portfolio",
	Long: `folio - Member Portfolio from your terminal

Log in to your Member Portfolio account and manage the stored session.`,
	Example: `  # Log in interactively
  folio login

  # Log in from a script
  echo "$PASSWORD" | folio login -u MyUsername --password-stdin

  # Point at a local backend
  folio --api-url http://localhost:8080 login`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile, cmd.Flags())
		if err != nil {
			return err
		}
		if verbose {
			loaded.LogLevel = "debug"
		}
		cfg = loaded

		l, err := logging.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = l
		logger.Debug("config loaded",
			zap.String("api_url", cfg.APIURL),
			zap.String("file", cfg.File),
			zap.Duration("timeout", cfg.Timeout))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ~/.folio/config.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "base URL of the Member Portfolio API")
	rootCmd.PersistentFlags().Duration("timeout", 0, "request timeout (e.g. 10s)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.SetUsageTemplate(usageTemplate)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "folio v%s\n", version)
	},
}

const usageTemplate = `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

// SetVersion is called from main with the build version.
func SetVersion(v string) {
	version = v
}

func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}
