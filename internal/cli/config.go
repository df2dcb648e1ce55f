package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if cfg.File != "" {
			fmt.Fprintf(w, "# %s\n", cfg.File)
		}
		fmt.Fprint(w, out)
		return nil
	},
}
