package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/memberfolio/folio/internal/auth"
	"github.com/memberfolio/folio/internal/login"
	"github.com/memberfolio/folio/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to your Member Portfolio account",
	Long: `Log in with your username (or email) and password.

With a terminal attached an interactive form is shown. In scripts, pass
--username and pipe the password through --password-stdin.

Examples:
  folio login
  folio login -u MyUsername
  echo "$PASSWORD" | folio login -u MyUsername --password-stdin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		passwordStdin, _ := cmd.Flags().GetBool("password-stdin")
		return runLogin(cmd.Context(), loginOptions{
			Username:      username,
			PasswordStdin: passwordStdin,
			Stdin:         cmd.InOrStdin(),
			Interactive:   isInteractive(),
		})
	},
}

func init() {
	loginCmd.Flags().StringP("username", "u", "", "username or email")
	loginCmd.Flags().Bool("password-stdin", false, "read the password from stdin")
}

type loginOptions struct {
	Username      string
	PasswordStdin bool
	Stdin         io.Reader
	Interactive   bool
}

func newAuthenticator() auth.Authenticator {
	return auth.NewHTTPAuthenticator(cfg.APIURL, cfg.Timeout, logger)
}

func runLogin(ctx context.Context, opts loginOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var saveErr error
	ctrl := login.NewController(newAuthenticator(), login.WithSuccessHook(func(username string, s *auth.Session) {
		saveErr = auth.SaveToken(auth.NewStoredAuth(username, s))
	}))
	ctrl.SetUsername(opts.Username)

	if opts.PasswordStdin || !opts.Interactive {
		if err := submitNonInteractive(ctx, ctrl, opts); err != nil {
			return err
		}
	} else {
		if _, err := ui.RunLoginForm(ctx, ctrl); err != nil {
			if errors.Is(err, ui.ErrCancelled) {
				ui.Muted("Login cancelled.")
				return nil
			}
			return err
		}
	}

	if saveErr != nil {
		return fmt.Errorf("failed to save login: %w", saveErr)
	}

	logger.Debug("login stored", zap.String("path", auth.TokenPath()))
	ui.Success(fmt.Sprintf("Logged in as %s", ctrl.Username()))
	return nil
}

func submitNonInteractive(ctx context.Context, ctrl *login.Controller, opts loginOptions) error {
	if !opts.PasswordStdin {
		return fmt.Errorf("no terminal attached: use --username with --password-stdin")
	}

	password, err := readPassword(opts.Stdin)
	if err != nil {
		return err
	}
	ctrl.SetPassword(password)

	status, err := ctrl.Submit(ctx)
	if err != nil {
		var verr *login.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%s required", strings.Join(verr.Missing, " and "))
		}
		return err
	}

	if status != login.Authenticated {
		msg, _ := ctrl.ErrorMessage()
		return errors.New(msg)
	}
	return nil
}

// readPassword takes the first line of r without its line ending.
func readPassword(r io.Reader) (string, error) {
	if r == nil {
		return "", fmt.Errorf("no input to read the password from")
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
