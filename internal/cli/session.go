package cli

import (
	"fmt"
	"time"

	"github.com/memberfolio/folio/internal/auth"
	"github.com/memberfolio/folio/internal/ui"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored login",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return runLogout(yes || !isInteractive())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is logged in",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus()
	},
}

func init() {
	logoutCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

// confirm is swapped out in tests.
var confirm = ui.Confirm

func runLogout(skipConfirm bool) error {
	stored, err := auth.LoadToken()
	if err != nil {
		return err
	}
	if stored == nil {
		ui.Info("Not logged in.")
		return auth.DeleteToken()
	}

	if !skipConfirm {
		ok, err := confirm(fmt.Sprintf("Log out %s?", stored.Username), true)
		if err != nil {
			return err
		}
		if !ok {
			ui.Muted("Nothing changed.")
			return nil
		}
	}

	if err := auth.DeleteToken(); err != nil {
		return err
	}
	ui.Success(fmt.Sprintf("Logged out %s", stored.Username))
	return nil
}

func runStatus() error {
	stored, err := auth.LoadToken()
	if err != nil {
		return err
	}
	if stored == nil {
		ui.Info("Not logged in. Run 'folio login' to sign in.")
		return nil
	}

	ui.Success(fmt.Sprintf("Logged in as %s", stored.Username))
	ui.Field("API", cfg.APIURL)
	ui.Field("Expires", fmt.Sprintf("%s (in %s)",
		stored.ExpiresAt.Local().Format(time.RFC1123),
		time.Until(stored.ExpiresAt).Round(time.Minute)))
	if sub := auth.Subject(stored.Token); sub != "" {
		ui.Field("Subject", sub)
	}
	return nil
}
