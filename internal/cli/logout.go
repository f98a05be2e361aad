package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored API key",
		Long: `Removes the API key from the CLI config. The key itself stays valid
until it is revoked on the server's settings page.

With --all the saved server, property and agent are cleared too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(all, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "also clear the saved server, property and agent")
	return cmd
}

func runLogout(all bool, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.APIKey == "" && (!all || cfg == (CLIConfig{})) {
		fmt.Fprintln(out, "Not signed in.")
		return nil
	}

	if all {
		cfg = CLIConfig{}
	} else {
		cfg.APIKey = ""
	}
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if all {
		fmt.Fprintln(out, "✓ Signed out and cleared saved settings.")
	} else {
		fmt.Fprintln(out, "✓ Signed out. Revoke the key under Settings if it may have leaked.")
	}
	return nil
}
