package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grhey0115/Tenant-Assessment/internal/auth"
	"github.com/grhey0115/Tenant-Assessment/internal/client"
)

type loginOptions struct {
	server    string
	key       string
	noBrowser bool
}

func newLoginCmd() *cobra.Command {
	var opts loginOptions

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store an API key",
		Long: `Opens the admin sign-in page in a browser, where a key for this CLI
is generated. Paste it back here; it is checked against the server
before it is saved.

Pass --key to store a key you already have, for example in scripts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(opts, cmd.InOrStdin(), cmd.OutOrStdout(), openBrowser)
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "", "server URL (default: from config or "+defaultServerURL+")")
	cmd.Flags().StringVar(&opts.key, "key", "", "API key to store instead of prompting")
	cmd.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "print the sign-in URL without opening a browser")

	return cmd
}

func runLogin(opts loginOptions, in io.Reader, out io.Writer, browse func(string) error) error {
	serverURL := strings.TrimRight(opts.server, "/")
	if serverURL == "" {
		serverURL = getServerURL()
	}

	key := strings.TrimSpace(opts.key)
	if key == "" {
		authURL := serverURL + "/cli/auth"
		if opts.noBrowser {
			fmt.Fprintf(out, "Sign in at %s\n\n", authURL)
		} else {
			fmt.Fprintln(out, "Opening the admin sign-in page...")
			fmt.Fprintf(out, "If no browser opens, visit: %s\n\n", authURL)
			if err := browse(authURL); err != nil {
				fmt.Fprintf(os.Stderr, "Could not open browser: %v\n", err)
			}
		}

		fmt.Fprint(out, "Paste your API key: ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading input: %w", err)
		}
		key = strings.TrimSpace(line)
	}
	if err := validateAPIKey(key); err != nil {
		return err
	}

	resp, err := client.New(serverURL, key).ListApplicants(client.ListOptions{Page: 1})
	var se *client.StatusError
	switch {
	case errors.As(err, &se) && se.Code == http.StatusUnauthorized:
		return fmt.Errorf("%s rejected the key; generate a new one and try again", serverURL)
	case err != nil:
		return fmt.Errorf("checking key against %s: %w", serverURL, err)
	}

	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}
	cfg.APIKey = key
	if opts.server != "" {
		cfg.ServerURL = serverURL
	}
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintf(out, "✓ Signed in to %s (%d applicants in the pipeline)\n", serverURL, resp.Total)
	return nil
}

// validateAPIKey checks the key is present and looks like one the server
// issues.
func validateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("no API key provided")
	}
	if !strings.HasPrefix(key, auth.APIKeyPrefix) {
		return fmt.Errorf("invalid API key format (should start with %s)", auth.APIKeyPrefix)
	}
	return nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
