package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const defaultServerURL = "http://localhost:8080"

// CLIConfig is what the CLI remembers between runs.
type CLIConfig struct {
	ServerURL string `yaml:"server_url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	// Property and Agent prefill list and add so an agent working one
	// building does not repeat them on every command.
	Property string `yaml:"property,omitempty"`
	Agent    string `yaml:"agent,omitempty"`
}

// settings are the keys `ta config set` accepts. The API key is only
// written by login.
var settings = map[string]struct {
	env string
	get func(*CLIConfig) *string
}{
	"server":   {"TA_SERVER_URL", func(c *CLIConfig) *string { return &c.ServerURL }},
	"property": {"TA_PROPERTY", func(c *CLIConfig) *string { return &c.Property }},
	"agent":    {"TA_AGENT", func(c *CLIConfig) *string { return &c.Agent }},
}

// configPath is $TA_CONFIG, or ~/.config/ta/config.yaml.
func configPath() (string, error) {
	if p := os.Getenv("TA_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ta", "config.yaml"), nil
}

// loadConfig returns the zero config when no file has been written yet.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// saveConfig writes cfg readable only by the current user, since it holds
// the API key.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// setting resolves key from its environment variable, then the config
// file, then def.
func setting(key, def string) string {
	s := settings[key]
	if v := os.Getenv(s.env); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil {
		if v := *s.get(&cfg); v != "" {
			return v
		}
	}
	return def
}

func getServerURL() string { return setting("server", defaultServerURL) }

func getAPIKey() string {
	if v := os.Getenv("TA_API_KEY"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err != nil {
		return ""
	}
	return cfg.APIKey
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change saved CLI settings",
		Long: `Show the settings the CLI uses and where each one comes from.

Keys: server, property, agent. Environment variables TA_SERVER_URL,
TA_PROPERTY and TA_AGENT override the saved values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Save a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}, &cobra.Command{
		Use:   "unset <key>",
		Short: "Forget a saved setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], "")
		},
	})
	return cmd
}

func settingKeys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runConfigSet(key, value string) error {
	s, ok := settings[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (want one of %s)", key, strings.Join(settingKeys(), ", "))
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	*s.get(&cfg) = strings.TrimSpace(value)
	return saveConfig(cfg)
}

func runConfigShow(out io.Writer) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "File: %s\n", path)
	for _, k := range settingKeys() {
		s := settings[k]
		v, from := *s.get(&cfg), "config"
		if env := os.Getenv(s.env); env != "" {
			v, from = env, s.env
		}
		if v == "" {
			v, from = "-", "unset"
			if k == "server" {
				v, from = defaultServerURL, "default"
			}
		}
		fmt.Fprintf(out, "%-9s %s (%s)\n", k+":", v, from)
	}
	return nil
}
