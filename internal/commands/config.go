package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hong9883/ai-drug-approval-test/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration after applying .env and REVIEWDESK_* overrides
(e.g. REVIEWDESK_BACKEND_URL, REVIEWDESK_USER_NAME).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(opts.configDir)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if opts.backendURL != "" {
				cfg.BackendURL = opts.backendURL
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "📁 Config file: %s\n", filepath.Join(opts.configDir, "config.yaml"))
			fmt.Fprintf(out, "📝 Log file:    %s\n", cfg.LogFilePath(opts.configDir))
			fmt.Fprintln(out)
			fmt.Fprint(out, string(data))

			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(out)
				fmt.Fprintf(out, "⚠️  %v\n", err)
			}
			return nil
		},
	}
}
