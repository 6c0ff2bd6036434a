package commands

import (
	"github.com/spf13/cobra"

	"github.com/hong9883/ai-drug-approval-test/internal/config"
)

// AppVersion is set by main from the build-time version.
var AppVersion = "0.0.0-dev"

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configDir  string
	backendURL string
	verbose    bool
}

// NewRootCmd builds the reviewdesk command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "reviewdesk",
		Short: "reviewdesk - 의약품 허가심사 문서 검토 클라이언트",
		Long: `reviewdesk talks to the drug approval review backend: ask questions about
registered documents, register new PDF documents, browse and search the
document catalog, and inspect usage statistics.

Quick Start:
  reviewdesk                      Launch the interactive review desk (default)
  reviewdesk ask "질문"            Ask one question and print the answer

Commands:
  ask <question>             Ask a question about the registered documents
  upload <file.pdf>          Register a PDF document
  list                       List registered documents
  search <keyword>           Search registered documents
  show <id>                  Show a document and its page text
  download <id>              Save a document into the download directory
  delete <id>                Delete a document
  stats                      Show usage statistics (--export to .xlsx)
  history                    Show query history
  config                     Show the effective configuration

Config: ~/.reviewdesk/config.yaml
Logs:   ~/.reviewdesk/logs/reviewdesk.log`,
		Version:       AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", config.GetConfigDir(), "Configuration directory")
	root.PersistentFlags().StringVar(&opts.backendURL, "backend-url", "", "Override the backend API root (e.g. http://localhost:8080/api)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newTUICmd(opts),
		newAskCmd(opts),
		newUploadCmd(opts),
		newListCmd(opts),
		newSearchCmd(opts),
		newShowCmd(opts),
		newDownloadCmd(opts),
		newDeleteCmd(opts),
		newStatsCmd(opts),
		newHistoryCmd(opts),
		newConfigCmd(opts),
	)
	return root
}
