package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hong9883/ai-drug-approval-test/internal/catalog"
	"github.com/hong9883/ai-drug-approval-test/internal/chat"
	"github.com/hong9883/ai-drug-approval-test/internal/stats"
	"github.com/hong9883/ai-drug-approval-test/internal/tui"
	"github.com/hong9883/ai-drug-approval-test/internal/upload"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:    "tui",
		Short:  "Launch the interactive review desk",
		Hidden: true, // Hidden because running `reviewdesk` without args launches it by default
		Long: `Launch the interactive review desk.

The chat pane sits on the left; documents, upload and statistics tabs on the right.

Navigation:
  - tab switches between the chat pane and the tabs
  - F1-F3 (or shift+tab) switch tabs
  - enter sends a question, alt+enter inserts a newline
  - F5 shows all shortcuts, ctrl+c quits`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
}

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	// Logs go to the file only while the TUI owns the terminal.
	e, err := opts.setup(true)
	if err != nil {
		return err
	}
	defer e.close()

	log := e.logger.Logger
	user := e.cfg.CurrentUser()
	notifier := tui.NewNotifier()

	c := tui.Components{
		Chat: chat.NewSession(chat.Options{
			Asker:    e.client,
			User:     user,
			Logger:   log,
			OnChange: notifier.Notify,
		}),
		Catalog: catalog.New(catalog.Options{
			Source:      e.client,
			DownloadDir: e.cfg.DownloadDir,
			Logger:      log,
			OnChange:    notifier.Notify,
		}),
		Viewer: catalog.NewViewer(catalog.ViewerOptions{
			Source:   e.client,
			Logger:   log,
			OnChange: notifier.Notify,
		}),
		Upload: upload.NewTask(upload.Options{
			Uploader: e.client,
			User:     user,
			Logger:   log,
			OnChange: notifier.Notify,
		}),
		Stats: stats.NewAggregator(stats.Options{
			Fetcher:  e.client,
			Logger:   log,
			OnChange: notifier.Notify,
		}),
		Notifier:   notifier,
		User:       user,
		BackendURL: e.client.BaseURL(),
		ExportDir:  e.cfg.DownloadDir,
		Version:    AppVersion,
		Logger:     log,
	}
	defer func() {
		c.Chat.Close()
		c.Catalog.Close()
		c.Viewer.Close()
		c.Upload.Close()
		c.Stats.Close()
	}()

	log.WithField("backend", e.client.BaseURL()).Info("review desk started")
	if err := tui.Run(c); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	log.Info("review desk closed")
	return nil
}
