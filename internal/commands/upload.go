package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hong9883/ai-drug-approval-test/internal/models"
	"github.com/hong9883/ai-drug-approval-test/internal/upload"
)

func newUploadCmd(opts *rootOptions) *cobra.Command {
	var (
		uploadedBy  string
		description string
	)

	cmd := &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Register a PDF document",
		Long: `Upload a PDF document (up to 100MB) for ingestion. The backend registers it
in the vector DB and metadata store after the upload finishes.

Examples:
  reviewdesk upload ./clinical-trial.pdf
  reviewdesk upload ./label.pdf --by 김철수 --description "2024년 허가 신청 라벨"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, opts, args[0], uploadedBy, description)
		},
	}

	cmd.Flags().StringVar(&uploadedBy, "by", "", "Uploader name (defaults to the configured user)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Document description")
	return cmd
}

func runUpload(cmd *cobra.Command, opts *rootOptions, path, uploadedBy, description string) error {
	e, err := opts.setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	notify, changed := changeSignal()
	task := upload.NewTask(upload.Options{
		Uploader: e.client,
		User:     e.cfg.CurrentUser(),
		Logger:   e.logger.Logger,
		OnChange: notify,
	})
	defer task.Close()

	if err := task.SelectPath(path); err != nil {
		return alertError(task, err)
	}
	if uploadedBy != "" {
		task.SetUploader(uploadedBy)
	}
	task.SetDescription(description)

	out := cmd.OutOrStdout()
	file := task.Snapshot().File
	fmt.Fprintf(out, "📄 %s (%s", file.Name, models.FormatSize(file.SizeBytes))
	if file.PageCount > 0 {
		fmt.Fprintf(out, ", %d 페이지", file.PageCount)
	}
	fmt.Fprintln(out, ")")

	if err := task.Submit(); err != nil {
		return alertError(task, err)
	}

	shown := -1
	err = waitUntil(cmd.Context(), changed, func() bool {
		snap := task.Snapshot()
		if snap.State == upload.StateSubmitting && snap.Progress != shown {
			shown = snap.Progress
			fmt.Fprintf(out, "⏳ 업로드 중... %d%%\n", shown)
		}
		return snap.State == upload.StateSucceeded || snap.State == upload.StateFailed
	})
	if err != nil {
		return err
	}

	snap := task.Snapshot()
	if snap.State == upload.StateFailed {
		return alertError(task, errors.New("upload failed"))
	}

	fmt.Fprintf(out, "✅ %s\n", snap.Alert.Message)
	if d := snap.Document; d != nil {
		fmt.Fprintf(out, "   ID: %d\n", d.ID)
		fmt.Fprintf(out, "   Status: %s\n", models.StatusLabel(d.Status))
	}
	return nil
}

// alertError prefers the task's error alert text over err.
func alertError(task *upload.Task, err error) error {
	if al := task.Snapshot().Alert; al != nil && al.Type == upload.AlertError {
		return fmt.Errorf("%s (%w)", al.Message, err)
	}
	return err
}
