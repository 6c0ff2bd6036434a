package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hong9883/ai-drug-approval-test/internal/catalog"
	"github.com/hong9883/ai-drug-approval-test/internal/gateway"
	"github.com/hong9883/ai-drug-approval-test/internal/models"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered documents",
		Long:  `Display the first page (50 documents) of the document catalog with ingestion status.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(cmd, opts, "")
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search registered documents",
		Long:  `Search documents by file name or description. A blank keyword lists all documents.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(cmd, opts, strings.Join(args, " "))
		},
	}
}

func runCatalog(cmd *cobra.Command, opts *rootOptions, keyword string) error {
	e, err := opts.setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	c := catalog.New(catalog.Options{Source: e.client, Logger: e.logger.Logger})
	defer c.Close()

	c.Search(keyword)
	c.Wait()

	st := c.Snapshot()
	if st.Err != "" {
		return errors.New(st.Err)
	}

	out := cmd.OutOrStdout()
	if len(st.Items) == 0 {
		if st.Mode == catalog.ModeSearch {
			fmt.Fprintf(out, "🔍 '%s' 검색 결과가 없습니다\n", st.Keyword)
		} else {
			fmt.Fprintln(out, "📋 문서가 없습니다")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Register one with: reviewdesk upload <file.pdf>")
		}
		return nil
	}

	if st.Mode == catalog.ModeSearch {
		fmt.Fprintf(out, "🔍 '%s' 검색 결과:\n", st.Keyword)
	} else {
		fmt.Fprintln(out, "📋 등록된 문서:")
	}
	fmt.Fprintln(out)

	for _, d := range st.Items {
		fmt.Fprintf(out, "%d. %s %s\n", d.ID, d.OriginalFileName, statusIcon(d.Status))
		fmt.Fprintf(out, "   Size: %s · Pages: %d\n", models.FormatSize(d.SizeBytes), d.PageCount)
		fmt.Fprintf(out, "   Uploaded by %s on %s\n", d.UploadedBy, formatTime(d.CreatedAt.Time))
		if d.Description != "" {
			fmt.Fprintf(out, "   Description: %s\n", d.Description)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Total: %d documents (showing %d)\n", st.Total, len(st.Items))
	return nil
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a document and its page text",
		Long: `Fetch the detail of one document. Completed documents also print the text of
the requested page.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runShow(cmd, opts, id, page)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page to print")
	return cmd
}

func runShow(cmd *cobra.Command, opts *rootOptions, id int64, page int) error {
	e, err := opts.setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	v := catalog.NewViewer(catalog.ViewerOptions{Source: e.client, Logger: e.logger.Logger})
	defer v.Close()

	v.Open(id)
	v.Wait()
	v.SetPage(page)

	view := v.Snapshot()
	if view.State == catalog.ViewUnavailable {
		return errors.New(view.Message)
	}

	out := cmd.OutOrStdout()
	d := view.Document
	fmt.Fprintf(out, "📄 %s %s\n", d.OriginalFileName, statusIcon(d.Status))
	fmt.Fprintf(out, "   ID: %d\n", d.ID)
	fmt.Fprintf(out, "   Size: %s · Pages: %d\n", models.FormatSize(d.SizeBytes), d.PageCount)
	fmt.Fprintf(out, "   Uploaded by %s on %s\n", d.UploadedBy, formatTime(d.CreatedAt.Time))
	if d.Description != "" {
		fmt.Fprintf(out, "   Description: %s\n", d.Description)
	}
	if d.ErrorMessage != "" {
		fmt.Fprintf(out, "   Error: %s\n", d.ErrorMessage)
	}
	fmt.Fprintln(out)

	switch {
	case view.State == catalog.ViewProcessing:
		fmt.Fprintf(out, "⏳ %s\n", view.Message)
	case view.Message != "":
		fmt.Fprintf(out, "⚠️  %s\n", view.Message)
	default:
		fmt.Fprintf(out, "── %d / %d 페이지 ──\n", view.Page, view.PageCount)
		fmt.Fprintln(out, view.PageText())
	}
	return nil
}

func newDownloadCmd(opts *rootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Save a document into the download directory",
		Long: `Download a document under its original file name. Existing files are kept;
a numbered copy is written instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runDownload(cmd, opts, id, dir)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Target directory (defaults to download_dir from config)")
	return cmd
}

func runDownload(cmd *cobra.Command, opts *rootOptions, id int64, dir string) error {
	e, err := opts.setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	if dir == "" {
		dir = e.cfg.DownloadDir
	}
	c := catalog.New(catalog.Options{Source: e.client, DownloadDir: dir, Logger: e.logger.Logger})
	defer c.Close()

	path, err := c.Download(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to download document %d: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Saved to %s\n", path)
	return nil
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document",
		Long:  `Delete a document from the backend. Asks for confirmation unless --yes is given.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("문서 %d를 삭제하시겠습니까? [y/N] ", id)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			return runDelete(cmd, opts, id)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func runDelete(cmd *cobra.Command, opts *rootOptions, id int64) error {
	e, err := opts.setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	c := catalog.New(catalog.Options{Source: e.client, Logger: e.logger.Logger})
	defer c.Close()

	if err := c.Remove(cmd.Context(), id); err != nil {
		return errors.New(gateway.UserMessage(err, catalog.MsgDeleteFailed))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Document %d deleted\n", id)
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id %q", s)
	}
	return id, nil
}

func statusIcon(status models.DocStatus) string {
	label := catalog.StatusLabel(status)
	switch status {
	case models.DocCompleted:
		return "🟢 " + label
	case models.DocProcessing, models.DocUploading:
		return "🟡 " + label
	case models.DocFailed:
		return "🔴 " + label
	}
	return "⚪ " + label
}
