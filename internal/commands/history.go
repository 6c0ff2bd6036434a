package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hong9883/ai-drug-approval-test/internal/models"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		user string
		page int
		size int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show query history",
		Long: `List past questions and answers, newest first.

Examples:
  reviewdesk history
  reviewdesk history --user 홍길동
  reviewdesk history show 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, user, page, size)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Only this user's queries")
	cmd.Flags().IntVar(&page, "page", 0, "Page number (0-based)")
	cmd.Flags().IntVar(&size, "size", 20, "Page size")

	cmd.AddCommand(newHistoryShowCmd(opts))
	return cmd
}

func runHistory(cmd *cobra.Command, opts *rootOptions, user string, page, size int) error {
	e, err := opts.setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	var result *models.Page[models.QueryHistoryEntry]
	if user != "" {
		result, err = e.client.UserQueryHistory(cmd.Context(), user, page, size)
	} else {
		result, err = e.client.QueryHistory(cmd.Context(), page, size)
	}
	if err != nil {
		return fmt.Errorf("failed to load query history: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(result.Content) == 0 {
		fmt.Fprintln(out, "📋 No queries yet")
		return nil
	}

	fmt.Fprintln(out, "📋 Query history:")
	fmt.Fprintln(out)
	for _, h := range result.Content {
		fmt.Fprintf(out, "%d. [%s] %s\n", h.ID, h.PromptType.Label(), h.Question)
		fmt.Fprintf(out, "   %s (%s) · %s · %dms\n", h.UserName, h.UserDepartment, formatTime(h.CreatedAt.Time), h.ResponseTimeMs)
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Page %d/%d · Total: %d queries\n", result.Number+1, max(result.TotalPages, 1), result.TotalElements)
	return nil
}

func newHistoryShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one past question with its answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			e, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer e.close()

			q, err := e.client.QueryDetail(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load query %d: %w", id, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "💬 [%s] %s\n", q.PromptType.Label(), q.Question)
			fmt.Fprintf(out, "   %s · %dms\n\n", formatTime(q.CreatedAt.Time), q.ResponseTimeMs)
			fmt.Fprintln(out, q.Answer)
			for _, src := range q.RelevantDocuments {
				fmt.Fprintf(out, "  • %s (p.%d)\n", src.FileName, src.PageNumber)
			}
			return nil
		},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
