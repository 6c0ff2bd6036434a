package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hong9883/ai-drug-approval-test/internal/models"
	"github.com/hong9883/ai-drug-approval-test/internal/stats"
)

const barWidth = 30

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var export string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show usage statistics",
		Long: `Display document and query statistics.

Examples:
  reviewdesk stats
  reviewdesk stats --export statistics.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, opts, export)
		},
	}

	cmd.Flags().StringVarP(&export, "export", "o", "", "Also write the statistics to an .xlsx workbook")
	return cmd
}

func runStats(cmd *cobra.Command, opts *rootOptions, export string) error {
	e, err := opts.setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	agg := stats.NewAggregator(stats.Options{Fetcher: e.client, Logger: e.logger.Logger})
	defer agg.Close()

	agg.Load()
	agg.Wait()

	st := agg.Snapshot()
	if st.Err != "" {
		return errors.New(st.Err)
	}
	snap := st.Snapshot
	if snap == nil {
		return errors.New(stats.MsgLoadFailed)
	}

	out := cmd.OutOrStdout()
	printStatistics(out, snap)

	if export != "" {
		if err := stats.Export(snap, export); err != nil {
			return fmt.Errorf("failed to export statistics: %w", err)
		}
		fmt.Fprintf(out, "\n✅ Exported to %s\n", export)
	}
	return nil
}

func printStatistics(out io.Writer, snap *models.StatisticsSnapshot) {
	ds := snap.DocumentStatistics
	qs := snap.QueryStatistics

	fmt.Fprintln(out, "📊 문서 통계")
	fmt.Fprintf(out, "   총 문서 수:    %d\n", ds.TotalDocuments)
	fmt.Fprintf(out, "   완료된 문서:   %d\n", ds.CompletedDocuments)
	fmt.Fprintf(out, "   처리 중:       %d\n", ds.ProcessingDocuments)
	fmt.Fprintf(out, "   실패한 문서:   %d\n", ds.FailedDocuments)
	fmt.Fprintf(out, "   총 페이지 수:  %d\n", ds.TotalPages)
	fmt.Fprintf(out, "   총 저장 용량:  %s\n", models.FormatSize(ds.TotalSize))
	fmt.Fprintln(out)

	statuses := stats.StatusSeries(snap)
	if len(statuses) > 0 {
		fmt.Fprintln(out, "문서 상태별 분포")
		var top int64
		for _, p := range statuses {
			top = max(top, p.Value)
		}
		for _, p := range statuses {
			fmt.Fprintf(out, "   %-8s %s %d\n", p.Label, bar(p.Value, top), p.Value)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "💬 질의 통계")
	fmt.Fprintf(out, "   총 질의 수:    %d\n", qs.TotalQueries)
	fmt.Fprintf(out, "   오늘:          %d\n", qs.QueriesToday)
	fmt.Fprintf(out, "   이번 주:       %d\n", qs.QueriesThisWeek)
	fmt.Fprintf(out, "   이번 달:       %d\n", qs.QueriesThisMonth)
	fmt.Fprintln(out)

	prompts := stats.PromptSeries(snap)
	if len(prompts) > 0 {
		fmt.Fprintln(out, "프롬프트 타입별 사용 횟수 / 평균 응답 시간")
		var top int64
		for _, p := range prompts {
			top = max(top, p.Count)
		}
		for _, p := range prompts {
			fmt.Fprintf(out, "   %-8s %s %d (%.0fms)\n", p.Label, bar(p.Count, top), p.Count, p.AvgTime)
		}
		fmt.Fprintln(out)
	}

	if len(qs.TopUsers) > 0 {
		fmt.Fprintln(out, "🏆 사용자 순위")
		for i, u := range qs.TopUsers {
			fmt.Fprintf(out, "   %d. %s (%s) - %d건\n", i+1, u.UserName, u.Department, u.QueryCount)
		}
	}
}

func bar(value, top int64) string {
	if top <= 0 {
		return ""
	}
	n := int(float64(value) / float64(top) * barWidth)
	return strings.Repeat("█", n) + strings.Repeat("░", barWidth-n)
}
