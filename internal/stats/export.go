package stats

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hong9883/ai-drug-approval-test/internal/models"
)

const (
	SheetSummary = "요약"
	SheetPrompts = "프롬프트 타입"
	SheetStatus  = "문서 상태"
	SheetUsers   = "사용자 순위"
)

// Export writes snap to an .xlsx workbook at path with one sheet per view:
// summary cards, prompt usage, document status and top users.
func Export(snap *models.StatisticsSnapshot, path string) error {
	if snap == nil {
		return errors.New("no statistics to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E0E7FF"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	d := snap.DocumentStatistics
	q := snap.QueryStatistics
	summary := [][]any{
		{"항목", "값"},
		{"총 문서 수", d.TotalDocuments},
		{"완료된 문서", d.CompletedDocuments},
		{"처리 중인 문서", d.ProcessingDocuments},
		{"실패한 문서", d.FailedDocuments},
		{"총 페이지 수", d.TotalPages},
		{"총 저장 용량", models.FormatSize(d.TotalSize)},
		{"총 질의 수", q.TotalQueries},
		{"오늘 질의", q.QueriesToday},
		{"이번 주 질의", q.QueriesThisWeek},
		{"이번 달 질의", q.QueriesThisMonth},
	}
	if err := writeTable(f, SheetSummary, summary, header); err != nil {
		return err
	}

	prompts := [][]any{{"프롬프트 타입", "라벨", "사용 횟수", "평균 응답 시간 (ms)"}}
	for _, p := range PromptSeries(snap) {
		prompts = append(prompts, []any{p.Key, p.Label, p.Count, p.AvgTime})
	}
	if err := writeNewSheet(f, SheetPrompts, prompts, header); err != nil {
		return err
	}

	statuses := [][]any{{"상태", "라벨", "문서 수"}}
	for _, s := range StatusSeries(snap) {
		statuses = append(statuses, []any{s.Key, s.Label, s.Value})
	}
	if err := writeNewSheet(f, SheetStatus, statuses, header); err != nil {
		return err
	}

	users := [][]any{{"순위", "사용자명", "부서", "질의 횟수"}}
	for i, u := range q.TopUsers {
		users = append(users, []any{i + 1, u.UserName, u.Department, u.QueryCount})
	}
	if err := writeNewSheet(f, SheetUsers, users, header); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeNewSheet(f *excelize.File, sheet string, rows [][]any, header int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	return writeTable(f, sheet, rows, header)
}

// writeTable writes rows from A1 and styles the first one as a header.
func writeTable(f *excelize.File, sheet string, rows [][]any, header int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "D", 18)
}
