package commands

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hong9883/ai-drug-approval-test/internal/chat"
	"github.com/hong9883/ai-drug-approval-test/internal/gateway/gatewaytest"
	"github.com/hong9883/ai-drug-approval-test/internal/models"
	"github.com/hong9883/ai-drug-approval-test/internal/upload"
)

// run executes the root command against srv with a throwaway config dir.
func run(t *testing.T, srv *gatewaytest.Server, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config-dir", t.TempDir(), "--backend-url", srv.URL()}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestListPrintsDocuments(t *testing.T) {
	srv := gatewaytest.New(t)
	srv.AddDocument(models.DocumentSummary{
		OriginalFileName: "clinical-trial.pdf",
		Status:           models.DocCompleted,
		SizeBytes:        1536,
		PageCount:        12,
		UploadedBy:       "홍길동",
	}, nil)

	out, err := run(t, srv, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "clinical-trial.pdf")
	assert.Contains(t, out, "🟢 완료")
	assert.Contains(t, out, "1.5 KB")
	assert.Contains(t, out, "Total: 1 documents")
	assert.Contains(t, srv.LastQuery("GET /documents"), "size=50")
}

func TestListEmpty(t *testing.T) {
	srv := gatewaytest.New(t)
	out, err := run(t, srv, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "문서가 없습니다")
}

func TestListFailureUsesServerMessage(t *testing.T) {
	srv := gatewaytest.New(t)
	srv.Fail("GET /documents", http.StatusServiceUnavailable, "점검 중입니다")

	_, err := run(t, srv, "", "list")
	require.Error(t, err)
	assert.Equal(t, "점검 중입니다", err.Error())
}

func TestSearchFilters(t *testing.T) {
	srv := gatewaytest.New(t)
	srv.AddDocument(models.DocumentSummary{OriginalFileName: "clinical-trial.pdf", Status: models.DocCompleted}, nil)
	srv.AddDocument(models.DocumentSummary{OriginalFileName: "label.pdf", Status: models.DocProcessing}, nil)

	out, err := run(t, srv, "", "search", "clinical")
	require.NoError(t, err)
	assert.Contains(t, out, "'clinical' 검색 결과")
	assert.Contains(t, out, "clinical-trial.pdf")
	assert.NotContains(t, out, "label.pdf")

	out, err = run(t, srv, "", "search", "nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "검색 결과가 없습니다")
}

func TestAskPrintsAnswer(t *testing.T) {
	srv := gatewaytest.New(t)

	out, err := run(t, srv, "", "ask", "--prompt", "fact_check", "부작용은", "무엇인가요?")
	require.NoError(t, err)
	assert.Contains(t, out, "echo: 부작용은 무엇인가요?")
	assert.Contains(t, out, "[사실확인]")

	queries := srv.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, models.PromptFactCheck, queries[0].PromptType)
	assert.Equal(t, "홍길동", queries[0].UserName)
	assert.Equal(t, "의약품안전국", queries[0].UserDepartment)
}

func TestAskPrintsSources(t *testing.T) {
	srv := gatewaytest.New(t)
	srv.Answer = func(req models.QueryRequest) models.QueryResponse {
		return models.QueryResponse{
			Answer:         "두통이 보고되었습니다.",
			ResponseTimeMs: 1500,
			RelevantDocuments: []models.RelevantDocument{
				{DocumentID: 1, FileName: "label.pdf", PageNumber: 3, Similarity: 0.91},
			},
		}
	}

	out, err := run(t, srv, "", "ask", "부작용")
	require.NoError(t, err)
	assert.Contains(t, out, "두통이 보고되었습니다.")
	assert.Contains(t, out, "label.pdf (p.3, 유사도 0.91)")
	assert.Contains(t, out, "1.5s")
}

func TestAskFailurePrintsFallback(t *testing.T) {
	srv := gatewaytest.New(t)
	srv.Fail("POST /queries", http.StatusInternalServerError, "")

	out, err := run(t, srv, "", "ask", "질문")
	require.Error(t, err)
	assert.Contains(t, out, chat.FallbackReply)
	assert.Contains(t, err.Error(), "query failed")
}

func TestAskRejectsUnknownPrompt(t *testing.T) {
	srv := gatewaytest.New(t)
	_, err := run(t, srv, "", "ask", "--prompt", "CREATIVE", "질문")
	require.Error(t, err)
	assert.Empty(t, srv.Queries())
}

func TestUploadSendsFile(t *testing.T) {
	srv := gatewaytest.New(t)
	path := filepath.Join(t.TempDir(), "clinical-trial.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n"), 0644))

	out, err := run(t, srv, "", "upload", path, "--by", "김철수", "--description", "임상 자료")
	require.NoError(t, err)
	assert.Contains(t, out, upload.MsgSucceeded)
	assert.Contains(t, out, "clinical-trial.pdf")

	uploads := srv.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "clinical-trial.pdf", uploads[0].FileName)
	assert.Equal(t, "김철수", uploads[0].UploadedBy)
	assert.Equal(t, "임상 자료", uploads[0].Description)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	srv := gatewaytest.New(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text notes"), 0644))

	_, err := run(t, srv, "", "upload", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), upload.MsgPDFOnly)
	assert.Empty(t, srv.Uploads())
}

func TestUploadFailureUsesServerMessage(t *testing.T) {
	srv := gatewaytest.New(t)
	srv.Fail("POST /documents", http.StatusBadRequest, "중복된 문서입니다")
	path := filepath.Join(t.TempDir(), "a.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0644))

	_, err := run(t, srv, "", "upload", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "중복된 문서입니다")
}

func TestShowProcessingDocument(t *testing.T) {
	srv := gatewaytest.New(t)
	id := srv.AddDocument(models.DocumentSummary{OriginalFileName: "vaccine.pdf", Status: models.DocProcessing}, nil)

	out, err := run(t, srv, "", "show", "1")
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	assert.Contains(t, out, "vaccine.pdf")
	assert.Contains(t, out, "문서 처리 중입니다... 상태: PROCESSING")
}

func TestShowMissingDocument(t *testing.T) {
	srv := gatewaytest.New(t)
	_, err := run(t, srv, "", "show", "99")
	require.Error(t, err)
	assert.Equal(t, "문서를 찾을 수 없습니다.", err.Error())
}

func TestShowRejectsBadID(t *testing.T) {
	srv := gatewaytest.New(t)
	_, err := run(t, srv, "", "show", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid document id")
}

func TestDownloadWritesFile(t *testing.T) {
	srv := gatewaytest.New(t)
	id := srv.AddDocument(models.DocumentSummary{OriginalFileName: "label.pdf", Status: models.DocCompleted}, []byte("%PDF-label"))
	dir := t.TempDir()

	out, err := run(t, srv, "", "download", "--dir", dir, "1")
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	assert.Contains(t, out, filepath.Join(dir, "label.pdf"))

	data, err := os.ReadFile(filepath.Join(dir, "label.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-label", string(data))
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	srv := gatewaytest.New(t)
	srv.AddDocument(models.DocumentSummary{OriginalFileName: "a.pdf", Status: models.DocCompleted}, nil)

	out, err := run(t, srv, "n\n", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")

	out, err = run(t, srv, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "a.pdf")

	out, err = run(t, srv, "", "delete", "--yes", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Document 1 deleted")

	out, err = run(t, srv, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "문서가 없습니다")
}

func TestDeleteIgnoresListFailure(t *testing.T) {
	srv := gatewaytest.New(t)
	srv.AddDocument(models.DocumentSummary{OriginalFileName: "a.pdf", Status: models.DocCompleted}, nil)
	srv.Fail("GET /documents", http.StatusInternalServerError, "")

	out, err := run(t, srv, "", "delete", "--yes", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Document 1 deleted")
}

func TestDeleteMissingDocument(t *testing.T) {
	srv := gatewaytest.New(t)

	_, err := run(t, srv, "", "delete", "--yes", "7")
	require.Error(t, err)
	assert.Equal(t, "문서를 찾을 수 없습니다.", err.Error())
}

func TestStatsPrintsAndExports(t *testing.T) {
	srv := gatewaytest.New(t)
	srv.SetStatistics(models.StatisticsSnapshot{
		DocumentStatistics: models.DocumentStatistics{
			TotalDocuments:     3,
			CompletedDocuments: 2,
			TotalSize:          2 * 1024 * 1024,
			StatusCounts:       map[string]int64{"COMPLETED": 2, "FAILED": 1},
		},
		QueryStatistics: models.QueryStatistics{
			TotalQueries:         5,
			PromptTypeCounts:     map[string]int64{"BASIC": 4, "POINT": 1},
			AverageResponseTimes: map[string]float64{"BASIC": 1200, "POINT": 800},
			TopUsers:             []models.TopUser{{UserName: "홍길동", Department: "의약품안전국", QueryCount: 5}},
		},
	})
	path := filepath.Join(t.TempDir(), "statistics.xlsx")

	out, err := run(t, srv, "", "stats", "--export", path)
	require.NoError(t, err)
	assert.Contains(t, out, "총 문서 수:    3")
	assert.Contains(t, out, "2 MB")
	assert.Contains(t, out, "핵심포인트")
	assert.Contains(t, out, "1. 홍길동 (의약품안전국) - 5건")
	assert.FileExists(t, path)
}

func TestStatsFailure(t *testing.T) {
	srv := gatewaytest.New(t)
	srv.Fail("GET /statistics", http.StatusInternalServerError, "")

	_, err := run(t, srv, "", "stats")
	require.Error(t, err)
	assert.Equal(t, "통계 데이터를 불러오는데 실패했습니다.", err.Error())
}

func TestHistoryByUser(t *testing.T) {
	srv := gatewaytest.New(t)
	srv.AddHistory(
		models.QueryHistoryEntry{ID: 1, Question: "첫 질문", PromptType: models.PromptBasic, UserName: "홍길동"},
		models.QueryHistoryEntry{ID: 2, Question: "다른 사람 질문", PromptType: models.PromptSimple, UserName: "김철수"},
	)

	out, err := run(t, srv, "", "history", "--user", "홍길동")
	require.NoError(t, err)
	assert.Contains(t, out, "첫 질문")
	assert.NotContains(t, out, "다른 사람 질문")
	assert.Contains(t, srv.LastQuery("GET /queries/history/user"), "sort=createdAt")

	out, err = run(t, srv, "", "history", "show", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "[간단] 다른 사람 질문")
}

func TestConfigPrintsEffectiveValues(t *testing.T) {
	srv := gatewaytest.New(t)
	out, err := run(t, srv, "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "backend_url: "+srv.URL())
	assert.Contains(t, out, "config.yaml")
}

func TestInvalidBackendURL(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config-dir", t.TempDir(), "--backend-url", "ftp://example.com", "list"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http or https")
}
