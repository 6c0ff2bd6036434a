package stats

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hong9883/ai-drug-approval-test/internal/gateway"
	"github.com/hong9883/ai-drug-approval-test/internal/models"
)

type fakeFetcher struct {
	mu   sync.Mutex
	snap *models.StatisticsSnapshot
	err  error
}

func (f *fakeFetcher) GetStatistics(ctx context.Context) (*models.StatisticsSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s := *f.snap
	return &s, nil
}

func (f *fakeFetcher) set(snap *models.StatisticsSnapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap, f.err = snap, err
}

func sampleSnapshot() *models.StatisticsSnapshot {
	return &models.StatisticsSnapshot{
		DocumentStatistics: models.DocumentStatistics{
			TotalDocuments:      10,
			CompletedDocuments:  6,
			ProcessingDocuments: 2,
			FailedDocuments:     1,
			TotalSize:           52428800,
			TotalPages:          340,
			StatusCounts:        map[string]int64{"FAILED": 1, "COMPLETED": 6, "PROCESSING": 2, "UPLOADING": 1, "ARCHIVED": 3},
		},
		QueryStatistics: models.QueryStatistics{
			TotalQueries:         25,
			QueriesToday:         4,
			PromptTypeCounts:     map[string]int64{"STEP_BY_STEP": 2, "BASIC": 15, "POINT": 5, "LEGACY": 1, "ADHOC": 2},
			AverageResponseTimes: map[string]float64{"BASIC": 1200.5, "POINT": 900},
			TopUsers:             []models.TopUser{{UserName: "홍길동", Department: "의약품안전국", QueryCount: 12}},
		},
	}
}

func newTestAggregator(t *testing.T, f Fetcher) *Aggregator {
	t.Helper()
	logger, _ := test.NewNullLogger()
	a := NewAggregator(Options{Fetcher: f, Logger: logger})
	t.Cleanup(a.Close)
	return a
}

func TestLoadSuccess(t *testing.T) {
	f := &fakeFetcher{snap: sampleSnapshot()}
	a := newTestAggregator(t, f)

	a.Load()
	a.Wait()

	st := a.Snapshot()
	require.NotNil(t, st.Snapshot)
	assert.Empty(t, st.Err)
	assert.False(t, st.Loading)
	assert.Equal(t, int64(10), st.Snapshot.DocumentStatistics.TotalDocuments)
}

func TestLoadFailureDiscardsSnapshot(t *testing.T) {
	f := &fakeFetcher{snap: sampleSnapshot()}
	a := newTestAggregator(t, f)
	a.Load()
	a.Wait()
	require.NotNil(t, a.Snapshot().Snapshot)

	f.set(nil, errors.New("dial tcp: connection refused"))
	a.Load()
	a.Wait()

	st := a.Snapshot()
	assert.Nil(t, st.Snapshot)
	assert.Equal(t, MsgLoadFailed, st.Err)

	f.set(nil, &gateway.APIError{StatusCode: 500, Message: "통계 집계 중 오류"})
	a.Load()
	a.Wait()
	assert.Equal(t, "통계 집계 중 오류", a.Snapshot().Err)

	f.set(sampleSnapshot(), nil)
	a.Load()
	a.Wait()
	st = a.Snapshot()
	assert.NotNil(t, st.Snapshot)
	assert.Empty(t, st.Err)
}

func TestPromptSeriesOrder(t *testing.T) {
	series := PromptSeries(sampleSnapshot())

	var keys, labels []string
	for _, p := range series {
		keys = append(keys, p.Key)
		labels = append(labels, p.Label)
	}
	assert.Equal(t, []string{"BASIC", "POINT", "STEP_BY_STEP", "ADHOC", "LEGACY"}, keys)
	assert.Equal(t, []string{"기본", "핵심포인트", "단계별", "ADHOC", "LEGACY"}, labels)

	assert.Equal(t, int64(15), series[0].Count)
	assert.Equal(t, 1200.5, series[0].AvgTime)
	assert.Zero(t, series[2].AvgTime)
}

func TestStatusSeriesOrder(t *testing.T) {
	series := StatusSeries(sampleSnapshot())

	var labels []string
	for _, s := range series {
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []string{"업로드중", "처리중", "완료", "실패", "ARCHIVED"}, labels)
	assert.Equal(t, int64(6), series[2].Value)
}

func TestSeriesEmpty(t *testing.T) {
	assert.Nil(t, PromptSeries(nil))
	assert.Nil(t, StatusSeries(nil))
	assert.Empty(t, PromptSeries(&models.StatisticsSnapshot{}))
}

func TestExportWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.xlsx")
	require.NoError(t, Export(sampleSnapshot(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetPrompts, SheetStatus, SheetUsers}, f.GetSheetList())

	rows, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"총 문서 수", "10"}, rows[1])
	assert.Equal(t, []string{"총 저장 용량", "50 MB"}, rows[6])

	users, err := f.GetRows(SheetUsers)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, []string{"1", "홍길동", "의약품안전국", "12"}, users[1])

	prompts, err := f.GetRows(SheetPrompts)
	require.NoError(t, err)
	assert.Len(t, prompts, 6)
	assert.Equal(t, "BASIC", prompts[1][0])
}

func TestExportNil(t *testing.T) {
	assert.Error(t, Export(nil, filepath.Join(t.TempDir(), "x.xlsx")))
}
