package catalog

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hong9883/ai-drug-approval-test/internal/gateway"
	"github.com/hong9883/ai-drug-approval-test/internal/gateway/gatewaytest"
	"github.com/hong9883/ai-drug-approval-test/internal/models"
)

// fakeSource answers from memory. A keyword registered in hold, or an id in
// holdGet, blocks its request until the channel is closed, ignoring
// cancellation, so tests can deliver responses out of order.
type fakeSource struct {
	mu       sync.Mutex
	docs     []models.DocumentSummary
	files    map[int64][]byte
	hold     map[string]chan struct{}
	holdGet  map[int64]chan struct{}
	listErr  error
	getErr   error
	lists    int
	searches []string
	gets     int
	fetches  int
}

func newFakeSource(docs ...models.DocumentSummary) *fakeSource {
	return &fakeSource{
		docs:    docs,
		files:   map[int64][]byte{},
		hold:    map[string]chan struct{}{},
		holdGet: map[int64]chan struct{}{},
	}
}

func (f *fakeSource) page(filter func(models.DocumentSummary) bool) *models.Page[models.DocumentSummary] {
	var out []models.DocumentSummary
	for _, d := range f.docs {
		if filter(d) {
			out = append(out, d)
		}
	}
	return &models.Page[models.DocumentSummary]{Content: out, TotalElements: int64(len(out)), Size: PageSize}
}

func (f *fakeSource) ListDocuments(ctx context.Context, page, size int) (*models.Page[models.DocumentSummary], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.page(func(models.DocumentSummary) bool { return true }), nil
}

func (f *fakeSource) SearchDocuments(ctx context.Context, keyword string, page, size int) (*models.Page[models.DocumentSummary], error) {
	f.mu.Lock()
	f.searches = append(f.searches, keyword)
	gate := f.hold[keyword]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page(func(d models.DocumentSummary) bool {
		return strings.Contains(strings.ToLower(d.OriginalFileName), strings.ToLower(keyword))
	}), nil
}

func (f *fakeSource) GetDocument(ctx context.Context, id int64) (*models.DocumentSummary, error) {
	f.mu.Lock()
	gate := f.holdGet[id]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, d := range f.docs {
		if d.ID == id {
			doc := d
			return &doc, nil
		}
	}
	return nil, &gateway.APIError{StatusCode: http.StatusNotFound, Op: "get_document"}
}

func (f *fakeSource) DownloadDocument(ctx context.Context, id int64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	data, ok := f.files[id]
	if !ok {
		return nil, &gateway.APIError{StatusCode: http.StatusNotFound, Op: "download_document"}
	}
	return data, nil
}

func (f *fakeSource) DeleteDocument(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, d := range f.docs {
		if d.ID == id {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return nil
		}
	}
	return &gateway.APIError{StatusCode: http.StatusNotFound, Message: "문서를 찾을 수 없습니다."}
}

func sampleDocs() []models.DocumentSummary {
	return []models.DocumentSummary{
		{ID: 1, OriginalFileName: "insulin-guide.pdf", Status: models.DocCompleted, PageCount: 12, UploadedBy: "홍길동"},
		{ID: 2, OriginalFileName: "vaccine-report.pdf", Status: models.DocProcessing, UploadedBy: "김철수"},
		{ID: 3, OriginalFileName: "insulin-faq.pdf", Status: models.DocFailed, UploadedBy: "홍길동"},
	}
}

func newTestCatalog(t *testing.T, src Source, dir string) *Catalog {
	t.Helper()
	logger, _ := test.NewNullLogger()
	c := New(Options{Source: src, DownloadDir: dir, Logger: logger})
	t.Cleanup(c.Close)
	return c
}

func TestRefreshLoadsFirstPage(t *testing.T) {
	src := newFakeSource(sampleDocs()...)
	c := newTestCatalog(t, src, "")

	c.Refresh()
	c.Wait()

	st := c.Snapshot()
	assert.Equal(t, ModeList, st.Mode)
	assert.Len(t, st.Items, 3)
	assert.Equal(t, int64(3), st.Total)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Err)
}

func TestSearchBlankFallsBackToList(t *testing.T) {
	for _, kw := range []string{"", "   ", "\t"} {
		src := newFakeSource(sampleDocs()...)
		c := newTestCatalog(t, src, "")

		c.Search(kw)
		c.Wait()

		st := c.Snapshot()
		assert.Equal(t, ModeList, st.Mode)
		assert.Len(t, st.Items, 3)
		assert.Equal(t, 1, src.lists)
		assert.Empty(t, src.searches)
	}
}

func TestSearchFilters(t *testing.T) {
	src := newFakeSource(sampleDocs()...)
	c := newTestCatalog(t, src, "")

	c.Search("insulin")
	c.Wait()

	st := c.Snapshot()
	assert.Equal(t, ModeSearch, st.Mode)
	assert.Equal(t, "insulin", st.Keyword)
	assert.Len(t, st.Items, 2)
}

func TestStaleResponseDiscarded(t *testing.T) {
	src := newFakeSource(sampleDocs()...)
	gate := make(chan struct{})
	src.hold["vaccine"] = gate
	c := newTestCatalog(t, src, "")

	c.Search("vaccine")
	c.Search("insulin")
	require.Eventually(t, func() bool {
		st := c.Snapshot()
		return st.Keyword == "insulin" && !st.Loading
	}, time.Second, 2*time.Millisecond)

	close(gate)
	c.Wait()

	st := c.Snapshot()
	assert.Equal(t, "insulin", st.Keyword)
	require.Len(t, st.Items, 2)
	for _, d := range st.Items {
		assert.Contains(t, d.OriginalFileName, "insulin")
	}
}

func TestFailureKeepsItems(t *testing.T) {
	src := newFakeSource(sampleDocs()...)
	c := newTestCatalog(t, src, "")
	c.Refresh()
	c.Wait()

	src.mu.Lock()
	src.listErr = errors.New("connection refused")
	src.mu.Unlock()
	c.Refresh()
	c.Wait()

	st := c.Snapshot()
	assert.Equal(t, MsgListFailed, st.Err)
	assert.Len(t, st.Items, 3)
	assert.False(t, st.Loading)

	src.mu.Lock()
	src.listErr = nil
	src.mu.Unlock()
	c.Refresh()
	c.Wait()
	assert.Empty(t, c.Snapshot().Err)
}

func TestSelect(t *testing.T) {
	src := newFakeSource(sampleDocs()...)
	c := newTestCatalog(t, src, "")
	c.Refresh()
	c.Wait()

	assert.ErrorIs(t, c.Select(99), ErrUnknownDocument)
	assert.Nil(t, c.Snapshot().SelectedID)

	require.NoError(t, c.Select(2))
	st := c.Snapshot()
	require.NotNil(t, st.SelectedID)
	assert.Equal(t, int64(2), *st.SelectedID)
	assert.Len(t, st.Items, 3)

	doc, ok := st.Selected()
	require.True(t, ok)
	assert.Equal(t, "vaccine-report.pdf", doc.OriginalFileName)

	// The selection survives a refresh that no longer contains it.
	c.Search("insulin")
	c.Wait()
	st = c.Snapshot()
	require.NotNil(t, st.SelectedID)
	_, ok = st.Selected()
	assert.False(t, ok)
}

func TestDeleteReloadsCurrentMode(t *testing.T) {
	src := newFakeSource(sampleDocs()...)
	c := newTestCatalog(t, src, "")
	c.Search("insulin")
	c.Wait()
	require.NoError(t, c.Select(3))

	c.Delete(3)
	c.Wait()

	st := c.Snapshot()
	assert.Equal(t, ModeSearch, st.Mode)
	require.Len(t, st.Items, 1)
	assert.Equal(t, int64(1), st.Items[0].ID)
	assert.Nil(t, st.SelectedID)

	c.Delete(42)
	c.Wait()
	assert.Equal(t, "문서를 찾을 수 없습니다.", c.Snapshot().Err)
}

func TestRemoveDoesNotReload(t *testing.T) {
	src := newFakeSource(sampleDocs()...)
	c := newTestCatalog(t, src, "")
	c.Refresh()
	c.Wait()
	require.NoError(t, c.Select(2))

	src.mu.Lock()
	src.listErr = errors.New("connection refused")
	src.mu.Unlock()

	require.NoError(t, c.Remove(context.Background(), 2))
	c.Wait()

	st := c.Snapshot()
	assert.Nil(t, st.SelectedID)
	assert.Empty(t, st.Err)
	assert.Len(t, st.Items, 3)
	src.mu.Lock()
	assert.Equal(t, 1, src.lists)
	assert.Len(t, src.docs, 2)
	src.mu.Unlock()

	err := c.Remove(context.Background(), 2)
	assert.True(t, gateway.IsNotFound(err))
	assert.Empty(t, c.Snapshot().Err)
}

func TestStatusLabelTotal(t *testing.T) {
	for _, s := range models.DocStatuses {
		assert.NotEqual(t, string(s), StatusLabel(s))
	}
	assert.Equal(t, "QUEUED", StatusLabel("QUEUED"))
}

func TestDownloadWritesOriginalName(t *testing.T) {
	dir := t.TempDir()
	src := newFakeSource(sampleDocs()...)
	src.files[1] = []byte("%PDF-one")
	c := newTestCatalog(t, src, dir)
	c.Refresh()
	c.Wait()

	path, err := c.Download(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "insulin-guide.pdf"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-one", string(data))

	path, err = c.Download(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "insulin-guide (1).pdf"), path)
}

func TestDownloadFailureIsNonFatal(t *testing.T) {
	src := newFakeSource(sampleDocs()...)
	c := newTestCatalog(t, src, t.TempDir())
	c.Refresh()
	c.Wait()
	before := c.Snapshot()

	_, err := c.Download(context.Background(), 2)
	require.Error(t, err)

	after := c.Snapshot()
	assert.Equal(t, before.Items, after.Items)
	assert.Empty(t, after.Err)
}

func TestSafeFileName(t *testing.T) {
	assert.Equal(t, "a.pdf", safeFileName("../../etc/a.pdf", 1))
	assert.Equal(t, "b.pdf", safeFileName(`C:\docs\b.pdf`, 1))
	assert.Equal(t, "document-7.pdf", safeFileName("  ", 7))
}

func TestCatalogAgainstBackend(t *testing.T) {
	srv := gatewaytest.New(t)
	srv.AddDocument(models.DocumentSummary{OriginalFileName: "clinical-trial.pdf", Status: models.DocCompleted}, nil)
	srv.AddDocument(models.DocumentSummary{OriginalFileName: "labeling.pdf", Status: models.DocUploading}, nil)
	client, err := gateway.NewClient(gateway.Options{BaseURL: srv.URL()})
	require.NoError(t, err)

	c := newTestCatalog(t, client, "")
	c.Search("clinical")
	c.Wait()

	st := c.Snapshot()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "clinical-trial.pdf", st.Items[0].OriginalFileName)
	assert.Contains(t, srv.LastQuery("GET /documents/search"), "size=50")
	assert.Contains(t, srv.LastQuery("GET /documents/search"), "page=0")
}
