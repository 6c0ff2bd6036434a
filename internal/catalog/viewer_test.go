package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViewer(t *testing.T, src Source) *Viewer {
	t.Helper()
	logger, _ := test.NewNullLogger()
	v := NewViewer(ViewerOptions{Source: src, Logger: logger})
	t.Cleanup(v.Close)
	return v
}

func TestViewerEmpty(t *testing.T) {
	v := newTestViewer(t, newFakeSource())
	view := v.Snapshot()
	assert.Equal(t, ViewEmpty, view.State)
	assert.Equal(t, MsgNoSelection, view.Message)
	assert.Equal(t, DefaultZoom, view.Zoom)
}

func TestViewerProcessingPlaceholder(t *testing.T) {
	src := newFakeSource(sampleDocs()...)
	v := newTestViewer(t, src)

	v.Open(2)
	v.Wait()

	view := v.Snapshot()
	assert.Equal(t, ViewProcessing, view.State)
	assert.Equal(t, "문서 처리 중입니다... 상태: PROCESSING", view.Message)
	require.NotNil(t, view.Document)
	assert.Equal(t, "vaccine-report.pdf", view.Document.OriginalFileName)
	assert.Zero(t, src.fetches)
}

func TestViewerNotFound(t *testing.T) {
	v := newTestViewer(t, newFakeSource(sampleDocs()...))

	v.Open(404)
	v.Wait()

	view := v.Snapshot()
	assert.Equal(t, ViewUnavailable, view.State)
	assert.Equal(t, MsgNotFound, view.Message)
	assert.Nil(t, view.Document)
}

func TestViewerTransportFailure(t *testing.T) {
	src := newFakeSource(sampleDocs()...)
	src.getErr = errors.New("timeout")
	v := newTestViewer(t, src)

	v.Open(1)
	v.Wait()

	view := v.Snapshot()
	assert.Equal(t, ViewUnavailable, view.State)
	assert.Equal(t, MsgUnavailable, view.Message)
}

func TestViewerCompletedWithoutPreview(t *testing.T) {
	src := newFakeSource(sampleDocs()...)
	src.files[1] = []byte("not a pdf")
	v := newTestViewer(t, src)

	v.Open(1)
	v.Wait()

	view := v.Snapshot()
	assert.Equal(t, ViewReady, view.State)
	assert.Equal(t, MsgNoPreview, view.Message)
	assert.Nil(t, view.Pages)
	assert.Equal(t, 12, view.PageCount)
	assert.Equal(t, 1, view.Page)
	assert.Empty(t, view.PageText())
}

func TestViewerPageClamp(t *testing.T) {
	src := newFakeSource(sampleDocs()...)
	v := newTestViewer(t, src)
	v.Open(1)
	v.Wait()

	v.PrevPage()
	assert.Equal(t, 1, v.Snapshot().Page)

	v.SetPage(5)
	assert.Equal(t, 5, v.Snapshot().Page)
	v.NextPage()
	assert.Equal(t, 6, v.Snapshot().Page)

	v.SetPage(99)
	assert.Equal(t, 12, v.Snapshot().Page)
	v.NextPage()
	assert.Equal(t, 12, v.Snapshot().Page)

	v.SetPage(-3)
	assert.Equal(t, 1, v.Snapshot().Page)

	// Opening another document starts on its first page.
	v.SetPage(7)
	v.Open(3)
	v.Wait()
	assert.Equal(t, 1, v.Snapshot().Page)
}

func TestViewerZoomClamp(t *testing.T) {
	v := newTestViewer(t, newFakeSource())

	for i := 0; i < 20; i++ {
		v.ZoomIn()
	}
	assert.Equal(t, MaxZoom, v.Snapshot().Zoom)

	for i := 0; i < 30; i++ {
		v.ZoomOut()
	}
	assert.Equal(t, MinZoom, v.Snapshot().Zoom)

	v.ZoomIn()
	assert.Equal(t, MinZoom+ZoomStep, v.Snapshot().Zoom)
}

func TestViewerCachesContent(t *testing.T) {
	src := newFakeSource(sampleDocs()...)
	v := newTestViewer(t, src)
	key := contentKey(&src.docs[0])
	v.content.Set(key, []string{"page one", "page two"}, 0)

	v.Open(1)
	v.Wait()

	view := v.Snapshot()
	assert.Equal(t, ViewReady, view.State)
	assert.Equal(t, "page one", view.PageText())
	v.NextPage()
	assert.Equal(t, "page two", v.Snapshot().PageText())
	assert.Zero(t, src.fetches)
}

func TestViewerLatestOpenWins(t *testing.T) {
	src := newFakeSource(sampleDocs()...)
	gate := make(chan struct{})
	src.holdGet[1] = gate
	v := newTestViewer(t, src)

	v.Open(1)
	v.Open(2)
	require.Eventually(t, func() bool {
		return v.Snapshot().State == ViewProcessing
	}, time.Second, 2*time.Millisecond)

	close(gate)
	v.Wait()

	view := v.Snapshot()
	assert.Equal(t, ViewProcessing, view.State)
	require.NotNil(t, view.Document)
	assert.Equal(t, int64(2), view.Document.ID)
	assert.Zero(t, src.fetches)
}
