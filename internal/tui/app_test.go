package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hong9883/ai-drug-approval-test/internal/catalog"
	"github.com/hong9883/ai-drug-approval-test/internal/chat"
	"github.com/hong9883/ai-drug-approval-test/internal/gateway"
	"github.com/hong9883/ai-drug-approval-test/internal/gateway/gatewaytest"
	"github.com/hong9883/ai-drug-approval-test/internal/models"
	"github.com/hong9883/ai-drug-approval-test/internal/stats"
	"github.com/hong9883/ai-drug-approval-test/internal/upload"
)

var testUser = models.User{Name: "홍길동", Department: "의약품안전국"}

func newTestApp(t *testing.T) (*App, *gatewaytest.Server) {
	t.Helper()
	srv := gatewaytest.New(t)
	client, err := gateway.NewClient(gateway.Options{BaseURL: srv.URL()})
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	n := NewNotifier()
	c := Components{
		Chat:      chat.NewSession(chat.Options{Asker: client, User: testUser, Logger: logger, OnChange: n.Notify}),
		Catalog:   catalog.New(catalog.Options{Source: client, DownloadDir: t.TempDir(), Logger: logger, OnChange: n.Notify}),
		Viewer:    catalog.NewViewer(catalog.ViewerOptions{Source: client, Logger: logger, OnChange: n.Notify}),
		Upload:    upload.NewTask(upload.Options{Uploader: client, User: testUser, Logger: logger, OnChange: n.Notify}),
		Stats:     stats.NewAggregator(stats.Options{Fetcher: client, Logger: logger, OnChange: n.Notify}),
		Notifier:  n,
		User:      testUser,
		ExportDir: t.TempDir(),
		Logger:    logger,
	}
	t.Cleanup(func() {
		c.Chat.Close()
		c.Catalog.Close()
		c.Viewer.Close()
		c.Upload.Close()
		c.Stats.Close()
	})

	app := NewApp(c)
	app.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return app, srv
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(app *App, s string) {
	for _, r := range s {
		app.Update(runes(string(r)))
	}
}

func press(app *App, t tea.KeyType) {
	app.Update(tea.KeyMsg{Type: t})
}

func TestNotifierCollapsesBursts(t *testing.T) {
	n := NewNotifier()
	n.Notify()
	n.Notify()
	n.Notify()
	assert.Len(t, n.ch, 1)

	msg := n.Wait()()
	assert.IsType(t, ChangeMsg{}, msg)
	assert.Len(t, n.ch, 0)
}

func TestViewBeforeReady(t *testing.T) {
	app, _ := newTestApp(t)
	app.ready = false
	assert.Contains(t, app.View(), "시작하는 중")
}

func TestViewRendersPanes(t *testing.T) {
	app, _ := newTestApp(t)
	out := app.View()
	assert.Contains(t, out, appTitle)
	assert.Contains(t, out, "AI 어시스턴트")
	assert.Contains(t, out, testUser.Name)
	assert.Contains(t, out, "F1 문서")
}

func TestTabKeysSwitchTabAndFocus(t *testing.T) {
	app, _ := newTestApp(t)
	assert.Equal(t, FocusChat, app.focus)

	press(app, tea.KeyF2)
	assert.Equal(t, TabUpload, app.activeTab)
	assert.Equal(t, FocusMain, app.focus)

	press(app, tea.KeyTab)
	assert.Equal(t, FocusChat, app.focus)

	press(app, tea.KeyShiftTab)
	assert.Equal(t, TabStatistics, app.activeTab)
	app.c.Stats.Wait()
	assert.NotNil(t, app.c.Stats.Snapshot().Snapshot)
}

func TestChatEnterSubmitsAndClearsInput(t *testing.T) {
	app, srv := newTestApp(t)

	typeText(app, "안녕하세요")
	press(app, tea.KeyEnter)
	assert.Empty(t, app.input.Value())

	require.Eventually(t, func() bool {
		return len(app.c.Chat.Snapshot().Messages) == 2
	}, 2*time.Second, 10*time.Millisecond)

	msgs := app.c.Chat.Snapshot().Messages
	assert.Equal(t, "안녕하세요", msgs[0].Text)
	assert.Equal(t, "echo: 안녕하세요", msgs[1].Text)
	require.Len(t, srv.Queries(), 1)
	assert.Equal(t, testUser.Name, srv.Queries()[0].UserName)
}

func TestChatBlankEnterIsIgnored(t *testing.T) {
	app, srv := newTestApp(t)

	typeText(app, "   ")
	press(app, tea.KeyEnter)

	assert.Empty(t, app.c.Chat.Snapshot().Messages)
	assert.Equal(t, "   ", app.input.Value())
	assert.Empty(t, srv.Queries())
}

func TestStrategyCycles(t *testing.T) {
	app, _ := newTestApp(t)
	press(app, tea.KeyCtrlP)
	assert.Equal(t, models.PromptStructured, app.c.Chat.Snapshot().Strategy)
}

func TestSelectDocumentOpensViewer(t *testing.T) {
	app, srv := newTestApp(t)
	id := srv.AddDocument(models.DocumentSummary{
		OriginalFileName: "vaccine-report.pdf",
		Status:           models.DocProcessing,
		UploadedBy:       testUser.Name,
	}, nil)

	press(app, tea.KeyF1)
	app.c.Catalog.Wait()
	app.Update(ChangeMsg{})
	require.Len(t, app.c.Catalog.Snapshot().Items, 1)

	press(app, tea.KeyEnter)
	st := app.c.Catalog.Snapshot()
	require.NotNil(t, st.SelectedID)
	assert.Equal(t, id, *st.SelectedID)

	app.c.Viewer.Wait()
	view := app.c.Viewer.Snapshot()
	assert.Equal(t, catalog.ViewProcessing, view.State)

	app.Update(ChangeMsg{})
	assert.Contains(t, app.View(), "문서 처리 중입니다")
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	app, srv := newTestApp(t)
	srv.AddDocument(models.DocumentSummary{OriginalFileName: "a.pdf", Status: models.DocCompleted}, nil)

	press(app, tea.KeyF1)
	app.c.Catalog.Wait()

	app.Update(runes("x"))
	require.NotNil(t, app.confirm)
	assert.Contains(t, app.View(), "삭제하시겠습니까")

	app.Update(runes("n"))
	assert.Nil(t, app.confirm)
	app.c.Catalog.Wait()
	assert.Len(t, app.c.Catalog.Snapshot().Items, 1)

	app.Update(runes("x"))
	app.Update(runes("y"))
	assert.Nil(t, app.confirm)
	app.c.Catalog.Wait()
	assert.Empty(t, app.c.Catalog.Snapshot().Items)
}

func TestSearchKeyRunsSearch(t *testing.T) {
	app, srv := newTestApp(t)
	srv.AddDocument(models.DocumentSummary{OriginalFileName: "clinical-trial.pdf", Status: models.DocCompleted}, nil)
	srv.AddDocument(models.DocumentSummary{OriginalFileName: "label.pdf", Status: models.DocCompleted}, nil)

	press(app, tea.KeyF1)
	app.Update(runes("/"))
	require.True(t, app.searching)
	typeText(app, "clinical")
	press(app, tea.KeyEnter)
	app.c.Catalog.Wait()

	st := app.c.Catalog.Snapshot()
	assert.Equal(t, catalog.ModeSearch, st.Mode)
	assert.Equal(t, "clinical", st.Keyword)
	require.Len(t, st.Items, 1)

	press(app, tea.KeyEsc)
	app.c.Catalog.Wait()
	assert.Equal(t, catalog.ModeList, app.c.Catalog.Snapshot().Mode)
}

func TestUploadFormFeedsTask(t *testing.T) {
	app, _ := newTestApp(t)
	press(app, tea.KeyF2)

	assert.Equal(t, testUser.Name, app.fields[fieldUploader].Value())

	press(app, tea.KeyDown)
	press(app, tea.KeyDown)
	require.Equal(t, fieldDescription, app.field)
	typeText(app, "허가 자료")
	assert.Equal(t, "허가 자료", app.c.Upload.Snapshot().Description)

	press(app, tea.KeyCtrlS)
	snap := app.c.Upload.Snapshot()
	assert.Equal(t, upload.StateEmpty, snap.State)
	require.NotNil(t, snap.Alert)
	assert.Equal(t, upload.MsgNoFile, snap.Alert.Message)

	press(app, tea.KeyCtrlR)
	app.Update(ChangeMsg{})
	assert.Empty(t, app.fields[fieldDescription].Value())
	assert.Equal(t, testUser.Name, app.fields[fieldUploader].Value())
}

func TestUploadRejectsMissingPath(t *testing.T) {
	app, _ := newTestApp(t)
	press(app, tea.KeyF2)

	typeText(app, "/does/not/exist.pdf")
	press(app, tea.KeyEnter)

	snap := app.c.Upload.Snapshot()
	assert.Nil(t, snap.File)
	require.NotNil(t, snap.Alert)
	assert.Equal(t, upload.AlertError, snap.Alert.Type)
	assert.Equal(t, fieldUploader, app.field)
}

func TestTruncateAndPad(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab..", truncate("abcdef", 4))
	assert.Equal(t, "가..", truncate("가나다", 5))
	assert.Equal(t, "ab   ", pad("ab", 5))
	assert.Equal(t, "가나 ", pad("가나", 5))
}

func TestDocBadgeLabels(t *testing.T) {
	app, _ := newTestApp(t)
	assert.Contains(t, app.docBadge(models.DocCompleted), "완료")
	assert.Contains(t, app.docBadge(models.DocFailed), "실패")
	assert.Contains(t, app.docBadge(models.DocStatus("ARCHIVED")), "ARCHIVED")
}
