package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/hong9883/ai-drug-approval-test/internal/catalog"
	"github.com/hong9883/ai-drug-approval-test/internal/chat"
	"github.com/hong9883/ai-drug-approval-test/internal/models"
	"github.com/hong9883/ai-drug-approval-test/internal/stats"
	"github.com/hong9883/ai-drug-approval-test/internal/upload"
)

const (
	MsgDownloadFailed = "문서 다운로드에 실패했습니다."
	MsgExportFailed   = "통계 내보내기에 실패했습니다."
)

// Upload form fields
const (
	fieldPath = iota
	fieldUploader
	fieldDescription
	fieldCount
)

// Components are the long-lived pieces the shell drives. Each one must be
// constructed with Notifier.Notify as its OnChange.
type Components struct {
	Chat     *chat.Session
	Catalog  *catalog.Catalog
	Viewer   *catalog.Viewer
	Upload   *upload.Task
	Stats    *stats.Aggregator
	Notifier *Notifier

	User       models.User
	BackendURL string
	// ExportDir receives statistics workbooks.
	ExportDir string
	Version   string
	Logger    logrus.FieldLogger
}

// App is the main TUI application model
type App struct {
	c     Components
	log   logrus.FieldLogger
	theme *Theme
	keys  KeyMap
	help  help.Model

	width    int
	height   int
	ready    bool
	quitting bool

	focus     Focus
	activeTab TabIndex
	showHelp  bool

	// Chat pane
	input      textarea.Model
	transcript viewport.Model
	shownMsgs  int

	// Documents tab
	search    textinput.Model
	searching bool
	cursor    int
	viewer    viewport.Model
	viewerKey string
	confirm   *models.DocumentSummary

	// Upload tab
	fields     []textinput.Model
	field      int
	progress   progress.Model
	lastUpload upload.State
	hadFile    bool

	spinner spinner.Model

	toast       string
	toastErr    bool
	toastExpiry time.Time
}

// NewApp creates a new TUI application
func NewApp(c Components) *App {
	log := c.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	if c.Notifier == nil {
		c.Notifier = NewNotifier()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = DefaultTheme.Spinner

	ta := textarea.New()
	ta.Placeholder = "질문을 입력하세요..."
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "
	ta.CharLimit = 4000
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	search := textinput.New()
	search.Placeholder = "문서 검색..."
	search.Prompt = "/ "
	search.CharLimit = 100

	fields := make([]textinput.Model, fieldCount)

	fields[fieldPath] = textinput.New()
	fields[fieldPath].Placeholder = "/path/to/document.pdf"
	fields[fieldPath].CharLimit = 1024
	fields[fieldPath].Prompt = ""

	fields[fieldUploader] = textinput.New()
	fields[fieldUploader].Placeholder = "업로드자 이름"
	fields[fieldUploader].CharLimit = 50
	fields[fieldUploader].Prompt = ""

	fields[fieldDescription] = textinput.New()
	fields[fieldDescription].Placeholder = "문서에 대한 설명을 입력하세요 (선택사항)"
	fields[fieldDescription].CharLimit = 500
	fields[fieldDescription].Prompt = ""

	snap := c.Upload.Snapshot()
	fields[fieldUploader].SetValue(snap.Uploader)

	return &App{
		c:          c,
		log:        log.WithField("component", "tui"),
		theme:      DefaultTheme,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		focus:      FocusChat,
		activeTab:  TabDocuments,
		input:      ta,
		transcript: viewport.New(40, 10),
		search:     search,
		viewer:     viewport.New(40, 10),
		fields:     fields,
		progress:   progress.New(progress.WithGradient(string(ColorAccent), string(ColorAccentAlt))),
		lastUpload: snap.State,
		spinner:    s,
	}
}

func (a *App) Init() tea.Cmd {
	a.c.Catalog.Refresh()
	return tea.Batch(a.spinner.Tick, textarea.Blink, a.c.Notifier.Wait())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.ready = true
		a.layout()
		a.sync()
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case ChangeMsg:
		a.sync()
		return a, a.c.Notifier.Wait()

	case DownloadResultMsg:
		if msg.Err != nil {
			a.setToast(MsgDownloadFailed, true)
		} else {
			a.setToast("✓ 다운로드 완료: "+msg.Path, false)
		}

	case ExportResultMsg:
		if msg.Err != nil {
			a.log.WithError(msg.Err).Error("Error exporting statistics")
			a.setToast(MsgExportFailed, true)
		} else {
			a.setToast("✓ 내보내기 완료: "+msg.Path, false)
		}
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.ForceQuit) {
		a.quitting = true
		return a, tea.Quit
	}

	if a.confirm != nil {
		switch {
		case key.Matches(msg, a.keys.Confirm):
			a.c.Catalog.Delete(a.confirm.ID)
			a.setToast("문서를 삭제하고 있습니다...", false)
			a.confirm = nil
		case key.Matches(msg, a.keys.Deny):
			a.confirm = nil
		}
		return a, nil
	}

	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keys.SwitchPane):
		return a, a.setFocus(1 - a.focus)
	case key.Matches(msg, a.keys.NextTab):
		return a, a.setTab((a.activeTab + 1) % TabCount)
	case key.Matches(msg, a.keys.Tab1):
		return a, a.setTab(TabDocuments)
	case key.Matches(msg, a.keys.Tab2):
		return a, a.setTab(TabUpload)
	case key.Matches(msg, a.keys.Tab3):
		return a, a.setTab(TabStatistics)
	case key.Matches(msg, a.keys.Help):
		a.showHelp = true
		a.help.ShowAll = true
		return a, nil
	}

	if a.focus == FocusChat {
		return a.handleChatKey(msg)
	}
	switch a.activeTab {
	case TabDocuments:
		return a.handleDocumentsKey(msg)
	case TabUpload:
		return a.handleUploadKey(msg)
	case TabStatistics:
		return a.handleStatisticsKey(msg)
	}
	return a, nil
}

func (a *App) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Send):
		if a.c.Chat.Submit(a.input.Value()) {
			a.input.Reset()
		}
		return a, nil
	case key.Matches(msg, a.keys.Strategy):
		st := a.c.Chat.Snapshot()
		a.c.Chat.SelectStrategy(st.Strategy.Next())
		return a, nil
	case key.Matches(msg, a.keys.ScrollUp, a.keys.ScrollDown):
		var cmd tea.Cmd
		a.transcript, cmd = a.transcript.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleDocumentsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.searching {
		switch msg.Type {
		case tea.KeyEnter:
			a.searching = false
			a.search.Blur()
			a.cursor = 0
			a.c.Catalog.Search(a.search.Value())
			return a, nil
		case tea.KeyEsc:
			a.searching = false
			a.search.Blur()
			return a, nil
		}
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		return a, cmd
	}

	items := a.c.Catalog.Snapshot().Items

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.quitting = true
		return a, tea.Quit
	case key.Matches(msg, a.keys.Search):
		a.searching = true
		return a, a.search.Focus()
	case key.Matches(msg, a.keys.Cancel):
		if a.search.Value() != "" {
			a.search.SetValue("")
			a.cursor = 0
			a.c.Catalog.Refresh()
		}
	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(items)-1 {
			a.cursor++
		}
	case key.Matches(msg, a.keys.Enter):
		if a.cursor < len(items) {
			id := items[a.cursor].ID
			if err := a.c.Catalog.Select(id); err == nil {
				a.c.Viewer.Open(id)
			}
		}
	case key.Matches(msg, a.keys.Refresh):
		a.c.Catalog.Reload()
	case key.Matches(msg, a.keys.Download):
		if a.cursor < len(items) {
			return a, a.download(items[a.cursor].ID)
		}
	case key.Matches(msg, a.keys.Delete):
		if a.cursor < len(items) {
			doc := items[a.cursor]
			a.confirm = &doc
		}
	case key.Matches(msg, a.keys.PrevPage):
		a.c.Viewer.PrevPage()
	case key.Matches(msg, a.keys.NextPage):
		a.c.Viewer.NextPage()
	case key.Matches(msg, a.keys.ZoomIn):
		a.c.Viewer.ZoomIn()
	case key.Matches(msg, a.keys.ZoomOut):
		a.c.Viewer.ZoomOut()
	case key.Matches(msg, a.keys.ScrollUp, a.keys.ScrollDown):
		var cmd tea.Cmd
		a.viewer, cmd = a.viewer.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Submit):
		a.pushUploadFields()
		_ = a.c.Upload.Submit()
		return a, nil
	case key.Matches(msg, a.keys.Reset):
		a.c.Upload.Reset()
		a.fields[fieldPath].SetValue("")
		a.fields[fieldDescription].SetValue("")
		return a, nil
	case key.Matches(msg, a.keys.Remove):
		if a.c.Upload.Remove() {
			a.fields[fieldPath].SetValue("")
		}
		return a, nil
	case msg.Type == tea.KeyUp:
		return a, a.focusField((a.field + fieldCount - 1) % fieldCount)
	case msg.Type == tea.KeyDown:
		return a, a.focusField((a.field + 1) % fieldCount)
	case msg.Type == tea.KeyEnter:
		if a.field == fieldPath {
			path := strings.TrimSpace(a.fields[fieldPath].Value())
			if path != "" {
				if err := a.c.Upload.SelectPath(path); err != nil {
					a.log.WithError(err).WithField("path", path).Debug("file not selected")
				}
			}
		}
		return a, a.focusField((a.field + 1) % fieldCount)
	}

	var cmd tea.Cmd
	a.fields[a.field], cmd = a.fields[a.field].Update(msg)
	a.pushUploadFields()
	return a, cmd
}

func (a *App) handleStatisticsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.quitting = true
		return a, tea.Quit
	case key.Matches(msg, a.keys.Refresh):
		a.c.Stats.Load()
	case key.Matches(msg, a.keys.Export):
		if snap := a.c.Stats.Snapshot().Snapshot; snap != nil {
			return a, a.export(snap)
		}
		a.setToast(MsgExportFailed, true)
	}
	return a, nil
}

// pushUploadFields copies the form values the task owns into it.
func (a *App) pushUploadFields() {
	snap := a.c.Upload.Snapshot()
	if v := a.fields[fieldUploader].Value(); v != snap.Uploader {
		a.c.Upload.SetUploader(v)
	}
	if v := a.fields[fieldDescription].Value(); v != snap.Description {
		a.c.Upload.SetDescription(v)
	}
}

func (a *App) setFocus(f Focus) tea.Cmd {
	a.focus = f
	a.input.Blur()
	a.search.Blur()
	a.searching = false
	for i := range a.fields {
		a.fields[i].Blur()
	}
	if f == FocusChat {
		return a.input.Focus()
	}
	if a.activeTab == TabUpload {
		return a.fields[a.field].Focus()
	}
	return nil
}

func (a *App) setTab(t TabIndex) tea.Cmd {
	a.activeTab = t
	if t == TabStatistics {
		a.c.Stats.Load()
	}
	if t == TabDocuments {
		a.c.Catalog.Reload()
	}
	return a.setFocus(FocusMain)
}

func (a *App) focusField(i int) tea.Cmd {
	a.fields[a.field].Blur()
	a.field = i
	return a.fields[i].Focus()
}

func (a *App) download(id int64) tea.Cmd {
	dl := a.c.Catalog
	return func() tea.Msg {
		path, err := dl.Download(context.Background(), id)
		return DownloadResultMsg{Path: path, Err: err}
	}
}

func (a *App) export(snap *models.StatisticsSnapshot) tea.Cmd {
	path := filepath.Join(a.c.ExportDir, "statistics_"+time.Now().Format("20060102_150405")+".xlsx")
	return func() tea.Msg {
		return ExportResultMsg{Path: path, Err: stats.Export(snap, path)}
	}
}

func (a *App) setToast(msg string, isErr bool) {
	a.toast = msg
	a.toastErr = isErr
	a.toastExpiry = time.Now().Add(3 * time.Second)
}

// sync pulls fresh snapshots out of the components into the widgets that
// cache rendered content.
func (a *App) sync() {
	st := a.c.Chat.Snapshot()
	a.transcript.SetContent(a.renderTranscript(st))
	if len(st.Messages) != a.shownMsgs || st.Pending {
		a.transcript.GotoBottom()
	}
	a.shownMsgs = len(st.Messages)

	items := a.c.Catalog.Snapshot().Items
	if a.cursor >= len(items) {
		a.cursor = max(len(items)-1, 0)
	}

	view := a.c.Viewer.Snapshot()
	a.viewer.SetContent(a.renderPage(view))
	if k := viewKey(view); k != a.viewerKey {
		a.viewerKey = k
		a.viewer.GotoTop()
	}

	snap := a.c.Upload.Snapshot()
	if a.fields[fieldUploader].Value() != snap.Uploader {
		a.fields[fieldUploader].SetValue(snap.Uploader)
	}
	if a.fields[fieldDescription].Value() != snap.Description {
		a.fields[fieldDescription].SetValue(snap.Description)
	}
	if a.hadFile && snap.File == nil {
		a.fields[fieldPath].SetValue("")
	}
	a.hadFile = snap.File != nil
	if snap.State == upload.StateSucceeded && a.lastUpload != upload.StateSucceeded {
		a.c.Catalog.Reload()
	}
	a.lastUpload = snap.State
}

func viewKey(v catalog.View) string {
	var id int64
	if v.Document != nil {
		id = v.Document.ID
	}
	return fmt.Sprintf("%s/%d/%d/%d", v.State, id, v.Page, v.Zoom)
}

// layout sizes the widgets to the window.
func (a *App) layout() {
	chatW, mainW, bodyH := a.paneSizes()

	innerChat := chatW - 4
	a.input.SetWidth(innerChat)
	a.transcript.Width = innerChat
	a.transcript.Height = max(bodyH-2-7, 3)

	innerMain := mainW - 4
	contentH := bodyH - 2 - 2
	a.search.Width = innerMain - 4
	listH := contentH / 2
	a.viewer.Width = innerMain
	a.viewer.Height = max(contentH-listH-3, 3)

	for i := range a.fields {
		a.fields[i].Width = max(innerMain-16, 10)
	}
	a.progress.Width = max(innerMain-8, 10)
	a.help.Width = a.width
}

func (a *App) paneSizes() (chatW, mainW, bodyH int) {
	w, h := max(a.width, 60), max(a.height, 16)
	chatW = max(w*2/5, 30)
	mainW = w - chatW
	bodyH = h - 2
	return chatW, mainW, bodyH
}

// Run starts the TUI and blocks until the user quits.
func Run(c Components) error {
	app := NewApp(c)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
