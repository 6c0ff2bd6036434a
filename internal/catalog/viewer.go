package catalog

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/hong9883/ai-drug-approval-test/internal/gateway"
	"github.com/hong9883/ai-drug-approval-test/internal/models"
	"github.com/hong9883/ai-drug-approval-test/internal/pdftext"
)

const (
	MinZoom     = 50
	MaxZoom     = 200
	ZoomStep    = 10
	DefaultZoom = 100

	MsgNoSelection  = "문서를 선택해주세요"
	MsgNotFound     = "문서를 찾을 수 없습니다."
	MsgUnavailable  = "문서를 불러올 수 없습니다."
	MsgNoPreview    = "미리보기를 사용할 수 없습니다."
	processingLabel = "문서 처리 중입니다... 상태: %s"
)

type ViewState string

const (
	ViewEmpty       ViewState = "EMPTY"
	ViewLoading     ViewState = "LOADING"
	ViewReady       ViewState = "READY"
	ViewProcessing  ViewState = "PROCESSING"
	ViewUnavailable ViewState = "UNAVAILABLE"
)

// View is a point-in-time copy of the viewer.
type View struct {
	State    ViewState
	Document *models.DocumentSummary
	// Pages is nil until the content of a COMPLETED document has been loaded.
	Pages     []string
	Page      int
	PageCount int
	Zoom      int
	// Message explains an empty, processing or unavailable view.
	Message string
}

// PageText returns the text of the current page, or "" when there is none.
func (v View) PageText() string {
	if v.Page < 1 || v.Page > len(v.Pages) {
		return ""
	}
	return v.Pages[v.Page-1]
}

type ViewerOptions struct {
	Source   Source
	Logger   logrus.FieldLogger
	OnChange func()
	// CacheTTL bounds how long extracted page text is kept. Defaults to 30 minutes.
	CacheTTL time.Duration
}

// Viewer shows one document at a time. Opening another document cancels the
// previous load; page and zoom changes are local and never hit the backend.
type Viewer struct {
	source   Source
	log      logrus.FieldLogger
	onChange func()
	content  *cache.Cache

	life     context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu      sync.Mutex
	docID   int64
	doc     *models.DocumentSummary
	state   ViewState
	pages   []string
	page    int
	zoom    int
	message string

	token  uint64
	cancel context.CancelFunc
}

func NewViewer(opts ViewerOptions) *Viewer {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	life, shutdown := context.WithCancel(context.Background())
	return &Viewer{
		source:   opts.Source,
		log:      log.WithField("component", "viewer"),
		onChange: opts.OnChange,
		content:  cache.New(ttl, 10*time.Minute),
		life:     life,
		shutdown: shutdown,
		state:    ViewEmpty,
		zoom:     DefaultZoom,
		message:  MsgNoSelection,
	}
}

// Open loads the detail of document id and, once it is COMPLETED, its page text.
func (v *Viewer) Open(id int64) {
	v.mu.Lock()
	if v.life.Err() != nil {
		v.mu.Unlock()
		return
	}
	if v.cancel != nil {
		v.cancel()
	}
	v.token++
	token := v.token
	ctx, cancel := context.WithCancel(v.life)
	v.cancel = cancel
	v.docID = id
	v.doc = nil
	v.pages = nil
	v.page = 1
	v.state = ViewLoading
	v.message = ""
	v.wg.Add(1)
	v.mu.Unlock()

	v.notify()
	go v.load(ctx, token, id)
}

func (v *Viewer) load(ctx context.Context, token uint64, id int64) {
	defer v.wg.Done()

	doc, err := v.source.GetDocument(ctx, id)
	if err != nil {
		msg := MsgUnavailable
		if gateway.IsNotFound(err) {
			msg = MsgNotFound
		}
		v.apply(token, func() {
			v.state = ViewUnavailable
			v.message = gateway.UserMessage(err, msg)
		})
		v.log.WithError(err).WithField("document_id", id).Warn("document detail unavailable")
		return
	}

	if ctx.Err() != nil {
		return
	}

	if doc.Status != models.DocCompleted {
		v.apply(token, func() {
			v.doc = doc
			v.state = ViewProcessing
			v.message = fmt.Sprintf(processingLabel, doc.Status)
		})
		return
	}

	pages, err := v.pagesFor(ctx, doc)
	v.apply(token, func() {
		v.doc = doc
		v.state = ViewReady
		v.pages = pages
		if err != nil {
			v.message = MsgNoPreview
		}
	})
	if err != nil && ctx.Err() == nil {
		v.log.WithError(err).WithField("document_id", id).Warn("document preview unavailable")
	}
}

func (v *Viewer) pagesFor(ctx context.Context, doc *models.DocumentSummary) ([]string, error) {
	key := contentKey(doc)
	if cached, ok := v.content.Get(key); ok {
		return cached.([]string), nil
	}

	data, err := v.source.DownloadDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	extracted, err := pdftext.Extract(data)
	if err != nil {
		return nil, err
	}
	v.content.Set(key, extracted.Pages, cache.DefaultExpiration)
	return extracted.Pages, nil
}

// A re-uploaded document gets a new updatedAt, which invalidates its entry.
func contentKey(doc *models.DocumentSummary) string {
	return strconv.FormatInt(doc.ID, 10) + "@" + strconv.FormatInt(doc.UpdatedAt.Unix(), 10)
}

func (v *Viewer) apply(token uint64, fn func()) {
	v.mu.Lock()
	if v.life.Err() != nil || token != v.token {
		v.mu.Unlock()
		return
	}
	v.cancel = nil
	fn()
	v.page = clamp(v.page, 1, v.pageCountLocked())
	v.mu.Unlock()
	v.notify()
}

func (v *Viewer) pageCountLocked() int {
	if v.doc != nil && v.doc.PageCount > 0 {
		return v.doc.PageCount
	}
	if len(v.pages) > 0 {
		return len(v.pages)
	}
	return 1
}

// SetPage moves to page n, clamped to [1, page count].
func (v *Viewer) SetPage(n int) {
	v.mu.Lock()
	v.page = clamp(n, 1, v.pageCountLocked())
	v.mu.Unlock()
	v.notify()
}

func (v *Viewer) NextPage() {
	v.mu.Lock()
	n := v.page + 1
	v.mu.Unlock()
	v.SetPage(n)
}

func (v *Viewer) PrevPage() {
	v.mu.Lock()
	n := v.page - 1
	v.mu.Unlock()
	v.SetPage(n)
}

func (v *Viewer) ZoomIn() {
	v.setZoom(ZoomStep)
}

func (v *Viewer) ZoomOut() {
	v.setZoom(-ZoomStep)
}

func (v *Viewer) setZoom(delta int) {
	v.mu.Lock()
	v.zoom = clamp(v.zoom+delta, MinZoom, MaxZoom)
	v.mu.Unlock()
	v.notify()
}

// DocumentID returns the id last passed to Open, or 0.
func (v *Viewer) DocumentID() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.docID
}

// Snapshot returns a copy of the current view.
func (v *Viewer) Snapshot() View {
	v.mu.Lock()
	defer v.mu.Unlock()
	view := View{
		State:     v.state,
		Pages:     v.pages,
		Page:      v.page,
		PageCount: v.pageCountLocked(),
		Zoom:      v.zoom,
		Message:   v.message,
	}
	if v.state == ViewEmpty {
		view.Page = 0
		view.PageCount = 0
	}
	if v.doc != nil {
		d := *v.doc
		view.Document = &d
	}
	return view
}

// Wait blocks until every load started so far has finished.
func (v *Viewer) Wait() {
	v.wg.Wait()
}

// Close cancels the current load; its result is dropped.
func (v *Viewer) Close() {
	v.mu.Lock()
	v.shutdown()
	v.mu.Unlock()
	v.wg.Wait()
}

func (v *Viewer) notify() {
	if v.onChange != nil {
		v.onChange()
	}
}

func clamp(n, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(n, hi))
}
