// Package catalog keeps the browsable list of registered documents, the
// current selection and the document viewer.
package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hong9883/ai-drug-approval-test/internal/gateway"
	"github.com/hong9883/ai-drug-approval-test/internal/models"
)

const (
	// PageSize is fixed; the catalog only ever shows the first page.
	PageSize = 50

	MsgListFailed   = "문서 목록을 불러오는데 실패했습니다."
	MsgSearchFailed = "문서 검색에 실패했습니다."
	MsgDeleteFailed = "문서 삭제에 실패했습니다."
)

// ErrUnknownDocument is returned by Select for an id not in the current items.
var ErrUnknownDocument = errors.New("document is not in the current list")

type Mode string

const (
	ModeList   Mode = "LIST"
	ModeSearch Mode = "SEARCH"
)

// Source is the part of the gateway the catalog and viewer need.
type Source interface {
	ListDocuments(ctx context.Context, page, size int) (*models.Page[models.DocumentSummary], error)
	SearchDocuments(ctx context.Context, keyword string, page, size int) (*models.Page[models.DocumentSummary], error)
	GetDocument(ctx context.Context, id int64) (*models.DocumentSummary, error)
	DownloadDocument(ctx context.Context, id int64) ([]byte, error)
	DeleteDocument(ctx context.Context, id int64) error
}

type Options struct {
	Source Source
	// DownloadDir receives files saved by Download.
	DownloadDir string
	Logger      logrus.FieldLogger
	OnChange    func()
}

// State is a point-in-time copy of the catalog.
type State struct {
	Mode    Mode
	Keyword string
	Items   []models.DocumentSummary
	Total   int64
	// SelectedID may refer to an item that a later refresh dropped.
	SelectedID *int64
	Loading    bool
	Err        string
}

// Selected returns the selected item if it is still in Items.
func (s State) Selected() (models.DocumentSummary, bool) {
	if s.SelectedID == nil {
		return models.DocumentSummary{}, false
	}
	for _, d := range s.Items {
		if d.ID == *s.SelectedID {
			return d, true
		}
	}
	return models.DocumentSummary{}, false
}

// Catalog is safe for concurrent use. Only the response to the most recent
// Refresh or Search is applied.
type Catalog struct {
	source      Source
	downloadDir string
	log         logrus.FieldLogger
	onChange    func()

	life     context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu       sync.Mutex
	mode     Mode
	keyword  string
	items    []models.DocumentSummary
	total    int64
	selected *int64
	loading  bool
	err      string

	token  uint64
	cancel context.CancelFunc
}

func New(opts Options) *Catalog {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	life, shutdown := context.WithCancel(context.Background())
	return &Catalog{
		source:      opts.Source,
		downloadDir: opts.DownloadDir,
		log:         log.WithField("component", "catalog"),
		onChange:    opts.OnChange,
		life:        life,
		shutdown:    shutdown,
		mode:        ModeList,
	}
}

// Refresh reloads the first page of all documents.
func (c *Catalog) Refresh() {
	c.start(ModeList, "")
}

// Search loads the first page of documents matching keyword. A blank
// keyword is the same as Refresh.
func (c *Catalog) Search(keyword string) {
	if strings.TrimSpace(keyword) == "" {
		c.Refresh()
		return
	}
	c.start(ModeSearch, keyword)
}

// Reload repeats the last completed request's mode and keyword.
func (c *Catalog) Reload() {
	c.mu.Lock()
	mode, keyword := c.mode, c.keyword
	c.mu.Unlock()
	if mode == ModeSearch {
		c.Search(keyword)
		return
	}
	c.Refresh()
}

func (c *Catalog) start(mode Mode, keyword string) {
	c.mu.Lock()
	if c.life.Err() != nil {
		c.mu.Unlock()
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.token++
	token := c.token
	ctx, cancel := context.WithCancel(c.life)
	c.cancel = cancel
	c.loading = true
	c.wg.Add(1)
	c.mu.Unlock()

	c.notify()
	go c.fetch(ctx, token, mode, keyword)
}

func (c *Catalog) fetch(ctx context.Context, token uint64, mode Mode, keyword string) {
	defer c.wg.Done()

	var page *models.Page[models.DocumentSummary]
	var err error
	if mode == ModeSearch {
		page, err = c.source.SearchDocuments(ctx, keyword, 0, PageSize)
	} else {
		page, err = c.source.ListDocuments(ctx, 0, PageSize)
	}

	c.mu.Lock()
	if c.life.Err() != nil || token != c.token {
		c.mu.Unlock()
		c.log.WithField("token", token).Debug("discarding stale document list")
		return
	}
	c.cancel = nil
	c.loading = false

	if err != nil {
		fallback := MsgListFailed
		if mode == ModeSearch {
			fallback = MsgSearchFailed
		}
		c.err = gateway.UserMessage(err, fallback)
		c.mu.Unlock()
		c.log.WithError(err).WithField("mode", mode).Error("Error fetching documents")
		c.notify()
		return
	}

	c.mode = mode
	c.keyword = keyword
	c.items = append([]models.DocumentSummary(nil), page.Content...)
	c.total = page.TotalElements
	c.err = ""
	c.mu.Unlock()
	c.notify()
}

// Select marks id as the selected document. The id must be in the current items.
func (c *Catalog) Select(id int64) error {
	c.mu.Lock()
	found := false
	for _, d := range c.items {
		if d.ID == id {
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return ErrUnknownDocument
	}
	c.selected = &id
	c.mu.Unlock()
	c.notify()
	return nil
}

// Delete removes the document on the backend and reloads the current view.
func (c *Catalog) Delete(id int64) {
	c.mu.Lock()
	if c.life.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		err := c.Remove(c.life, id)

		c.mu.Lock()
		if c.life.Err() != nil {
			c.mu.Unlock()
			return
		}
		if err != nil {
			c.err = gateway.UserMessage(err, MsgDeleteFailed)
			c.mu.Unlock()
			c.notify()
			return
		}
		c.mu.Unlock()
		c.Reload()
	}()
}

// Remove deletes id on the backend and drops the selection if it pointed
// there. Unlike Delete it blocks, leaves Err alone and does not reload.
func (c *Catalog) Remove(ctx context.Context, id int64) error {
	if err := c.source.DeleteDocument(ctx, id); err != nil {
		c.log.WithError(err).WithField("document_id", id).Error("Error deleting document")
		return err
	}

	c.mu.Lock()
	if c.selected != nil && *c.selected == id {
		c.selected = nil
	}
	c.mu.Unlock()

	c.log.WithField("document_id", id).Info("document deleted")
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Catalog) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		Mode:    c.mode,
		Keyword: c.keyword,
		Items:   append([]models.DocumentSummary(nil), c.items...),
		Total:   c.total,
		Loading: c.loading,
		Err:     c.err,
	}
	if c.selected != nil {
		id := *c.selected
		st.SelectedID = &id
	}
	return st
}

// Wait blocks until every request started so far has finished.
func (c *Catalog) Wait() {
	c.wg.Wait()
}

// Close cancels outstanding requests; their results are dropped.
func (c *Catalog) Close() {
	c.mu.Lock()
	c.shutdown()
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Catalog) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

// StatusLabel maps a document status to its display label.
func StatusLabel(status models.DocStatus) string {
	return models.StatusLabel(status)
}
