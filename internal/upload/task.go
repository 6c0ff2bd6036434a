// Package upload drives the lifecycle of the single document upload a
// reviewer can have open at a time.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/hong9883/ai-drug-approval-test/internal/gateway"
	"github.com/hong9883/ai-drug-approval-test/internal/models"
)

const (
	MsgPDFOnly        = "PDF 파일만 업로드 가능합니다."
	MsgTooLarge       = "파일 크기는 100MB를 초과할 수 없습니다."
	MsgNoFile         = "파일을 선택해주세요."
	MsgNoUploader     = "업로드자 이름을 입력해주세요."
	MsgSucceeded      = "문서가 성공적으로 업로드되었습니다. 벡터DB 및 메타데이터 등록이 진행됩니다."
	MsgFailed         = "문서 업로드 중 오류가 발생했습니다."
	MsgUnreadableFile = "파일을 읽을 수 없습니다."
)

const (
	TickInterval = 200 * time.Millisecond
	TickStep     = 10
	MaxSimulated = 90
	ResetDelay   = 3 * time.Second
	progressDone = 100
)

var (
	// ErrValidation wraps every local rejection; the alert carries the text.
	ErrValidation = errors.New("upload validation failed")
	// ErrBusy is returned when the file is changed while a submission is in flight.
	ErrBusy = errors.New("upload in progress")
)

type State string

const (
	StateEmpty        State = "EMPTY"
	StateFileSelected State = "FILE_SELECTED"
	StateSubmitting   State = "SUBMITTING"
	StateSucceeded    State = "SUCCEEDED"
	StateFailed       State = "FAILED"
)

type AlertType string

const (
	AlertError   AlertType = "error"
	AlertSuccess AlertType = "success"
	AlertInfo    AlertType = "info"
)

type Alert struct {
	Type    AlertType
	Message string
}

// Uploader is the part of the gateway a task needs.
type Uploader interface {
	Upload(ctx context.Context, req gateway.UploadRequest) (*models.DocumentSummary, error)
}

type Options struct {
	Uploader Uploader
	// User seeds the uploader field.
	User   models.User
	Clock  clockwork.Clock
	Logger logrus.FieldLogger
	// Open reads the selected file at submit time. Defaults to os.Open.
	Open     func(path string) (io.ReadCloser, error)
	OnChange func()
}

// Snapshot is a point-in-time copy of the task.
type Snapshot struct {
	File        *models.LocalFile
	Uploader    string
	Description string
	State       State
	Progress    int
	Alert       *Alert
	// Document is the backend record of the last successful upload.
	Document *models.DocumentSummary
}

// Task is safe for concurrent use.
type Task struct {
	uploader Uploader
	clock    clockwork.Clock
	log      logrus.FieldLogger
	open     func(path string) (io.ReadCloser, error)
	onChange func()

	life     context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu          sync.Mutex
	file        *models.LocalFile
	uploaderFld string
	description string
	state       State
	progress    int
	alert       *Alert
	document    *models.DocumentSummary

	token      uint64
	cancelReq  context.CancelFunc
	cancelTick context.CancelFunc
	resetTimer clockwork.Timer
}

func NewTask(opts Options) *Task {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	open := opts.Open
	if open == nil {
		open = func(path string) (io.ReadCloser, error) { return os.Open(path) }
	}
	life, shutdown := context.WithCancel(context.Background())
	return &Task{
		uploader:    opts.Uploader,
		clock:       clock,
		log:         log.WithField("component", "upload"),
		open:        open,
		onChange:    opts.OnChange,
		life:        life,
		shutdown:    shutdown,
		uploaderFld: opts.User.Name,
		state:       StateEmpty,
	}
}

// Select validates file and makes it the file to upload. On a validation
// failure the error alert is set and the previously selected file is kept.
func (t *Task) Select(file models.LocalFile) error {
	t.mu.Lock()
	if t.state == StateSubmitting {
		t.mu.Unlock()
		return ErrBusy
	}

	if msg := validate(file); msg != "" {
		t.rejectLocked(msg)
		t.mu.Unlock()
		t.log.WithFields(logrus.Fields{"file": file.Name, "size": file.SizeBytes, "mime": file.MimeType}).Info("file rejected")
		t.notify()
		return fmt.Errorf("%w: %s", ErrValidation, msg)
	}

	t.stopResetLocked()
	f := file
	t.file = &f
	t.alert = nil
	t.progress = 0
	t.document = nil
	t.state = StateFileSelected
	t.mu.Unlock()

	t.notify()
	return nil
}

// SelectPath inspects the file at path and selects it.
func (t *Task) SelectPath(path string) error {
	file, err := Inspect(path)
	if err != nil {
		t.mu.Lock()
		busy := t.state == StateSubmitting
		if !busy {
			t.rejectLocked(MsgUnreadableFile)
		}
		t.mu.Unlock()
		if busy {
			return ErrBusy
		}
		t.notify()
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return t.Select(file)
}

func (t *Task) SetUploader(name string) {
	t.mu.Lock()
	t.uploaderFld = name
	t.mu.Unlock()
	t.notify()
}

func (t *Task) SetDescription(desc string) {
	t.mu.Lock()
	t.description = desc
	t.mu.Unlock()
	t.notify()
}

// Submit starts the upload of the selected file. It is a no-op while a
// submission is running or its success is being shown; from FAILED it
// resubmits the same file.
func (t *Task) Submit() error {
	t.mu.Lock()
	if t.life.Err() != nil || t.state == StateSubmitting || t.state == StateSucceeded {
		t.mu.Unlock()
		return nil
	}

	var msg string
	switch {
	case t.file == nil:
		msg = MsgNoFile
	case strings.TrimSpace(t.uploaderFld) == "":
		msg = MsgNoUploader
	}
	if msg != "" {
		t.alert = &Alert{Type: AlertError, Message: msg}
		t.mu.Unlock()
		t.notify()
		return fmt.Errorf("%w: %s", ErrValidation, msg)
	}

	t.state = StateSubmitting
	t.progress = 0
	t.alert = nil
	t.document = nil
	t.token++
	token := t.token

	reqCtx, cancelReq := context.WithCancel(t.life)
	tickCtx, cancelTick := context.WithCancel(reqCtx)
	t.cancelReq = cancelReq
	t.cancelTick = cancelTick
	// Created here so the ticker exists before Submit returns.
	ticker := t.clock.NewTicker(TickInterval)

	file := *t.file
	req := gateway.UploadRequest{
		FileName:    file.Name,
		UploadedBy:  strings.TrimSpace(t.uploaderFld),
		Description: t.description,
	}

	t.wg.Add(2)
	t.mu.Unlock()

	t.log.WithFields(logrus.Fields{"file": file.Name, "size": file.SizeBytes, "token": token}).Info("Uploading document")
	t.notify()

	go t.tick(tickCtx, ticker)
	go t.send(reqCtx, token, file.Path, req)
	return nil
}

func (t *Task) tick(ctx context.Context, ticker clockwork.Ticker) {
	defer t.wg.Done()
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.mu.Lock()
			if ctx.Err() != nil {
				t.mu.Unlock()
				return
			}
			changed := false
			if t.progress < MaxSimulated {
				t.progress = min(t.progress+TickStep, MaxSimulated)
				changed = true
			}
			t.mu.Unlock()
			if changed {
				t.notify()
			}
		}
	}
}

func (t *Task) send(ctx context.Context, token uint64, path string, req gateway.UploadRequest) {
	defer t.wg.Done()

	var doc *models.DocumentSummary
	content, err := t.open(path)
	if err == nil {
		req.Content = content
		doc, err = t.uploader.Upload(ctx, req)
		content.Close()
	}

	t.mu.Lock()
	if t.life.Err() != nil || token != t.token {
		t.mu.Unlock()
		return
	}
	t.stopTickLocked()
	if t.cancelReq != nil {
		t.cancelReq()
		t.cancelReq = nil
	}

	if err != nil {
		t.progress = 0
		t.state = StateFailed
		t.alert = &Alert{Type: AlertError, Message: gateway.UserMessage(err, MsgFailed)}
		t.mu.Unlock()
		t.log.WithError(err).WithField("file", req.FileName).Error("Upload error")
		t.notify()
		return
	}

	t.progress = progressDone
	t.state = StateSucceeded
	t.document = doc
	t.alert = &Alert{Type: AlertSuccess, Message: MsgSucceeded}
	t.resetTimer = t.clock.AfterFunc(ResetDelay, func() { t.autoReset(token) })
	t.mu.Unlock()

	if doc != nil {
		t.log.WithFields(logrus.Fields{"document_id": doc.ID, "status": doc.Status}).Info("document uploaded")
	}
	t.notify()
}

func (t *Task) autoReset(token uint64) {
	t.mu.Lock()
	if t.life.Err() != nil || token != t.token || t.state != StateSucceeded {
		t.mu.Unlock()
		return
	}
	t.resetTimer = nil
	t.clearLocked()
	t.mu.Unlock()
	t.notify()
}

// Remove drops the selected file. Allowed from FILE_SELECTED and FAILED.
func (t *Task) Remove() bool {
	t.mu.Lock()
	if t.state != StateFileSelected && t.state != StateFailed {
		t.mu.Unlock()
		return false
	}
	t.file = nil
	t.progress = 0
	t.state = StateEmpty
	t.mu.Unlock()
	t.notify()
	return true
}

// Reset returns the task to EMPTY from any state, clearing the file,
// description, alert and progress. An in-flight upload is cancelled and its
// result ignored. The uploader field is kept.
func (t *Task) Reset() {
	t.mu.Lock()
	t.token++
	if t.cancelReq != nil {
		t.cancelReq()
		t.cancelReq = nil
	}
	t.stopTickLocked()
	t.stopResetLocked()
	t.clearLocked()
	t.mu.Unlock()
	t.notify()
}

// rejectLocked shows msg as an error alert. A rejection while the success is
// shown completes the pending auto reset first, so the alert stays visible.
func (t *Task) rejectLocked(msg string) {
	if t.state == StateSucceeded {
		t.stopResetLocked()
		t.clearLocked()
	}
	t.alert = &Alert{Type: AlertError, Message: msg}
}

func (t *Task) clearLocked() {
	t.file = nil
	t.description = ""
	t.alert = nil
	t.progress = 0
	t.document = nil
	t.state = StateEmpty
}

func (t *Task) stopTickLocked() {
	if t.cancelTick != nil {
		t.cancelTick()
		t.cancelTick = nil
	}
}

func (t *Task) stopResetLocked() {
	if t.resetTimer != nil {
		t.resetTimer.Stop()
		t.resetTimer = nil
	}
}

// Snapshot returns a copy of the current state.
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := Snapshot{
		Uploader:    t.uploaderFld,
		Description: t.description,
		State:       t.state,
		Progress:    t.progress,
	}
	if t.file != nil {
		f := *t.file
		snap.File = &f
	}
	if t.alert != nil {
		a := *t.alert
		snap.Alert = &a
	}
	if t.document != nil {
		d := *t.document
		snap.Document = &d
	}
	return snap
}

// Close cancels the ticker, the reset timer and any in-flight upload.
func (t *Task) Close() {
	t.mu.Lock()
	t.shutdown()
	t.stopTickLocked()
	t.stopResetLocked()
	t.mu.Unlock()
	t.wg.Wait()
}

func (t *Task) notify() {
	if t.onChange != nil {
		t.onChange()
	}
}
