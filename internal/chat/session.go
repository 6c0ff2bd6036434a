// Package chat holds the query session: the transcript, the active prompt
// strategy and the single in-flight question to the backend.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/hong9883/ai-drug-approval-test/internal/models"
)

// FallbackReply is appended in place of an answer when the backend call fails.
const FallbackReply = "죄송합니다. 응답을 생성하는 중 오류가 발생했습니다."

// Asker is the part of the gateway a session needs.
type Asker interface {
	Ask(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error)
}

type Options struct {
	Asker  Asker
	User   models.User
	Clock  clockwork.Clock
	Logger logrus.FieldLogger
	// OnChange is called after every state change, outside the session lock.
	OnChange func()
}

// State is a point-in-time copy of the session.
type State struct {
	Messages []models.ChatMessage
	Strategy models.PromptStrategy
	Pending  bool
}

// Session is safe for concurrent use.
type Session struct {
	asker    Asker
	user     models.User
	clock    clockwork.Clock
	log      logrus.FieldLogger
	onChange func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	messages []models.ChatMessage
	strategy models.PromptStrategy
	pending  bool
	token    uint64
	lastErr  error
}

func NewSession(opts Options) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		asker:    opts.Asker,
		user:     opts.User,
		clock:    clock,
		log:      log.WithField("component", "chat"),
		onChange: opts.OnChange,
		ctx:      ctx,
		cancel:   cancel,
		strategy: models.PromptBasic,
	}
}

// SelectStrategy changes the strategy used by the next submission. A
// request already in flight keeps the strategy it was sent with.
func (s *Session) SelectStrategy(p models.PromptStrategy) {
	s.mu.Lock()
	if s.strategy == p {
		s.mu.Unlock()
		return
	}
	s.strategy = p
	s.mu.Unlock()
	s.notify()
}

// Submit sends text as a question. It returns false, changing nothing, when
// text is blank, a question is already pending or the session is closed.
// On true the caller should clear its input.
func (s *Session) Submit(text string) bool {
	s.mu.Lock()
	if strings.TrimSpace(text) == "" || s.pending || s.ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}

	s.messages = append(s.messages, models.ChatMessage{
		ID:        uuid.NewString(),
		Text:      text,
		IsUser:    true,
		Timestamp: s.clock.Now(),
	})
	s.pending = true
	s.token++
	token := s.token
	req := models.QueryRequest{
		Question:       text,
		PromptType:     s.strategy,
		UserName:       s.user.Name,
		UserDepartment: s.user.Department,
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.notify()
	go s.ask(token, req)
	return true
}

func (s *Session) ask(token uint64, req models.QueryRequest) {
	defer s.wg.Done()

	resp, err := s.asker.Ask(s.ctx, req)

	s.mu.Lock()
	if s.ctx.Err() != nil || token != s.token {
		s.mu.Unlock()
		return
	}

	reply := models.ChatMessage{
		ID:        uuid.NewString(),
		IsUser:    false,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		reply.Text = FallbackReply
		s.lastErr = err
		s.log.WithError(err).WithField("prompt_type", req.PromptType).Error("Error sending query")
	} else {
		reply.Text = resp.Answer
		reply.Sources = resp.RelevantDocuments
		reply.ResponseTime = time.Duration(resp.ResponseTimeMs) * time.Millisecond
		s.lastErr = nil
		s.log.WithFields(logrus.Fields{
			"prompt_type":      req.PromptType,
			"response_time_ms": resp.ResponseTimeMs,
			"sources":          len(resp.RelevantDocuments),
		}).Debug("query answered")
	}
	s.messages = append(s.messages, reply)
	s.pending = false
	s.mu.Unlock()

	s.notify()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Messages: append([]models.ChatMessage(nil), s.messages...),
		Strategy: s.strategy,
		Pending:  s.pending,
	}
}

// LastErr is the error behind the most recent fallback reply, nil after a success.
func (s *Session) LastErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close cancels the pending question, if any, and waits for it to unwind.
// Its result is dropped.
func (s *Session) Close() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
