// Package stats fetches the usage statistics snapshot and reshapes it into
// chart-ready series.
package stats

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hong9883/ai-drug-approval-test/internal/gateway"
	"github.com/hong9883/ai-drug-approval-test/internal/models"
)

// MsgLoadFailed is shown when the backend gives no message of its own.
const MsgLoadFailed = "통계 데이터를 불러오는데 실패했습니다."

// Fetcher is the part of the gateway the aggregator needs.
type Fetcher interface {
	GetStatistics(ctx context.Context) (*models.StatisticsSnapshot, error)
}

type Options struct {
	Fetcher  Fetcher
	Logger   logrus.FieldLogger
	OnChange func()
}

// State is a point-in-time copy of the aggregator. At most one of Snapshot
// and Err is set once a load has finished.
type State struct {
	Snapshot *models.StatisticsSnapshot
	Loading  bool
	Err      string
}

// Aggregator holds the latest statistics snapshot. Every Load is a full
// reload; nothing is cached between loads.
type Aggregator struct {
	fetcher  Fetcher
	log      logrus.FieldLogger
	onChange func()

	life     context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu       sync.Mutex
	snapshot *models.StatisticsSnapshot
	loading  bool
	err      string
	token    uint64
	cancel   context.CancelFunc
}

func NewAggregator(opts Options) *Aggregator {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	life, shutdown := context.WithCancel(context.Background())
	return &Aggregator{
		fetcher:  opts.Fetcher,
		log:      log.WithField("component", "stats"),
		onChange: opts.OnChange,
		life:     life,
		shutdown: shutdown,
	}
}

// Load fetches a fresh snapshot, superseding any load still in flight.
func (a *Aggregator) Load() {
	a.mu.Lock()
	if a.life.Err() != nil {
		a.mu.Unlock()
		return
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.token++
	token := a.token
	ctx, cancel := context.WithCancel(a.life)
	a.cancel = cancel
	a.loading = true
	a.wg.Add(1)
	a.mu.Unlock()

	a.notify()
	go a.fetch(ctx, token)
}

func (a *Aggregator) fetch(ctx context.Context, token uint64) {
	defer a.wg.Done()

	snap, err := a.fetcher.GetStatistics(ctx)

	a.mu.Lock()
	if a.life.Err() != nil || token != a.token {
		a.mu.Unlock()
		return
	}
	a.cancel = nil
	a.loading = false
	if err != nil {
		a.snapshot = nil
		a.err = gateway.UserMessage(err, MsgLoadFailed)
		a.mu.Unlock()
		a.log.WithError(err).Error("Error fetching statistics")
		a.notify()
		return
	}
	a.snapshot = snap
	a.err = ""
	a.mu.Unlock()
	a.notify()
}

// Snapshot returns the current state. The snapshot itself is shared and
// must be treated as read-only.
func (a *Aggregator) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return State{Snapshot: a.snapshot, Loading: a.loading, Err: a.err}
}

// Wait blocks until every load started so far has finished.
func (a *Aggregator) Wait() {
	a.wg.Wait()
}

func (a *Aggregator) Close() {
	a.mu.Lock()
	a.shutdown()
	a.mu.Unlock()
	a.wg.Wait()
}

func (a *Aggregator) notify() {
	if a.onChange != nil {
		a.onChange()
	}
}
