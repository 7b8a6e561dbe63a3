package workers

import (
	"context"
	"fmt"
	"inbox-lab/contract"
	"inbox-lab/domain"
	"inbox-lab/errors"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultPollFloor    = 10
	DefaultPollCeiling  = 300
	DefaultPollUnit     = time.Second
	DefaultMessageLimit = 20
)

type WatcherState int

const (
	StateStarting WatcherState = iota
	StateRunning
	StateStopped
)

func (s WatcherState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// WatcherMetrics receives the watcher activity counters.
type WatcherMetrics interface {
	IncrFetch()
	IncrFetchFailure()
	IncrDetection()
}

type WatcherConfig struct {
	Unit         time.Duration
	Floor        int
	Ceiling      int
	FetchTimeout time.Duration
	MessageLimit int
}

func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		Unit:         DefaultPollUnit,
		Floor:        DefaultPollFloor,
		Ceiling:      DefaultPollCeiling,
		FetchTimeout: 30 * time.Second,
		MessageLimit: DefaultMessageLimit,
	}
}

// ThreadWatcher detects new top-of-thread messages for one (user, thread).
// It only moves its cursor; consumers re-fetch the thread themselves.
type ThreadWatcher struct {
	key       domain.WatcherKey
	directory contract.Directory
	log       *slog.Logger
	cfg       WatcherConfig
	metrics   WatcherMetrics

	mu      sync.Mutex
	state   WatcherState
	cursor  domain.MessageID
	backoff *Backoff
}

func NewThreadWatcher(
	key domain.WatcherKey,
	directory contract.Directory,
	log *slog.Logger,
	cfg WatcherConfig,
	metrics WatcherMetrics,
) *ThreadWatcher {
	if cfg.Unit <= 0 {
		cfg.Unit = DefaultPollUnit
	}
	if cfg.MessageLimit <= 0 {
		cfg.MessageLimit = DefaultMessageLimit
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ThreadWatcher{
		key:       key,
		directory: directory,
		log:       log.With("user", key.User, "thread", key.Thread),
		cfg:       cfg,
		metrics:   metrics,
		state:     StateStarting,
		backoff:   NewBackoff(cfg.Floor, cfg.Ceiling),
	}
}

// Run seeds the cursor then checks the thread until ctx is canceled.
// Iteration failures never escape: they only grow the interval.
func (w *ThreadWatcher) Run(ctx context.Context) error {
	defer w.setState(StateStopped)

	if w.State() == StateStarting {
		w.seed(ctx)
		w.setState(StateRunning)
	}

	for {
		if ctx.Err() != nil {
			w.log.Debug("Watcher stopped")
			return nil
		}
		w.check(ctx)
		if !w.wait(ctx) {
			w.log.Debug("Watcher stopped")
			return nil
		}
	}
}

func (w *ThreadWatcher) Key() domain.WatcherKey {
	return w.key
}

func (w *ThreadWatcher) State() WatcherState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *ThreadWatcher) Cursor() domain.MessageID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor
}

// Interval returns the current wait between two checks, in time units.
func (w *ThreadWatcher) Interval() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.backoff.Current()
}

func (w *ThreadWatcher) setState(state WatcherState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = state
}

func (w *ThreadWatcher) seed(ctx context.Context) {
	newest, err := w.fetchNewest(ctx)
	if err != nil {
		w.log.Warn("Initial fetch failed, starting without cursor", "error", err)
		return
	}
	w.mu.Lock()
	w.cursor = newest
	w.mu.Unlock()
}

func (w *ThreadWatcher) check(ctx context.Context) {
	newest, err := w.fetchNewest(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		w.metrics.IncrFetchFailure()
		interval := w.backoff.Fail()
		if ctx.Err() != nil {
			w.log.Debug("Fetch interrupted by stop", "error", err)
			return
		}
		w.log.Warn("Fetch failed, backing off", "error", err, "interval", interval)
		return
	}

	if newest != "" && newest != w.cursor {
		w.cursor = newest
		w.backoff.Reset()
		w.metrics.IncrDetection()
		w.log.Debug("New message detected", "message", newest)
	}
}

// fetchNewest returns the id of the newest message, empty for an empty thread.
// A panic in the directory is turned into an error at this boundary.
func (w *ThreadWatcher) fetchNewest(ctx context.Context) (newest domain.MessageID, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()

	w.metrics.IncrFetch()
	callCtx := ctx
	if w.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, w.cfg.FetchTimeout)
		defer cancel()
	}

	thread, err := w.directory.FetchThread(callCtx, w.key.Thread, w.cfg.MessageLimit)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrFetchFailed, err)
	}
	if len(thread.Messages) == 0 {
		return "", nil
	}
	return thread.Messages[0].ID, nil
}

// wait sleeps for the current interval. It returns false as soon as ctx
// is canceled.
func (w *ThreadWatcher) wait(ctx context.Context) bool {
	timer := time.NewTimer(time.Duration(w.Interval()) * w.cfg.Unit)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

type noopMetrics struct{}

func (noopMetrics) IncrFetch()        {}
func (noopMetrics) IncrFetchFailure() {}
func (noopMetrics) IncrDetection()    {}
