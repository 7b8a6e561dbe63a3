package services

import (
	"context"
	"fmt"
	"inbox-lab/auth"
	"inbox-lab/contract"
	"inbox-lab/domain"
	"inbox-lab/errors"
	"inbox-lab/projection"
	"inbox-lab/runtime/workers"
	"log/slog"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
)

const (
	DefaultThreadLimit  = 10
	DefaultMessageLimit = 20
)

type IInboxService interface {
	Authenticate(ctx context.Context, userID domain.UserID, secret string) error
	OpenThreadWatch(userID domain.UserID, threadID domain.ThreadID) error
	CloseThreadWatch(userID domain.UserID, threadID domain.ThreadID) bool
	CloseAllWatches(userID domain.UserID) int
	Logout(ctx context.Context, userID domain.UserID)
	ListThreads(ctx context.Context, userID domain.UserID) ([]domain.ThreadSummary, error)
	GetNormalizedThread(ctx context.Context, userID domain.UserID, threadID domain.ThreadID, timezone string) (domain.Thread, error)
	Send(ctx context.Context, userID domain.UserID, threadID domain.ThreadID, text string) error
}

type InboxOptions struct {
	RemoteTimeout    time.Duration
	ThreadLimit      int
	MessageLimit     int
	MaxMessageLength int
	Watcher          workers.WatcherConfig
}

// InboxService is the synchronous API the web layer calls into.
type InboxService struct {
	log        *slog.Logger
	clients    contract.IClientRegistry
	watchers   contract.IWatcherRegistry
	normalizer *projection.Normalizer
	metrics    workers.WatcherMetrics
	opts       InboxOptions

	// lifecycle serializes login and watcher start against logout for one user
	lifecycle sync.Map
}

func NewInboxService(
	log *slog.Logger,
	clients contract.IClientRegistry,
	watchers contract.IWatcherRegistry,
	normalizer *projection.Normalizer,
	metrics workers.WatcherMetrics,
	opts InboxOptions,
) *InboxService {
	if opts.ThreadLimit <= 0 {
		opts.ThreadLimit = DefaultThreadLimit
	}
	if opts.MessageLimit <= 0 {
		opts.MessageLimit = DefaultMessageLimit
	}
	if opts.Watcher.MessageLimit <= 0 {
		opts.Watcher.MessageLimit = opts.MessageLimit
	}
	if opts.Watcher.FetchTimeout <= 0 {
		opts.Watcher.FetchTimeout = opts.RemoteTimeout
	}
	return &InboxService{
		log:        log,
		clients:    clients,
		watchers:   watchers,
		normalizer: normalizer,
		metrics:    metrics,
		opts:       opts,
	}
}

// Authenticate makes sure the user has a live session opened with secret,
// restoring a stored one or logging in. A concurrent Logout waits for it.
func (s *InboxService) Authenticate(ctx context.Context, userID domain.UserID, secret string) error {
	if err := auth.ValidateLogin(auth.LoginRequest{Username: string(userID), Password: secret}); err != nil {
		return err
	}
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	_, err := s.clients.GetOrCreate(ctx, userID, secret)
	return err
}

// OpenThreadWatch starts the watcher of a thread unless it already runs.
func (s *InboxService) OpenThreadWatch(userID domain.UserID, threadID domain.ThreadID) error {
	if threadID == "" {
		return fmt.Errorf("%w: thread id is required", errors.ErrInvalidRequest)
	}
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	directory, ok := s.clients.Get(userID)
	if !ok {
		return errors.ErrNotAuthenticated
	}
	s.watchers.StartIfAbsent(userID, threadID, func(key domain.WatcherKey) contract.Worker {
		return workers.NewThreadWatcher(key, directory, s.log, s.opts.Watcher, s.metrics)
	})
	return nil
}

func (s *InboxService) CloseThreadWatch(userID domain.UserID, threadID domain.ThreadID) bool {
	return s.watchers.Stop(userID, threadID)
}

func (s *InboxService) CloseAllWatches(userID domain.UserID) int {
	return s.watchers.StopAllForUser(userID)
}

// Logout stops every watcher of the user, then discards its session.
func (s *InboxService) Logout(ctx context.Context, userID domain.UserID) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	s.watchers.StopAllForUser(userID)
	s.clients.Remove(ctx, userID)
	s.log.Info("User logged out", "user", userID)
}

func (s *InboxService) ListThreads(ctx context.Context, userID domain.UserID) ([]domain.ThreadSummary, error) {
	directory, ok := s.clients.Get(userID)
	if !ok {
		return nil, errors.ErrNotAuthenticated
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	threads, err := directory.ListThreads(callCtx, s.opts.ThreadLimit)
	if err != nil {
		s.log.Error("Failed to fetch threads", "user", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", errors.ErrFetchFailed, err)
	}
	return projection.SummarizeThreads(threads), nil
}

// GetNormalizedThread fetches a thread and renders it for the given IANA
// time zone, UTC when empty.
func (s *InboxService) GetNormalizedThread(ctx context.Context, userID domain.UserID, threadID domain.ThreadID, timezone string) (domain.Thread, error) {
	loc, err := loadLocation(timezone)
	if err != nil {
		return domain.Thread{}, err
	}
	directory, ok := s.clients.Get(userID)
	if !ok {
		return domain.Thread{}, errors.ErrNotAuthenticated
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	raw, err := directory.FetchThread(callCtx, threadID, s.opts.MessageLimit)
	if err != nil {
		s.log.Error("Failed to fetch messages", "user", userID, "thread", threadID, "error", err)
		return domain.Thread{}, fmt.Errorf("%w: %v", errors.ErrFetchFailed, err)
	}
	return s.normalizer.NormalizeThread(raw, directory.CurrentUserID(), loc), nil
}

func (s *InboxService) Send(ctx context.Context, userID domain.UserID, threadID domain.ThreadID, text string) error {
	text = strings.TrimSpace(text)
	if err := auth.ValidateSend(auth.SendRequest{ThreadID: string(threadID), Text: text}, s.opts.MaxMessageLength); err != nil {
		return err
	}
	directory, ok := s.clients.Get(userID)
	if !ok {
		return errors.ErrNotAuthenticated
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := directory.SendMessage(callCtx, threadID, text); err != nil {
		s.log.Error("Failed to send message", "user", userID, "thread", threadID, "error", err)
		return fmt.Errorf("%w: %v", errors.ErrSendFailed, err)
	}
	s.log.Info("Message sent", "user", userID, "thread", threadID)
	return nil
}

func (s *InboxService) userLock(userID domain.UserID) *sync.Mutex {
	lock, _ := s.lifecycle.LoadOrStore(userID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *InboxService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.RemoteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.RemoteTimeout)
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", errors.ErrInvalidTimezone, name)
	}
	return loc, nil
}
