package services

import (
	"context"
	"fmt"
	"inbox-lab/contract"
	"inbox-lab/directory"
	"inbox-lab/domain"
	"inbox-lab/errors"
	"inbox-lab/mocks"
	"inbox-lab/projection"
	"inbox-lab/repositories"
	"inbox-lab/runtime"
	"inbox-lab/runtime/workers"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type harness struct {
	platform *directory.Platform
	store    contract.CredentialStore
	clients  *runtime.ClientRegistry
	watchers *runtime.WatcherRegistry
	inbox    *InboxService
	log      *slog.Logger
	ctx      context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	platform := directory.NewPlatform(func() time.Time { return fixedNow })
	platform.AddAccount("alice", "pw-a")
	platform.AddAccount("bob", "pw-b")
	require.NoError(t, platform.AddThread("ab", "alice", "bob"))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := &harness{
		platform: platform,
		store:    repositories.NewCredentialRepository(db, log),
		log:      log,
		ctx:      ctx,
	}
	h.restart()
	return h
}

// restart rebuilds the in-memory registries over the same platform and store.
func (h *harness) restart() {
	sup := workers.NewSupervisor(h.log, 10*time.Millisecond)
	h.clients = runtime.NewClientRegistry(h.log, h.platform.Factory(), h.store, time.Second)
	h.watchers = runtime.NewWatcherRegistry(h.ctx, h.log, sup)
	h.inbox = NewInboxService(h.log, h.clients, h.watchers,
		projection.NewNormalizer(func() time.Time { return fixedNow }), nil,
		InboxOptions{
			RemoteTimeout:    time.Second,
			MaxMessageLength: 100,
			Watcher: workers.WatcherConfig{
				Unit:    time.Millisecond,
				Floor:   10,
				Ceiling: 300,
			},
		})
}

func TestInboxService_AliceSession(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	ctx := context.Background()

	// Given alice logs in for the first time
	req.NoError(h.inbox.Authenticate(ctx, "alice", "pw-a"))
	req.Equal(int64(1), h.platform.Logins())
	stored, err := h.store.Load(ctx, "alice")
	req.NoError(err)
	req.NotEmpty(stored)

	// When bob writes to her
	_, err = h.platform.Deliver("ab", "bob", domain.RawMessage{
		Kind: domain.ItemText, Text: "hey alice", Timestamp: fixedNow.Add(-3 * time.Minute),
	})
	req.NoError(err)

	// Then she sees the thread and the message
	threads, err := h.inbox.ListThreads(ctx, "alice")
	req.NoError(err)
	req.Equal([]domain.ThreadSummary{{ID: "ab", Users: "alice, bob"}}, threads)

	thread, err := h.inbox.GetNormalizedThread(ctx, "alice", "ab", "Europe/Paris")
	req.NoError(err)
	req.Len(thread.Messages, 1)
	req.Equal("bob", thread.Messages[0].Sender)
	req.Equal("3 minute(s) ago", thread.Messages[0].TimeAgo)

	// And her reply shows up as hers
	req.NoError(h.inbox.Send(ctx, "alice", "ab", "  hi bob  "))
	thread, err = h.inbox.GetNormalizedThread(ctx, "alice", "ab", "")
	req.NoError(err)
	req.Equal("You", thread.Messages[0].Sender)
	req.True(thread.Messages[0].IsSelf)
	req.Equal("hi bob", thread.Messages[0].Text)

	// When the process restarts, the stored session is reused
	h.restart()
	req.NoError(h.inbox.Authenticate(ctx, "alice", "pw-a"))
	req.Equal(int64(1), h.platform.Logins())
}

func TestInboxService_WatchLifecycle(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	ctx := context.Background()
	req.NoError(h.inbox.Authenticate(ctx, "alice", "pw-a"))

	// Given two watched threads, one opened twice
	req.NoError(h.platform.AddThread("solo", "alice"))
	req.NoError(h.inbox.OpenThreadWatch("alice", "ab"))
	req.NoError(h.inbox.OpenThreadWatch("alice", "ab"))
	req.NoError(h.inbox.OpenThreadWatch("alice", "solo"))
	req.Len(h.watchers.Keys(), 2)

	// When one is closed
	req.True(h.inbox.CloseThreadWatch("alice", "solo"))
	req.False(h.inbox.CloseThreadWatch("alice", "solo"))
	req.Equal([]domain.WatcherKey{{User: "alice", Thread: "ab"}}, h.watchers.Keys())

	// When everything is closed
	req.Equal(1, h.inbox.CloseAllWatches("alice"))

	// Then alice has no watcher left
	req.Empty(h.watchers.Keys())
}

func TestInboxService_LogoutStopsWatchersAndSession(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	ctx := context.Background()
	req.NoError(h.inbox.Authenticate(ctx, "alice", "pw-a"))
	req.NoError(h.inbox.Authenticate(ctx, "bob", "pw-b"))
	req.NoError(h.inbox.OpenThreadWatch("alice", "ab"))
	req.NoError(h.inbox.OpenThreadWatch("bob", "ab"))

	// When alice logs out
	h.inbox.Logout(ctx, "alice")

	// Then only bob keeps his watcher and session
	req.Equal([]domain.WatcherKey{{User: "bob", Thread: "ab"}}, h.watchers.Keys())
	req.Equal(1, h.clients.Len())
	req.ErrorIs(h.inbox.OpenThreadWatch("alice", "ab"), errors.ErrNotAuthenticated)
	_, err := h.inbox.ListThreads(ctx, "alice")
	req.ErrorIs(err, errors.ErrNotAuthenticated)
}

func TestInboxService_RejectsBadInput(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	ctx := context.Background()
	req.NoError(h.inbox.Authenticate(ctx, "alice", "pw-a"))

	req.ErrorIs(h.inbox.Authenticate(ctx, "", "pw"), errors.ErrInvalidRequest)
	req.ErrorIs(h.inbox.Authenticate(ctx, "alice", "wrong-but-session-exists"), errors.ErrAuthenticationFailed)
	req.ErrorIs(h.inbox.Authenticate(ctx, "bob", "wrong"), errors.ErrAuthenticationFailed)
	req.Equal(1, h.clients.Len())

	req.ErrorIs(h.inbox.Send(ctx, "alice", "ab", "   "), errors.ErrInvalidRequest)
	req.ErrorIs(h.inbox.OpenThreadWatch("alice", ""), errors.ErrInvalidRequest)

	_, err := h.inbox.GetNormalizedThread(ctx, "alice", "ab", "Mars/Olympus")
	req.ErrorIs(err, errors.ErrInvalidTimezone)
}

func TestInboxService_LogoutWaitsForInFlightLogin(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	clients := mocks.NewMockIClientRegistry(ctrl)
	watchers := mocks.NewMockIWatcherRegistry(ctrl)

	// Given a remote login that blocks until released
	entered := make(chan struct{})
	release := make(chan struct{})
	var loggedIn, removedAfterLogin atomic.Bool
	clients.EXPECT().GetOrCreate(gomock.Any(), domain.UserID("alice"), "pw-a").
		DoAndReturn(func(context.Context, domain.UserID, string) (contract.Directory, error) {
			close(entered)
			<-release
			loggedIn.Store(true)
			return mocks.NewMockDirectory(ctrl), nil
		})
	watchers.EXPECT().StopAllForUser(domain.UserID("alice")).Return(0)
	clients.EXPECT().Remove(gomock.Any(), domain.UserID("alice")).
		Do(func(context.Context, domain.UserID) { removedAfterLogin.Store(loggedIn.Load()) })

	inbox := NewInboxService(log, clients, watchers, projection.NewNormalizer(nil), nil, InboxOptions{})

	var wg sync.WaitGroup
	var authErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		authErr = inbox.Authenticate(ctx, "alice", "pw-a")
	}()
	<-entered

	// When logout arrives while the login is in flight
	loggedOut := make(chan struct{})
	go func() {
		defer wg.Done()
		inbox.Logout(ctx, "alice")
		close(loggedOut)
	}()

	// Then it waits for the login and removes the session it registered
	req.Never(func() bool {
		select {
		case <-loggedOut:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond)
	close(release)
	wg.Wait()
	req.NoError(authErr)
	req.True(removedAfterLogin.Load())
}

func TestInboxService_RemoteFailuresAreWrapped(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	remote := mocks.NewMockDirectory(ctrl)
	clients := mocks.NewMockIClientRegistry(ctrl)
	watchers := mocks.NewMockIWatcherRegistry(ctrl)
	clients.EXPECT().Get(domain.UserID("alice")).Return(remote, true).AnyTimes()

	remote.EXPECT().ListThreads(gomock.Any(), DefaultThreadLimit).Return(nil, fmt.Errorf("timeout"))
	remote.EXPECT().FetchThread(gomock.Any(), domain.ThreadID("t1"), DefaultMessageLimit).
		Return(domain.RawThread{}, fmt.Errorf("timeout"))
	remote.EXPECT().SendMessage(gomock.Any(), domain.ThreadID("t1"), "hi").Return(fmt.Errorf("rejected"))

	inbox := NewInboxService(log, clients, watchers, projection.NewNormalizer(nil), nil, InboxOptions{})

	_, err := inbox.ListThreads(ctx, "alice")
	req.ErrorIs(err, errors.ErrFetchFailed)
	_, err = inbox.GetNormalizedThread(ctx, "alice", "t1", "")
	req.ErrorIs(err, errors.ErrFetchFailed)
	req.ErrorIs(inbox.Send(ctx, "alice", "t1", "hi"), errors.ErrSendFailed)
}

func TestInboxService_SendTooLong(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)

	inbox := NewInboxService(log, mocks.NewMockIClientRegistry(ctrl), mocks.NewMockIWatcherRegistry(ctrl),
		projection.NewNormalizer(nil), nil, InboxOptions{MaxMessageLength: 5})

	req.ErrorIs(inbox.Send(context.Background(), "alice", "t1", "too long"), errors.ErrInvalidRequest)
}
