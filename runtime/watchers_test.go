package runtime

import (
	"context"
	"inbox-lab/contract"
	"inbox-lab/domain"
	"inbox-lab/mocks"
	"inbox-lab/runtime/workers"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// blockingWorker runs until its context is canceled.
type blockingWorker struct {
	running *atomic.Int32
}

func (w blockingWorker) Run(ctx context.Context) error {
	w.running.Add(1)
	defer w.running.Add(-1)
	<-ctx.Done()
	return nil
}

func TestWatcherRegistry_StartIfAbsentSpawnsOnce(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)

	supervisor := mocks.NewMockISupervisor(ctrl)
	handle := mocks.NewMockTaskHandle(ctrl)
	supervisor.EXPECT().Spawn(gomock.Any(), gomock.Any()).Return(handle).Times(1)

	registry := NewWatcherRegistry(context.Background(), log, supervisor)
	var built atomic.Int32
	factory := func(domain.WatcherKey) contract.Worker {
		built.Add(1)
		return mocks.NewMockWorker(ctrl)
	}

	// When the same thread is opened twice
	first := registry.StartIfAbsent(alice, "t1", factory)
	second := registry.StartIfAbsent(alice, "t1", factory)

	// Then only one watcher exists
	req.True(first)
	req.False(second)
	req.Equal(int32(1), built.Load())
	req.Equal([]domain.WatcherKey{{User: alice, Thread: "t1"}}, registry.Keys())
}

func TestWatcherRegistry_StopUnknownIsNoop(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)

	registry := NewWatcherRegistry(context.Background(), log, mocks.NewMockISupervisor(ctrl))

	req.False(registry.Stop(alice, "missing"))
	req.Zero(registry.StopAllForUser(alice))
}

func TestWatcherRegistry_StopAllForUserLeavesOtherUsers(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	sup := workers.NewSupervisor(log, 10*time.Millisecond)
	registry := NewWatcherRegistry(context.Background(), log, sup)

	var running atomic.Int32
	factory := func(domain.WatcherKey) contract.Worker { return blockingWorker{running: &running} }

	// Given two watchers for alice and one for bob
	registry.StartIfAbsent(alice, "t1", factory)
	registry.StartIfAbsent(alice, "t2", factory)
	registry.StartIfAbsent("bob", "t1", factory)
	req.Eventually(func() bool { return running.Load() == 3 }, time.Second, time.Millisecond)

	// When alice's watchers are stopped
	stopped := registry.StopAllForUser(alice)

	// Then they have exited before the call returns
	req.Equal(2, stopped)
	req.Equal(int32(1), running.Load())
	req.Equal([]domain.WatcherKey{{User: "bob", Thread: "t1"}}, registry.Keys())

	// And a thread can be watched again afterwards
	req.True(registry.StartIfAbsent(alice, "t1", factory))

	registry.StopAll()
	req.Empty(registry.Keys())
	req.Zero(running.Load())
}
