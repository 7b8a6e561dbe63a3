package runtime

import (
	"context"
	"inbox-lab/contract"
	"inbox-lab/domain"
	"log/slog"
	"sync"
)

// WatcherRegistry keeps at most one running watcher per (user, thread).
type WatcherRegistry struct {
	mu         sync.Mutex
	tasks      map[domain.WatcherKey]contract.TaskHandle
	supervisor contract.ISupervisor
	ctx        context.Context
	log        *slog.Logger
}

// NewWatcherRegistry spawns watchers under ctx, which bounds their lifetime.
func NewWatcherRegistry(ctx context.Context, log *slog.Logger, supervisor contract.ISupervisor) *WatcherRegistry {
	return &WatcherRegistry{
		tasks:      make(map[domain.WatcherKey]contract.TaskHandle),
		supervisor: supervisor,
		ctx:        ctx,
		log:        log,
	}
}

// StartIfAbsent starts a watcher for the key unless one is already running.
// It reports whether a new watcher was started.
func (r *WatcherRegistry) StartIfAbsent(userID domain.UserID, threadID domain.ThreadID, factory contract.WatcherFactory) bool {
	key := domain.WatcherKey{User: userID, Thread: threadID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[key]; ok {
		return false
	}
	r.tasks[key] = r.supervisor.Spawn(r.ctx, factory(key))
	r.log.Info("Watcher started", "user", userID, "thread", threadID)
	return true
}

// Stop stops the watcher of one thread, if any, and waits for it.
func (r *WatcherRegistry) Stop(userID domain.UserID, threadID domain.ThreadID) bool {
	key := domain.WatcherKey{User: userID, Thread: threadID}

	r.mu.Lock()
	task, ok := r.tasks[key]
	delete(r.tasks, key)
	r.mu.Unlock()

	if !ok {
		return false
	}
	task.Stop()
	r.log.Info("Watcher stopped", "user", userID, "thread", threadID)
	return true
}

// StopAllForUser stops every watcher of the user and returns once all of
// them have exited.
func (r *WatcherRegistry) StopAllForUser(userID domain.UserID) int {
	r.mu.Lock()
	var tasks []contract.TaskHandle
	for key, task := range r.tasks {
		if key.User == userID {
			tasks = append(tasks, task)
			delete(r.tasks, key)
		}
	}
	r.mu.Unlock()

	stopAll(tasks)
	if len(tasks) > 0 {
		r.log.Info("Watchers stopped", "user", userID, "count", len(tasks))
	}
	return len(tasks)
}

func (r *WatcherRegistry) StopAll() {
	r.mu.Lock()
	tasks := make([]contract.TaskHandle, 0, len(r.tasks))
	for key, task := range r.tasks {
		tasks = append(tasks, task)
		delete(r.tasks, key)
	}
	r.mu.Unlock()

	stopAll(tasks)
}

func (r *WatcherRegistry) Keys() []domain.WatcherKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]domain.WatcherKey, 0, len(r.tasks))
	for key := range r.tasks {
		keys = append(keys, key)
	}
	return keys
}

func stopAll(tasks []contract.TaskHandle) {
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(t contract.TaskHandle) {
			defer wg.Done()
			t.Stop()
		}(task)
	}
	wg.Wait()
}
