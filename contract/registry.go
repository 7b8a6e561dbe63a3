//go:generate go run go.uber.org/mock/mockgen -source=registry.go -destination=../mocks/mock_registry.go -package=mocks
package contract

import (
	"context"
	"inbox-lab/domain"
)

type IClientRegistry interface {
	GetOrCreate(ctx context.Context, userID domain.UserID, secret string) (Directory, error)
	Get(userID domain.UserID) (Directory, bool)
	Remove(ctx context.Context, userID domain.UserID)
	Len() int
}

// WatcherFactory builds the worker backing a watcher key.
type WatcherFactory func(key domain.WatcherKey) Worker

type IWatcherRegistry interface {
	StartIfAbsent(userID domain.UserID, threadID domain.ThreadID, factory WatcherFactory) bool
	Stop(userID domain.UserID, threadID domain.ThreadID) bool
	StopAllForUser(userID domain.UserID) int
	StopAll()
	Keys() []domain.WatcherKey
}
