//go:generate go run go.uber.org/mock/mockgen -source=directory.go -destination=../mocks/mock_directory.go -package=mocks
package contract

import (
	"context"
	"inbox-lab/domain"
)

// Directory is an authenticated connection to the remote platform,
// bound to exactly one local user.
type Directory interface {
	Login(ctx context.Context, userID domain.UserID, secret string) (domain.Credential, error)
	RestoreSession(ctx context.Context, credential domain.Credential) error
	ProbeSession(ctx context.Context) error
	CurrentUserID() domain.RemoteUserID
	ListThreads(ctx context.Context, limit int) ([]domain.RawThread, error)
	FetchThread(ctx context.Context, threadID domain.ThreadID, limit int) (domain.RawThread, error)
	SendMessage(ctx context.Context, threadID domain.ThreadID, text string) error
	Logout(ctx context.Context) error
}

// DirectoryFactory builds an unauthenticated Directory for a user.
type DirectoryFactory func(userID domain.UserID) Directory

// CredentialStore persists one Credential per user.
// Load returns errors.ErrCredentialNotFound for missing or unreadable records.
type CredentialStore interface {
	Load(ctx context.Context, userID domain.UserID) (domain.Credential, error)
	Save(ctx context.Context, userID domain.UserID, credential domain.Credential) error
	Delete(ctx context.Context, userID domain.UserID) error
}
