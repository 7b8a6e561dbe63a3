package repositories

import (
	"context"
	"inbox-lab/auth"
	"inbox-lab/domain"
	"inbox-lab/errors"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestSealedStore_RoundTripAndCiphertextAtRest(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	inner := NewCredentialRepository(openInMemory(t), log)
	store := NewSealedStore(inner, auth.DeriveCredentialKey("correct horse battery staple"), log)

	// Given a sealed credential
	req.NoError(store.Save(ctx, "alice", domain.Credential("session-token")))

	// Then the inner store only sees ciphertext
	raw, err := inner.Load(ctx, "alice")
	req.NoError(err)
	req.NotContains(string(raw), "session-token")

	// And the sealed store gives the plaintext back
	credential, err := store.Load(ctx, "alice")
	req.NoError(err)
	req.Equal(domain.Credential("session-token"), credential)
}

func TestSealedStore_WrongKeyIsNotFound(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	inner := NewCredentialRepository(openInMemory(t), log)

	req.NoError(NewSealedStore(inner, auth.DeriveCredentialKey("first-secret"), log).
		Save(ctx, "alice", domain.Credential("session-token")))

	// When another key is used
	_, err := NewSealedStore(inner, auth.DeriveCredentialKey("second-secret"), log).Load(ctx, "alice")

	// Then the stored session is ignored
	req.ErrorIs(err, errors.ErrCredentialNotFound)
}

func TestSealedStore_PlaintextRecordIsNotFound(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	inner := NewCredentialRepository(openInMemory(t), log)

	// Given a record written before encryption was enabled
	req.NoError(inner.Save(ctx, "alice", domain.Credential("short")))

	_, err := NewSealedStore(inner, auth.DeriveCredentialKey("secret"), log).Load(ctx, "alice")
	req.ErrorIs(err, errors.ErrCredentialNotFound)
}
