package repositories

import (
	"context"
	"crypto/rand"
	"fmt"
	"inbox-lab/contract"
	"inbox-lab/domain"
	"inbox-lab/errors"
	"log/slog"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// SealedStore encrypts credentials before handing them to another store.
type SealedStore struct {
	inner contract.CredentialStore
	key   [32]byte
	log   *slog.Logger
}

func NewSealedStore(inner contract.CredentialStore, key [32]byte, log *slog.Logger) *SealedStore {
	return &SealedStore{inner: inner, key: key, log: log}
}

// Load opens the stored box. A box that does not open (wrong key, tampering)
// is reported as errors.ErrCredentialNotFound.
func (s *SealedStore) Load(ctx context.Context, userID domain.UserID) (domain.Credential, error) {
	sealed, err := s.inner.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(sealed) < nonceSize+secretbox.Overhead {
		s.log.Warn("Sealed credential too short", "user", userID)
		return nil, errors.ErrCredentialNotFound
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	opened, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		s.log.Warn("Sealed credential could not be opened", "user", userID)
		return nil, errors.ErrCredentialNotFound
	}
	return opened, nil
}

func (s *SealedStore) Save(ctx context.Context, userID domain.UserID, credential domain.Credential) error {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("nonce generation failed: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], credential, &nonce, &s.key)
	return s.inner.Save(ctx, userID, sealed)
}

func (s *SealedStore) Delete(ctx context.Context, userID domain.UserID) error {
	return s.inner.Delete(ctx, userID)
}
