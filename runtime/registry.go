package runtime

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"inbox-lab/auth"
	"inbox-lab/contract"
	"inbox-lab/domain"
	"inbox-lab/errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var errSecretMismatch = fmt.Errorf("secret does not match the stored session")

// clientEntry is a live Directory and a keyed fingerprint of the secret
// its session was opened with.
type clientEntry struct {
	directory   contract.Directory
	fingerprint []byte
}

// ClientRegistry maps each local user to its authenticated Directory.
// Concurrent first accesses for one user share a single login attempt,
// and every caller must present the secret the session was opened with.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[domain.UserID]*clientEntry
	logins  singleflight.Group
	factory contract.DirectoryFactory
	store   contract.CredentialStore
	log     *slog.Logger
	timeout time.Duration
	pepper  [32]byte
}

func NewClientRegistry(
	log *slog.Logger,
	factory contract.DirectoryFactory,
	store contract.CredentialStore,
	timeout time.Duration,
) *ClientRegistry {
	r := &ClientRegistry{
		clients: make(map[domain.UserID]*clientEntry),
		factory: factory,
		store:   store,
		log:     log,
		timeout: timeout,
	}
	_, _ = rand.Read(r.pepper[:])
	return r
}

// GetOrCreate returns the live Directory of a user, authenticating it first
// when none exists. A stored credential is tried before a full login, and
// only when secret matches the one it was saved with.
func (r *ClientRegistry) GetOrCreate(ctx context.Context, userID domain.UserID, secret string) (contract.Directory, error) {
	entry, ok := r.entry(userID)
	if !ok {
		v, err, _ := r.logins.Do(string(userID), func() (any, error) {
			if entry, ok := r.entry(userID); ok {
				return entry, nil
			}
			entry, err := r.authenticate(ctx, userID, secret)
			if err != nil {
				return nil, err
			}
			r.mu.Lock()
			r.clients[userID] = entry
			r.mu.Unlock()
			return entry, nil
		})
		if err != nil {
			return nil, err
		}
		entry = v.(*clientEntry)
	}

	// waiters of a shared login are checked too
	if !hmac.Equal(entry.fingerprint, r.fingerprint(secret)) {
		r.log.Warn("Secret does not match the live session", "user", userID)
		return nil, fmt.Errorf("%w: secret does not match the live session", errors.ErrAuthenticationFailed)
	}
	return entry.directory, nil
}

func (r *ClientRegistry) Get(userID domain.UserID) (contract.Directory, bool) {
	entry, ok := r.entry(userID)
	if !ok {
		return nil, false
	}
	return entry.directory, true
}

// Remove forgets the user's Directory and logs it out.
// Logout errors are only logged. Watchers of the user must be stopped first.
func (r *ClientRegistry) Remove(ctx context.Context, userID domain.UserID) {
	r.mu.Lock()
	entry, ok := r.clients[userID]
	delete(r.clients, userID)
	r.mu.Unlock()

	if !ok {
		return
	}

	callCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := entry.directory.Logout(callCtx); err != nil {
		r.log.Warn("Remote logout failed", "user", userID, "error", err)
	}
}

func (r *ClientRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *ClientRegistry) entry(userID domain.UserID) (*clientEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.clients[userID]
	return entry, ok
}

func (r *ClientRegistry) authenticate(ctx context.Context, userID domain.UserID, secret string) (*clientEntry, error) {
	directory := r.factory(userID)

	err := r.restore(ctx, userID, secret, directory)
	if err == nil {
		r.log.Info("Session restored", "user", userID)
		return r.newEntry(directory, secret), nil
	}
	stale := !errors.Is(err, errors.ErrCredentialNotFound) && !errors.Is(err, errSecretMismatch)
	if !errors.Is(err, errors.ErrCredentialNotFound) {
		r.log.Info("Stored session unusable, falling back to login", "user", userID, "error", err)
	}

	r.log.Info("Logging in", "user", userID)
	callCtx, cancel := r.withTimeout(ctx)
	credential, err := directory.Login(callCtx, userID, secret)
	interrupted := callCtx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	cancel()
	if err != nil {
		r.log.Error("Login failed", "user", userID, "error", err)
		// a timed out or canceled login says nothing about the stored session
		if stale && !interrupted {
			if err := r.store.Delete(ctx, userID); err != nil {
				r.log.Warn("Failed to discard stale session", "user", userID, "error", err)
			}
		}
		return nil, fmt.Errorf("%w: %v", errors.ErrAuthenticationFailed, err)
	}

	r.persist(ctx, userID, secret, credential)
	return r.newEntry(directory, secret), nil
}

// persist saves the credential bound to a hash of secret. Failures are only logged.
func (r *ClientRegistry) persist(ctx context.Context, userID domain.UserID, secret string, credential domain.Credential) {
	verifier, err := auth.HashSecret(secret)
	if err != nil {
		r.log.Warn("Failed to hash secret, session not persisted", "user", userID, "error", err)
		return
	}
	record, err := encodeSession(storedSession{Verifier: verifier, Credential: credential})
	if err != nil {
		r.log.Warn("Failed to encode session", "user", userID, "error", err)
		return
	}
	if err := r.store.Save(ctx, userID, record); err != nil {
		r.log.Warn("Failed to persist session", "user", userID, "error", err)
	}
}

func (r *ClientRegistry) restore(ctx context.Context, userID domain.UserID, secret string, directory contract.Directory) error {
	record, err := r.store.Load(ctx, userID)
	if err != nil {
		return err
	}
	stored, err := decodeSession(record)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrSessionRestoreFailed, err)
	}
	match, err := auth.CompareSecret(secret, stored.Verifier)
	if err != nil {
		return fmt.Errorf("%w: verifier: %v", errors.ErrSessionRestoreFailed, err)
	}
	if !match {
		return errSecretMismatch
	}

	callCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := directory.RestoreSession(callCtx, stored.Credential); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrSessionRestoreFailed, err)
	}
	if err := directory.ProbeSession(callCtx); err != nil {
		return fmt.Errorf("%w: probe: %v", errors.ErrSessionRestoreFailed, err)
	}
	return nil
}

func (r *ClientRegistry) newEntry(directory contract.Directory, secret string) *clientEntry {
	return &clientEntry{directory: directory, fingerprint: r.fingerprint(secret)}
}

// fingerprint is an HMAC of the secret under a per-process key.
func (r *ClientRegistry) fingerprint(secret string) []byte {
	mac := hmac.New(sha256.New, r.pepper[:])
	mac.Write([]byte(secret))
	return mac.Sum(nil)
}

func (r *ClientRegistry) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
