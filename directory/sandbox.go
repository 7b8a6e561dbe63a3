package directory

import (
	"context"
	"fmt"
	"inbox-lab/contract"
	"inbox-lab/domain"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBadCredentials = fmt.Errorf("bad credentials")
	ErrNoSession      = fmt.Errorf("no active session")
	ErrUnknownThread  = fmt.Errorf("unknown thread")
	ErrUnavailable    = fmt.Errorf("platform unavailable")
)

type sandboxAccount struct {
	remoteID domain.RemoteUserID
	secret   string
}

// Platform is an in-memory stand-in for the remote platform.
// It is used for local runs and tests.
type Platform struct {
	mu       sync.Mutex
	accounts map[domain.UserID]sandboxAccount
	threads  map[domain.ThreadID]*domain.RawThread
	sessions map[string]domain.UserID
	failures int
	now      func() time.Time

	logins atomic.Int64
}

func NewPlatform(now func() time.Time) *Platform {
	if now == nil {
		now = time.Now
	}
	return &Platform{
		accounts: make(map[domain.UserID]sandboxAccount),
		threads:  make(map[domain.ThreadID]*domain.RawThread),
		sessions: make(map[string]domain.UserID),
		now:      now,
	}
}

// AddAccount registers a user and returns its remote id.
func (p *Platform) AddAccount(userID domain.UserID, secret string) domain.RemoteUserID {
	p.mu.Lock()
	defer p.mu.Unlock()
	remoteID := domain.RemoteUserID(uuid.NewString())
	p.accounts[userID] = sandboxAccount{remoteID: remoteID, secret: secret}
	return remoteID
}

// AddThread creates a conversation between existing accounts.
func (p *Platform) AddThread(threadID domain.ThreadID, members ...domain.UserID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	thread := &domain.RawThread{ID: threadID}
	for _, member := range members {
		account, ok := p.accounts[member]
		if !ok {
			return fmt.Errorf("unknown account %q", member)
		}
		thread.Users = append(thread.Users, domain.RawUser{ID: account.remoteID, Username: string(member)})
	}
	p.threads[threadID] = thread
	return nil
}

// Deliver puts a message on top of a thread, filling its id, author and
// timestamp when empty.
func (p *Platform) Deliver(threadID domain.ThreadID, from domain.UserID, msg domain.RawMessage) (domain.MessageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deliverLocked(threadID, from, msg)
}

// FailNext makes the next n remote calls fail.
func (p *Platform) FailNext(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = n
}

// Logins returns the number of full logins performed so far.
func (p *Platform) Logins() int64 {
	return p.logins.Load()
}

// NewDirectory returns an unauthenticated client for the user.
func (p *Platform) NewDirectory(userID domain.UserID) contract.Directory {
	return &SandboxDirectory{platform: p, userID: userID}
}

// Factory adapts the platform to the registry.
func (p *Platform) Factory() contract.DirectoryFactory {
	return p.NewDirectory
}

func (p *Platform) deliverLocked(threadID domain.ThreadID, from domain.UserID, msg domain.RawMessage) (domain.MessageID, error) {
	thread, ok := p.threads[threadID]
	if !ok {
		return "", ErrUnknownThread
	}
	if msg.ID == "" {
		msg.ID = domain.MessageID(uuid.NewString())
	}
	if msg.UserID == "" {
		msg.UserID = p.accounts[from].remoteID
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = p.now()
	}
	thread.Messages = slices.Insert(thread.Messages, 0, msg)
	return msg.ID, nil
}

// failLocked consumes one injected failure.
func (p *Platform) failLocked() error {
	if p.failures > 0 {
		p.failures--
		return ErrUnavailable
	}
	return nil
}

func (p *Platform) sessionUserLocked(session string) (domain.UserID, error) {
	userID, ok := p.sessions[session]
	if !ok || session == "" {
		return "", ErrNoSession
	}
	return userID, nil
}

func (p *Platform) isMemberLocked(thread *domain.RawThread, userID domain.UserID) bool {
	remoteID := p.accounts[userID].remoteID
	return slices.ContainsFunc(thread.Users, func(u domain.RawUser) bool { return u.ID == remoteID })
}

func copyThread(thread *domain.RawThread, limit int) domain.RawThread {
	messages := thread.Messages
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}
	return domain.RawThread{
		ID:       thread.ID,
		Users:    slices.Clone(thread.Users),
		Messages: slices.Clone(messages),
	}
}

// SandboxDirectory is the per-user client of a Platform.
type SandboxDirectory struct {
	platform *Platform
	userID   domain.UserID

	mu      sync.RWMutex
	session string
}

func (d *SandboxDirectory) Login(_ context.Context, userID domain.UserID, secret string) (domain.Credential, error) {
	p := d.platform
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.failLocked(); err != nil {
		return nil, err
	}
	account, ok := p.accounts[userID]
	if !ok || account.secret != secret {
		return nil, ErrBadCredentials
	}
	p.logins.Add(1)
	session := uuid.NewString()
	p.sessions[session] = userID

	d.mu.Lock()
	d.session = session
	d.mu.Unlock()
	return domain.Credential(session), nil
}

func (d *SandboxDirectory) RestoreSession(_ context.Context, credential domain.Credential) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.session = string(credential)
	return nil
}

func (d *SandboxDirectory) ProbeSession(_ context.Context) error {
	p := d.platform
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.failLocked(); err != nil {
		return err
	}
	userID, err := p.sessionUserLocked(d.currentSession())
	if err != nil {
		return err
	}
	if userID != d.userID {
		return ErrNoSession
	}
	return nil
}

func (d *SandboxDirectory) CurrentUserID() domain.RemoteUserID {
	p := d.platform
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accounts[d.userID].remoteID
}

func (d *SandboxDirectory) ListThreads(_ context.Context, limit int) ([]domain.RawThread, error) {
	p := d.platform
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.failLocked(); err != nil {
		return nil, err
	}
	userID, err := p.sessionUserLocked(d.currentSession())
	if err != nil {
		return nil, err
	}

	var threads []domain.RawThread
	for _, thread := range p.threads {
		if p.isMemberLocked(thread, userID) {
			threads = append(threads, copyThread(thread, 1))
		}
	}
	slices.SortFunc(threads, func(a, b domain.RawThread) int {
		return latest(b).Compare(latest(a))
	})
	if limit > 0 && len(threads) > limit {
		threads = threads[:limit]
	}
	return threads, nil
}

func (d *SandboxDirectory) FetchThread(_ context.Context, threadID domain.ThreadID, limit int) (domain.RawThread, error) {
	p := d.platform
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.failLocked(); err != nil {
		return domain.RawThread{}, err
	}
	userID, err := p.sessionUserLocked(d.currentSession())
	if err != nil {
		return domain.RawThread{}, err
	}
	thread, ok := p.threads[threadID]
	if !ok || !p.isMemberLocked(thread, userID) {
		return domain.RawThread{}, ErrUnknownThread
	}
	return copyThread(thread, limit), nil
}

func (d *SandboxDirectory) SendMessage(_ context.Context, threadID domain.ThreadID, text string) error {
	p := d.platform
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.failLocked(); err != nil {
		return err
	}
	userID, err := p.sessionUserLocked(d.currentSession())
	if err != nil {
		return err
	}
	thread, ok := p.threads[threadID]
	if !ok || !p.isMemberLocked(thread, userID) {
		return ErrUnknownThread
	}
	_, err = p.deliverLocked(threadID, userID, domain.RawMessage{Kind: domain.ItemText, Text: text})
	return err
}

func (d *SandboxDirectory) Logout(_ context.Context) error {
	p := d.platform
	p.mu.Lock()
	defer p.mu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	delete(p.sessions, d.session)
	d.session = ""
	return nil
}

func (d *SandboxDirectory) currentSession() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.session
}

func latest(t domain.RawThread) time.Time {
	if len(t.Messages) == 0 {
		return time.Time{}
	}
	return t.Messages[0].Timestamp
}
