package directory

import (
	"context"
	"inbox-lab/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newPlatform(t *testing.T) (*Platform, *time.Time) {
	t.Helper()
	clock := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	p := NewPlatform(func() time.Time { return clock })
	p.AddAccount("alice", "pw-a")
	p.AddAccount("bob", "pw-b")
	p.AddAccount("carol", "pw-c")
	require.NoError(t, p.AddThread("ab", "alice", "bob"))
	require.NoError(t, p.AddThread("bc", "bob", "carol"))
	return p, &clock
}

func TestSandbox_LoginAndSessionReuse(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	p, _ := newPlatform(t)

	// Given a fresh login
	first := p.NewDirectory("alice")
	_, err := first.Login(ctx, "alice", "wrong")
	req.ErrorIs(err, ErrBadCredentials)
	credential, err := first.Login(ctx, "alice", "pw-a")
	req.NoError(err)
	req.Equal(int64(1), p.Logins())

	// When another client restores the same credential
	second := p.NewDirectory("alice")
	req.NoError(second.RestoreSession(ctx, credential))

	// Then the session is live without a new login
	req.NoError(second.ProbeSession(ctx))
	req.Equal(int64(1), p.Logins())

	// And a logout invalidates it for everyone
	req.NoError(first.Logout(ctx))
	req.ErrorIs(second.ProbeSession(ctx), ErrNoSession)
}

func TestSandbox_ForeignCredentialIsRejected(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	p, _ := newPlatform(t)

	credential, err := p.NewDirectory("bob").Login(ctx, "bob", "pw-b")
	req.NoError(err)

	alice := p.NewDirectory("alice")
	req.NoError(alice.RestoreSession(ctx, credential))
	req.ErrorIs(alice.ProbeSession(ctx), ErrNoSession)
}

func TestSandbox_ThreadsAreScopedAndSorted(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	p, clock := newPlatform(t)
	req.NoError(p.AddThread("abc", "alice", "bob", "carol"))

	_, err := p.Deliver("ab", "bob", domain.RawMessage{Kind: domain.ItemText, Text: "old"})
	req.NoError(err)
	*clock = clock.Add(time.Minute)
	_, err = p.Deliver("abc", "carol", domain.RawMessage{Kind: domain.ItemText, Text: "new"})
	req.NoError(err)

	bob := p.NewDirectory("bob")
	_, err = bob.Login(ctx, "bob", "pw-b")
	req.NoError(err)

	// When bob lists his threads
	threads, err := bob.ListThreads(ctx, 10)
	req.NoError(err)

	// Then the most recent one comes first and empty ones last
	req.Len(threads, 3)
	req.Equal(domain.ThreadID("abc"), threads[0].ID)
	req.Equal(domain.ThreadID("ab"), threads[1].ID)
	req.Equal(domain.ThreadID("bc"), threads[2].ID)

	// And alice cannot read a thread she is not part of
	alice := p.NewDirectory("alice")
	_, err = alice.Login(ctx, "alice", "pw-a")
	req.NoError(err)
	_, err = alice.FetchThread(ctx, "bc", 20)
	req.ErrorIs(err, ErrUnknownThread)

	limited, err := bob.ListThreads(ctx, 1)
	req.NoError(err)
	req.Len(limited, 1)
}

func TestSandbox_SendPutsMessageOnTop(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	p, _ := newPlatform(t)

	alice := p.NewDirectory("alice")
	_, err := alice.Login(ctx, "alice", "pw-a")
	req.NoError(err)

	req.NoError(alice.SendMessage(ctx, "ab", "first"))
	req.NoError(alice.SendMessage(ctx, "ab", "second"))

	thread, err := alice.FetchThread(ctx, "ab", 1)
	req.NoError(err)
	req.Len(thread.Messages, 1)
	req.Equal("second", thread.Messages[0].Text)
	req.Equal(alice.CurrentUserID(), thread.Messages[0].UserID)
}

func TestSandbox_FailNext(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	p, _ := newPlatform(t)

	alice := p.NewDirectory("alice")
	_, err := alice.Login(ctx, "alice", "pw-a")
	req.NoError(err)

	// Given two injected failures
	p.FailNext(2)

	_, err = alice.FetchThread(ctx, "ab", 20)
	req.ErrorIs(err, ErrUnavailable)
	_, err = alice.ListThreads(ctx, 10)
	req.ErrorIs(err, ErrUnavailable)

	// Then the third call goes through
	_, err = alice.FetchThread(ctx, "ab", 20)
	req.NoError(err)
}

func TestSandbox_CallsWithoutSessionFail(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	p, _ := newPlatform(t)

	alice := p.NewDirectory("alice")

	_, err := alice.ListThreads(ctx, 10)
	req.ErrorIs(err, ErrNoSession)
	req.ErrorIs(alice.SendMessage(ctx, "ab", "hi"), ErrNoSession)
}
