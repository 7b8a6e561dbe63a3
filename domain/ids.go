package domain

// UserID identifies a local user of the web interface.
type UserID string

// RemoteUserID identifies an account on the remote platform.
type RemoteUserID string

// ThreadID is the opaque key of a conversation on the remote platform.
type ThreadID string

// MessageID is the opaque key of a message on the remote platform.
type MessageID string

// Credential is the serialized authentication state of one user.
// Its content is only meaningful to the Directory that produced it.
type Credential []byte

// WatcherKey binds a watcher to one (user, thread) pair.
type WatcherKey struct {
	User   UserID
	Thread ThreadID
}

func (k WatcherKey) String() string {
	return string(k.User) + "_" + string(k.Thread)
}
