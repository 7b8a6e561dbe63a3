package domain

import "time"

// ContentKind is the closed set of renderable content kinds.
type ContentKind string

const (
	KindText  ContentKind = "text"
	KindImage ContentKind = "image"
	KindVideo ContentKind = "video"
	KindVoice ContentKind = "voice"
	KindStory ContentKind = "story"
	KindReel  ContentKind = "reel"
	KindClip  ContentKind = "clip"
	KindOther ContentKind = "other"
)

// Message is the view model of one message, derived on every fetch.
type Message struct {
	ID       MessageID   `json:"id"`
	Sender   string      `json:"sender"`
	IsSelf   bool        `json:"is_current_user"`
	TimeAgo  string      `json:"timestamp"`
	Kind     ContentKind `json:"type"`
	Text     string      `json:"text,omitempty"`
	MediaURL string      `json:"media_url,omitempty"`
	IsVideo  bool        `json:"video,omitempty"`
}

type Participant struct {
	Username string       `json:"username"`
	ID       RemoteUserID `json:"pk"`
}

// Thread is the view model of one conversation.
type Thread struct {
	ID       ThreadID      `json:"id"`
	Users    []Participant `json:"users"`
	Messages []Message     `json:"messages"`
}

// ThreadSummary is one row of the conversation list.
// Preview and LastActivity are not filled yet.
type ThreadSummary struct {
	ID           ThreadID   `json:"id"`
	Users        string     `json:"users"`
	Preview      string     `json:"preview,omitempty"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}
