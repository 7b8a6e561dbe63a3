package domain

import "time"

// ItemKind is the content discriminator sent by the remote platform.
type ItemKind string

const (
	ItemText       ItemKind = "text"
	ItemMediaShare ItemKind = "media_share"
	ItemMedia      ItemKind = "media"
	ItemVoiceMedia ItemKind = "voice_media"
	ItemStoryShare ItemKind = "story_share"
	ItemReelShare  ItemKind = "reel_share"
	ItemClip       ItemKind = "clip"
)

// RawThread is a conversation as returned by the remote platform.
// Messages are ordered newest first.
type RawThread struct {
	ID       ThreadID     `json:"id"`
	Users    []RawUser    `json:"users"`
	Messages []RawMessage `json:"messages"`
}

type RawUser struct {
	ID       RemoteUserID `json:"pk"`
	Username string       `json:"username"`
}

// RawMessage is a tagged variant: Kind tells which of the optional
// payload pointers is expected to be set. Any of them may be nil even
// when Kind says otherwise.
type RawMessage struct {
	ID        MessageID    `json:"id"`
	UserID    RemoteUserID `json:"user_id"`
	Timestamp time.Time    `json:"timestamp"`
	Kind      ItemKind     `json:"item_type"`
	Text      string       `json:"text,omitempty"`

	MediaShare  *RawMediaShare  `json:"media_share,omitempty"`
	VisualMedia *RawVisualMedia `json:"visual_media,omitempty"`
	VoiceMedia  *RawVoiceMedia  `json:"voice_media,omitempty"`
	Clip        *RawClip        `json:"clip,omitempty"`
}

type RawMediaShare struct {
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

type RawVisualMedia struct {
	Media *RawMedia `json:"media,omitempty"`
}

type RawMedia struct {
	ImageVersions *RawImageVersions `json:"image_versions2,omitempty"`
	VideoVersions []RawVideoVersion `json:"video_versions,omitempty"`
}

type RawImageVersions struct {
	Candidates []RawImageCandidate `json:"candidates"`
}

type RawImageCandidate struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type RawVideoVersion struct {
	URL string `json:"url"`
}

type RawVoiceMedia struct {
	Media *RawAudioMedia `json:"media,omitempty"`
}

type RawAudioMedia struct {
	Audio *RawAudio `json:"audio,omitempty"`
}

type RawAudio struct {
	AudioSrc string `json:"audio_src"`
}

type RawClip struct {
	Media *RawMedia `json:"media,omitempty"`
}
