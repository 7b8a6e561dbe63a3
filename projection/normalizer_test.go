package projection

import (
	"inbox-lab/domain"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"
)

var (
	now   = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	self  = domain.RemoteUserID("100")
	users = []domain.RawUser{
		{ID: "100", Username: "alice"},
		{ID: "200", Username: "bob"},
	}
)

func fixedNormalizer() *Normalizer {
	return NewNormalizer(func() time.Time { return now })
}

func TestNormalizeMessage_Kinds(t *testing.T) {
	tests := []struct {
		name    string
		raw     domain.RawMessage
		kind    domain.ContentKind
		text    string
		url     string
		isVideo bool
	}{
		{
			name: "text",
			raw:  domain.RawMessage{Kind: domain.ItemText, Text: "hello"},
			kind: domain.KindText, text: "hello",
		},
		{
			name: "shared post uses the thumbnail",
			raw: domain.RawMessage{Kind: domain.ItemMediaShare, MediaShare: &domain.RawMediaShare{
				ThumbnailURL: "https://cdn/thumb.jpg",
			}},
			kind: domain.KindImage, text: "[Shared Post]", url: "https://cdn/thumb.jpg",
		},
		{
			name: "photo picks the largest candidate",
			raw: domain.RawMessage{Kind: domain.ItemMedia, VisualMedia: &domain.RawVisualMedia{Media: &domain.RawMedia{
				ImageVersions: &domain.RawImageVersions{Candidates: []domain.RawImageCandidate{
					{URL: "small", Width: 100, Height: 100},
					{URL: "large", Width: 1080, Height: 1080},
					{URL: "medium", Width: 640, Height: 640},
				}},
			}}},
			kind: domain.KindImage, text: "[Photo]", url: "large",
		},
		{
			name: "video without image candidates",
			raw: domain.RawMessage{Kind: domain.ItemMedia, VisualMedia: &domain.RawVisualMedia{Media: &domain.RawMedia{
				VideoVersions: []domain.RawVideoVersion{{URL: "https://cdn/v.mp4"}},
			}}},
			kind: domain.KindVideo, text: "[Video]", url: "https://cdn/v.mp4", isVideo: true,
		},
		{
			name: "image versions without candidates stay a photo",
			raw: domain.RawMessage{Kind: domain.ItemMedia, VisualMedia: &domain.RawVisualMedia{Media: &domain.RawMedia{
				ImageVersions: &domain.RawImageVersions{},
				VideoVersions: []domain.RawVideoVersion{{URL: "https://cdn/v.mp4"}},
			}}},
			kind: domain.KindImage, text: "[Photo]",
		},
		{
			name: "visual media without any url",
			raw:  domain.RawMessage{Kind: domain.ItemMedia, VisualMedia: &domain.RawVisualMedia{}},
			kind: domain.KindImage, text: "[Photo]",
		},
		{
			name: "voice",
			raw: domain.RawMessage{Kind: domain.ItemVoiceMedia, VoiceMedia: &domain.RawVoiceMedia{
				Media: &domain.RawAudioMedia{Audio: &domain.RawAudio{AudioSrc: "https://cdn/a.m4a"}},
			}},
			kind: domain.KindVoice, text: "[Voice Message]", url: "https://cdn/a.m4a",
		},
		{
			name: "story",
			raw:  domain.RawMessage{Kind: domain.ItemStoryShare},
			kind: domain.KindStory, text: "[Shared Story]",
		},
		{
			name: "reel",
			raw:  domain.RawMessage{Kind: domain.ItemReelShare},
			kind: domain.KindReel, text: "[Shared Reel]",
		},
		{
			name: "clip",
			raw: domain.RawMessage{Kind: domain.ItemClip, Clip: &domain.RawClip{Media: &domain.RawMedia{
				VideoVersions: []domain.RawVideoVersion{{URL: "https://cdn/c.mp4"}},
			}}},
			kind: domain.KindClip, text: "[Clip]", url: "https://cdn/c.mp4", isVideo: true,
		},
		{
			name: "clip without video",
			raw:  domain.RawMessage{Kind: domain.ItemClip},
			kind: domain.KindClip, text: "[Clip]",
		},
		{
			name: "unknown kind",
			raw:  domain.RawMessage{Kind: "foo"},
			kind: domain.KindOther, text: "[foo]",
		},
		{
			name: "missing kind with text",
			raw:  domain.RawMessage{Text: "hi"},
			kind: domain.KindText, text: "hi",
		},
		{
			name: "missing kind without text",
			raw:  domain.RawMessage{},
			kind: domain.KindText, text: "[Media or other content]",
		},
	}

	n := fixedNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			tt.raw.ID = "m1"
			tt.raw.UserID = "200"
			tt.raw.Timestamp = now.Add(-time.Minute)

			msg := n.NormalizeMessage(tt.raw, users, self, time.UTC)

			req.Equal(tt.kind, msg.Kind)
			req.Equal(tt.text, msg.Text)
			req.Equal(tt.url, msg.MediaURL)
			req.Equal(tt.isVideo, msg.IsVideo)
		})
	}
}

func TestNormalizeMessage_Sender(t *testing.T) {
	req := require.New(t)
	n := fixedNormalizer()

	// Given messages from the current user, a known user and a stranger
	mine := n.NormalizeMessage(domain.RawMessage{UserID: "100", Kind: domain.ItemText}, users, self, nil)
	bobs := n.NormalizeMessage(domain.RawMessage{UserID: "200", Kind: domain.ItemText}, users, self, nil)
	unknown := n.NormalizeMessage(domain.RawMessage{UserID: "999", Kind: domain.ItemText}, users, self, nil)

	// Then each one is labelled accordingly
	req.Equal("You", mine.Sender)
	req.True(mine.IsSelf)
	req.Equal("bob", bobs.Sender)
	req.False(bobs.IsSelf)
	req.Equal("User", unknown.Sender)
	req.False(unknown.IsSelf)
}

func TestNormalizeThread_KeepsOrderAndIsIdempotent(t *testing.T) {
	req := require.New(t)
	n := fixedNormalizer()
	raw := domain.RawThread{
		ID:    "t1",
		Users: users,
		Messages: []domain.RawMessage{
			{ID: "m3", UserID: "200", Kind: domain.ItemText, Text: "third", Timestamp: now.Add(-10 * time.Second)},
			{ID: "m2", UserID: "100", Kind: domain.ItemStoryShare, Timestamp: now.Add(-2 * time.Hour)},
			{ID: "m1", UserID: "200", Kind: "weird", Timestamp: now.Add(-49 * time.Hour)},
		},
	}

	// When the same raw thread is normalized twice
	first := n.NormalizeThread(raw, self, time.UTC)
	second := n.NormalizeThread(raw, self, time.UTC)

	// Then the output is stable and newest first
	req.Equal(first, second)
	req.Equal(domain.ThreadID("t1"), first.ID)
	req.Len(first.Messages, 3)
	req.Equal([]domain.MessageID{"m3", "m2", "m1"}, []domain.MessageID{
		first.Messages[0].ID, first.Messages[1].ID, first.Messages[2].ID,
	})
	req.Equal("10 second(s) ago", first.Messages[0].TimeAgo)
	req.Equal("2 hour(s) ago", first.Messages[1].TimeAgo)
	req.Equal("2 day(s) ago", first.Messages[2].TimeAgo)
	req.Equal([]domain.Participant{{Username: "alice", ID: "100"}, {Username: "bob", ID: "200"}}, first.Users)
}

func TestNormalizeThread_Empty(t *testing.T) {
	req := require.New(t)

	thread := fixedNormalizer().NormalizeThread(domain.RawThread{ID: "t1"}, self, time.UTC)

	req.Empty(thread.Messages)
	req.Empty(thread.Users)
}

func TestTimeAgo(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	tests := []struct {
		name string
		ts   time.Time
		loc  *time.Location
		want string
	}{
		{"seconds", now.Add(-59 * time.Second), time.UTC, "59 second(s) ago"},
		{"minutes", now.Add(-90 * time.Second), time.UTC, "1 minute(s) ago"},
		{"hours", now.Add(-23 * time.Hour), time.UTC, "23 hour(s) ago"},
		{"days", now.Add(-72 * time.Hour), time.UTC, "3 day(s) ago"},
		{"future is clamped", now.Add(time.Hour), time.UTC, "0 second(s) ago"},
		{"zone does not shift the delta", now.Add(-5 * time.Minute), paris, "5 minute(s) ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, TimeAgo(tt.ts, now, tt.loc))
		})
	}
}

func TestSummarizeThreads(t *testing.T) {
	req := require.New(t)

	summaries := SummarizeThreads([]domain.RawThread{
		{ID: "t1", Users: users},
		{ID: "t2"},
	})

	req.Equal([]domain.ThreadSummary{
		{ID: "t1", Users: "alice, bob"},
		{ID: "t2", Users: ""},
	}, summaries)
}
