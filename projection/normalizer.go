// Package projection turns raw remote threads into view models.
// Pure transformations: no I/O, no shared state besides the clock.
package projection

import (
	"fmt"
	"inbox-lab/domain"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	SelfLabel     = "You"
	FallbackLabel = "User"

	placeholderPost    = "[Shared Post]"
	placeholderPhoto   = "[Photo]"
	placeholderVideo   = "[Video]"
	placeholderVoice   = "[Voice Message]"
	placeholderStory   = "[Shared Story]"
	placeholderReel    = "[Shared Reel]"
	placeholderClip    = "[Clip]"
	placeholderUnknown = "[Media or other content]"
)

type Normalizer struct {
	now func() time.Time
}

// NewNormalizer uses now as the clock for relative times, time.Now if nil.
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// NormalizeThread converts a raw thread. Messages keep the source order.
func (n *Normalizer) NormalizeThread(raw domain.RawThread, self domain.RemoteUserID, loc *time.Location) domain.Thread {
	if loc == nil {
		loc = time.UTC
	}
	now := n.now()
	return domain.Thread{
		ID: raw.ID,
		Users: lo.Map(raw.Users, func(u domain.RawUser, _ int) domain.Participant {
			return domain.Participant{Username: u.Username, ID: u.ID}
		}),
		Messages: lo.Map(raw.Messages, func(m domain.RawMessage, _ int) domain.Message {
			return normalizeMessage(m, raw.Users, self, now, loc)
		}),
	}
}

// NormalizeMessage converts a single message of the given thread.
func (n *Normalizer) NormalizeMessage(m domain.RawMessage, users []domain.RawUser, self domain.RemoteUserID, loc *time.Location) domain.Message {
	if loc == nil {
		loc = time.UTC
	}
	return normalizeMessage(m, users, self, n.now(), loc)
}

// SummarizeThreads builds the conversation list.
func SummarizeThreads(threads []domain.RawThread) []domain.ThreadSummary {
	return lo.Map(threads, func(t domain.RawThread, _ int) domain.ThreadSummary {
		names := lo.Map(t.Users, func(u domain.RawUser, _ int) string { return u.Username })
		return domain.ThreadSummary{ID: t.ID, Users: strings.Join(names, ", ")}
	})
}

// TimeAgo renders now - ts in the largest whole unit, seconds to days.
func TimeAgo(ts, now time.Time, loc *time.Location) string {
	delta := now.In(loc).Sub(ts.In(loc))
	if delta < 0 {
		delta = 0
	}
	switch {
	case delta >= 24*time.Hour:
		return fmt.Sprintf("%d day(s) ago", int(delta/(24*time.Hour)))
	case delta >= time.Hour:
		return fmt.Sprintf("%d hour(s) ago", int(delta/time.Hour))
	case delta >= time.Minute:
		return fmt.Sprintf("%d minute(s) ago", int(delta/time.Minute))
	default:
		return fmt.Sprintf("%d second(s) ago", int(delta/time.Second))
	}
}

func normalizeMessage(m domain.RawMessage, users []domain.RawUser, self domain.RemoteUserID, now time.Time, loc *time.Location) domain.Message {
	msg := domain.Message{
		ID:      m.ID,
		TimeAgo: TimeAgo(m.Timestamp, now, loc),
	}
	msg.Sender, msg.IsSelf = resolveSender(m.UserID, users, self)
	content := dispatch(m)
	msg.Kind = content.kind
	msg.Text = content.text
	msg.MediaURL = content.mediaURL
	msg.IsVideo = content.video
	return msg
}

func resolveSender(author domain.RemoteUserID, users []domain.RawUser, self domain.RemoteUserID) (string, bool) {
	if author == self {
		return SelfLabel, true
	}
	user, ok := lo.Find(users, func(u domain.RawUser) bool { return u.ID == author })
	if !ok || user.Username == "" {
		return FallbackLabel, false
	}
	return user.Username, false
}

type content struct {
	kind     domain.ContentKind
	text     string
	mediaURL string
	video    bool
}

func dispatch(m domain.RawMessage) content {
	switch m.Kind {
	case domain.ItemText:
		return content{kind: domain.KindText, text: m.Text}
	case domain.ItemMediaShare:
		return content{kind: domain.KindImage, text: placeholderPost, mediaURL: thumbnailURL(m.MediaShare)}
	case domain.ItemMedia:
		return visualContent(m.VisualMedia)
	case domain.ItemVoiceMedia:
		return content{kind: domain.KindVoice, text: placeholderVoice, mediaURL: audioURL(m.VoiceMedia)}
	case domain.ItemStoryShare:
		return content{kind: domain.KindStory, text: placeholderStory}
	case domain.ItemReelShare:
		return content{kind: domain.KindReel, text: placeholderReel}
	case domain.ItemClip:
		url := clipURL(m.Clip)
		return content{kind: domain.KindClip, text: placeholderClip, mediaURL: url, video: url != ""}
	case "":
		return content{kind: domain.KindText, text: lo.CoalesceOrEmpty(m.Text, placeholderUnknown)}
	default:
		return content{kind: domain.KindOther, text: fmt.Sprintf("[%s]", m.Kind)}
	}
}

func visualContent(v *domain.RawVisualMedia) content {
	if v == nil || v.Media == nil {
		return content{kind: domain.KindImage, text: placeholderPhoto}
	}
	// an image payload never degrades to its video versions
	if v.Media.ImageVersions != nil {
		return content{kind: domain.KindImage, text: placeholderPhoto, mediaURL: bestCandidateURL(v.Media.ImageVersions)}
	}
	if url := firstVideoURL(v.Media.VideoVersions); url != "" {
		return content{kind: domain.KindVideo, text: placeholderVideo, mediaURL: url, video: true}
	}
	return content{kind: domain.KindImage, text: placeholderPhoto}
}

func thumbnailURL(share *domain.RawMediaShare) string {
	if share == nil {
		return ""
	}
	return share.ThumbnailURL
}

// bestCandidateURL picks the largest candidate; the first one wins a tie.
func bestCandidateURL(versions *domain.RawImageVersions) string {
	if versions == nil || len(versions.Candidates) == 0 {
		return ""
	}
	best := lo.MaxBy(versions.Candidates, func(a, b domain.RawImageCandidate) bool {
		return a.Width*a.Height > b.Width*b.Height
	})
	return best.URL
}

func firstVideoURL(versions []domain.RawVideoVersion) string {
	v, ok := lo.Find(versions, func(v domain.RawVideoVersion) bool { return v.URL != "" })
	if !ok {
		return ""
	}
	return v.URL
}

func audioURL(voice *domain.RawVoiceMedia) string {
	if voice == nil || voice.Media == nil || voice.Media.Audio == nil {
		return ""
	}
	return voice.Media.Audio.AudioSrc
}

func clipURL(clip *domain.RawClip) string {
	if clip == nil || clip.Media == nil {
		return ""
	}
	return firstVideoURL(clip.Media.VideoVersions)
}
