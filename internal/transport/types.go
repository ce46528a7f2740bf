package transport

import "context"

// MediaKind classifies the payload of an inbound message.
// Empty means plain text or some other non-media payload.
type MediaKind string

const (
	MediaNone      MediaKind = ""
	MediaPhoto     MediaKind = "photo"
	MediaVideo     MediaKind = "video"
	MediaAnimation MediaKind = "animation"
	MediaDocument  MediaKind = "document"
	MediaVideoNote MediaKind = "video_note"
	MediaStory     MediaKind = "story"
	MediaSticker   MediaKind = "sticker"
	MediaAudio     MediaKind = "audio"
	MediaVoice     MediaKind = "voice"
)

type Update struct {
	Message *Message
}

type Message struct {
	ID           int
	ChatID       int64
	ThreadID     int // telegram forum topic thread id (0 if none)
	IsTopic      bool
	FromID       int64
	FromUsername string
	Text         string
	Media        MediaKind
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Adapter is the messaging-platform client surface the bot consumes.
// Start pushes inbound updates into out and must never block on it.
type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	Delete(ctx context.Context, ref MessageRef) error
}
