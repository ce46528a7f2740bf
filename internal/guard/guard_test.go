package guard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"mediatopicbot/internal/transport"
	"mediatopicbot/pkg/logx"
)

type fakeAdapter struct {
	mu      sync.Mutex
	deletes []transport.MessageRef
	fail    error
}

func (f *fakeAdapter) Start(ctx context.Context, out chan<- transport.Update) error { return nil }
func (f *fakeAdapter) Stop(ctx context.Context) error                               { return nil }

func (f *fakeAdapter) Delete(ctx context.Context, ref transport.MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, ref)
	return f.fail
}

func (f *fakeAdapter) deleted() []transport.MessageRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transport.MessageRef(nil), f.deletes...)
}

func newTestGuard(ad *fakeAdapter) *Guard {
	return New(Config{
		ChatID:       456,
		TopicID:      123,
		AllowedMedia: []string{"photo", "video", "animation", "document", "video_note", "story", "sticker"},
	}, ad, nil, logx.Nop())
}

func msg(id int, chat int64, topic int, media transport.MediaKind) *transport.Message {
	return &transport.Message{
		ID:       id,
		ChatID:   chat,
		ThreadID: topic,
		IsTopic:  topic != 0,
		Media:    media,
	}
}

func TestDeletesTextInScope(t *testing.T) {
	ad := &fakeAdapter{}
	g := newTestGuard(ad)

	g.HandleMessage(context.Background(), msg(42, 456, 123, transport.MediaNone))

	dels := ad.deleted()
	if len(dels) != 1 {
		t.Fatalf("expected exactly one delete, got %d", len(dels))
	}
	if dels[0].ChatID != 456 || dels[0].MessageID != 42 {
		t.Fatalf("unexpected delete ref: %+v", dels[0])
	}
}

func TestKeepsAllowedMedia(t *testing.T) {
	ad := &fakeAdapter{}
	g := newTestGuard(ad)

	for _, kind := range []transport.MediaKind{
		transport.MediaPhoto,
		transport.MediaVideo,
		transport.MediaAnimation,
		transport.MediaDocument,
		transport.MediaVideoNote,
		transport.MediaStory,
		transport.MediaSticker,
	} {
		g.HandleMessage(context.Background(), msg(1, 456, 123, kind))
	}

	if n := len(ad.deleted()); n != 0 {
		t.Fatalf("expected zero deletes for allowed media, got %d", n)
	}
}

func TestDeletesDisallowedMedia(t *testing.T) {
	ad := &fakeAdapter{}
	g := newTestGuard(ad)

	g.HandleMessage(context.Background(), msg(7, 456, 123, transport.MediaVoice))

	if n := len(ad.deleted()); n != 1 {
		t.Fatalf("expected one delete for voice message, got %d", n)
	}
}

func TestIgnoresOutOfScope(t *testing.T) {
	ad := &fakeAdapter{}
	g := newTestGuard(ad)

	cases := []*transport.Message{
		msg(1, 999, 123, transport.MediaNone), // wrong chat
		msg(2, 456, 124, transport.MediaNone), // wrong topic
		msg(3, 456, 0, transport.MediaNone),   // not a topic message
		nil,
	}
	for _, m := range cases {
		g.HandleMessage(context.Background(), m)
	}

	if n := len(ad.deleted()); n != 0 {
		t.Fatalf("expected zero deletes out of scope, got %d", n)
	}
	if snap := g.Snapshot(false); snap.Seen != 0 {
		t.Fatalf("out-of-scope messages must not count as seen, got %d", snap.Seen)
	}
}

func TestDeleteFailureDoesNotStopHandling(t *testing.T) {
	ad := &fakeAdapter{fail: errors.New("message can't be deleted")}
	g := newTestGuard(ad)

	g.HandleMessage(context.Background(), msg(1, 456, 123, transport.MediaNone))
	g.HandleMessage(context.Background(), msg(2, 456, 123, transport.MediaNone))

	if n := len(ad.deleted()); n != 2 {
		t.Fatalf("expected both messages attempted, got %d", n)
	}
	snap := g.Snapshot(false)
	if snap.Deleted != 0 || snap.DeleteFailed != 2 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
}

func TestSnapshotReset(t *testing.T) {
	ad := &fakeAdapter{}
	g := newTestGuard(ad)

	g.HandleMessage(context.Background(), msg(1, 456, 123, transport.MediaNone))
	g.HandleMessage(context.Background(), msg(2, 456, 123, transport.MediaPhoto))

	snap := g.Snapshot(true)
	if snap.Seen != 2 || snap.Deleted != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if again := g.Snapshot(false); again.Seen != 0 || again.Deleted != 0 {
		t.Fatalf("expected counters reset, got %+v", again)
	}
}

func TestApplySwapsAllowedSet(t *testing.T) {
	ad := &fakeAdapter{}
	g := newTestGuard(ad)

	g.Apply(Config{ChatID: 456, TopicID: 123, AllowedMedia: []string{"photo"}})

	g.HandleMessage(context.Background(), msg(1, 456, 123, transport.MediaVideo))
	g.HandleMessage(context.Background(), msg(2, 456, 123, transport.MediaPhoto))

	dels := ad.deleted()
	if len(dels) != 1 || dels[0].MessageID != 1 {
		t.Fatalf("expected only the video deleted, got %+v", dels)
	}
}
