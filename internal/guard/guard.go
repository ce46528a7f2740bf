package guard

import (
	"context"
	"sync"
	"time"

	"mediatopicbot/internal/storage"
	"mediatopicbot/internal/transport"
	"mediatopicbot/pkg/logx"
)

type Config struct {
	ChatID  int64
	TopicID int

	// AllowedMedia lists the media kinds that may stay in the topic.
	AllowedMedia []string
}

// Guard enforces the media-only rule for one group chat topic.
//
// For every message scoped to the configured chat and topic that carries
// none of the allowed media kinds, it issues exactly one delete. Delete
// failures are logged and swallowed; the next message is handled normally.
type Guard struct {
	log     logx.Logger
	adapter transport.Adapter
	store   storage.Store

	mu      sync.Mutex
	cfg     Config
	allowed map[transport.MediaKind]bool

	stats Stats
}

func New(cfg Config, adapter transport.Adapter, store storage.Store, log logx.Logger) *Guard {
	if log.IsZero() {
		log = logx.Nop()
	}
	g := &Guard{log: log, adapter: adapter, store: store}
	g.Apply(cfg)
	return g
}

// Apply swaps the scope and allowed-media set at runtime.
func (g *Guard) Apply(cfg Config) {
	allowed := make(map[transport.MediaKind]bool, len(cfg.AllowedMedia))
	for _, kind := range cfg.AllowedMedia {
		allowed[transport.MediaKind(kind)] = true
	}
	g.mu.Lock()
	g.cfg = cfg
	g.allowed = allowed
	g.mu.Unlock()
}

// HandleMessage inspects one inbound message. It never returns an error:
// per-message failures must not stop the event loop.
func (g *Guard) HandleMessage(ctx context.Context, m *transport.Message) {
	if m == nil {
		return
	}

	g.mu.Lock()
	cfg := g.cfg
	allowed := g.allowed
	g.mu.Unlock()

	// Scope check: only the configured chat and topic matter.
	if m.ChatID != cfg.ChatID || !m.IsTopic || m.ThreadID != cfg.TopicID {
		return
	}
	g.stats.seen.Add(1)

	if allowed[m.Media] && m.Media != transport.MediaNone {
		return
	}

	err := g.adapter.Delete(ctx, transport.MessageRef{ChatID: m.ChatID, MessageID: m.ID})
	if err != nil {
		// A rejected delete (already gone, missing permission) is not fatal;
		// surface it through the logging path only.
		g.stats.deleteFailed.Add(1)
		g.log.Error("delete failed",
			logx.Err(err),
			logx.Int("message_id", m.ID),
			logx.String("from", m.FromUsername))
		g.audit(ctx, m, "delete_failed", err)
		return
	}

	g.stats.deleted.Add(1)
	g.log.Info("deleted message",
		logx.Int("message_id", m.ID),
		logx.String("from", m.FromUsername))
	g.audit(ctx, m, "deleted", nil)
}

func (g *Guard) audit(ctx context.Context, m *transport.Message, outcome string, cause error) {
	if g.store == nil {
		return
	}
	e := storage.DeletionEntry{
		At:           time.Now(),
		ChatID:       m.ChatID,
		ThreadID:     m.ThreadID,
		MessageID:    m.ID,
		FromID:       m.FromID,
		FromUsername: m.FromUsername,
		MediaKind:    string(m.Media),
		Outcome:      outcome,
	}
	if cause != nil {
		e.Error = cause.Error()
	}
	actx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	if err := g.store.AppendDeletion(actx, e); err != nil {
		g.log.Warn("audit append failed", logx.Err(err))
	}
}
