package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	"mediatopicbot/internal/transport"
	"mediatopicbot/pkg/logx"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
}

// Adapter connects the bot to Telegram via long polling. Inbound messages
// are classified and pushed into the consumer channel without blocking the
// poll loop.
type Adapter struct {
	cfg Config
	log logx.Logger

	bot       *tele.Bot
	out       chan<- transport.Update
	runCancel context.CancelFunc
	runWG     sync.WaitGroup
	runMu     sync.Mutex
	running   bool

	// droppedUpdates counts updates dropped because the consumer was slower
	// than the Telegram poll loop. Logged periodically to avoid per-update
	// log spam.
	droppedUpdates uint64
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, log: log, bot: b}, nil
}

// messageEndpoints covers every message payload this bot needs to see:
// text, all media kinds, and the non-media payloads that must not stay in
// the topic.
var messageEndpoints = []string{
	tele.OnText,
	tele.OnPhoto,
	tele.OnVideo,
	tele.OnAnimation,
	tele.OnDocument,
	tele.OnVideoNote,
	tele.OnSticker,
	tele.OnAudio,
	tele.OnVoice,
	tele.OnContact,
	tele.OnLocation,
	tele.OnVenue,
	tele.OnDice,
	tele.OnPoll,
	tele.OnGame,
}

func (a *Adapter) Start(ctx context.Context, out chan<- transport.Update) error {
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return nil
	}
	a.running = true
	a.out = out
	rctx, cancel := context.WithCancel(ctx)
	a.runCancel = cancel
	a.runWG.Add(2)
	a.runMu.Unlock()

	// Periodic summary for dropped updates (avoid noisy per-update logs).
	go func() {
		defer a.runWG.Done()
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-rctx.Done():
				// Final flush.
				if n := atomic.SwapUint64(&a.droppedUpdates, 0); n > 0 {
					a.log.Warn("incoming updates dropped (channel full)", logx.Uint64("count", n), logx.Int("chan_cap", cap(out)))
				}
				return
			case <-ticker.C:
				if n := atomic.SwapUint64(&a.droppedUpdates, 0); n > 0 {
					a.log.Warn("incoming updates dropped (channel full)", logx.Uint64("count", n), logx.Int("chan_cap", cap(out)))
				}
			}
		}
	}()

	handle := func(c tele.Context) error {
		m := c.Message()
		if m == nil || isCommand(m) {
			return nil
		}
		up := transport.Update{Message: convertMessage(m)}
		select {
		case out <- up:
		default:
			atomic.AddUint64(&a.droppedUpdates, 1)
		}
		return nil
	}
	for _, ep := range messageEndpoints {
		a.bot.Handle(ep, handle)
	}

	go func() {
		defer a.runWG.Done()
		// Ensure we stop telebot when context is cancelled.
		go func() {
			<-rctx.Done()
			a.bot.Stop()
		}()
		a.log.Info("polling started")
		a.bot.Start() // blocks until Stop() called
	}()

	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	// Best-effort graceful stop. Never block shutdown for too long on the
	// Telegram long-poll.
	a.runMu.Lock()
	cancel := a.runCancel
	a.runCancel = nil
	wasRunning := a.running
	a.running = false
	a.runMu.Unlock()

	if !wasRunning {
		a.log.Debug("telegram stop called but not running")
		return nil
	}

	if cancel != nil {
		cancel()
	}

	// telebot Stop is expected to be fast; run it async just in case.
	if a.bot != nil {
		go a.bot.Stop()
	}

	done := make(chan struct{})
	go func() {
		a.runWG.Wait()
		close(done)
	}()

	// Grace window: keep shutdown snappy even if getUpdates long-poll is
	// still waiting.
	grace := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		rem := time.Until(dl)
		if rem > 0 && rem < grace {
			grace = rem
		}
	}
	t := time.NewTimer(grace)
	defer t.Stop()

	select {
	case <-done:
		a.log.Info("polling stopped")
		return nil
	case <-ctx.Done():
		a.log.Warn("telegram stop cancelled", logx.Any("err", ctx.Err()))
		return ctx.Err()
	case <-t.C:
		a.log.Warn("telegram stop grace elapsed; continuing shutdown")
		return nil
	}
}

// Delete maps to Telegram's deleteMessage call. One attempt; the caller
// decides what a failure means.
func (a *Adapter) Delete(ctx context.Context, ref transport.MessageRef) error {
	_ = ctx // telebot v4 does not thread a context through API calls
	return a.bot.Delete(tele.StoredMessage{
		ChatID:    ref.ChatID,
		MessageID: strconv.Itoa(ref.MessageID),
	})
}

// isCommand reports whether the message is a bot command ("/start",
// "/help@somebot"). Commands are routed like plain text by the poller but
// are not subject to the media rule, so the adapter drops them here.
func isCommand(m *tele.Message) bool {
	for _, e := range m.Entities {
		if e.Type == tele.EntityCommand && e.Offset == 0 {
			return true
		}
	}
	return false
}

func convertMessage(m *tele.Message) *transport.Message {
	msg := &transport.Message{
		ID:       m.ID,
		ChatID:   m.Chat.ID,
		ThreadID: m.ThreadID,
		IsTopic:  m.TopicMessage,
		Text:     m.Text,
		Media:    classifyMedia(m),
	}
	if m.Sender != nil {
		msg.FromID = m.Sender.ID
		msg.FromUsername = m.Sender.Username
	}
	return msg
}

func classifyMedia(m *tele.Message) transport.MediaKind {
	switch {
	case m.Photo != nil:
		return transport.MediaPhoto
	case m.Video != nil:
		return transport.MediaVideo
	case m.Animation != nil:
		return transport.MediaAnimation
	case m.Document != nil:
		return transport.MediaDocument
	case m.VideoNote != nil:
		return transport.MediaVideoNote
	case m.Story != nil:
		return transport.MediaStory
	case m.Sticker != nil:
		return transport.MediaSticker
	case m.Audio != nil:
		return transport.MediaAudio
	case m.Voice != nil:
		return transport.MediaVoice
	default:
		return transport.MediaNone
	}
}
