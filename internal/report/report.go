package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mediatopicbot/internal/guard"
	"mediatopicbot/pkg/logx"
)

type Config struct {
	Enabled  bool
	Schedule string // cron expression, e.g. "@daily" or "0 9 * * *"
}

// Service periodically logs the guard's activity counters. When a digest
// notifier is set (production), the same summary also goes out as an INFO
// email. Send failures are contained like any notification error.
type Service struct {
	log    logx.Logger
	guard  *guard.Guard
	digest logx.Notifier // nil outside production

	parser cron.Parser

	mu      sync.Mutex
	cfg     Config
	c       *cron.Cron
	entryID cron.EntryID
}

func New(cfg Config, g *guard.Guard, digest logx.Notifier, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:    log,
		guard:  g,
		digest: digest,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		cfg:    cfg,
	}
}

func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}
	if !s.cfg.Enabled {
		return nil
	}

	s.c = cron.New(cron.WithParser(s.parser))
	id, err := s.c.AddFunc(s.scheduleLocked(), s.run)
	if err != nil {
		s.c = nil
		return fmt.Errorf("report schedule: %w", err)
	}
	s.entryID = id
	s.c.Start()
	s.log.Debug("report scheduled", logx.String("schedule", s.scheduleLocked()))
	return nil
}

// Apply swaps the schedule at runtime.
func (s *Service) Apply(cfg Config) error {
	s.mu.Lock()
	old := s.cfg
	s.cfg = cfg
	running := s.c != nil
	s.mu.Unlock()

	if !running {
		if cfg.Enabled {
			return s.Start()
		}
		return nil
	}
	if !cfg.Enabled {
		s.Stop()
		return nil
	}
	if cfg.Schedule == old.Schedule {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return nil
	}
	s.c.Remove(s.entryID)
	id, err := s.c.AddFunc(s.scheduleLocked(), s.run)
	if err != nil {
		return fmt.Errorf("report schedule: %w", err)
	}
	s.entryID = id
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c != nil {
		ctx := c.Stop()
		<-ctx.Done()
	}
}

func (s *Service) scheduleLocked() string {
	if s.cfg.Schedule == "" {
		return "@daily"
	}
	return s.cfg.Schedule
}

func (s *Service) run() {
	snap := s.guard.Snapshot(true)
	s.log.Info("activity summary",
		logx.Uint64("seen", snap.Seen),
		logx.Uint64("deleted", snap.Deleted),
		logx.Uint64("delete_failed", snap.DeleteFailed))

	if s.digest == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := s.digest.Notify(ctx, logx.Failure{
		At:        time.Now(),
		Level:     "INFO",
		Component: "report",
		Message: fmt.Sprintf("Daily activity: %d messages in scope, %d deleted, %d delete failures.",
			snap.Seen, snap.Deleted, snap.DeleteFailed),
	})
	if err != nil {
		s.log.Warn("digest email not sent", logx.Err(err))
	}
}
