package app

import (
	"context"
	"fmt"
	"sync"

	"mediatopicbot/internal/config"
	"mediatopicbot/internal/guard"
	"mediatopicbot/internal/mailer"
	"mediatopicbot/internal/report"
	"mediatopicbot/internal/storage"
	"mediatopicbot/internal/transport"
	"mediatopicbot/internal/transport/telegram"
	"mediatopicbot/pkg/logx"
)

// App owns construction and lifecycle of every component. Settings come
// from the environment once; the options file may change at runtime and
// fans out through Apply calls.
type App struct {
	settings config.Settings
	optsm    *config.Manager

	logs *logx.Service
	log  logx.Logger

	adapter transport.Adapter
	store   storage.Store
	guard   *guard.Guard
	report  *report.Service

	updates chan transport.Update

	runCancel context.CancelFunc
	runWG     sync.WaitGroup
}

func New(settings config.Settings, optionsPath string) (*App, error) {
	optsm := config.NewManager(optionsPath, settings.Environment)
	if optionsPath != "" {
		if _, err := optsm.Load(); err != nil {
			return nil, fmt.Errorf("options file: %w", err)
		}
	}
	opts := optsm.Get()

	// The mail notifier exists only in production; in development the
	// email sink is never installed and errors stay local.
	var notifier logx.Notifier
	if settings.IsProduction() {
		m, err := mailer.New(mailer.Config{
			Host:     settings.SMTPHost,
			Port:     opts.Email.Port,
			User:     settings.SMTPUser,
			Password: settings.SMTPPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("mailer: %w", err)
		}
		notifier = m
	}

	logs, log := logx.New(logxConfig(settings, opts), notifier)
	log = log.With(logx.String("comp", "app"))

	ad, err := telegram.New(telegram.Config{Token: settings.BotToken},
		logs.Logger().With(logx.String("comp", "telegram")))
	if err != nil {
		_ = logs.Close()
		return nil, fmt.Errorf("telegram: %w", err)
	}

	st, err := storage.Open(storage.Config{
		Driver: opts.Storage.Driver,
		Path:   opts.Storage.Path,
	}, logs.Logger().With(logx.String("comp", "storage")))
	if err != nil {
		_ = logs.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}

	g := guard.New(guard.Config{
		ChatID:       settings.GroupChatID,
		TopicID:      settings.TopicID,
		AllowedMedia: opts.AllowedMedia,
	}, ad, st, logs.Logger().With(logx.String("comp", "guard")))

	rep := report.New(report.Config{
		Enabled:  opts.Report.Enabled != nil && *opts.Report.Enabled,
		Schedule: opts.Report.Schedule,
	}, g, notifier, logs.Logger().With(logx.String("comp", "report")))

	return &App{
		settings: settings,
		optsm:    optsm,
		logs:     logs,
		log:      log,
		adapter:  ad,
		store:    st,
		guard:    g,
		report:   rep,
		updates:  make(chan transport.Update, 128),
	}, nil
}

func logxConfig(settings config.Settings, opts config.Options) logx.Config {
	return logx.Config{
		Level:           opts.Logging.Level,
		Console:         opts.Logging.Console == nil || *opts.Logging.Console,
		ConsoleMinLevel: opts.Logging.ConsoleLevel,
		File: logx.FileConfig{
			Enabled:    opts.Logging.File.Enabled != nil && *opts.Logging.File.Enabled,
			Path:       opts.Logging.File.Path,
			MaxSizeMB:  opts.Logging.File.MaxSizeMB,
			MaxBackups: opts.Logging.File.MaxBackups,
		},
		Email: logx.EmailConfig{
			Enabled:    settings.IsProduction(),
			MinLevel:   opts.Email.MinLevel,
			RatePerMin: opts.Email.RatePerMin,
		},
	}
}

func (a *App) Start(ctx context.Context) error {
	rctx, cancel := context.WithCancel(ctx)
	a.runCancel = cancel

	if err := a.adapter.Start(rctx, a.updates); err != nil {
		cancel()
		return err
	}

	// The single event loop: updates are handled one at a time in arrival
	// order, and a per-message failure never stops the loop.
	a.runWG.Add(1)
	go func() {
		defer a.runWG.Done()
		for {
			select {
			case <-rctx.Done():
				return
			case up := <-a.updates:
				if up.Message != nil {
					a.guard.HandleMessage(rctx, up.Message)
				}
			}
		}
	}()

	// Options file watch: fan changed options out to the live components.
	a.runWG.Add(1)
	go func() {
		defer a.runWG.Done()
		sub := a.optsm.Subscribe(1)
		go func() {
			if err := a.optsm.Watch(rctx); err != nil {
				a.log.Warn("options watch failed", logx.Err(err))
			}
		}()
		for {
			select {
			case <-rctx.Done():
				return
			case opts := <-sub:
				a.applyOptions(opts)
			}
		}
	}()

	if err := a.report.Start(); err != nil {
		// Unwind: the update loop and watch goroutines are already running.
		if serr := a.adapter.Stop(ctx); serr != nil {
			a.log.Warn("adapter stop", logx.Err(serr))
		}
		cancel()
		a.runWG.Wait()
		return err
	}

	notifyReady(rctx, &a.runWG, a.log)

	a.log.Info("started",
		logx.String("environment", string(a.settings.Environment)),
		logx.Int64("chat_id", a.settings.GroupChatID),
		logx.Int("topic_id", a.settings.TopicID))
	return nil
}

func (a *App) applyOptions(opts config.Options) {
	a.log.Info("options changed, applying")
	a.logs.Apply(logxConfig(a.settings, opts))
	a.guard.Apply(guard.Config{
		ChatID:       a.settings.GroupChatID,
		TopicID:      a.settings.TopicID,
		AllowedMedia: opts.AllowedMedia,
	})
	if err := a.report.Apply(report.Config{
		Enabled:  opts.Report.Enabled != nil && *opts.Report.Enabled,
		Schedule: opts.Report.Schedule,
	}); err != nil {
		a.log.Warn("report apply failed", logx.Err(err))
	}
	// Storage driver changes require a restart; swapping a live store
	// mid-stream is not worth the locking.
}

func (a *App) Stop(ctx context.Context) error {
	notifyStopping(a.log)

	if err := a.adapter.Stop(ctx); err != nil {
		a.log.Warn("adapter stop", logx.Err(err))
	}
	a.report.Stop()

	if a.runCancel != nil {
		a.runCancel()
	}
	a.runWG.Wait()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("store close", logx.Err(err))
		}
	}
	a.log.Info("stopped")
	return a.logs.Close()
}
