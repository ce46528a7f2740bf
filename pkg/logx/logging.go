package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ---- Config ----

type Config struct {
	Level string

	Console bool
	// ConsoleMinLevel, when set, drops console output below that level
	// while file and email sinks keep the full stream.
	ConsoleMinLevel string

	File  FileConfig
	Email EmailConfig
}

// FileConfig controls the JSON file sink. The file rotates by size;
// zero values fall back to 10 MB and 5 backups.
type FileConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

// EmailConfig controls the failure-notification sink.
// Enabled should only be set in production; the sink is never installed
// without a Notifier.
type EmailConfig struct {
	Enabled    bool
	MinLevel   string
	RatePerMin int
}

// Failure is the ephemeral record handed to the Notifier for one
// error-level-or-above log event.
type Failure struct {
	At        time.Time
	Level     string
	Component string
	Location  string // short file:line of the log call site
	Message   string
	Trace     string // error / stack text, empty if none
}

// Notifier delivers one failure record to an operator. Implementations
// must treat each call as a single attempt; the sink never retries.
type Notifier interface {
	Notify(ctx context.Context, f Failure) error
}

// ---- Logger API ----

type Level = zerolog.Level

const (
	LevelDebug = zerolog.DebugLevel
	LevelInfo  = zerolog.InfoLevel
	LevelWarn  = zerolog.WarnLevel
	LevelError = zerolog.ErrorLevel
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

func Stdout() io.Writer { return os.Stdout }

// Field mutates a zerolog event.
//
// This intentionally mirrors the ergonomics of slog.Attr without depending
// on slog. Fields are applied in order; later duplicates win.
type Field func(e *zerolog.Event)

func String(k, v string) Field  { return func(e *zerolog.Event) { e.Str(k, v) } }
func Int(k string, v int) Field { return func(e *zerolog.Event) { e.Int(k, v) } }
func Int64(k string, v int64) Field {
	return func(e *zerolog.Event) { e.Int64(k, v) }
}
func Uint64(k string, v uint64) Field {
	return func(e *zerolog.Event) { e.Uint64(k, v) }
}
func Bool(k string, v bool) Field { return func(e *zerolog.Event) { e.Bool(k, v) } }
func Duration(k string, v time.Duration) Field {
	return func(e *zerolog.Event) { e.Dur(k, v) }
}
func Time(k string, v time.Time) Field { return func(e *zerolog.Event) { e.Time(k, v) } }
func Any(k string, v any) Field        { return func(e *zerolog.Event) { e.Interface(k, v) } }
func Err(err error) Field {
	return func(e *zerolog.Event) {
		if err != nil {
			e.Err(err)
		}
	}
}

// Logger is a lightweight structured logger.
//
// - If created from Service, it stays "live" across Service.Apply() calls.
// - With() returns a derived logger with additional fixed fields.
// - Zero value is a safe no-op logger.
type Logger struct {
	svc     *Service
	base    zerolog.Logger
	hasBase bool

	fields []Field
}

// Nop returns a logger that never writes anything.
func Nop() Logger {
	return Logger{base: zerolog.Nop(), hasBase: true}
}

// NewConsole creates a standalone console logger (no Service, no fanout).
// Useful for bootstrapping before the full log service is initialized.
func NewConsole(level string) Logger {
	zerolog.TimeFieldFormat = consoleTimeFormat
	zerolog.ErrorFieldName = "err"

	cw := zerolog.ConsoleWriter{Out: Stdout(), TimeFormat: consoleTimeFormat}
	zl := zerolog.New(cw).Level(parseLevel(level, zerolog.InfoLevel)).With().Timestamp().Logger()
	return Logger{base: zl, hasBase: true}
}

func (l Logger) IsZero() bool { return l.svc == nil && !l.hasBase && len(l.fields) == 0 }

func (l Logger) root() zerolog.Logger {
	if l.svc != nil {
		return l.svc.current()
	}
	if l.hasBase {
		return l.base
	}
	return zerolog.Nop()
}

// Enabled reports whether the given level would be logged.
func (l Logger) Enabled(level Level) bool {
	zl := l.root()
	return level >= zl.GetLevel()
}

func (l Logger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	cp := l
	cp.fields = append(append([]Field(nil), l.fields...), fields...)
	return cp
}

func (l Logger) Debug(msg string, fields ...Field) { l.log(zerolog.DebugLevel, msg, fields...) }
func (l Logger) Info(msg string, fields ...Field)  { l.log(zerolog.InfoLevel, msg, fields...) }
func (l Logger) Warn(msg string, fields ...Field)  { l.log(zerolog.WarnLevel, msg, fields...) }
func (l Logger) Error(msg string, fields ...Field) { l.log(zerolog.ErrorLevel, msg, fields...) }

func (l Logger) log(level zerolog.Level, msg string, fields ...Field) {
	zl := l.root()
	e := zl.WithLevel(level)
	if e == nil {
		return
	}

	// Caller: keep it short (file:line), avoid noisy function names and full paths.
	if caller := shortCaller(3); caller != "" {
		e.Str(zerolog.CallerFieldName, caller)
	}

	for _, f := range l.fields {
		if f != nil {
			f(e)
		}
	}
	for _, f := range fields {
		if f != nil {
			f(e)
		}
	}

	e.Msg(msg)
}

func shortCaller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok || file == "" {
		return ""
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

// ---- Service (dynamic config + sinks) ----

type Service struct {
	mu  sync.Mutex
	cfg Config

	root atomic.Value // stores zerolog.Logger

	fileSink io.Closer

	// email failure notification
	notifier   Notifier
	mailQueue  chan Failure
	mailOnce   sync.Once
	mailCancel context.CancelFunc
	mailWG     sync.WaitGroup

	// guarded by mu
	limiter  *rate.Limiter
	minLevel zerolog.Level
}

// New creates the logging service, applies the initial config immediately,
// and returns both the Service and a root Logger.
//
// notifier may be nil; the email sink is then never installed regardless
// of cfg.Email.Enabled.
func New(cfg Config, notifier Notifier) (*Service, Logger) {
	// Global zerolog knobs.
	zerolog.ErrorFieldName = "err"
	zerolog.TimeFieldFormat = consoleTimeFormat

	s := &Service{
		cfg:       cfg,
		notifier:  notifier,
		mailQueue: make(chan Failure, 64),
	}

	// Safe bootstrap root.
	boot := newConsoleRoot(parseLevel(cfg.Level, zerolog.InfoLevel))
	s.root.Store(boot)

	s.Apply(cfg)

	return s, Logger{svc: s}
}

func (s *Service) current() zerolog.Logger {
	v := s.root.Load()
	if v == nil {
		return zerolog.Nop()
	}
	zl, ok := v.(zerolog.Logger)
	if !ok {
		return zerolog.Nop()
	}
	return zl
}

func (s *Service) Logger() Logger { return Logger{svc: s} }

// Close stops the mail worker and closes the log file, if any.
func (s *Service) Close() error {
	s.mu.Lock()
	f := s.fileSink
	s.fileSink = nil
	cancel := s.mailCancel
	s.mailCancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		s.mailWG.Wait()
	}
	if f != nil {
		_ = f.Close()
	}
	return nil
}

// Apply swaps logger outputs/levels at runtime.
// It is safe to call concurrently.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg

	s.minLevel = parseLevel(cfg.Email.MinLevel, zerolog.ErrorLevel)
	rpm := cfg.Email.RatePerMin
	if rpm <= 0 {
		rpm = 6
	}
	s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)

	// Close previous file sink (if any).
	if s.fileSink != nil {
		_ = s.fileSink.Close()
		s.fileSink = nil
	}

	lvl := parseLevel(cfg.Level, zerolog.InfoLevel)

	writers := make([]io.Writer, 0, 3)
	if cfg.Console {
		var cw io.Writer = newConsoleWriter(Stdout())
		if min := parseLevel(cfg.ConsoleMinLevel, zerolog.NoLevel); min != zerolog.NoLevel {
			cw = levelFilterWriter{next: cw, min: min}
		}
		writers = append(writers, cw)
	}
	if cfg.File.Enabled {
		path := strings.TrimSpace(cfg.File.Path)
		if path == "" {
			path = "./mediatopicbot.log"
		}
		maxSize := cfg.File.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		maxBackups := cfg.File.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 5
		}
		lj := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
		}
		s.fileSink = lj
		writers = append(writers, lj)
	}

	if cfg.Email.Enabled && s.notifier != nil {
		// Start worker once.
		s.mailOnce.Do(func() {
			ctx, cancel := context.WithCancel(context.Background())
			s.mailCancel = cancel
			s.mailWG.Add(1)
			go func() {
				defer s.mailWG.Done()
				s.mailWorker(ctx)
			}()
		})
		writers = append(writers, &emailWriter{svc: s})
	}

	if len(writers) == 0 {
		writers = append(writers, newConsoleWriter(Stdout()))
	}

	mw := zerolog.MultiLevelWriter(writers...)
	zl := zerolog.New(mw).Level(lvl).With().Timestamp().Logger()
	s.root.Store(zl)
}

func newConsoleRoot(lvl zerolog.Level) zerolog.Logger {
	cw := newConsoleWriter(Stdout())
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}

func newConsoleWriter(w io.Writer) io.Writer {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
	// Keep caller short and stable.
	cw.FormatCaller = func(i interface{}) string {
		s, _ := i.(string)
		return s
	}
	return cw
}

// levelFilterWriter drops events below min before they reach the wrapped
// writer. Other sinks in the same MultiLevelWriter still see every event.
type levelFilterWriter struct {
	next io.Writer
	min  zerolog.Level
}

func (w levelFilterWriter) Write(p []byte) (int, error) { return w.next.Write(p) }

func (w levelFilterWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < w.min {
		return len(p), nil
	}
	return w.next.Write(p)
}

func parseLevel(s string, def zerolog.Level) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return def
	}
}

func (s *Service) mailWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-s.mailQueue:
			if s.notifier == nil {
				continue
			}
			sctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			err := s.notifier.Notify(sctx, f)
			cancel()
			if err != nil {
				// Never report notification failures through the logger itself;
				// that would re-enter this sink.
				fmt.Fprintf(os.Stderr, "logx: failure email not sent: %v\n", err)
			}
		}
	}
}

func (s *Service) enqueueFailure(f Failure) {
	// Never block core logging.
	select {
	case s.mailQueue <- f:
	default:
		fmt.Fprintln(os.Stderr, "logx: failure email queue full, dropping")
	}
}

// ---- Email writer (zerolog sink) ----

type emailWriter struct{ svc *Service }

func (w *emailWriter) Write(p []byte) (int, error) {
	// Default to info when WriteLevel isn't used.
	return w.WriteLevel(zerolog.InfoLevel, p)
}

func (w *emailWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	s := w.svc
	if s == nil {
		return len(p), nil
	}

	s.mu.Lock()
	lim := s.limiter
	min := s.minLevel
	s.mu.Unlock()

	if s.notifier == nil || lim == nil {
		return len(p), nil
	}
	if level < min {
		return len(p), nil
	}
	if !lim.Allow() {
		return len(p), nil
	}

	s.enqueueFailure(decodeFailure(level, p))
	return len(p), nil
}

// decodeFailure best-effort decodes a zerolog JSON line into a Failure.
func decodeFailure(level zerolog.Level, p []byte) Failure {
	f := Failure{At: time.Now(), Level: strings.ToUpper(level.String())}

	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(p), &m); err != nil {
		f.Message = strings.TrimSpace(string(p))
		return f
	}

	if ts, _ := m["time"].(string); ts != "" {
		if at, err := time.Parse(consoleTimeFormat, ts); err == nil {
			f.At = at
		}
	}
	f.Message, _ = m["message"].(string)
	f.Component, _ = m["comp"].(string)
	f.Location, _ = m[zerolog.CallerFieldName].(string)
	if errText, _ := m["err"].(string); errText != "" {
		f.Trace = errText
	}
	if stack, _ := m["stack"].(string); stack != "" {
		if f.Trace != "" {
			f.Trace += "\n"
		}
		f.Trace += stack
	}

	// Remaining fields become part of the message so context survives the
	// template's fixed slots.
	var extras []string
	for k, v := range m {
		switch k {
		case "time", "level", "message", "comp", "err", "stack", zerolog.CallerFieldName:
			continue
		}
		extras = append(extras, k+"="+fmt.Sprint(v))
	}
	if len(extras) > 0 {
		sort.Strings(extras)
		f.Message += " (" + strings.Join(extras, " ") + ")"
	}
	return f
}
