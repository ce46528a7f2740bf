package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsWithoutFile(t *testing.T) {
	m := NewManager("", Development)
	opts, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(opts.AllowedMedia) != len(DefaultAllowedMedia) {
		t.Fatalf("unexpected allowed media: %v", opts.AllowedMedia)
	}
	if opts.Logging.Level != "info" {
		t.Fatalf("unexpected log level: %q", opts.Logging.Level)
	}
	if opts.Logging.File.Enabled == nil || *opts.Logging.File.Enabled {
		t.Fatalf("file log should default off in development")
	}
	if opts.Email.Port != 587 || opts.Email.MinLevel != "error" {
		t.Fatalf("unexpected email defaults: %+v", opts.Email)
	}
	if opts.Storage.Driver != "none" {
		t.Fatalf("storage should default to none, got %q", opts.Storage.Driver)
	}
}

func TestProductionDefaultsEnableFileLog(t *testing.T) {
	m := NewManager("", Production)
	opts := m.Get()
	if opts.Logging.File.Enabled == nil || !*opts.Logging.File.Enabled {
		t.Fatalf("file log should default on in production")
	}
	if opts.Logging.File.MaxSizeMB != 10 || opts.Logging.File.MaxBackups != 5 {
		t.Fatalf("unexpected rotation defaults: %+v", opts.Logging.File)
	}
	if opts.Logging.ConsoleLevel != "error" {
		t.Fatalf("production console should default to errors only, got %q", opts.Logging.ConsoleLevel)
	}
}

func TestDevelopmentDefaultsKeepConsoleVerbose(t *testing.T) {
	m := NewManager("", Development)
	if lvl := m.Get().Logging.ConsoleLevel; lvl != "" {
		t.Fatalf("development console should follow the global level, got %q", lvl)
	}
}

func TestFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "options.yaml")
	data := `
allowed_media:
  - photo
logging:
  level: debug
  console: false
email:
  rate_per_min: 2
report:
  schedule: "0 9 * * *"
storage:
  driver: file
  path: ./deletions.jsonl
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	m := NewManager(path, Development)
	opts, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(opts.AllowedMedia) != 1 || opts.AllowedMedia[0] != "photo" {
		t.Fatalf("unexpected allowed media: %v", opts.AllowedMedia)
	}
	if opts.Logging.Level != "debug" {
		t.Fatalf("unexpected level: %q", opts.Logging.Level)
	}
	if opts.Logging.Console == nil || *opts.Logging.Console {
		t.Fatalf("console should be off")
	}
	if opts.Email.RatePerMin != 2 {
		t.Fatalf("unexpected rate: %d", opts.Email.RatePerMin)
	}
	// Untouched fields keep their defaults.
	if opts.Email.Port != 587 {
		t.Fatalf("port default lost: %d", opts.Email.Port)
	}
	if opts.Report.Schedule != "0 9 * * *" {
		t.Fatalf("unexpected schedule: %q", opts.Report.Schedule)
	}
	if opts.Storage.Driver != "file" || opts.Storage.Path != "./deletions.jsonl" {
		t.Fatalf("unexpected storage: %+v", opts.Storage)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "absent.yaml"), Development)
	if _, err := m.Load(); err == nil {
		t.Fatalf("expected error for missing options file")
	}
}

func TestSubscribePublish(t *testing.T) {
	m := NewManager("", Development)
	sub := m.Subscribe(1)

	opts := m.Get()
	opts.Logging.Level = "debug"
	m.publish(opts)

	got := <-sub
	if got.Logging.Level != "debug" {
		t.Fatalf("unexpected published options: %+v", got.Logging)
	}
}
