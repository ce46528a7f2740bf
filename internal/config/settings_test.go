package config

import (
	"strings"
	"testing"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("BOT_TOKEN", "123456:test-token")
	t.Setenv("TOPIC_ID", "123")
	t.Setenv("GROUP_CHAT_ID", "-100456")
}

func TestLoadDevelopment(t *testing.T) {
	setBaseEnv(t)

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Environment != Development {
		t.Fatalf("unexpected environment: %q", s.Environment)
	}
	if s.BotToken != "123456:test-token" {
		t.Fatalf("unexpected token")
	}
	if s.TopicID != 123 || s.GroupChatID != -100456 {
		t.Fatalf("unexpected ids: topic=%d chat=%d", s.TopicID, s.GroupChatID)
	}
	if s.IsProduction() {
		t.Fatalf("development flagged as production")
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TOPIC_ID", "")

	if _, err := LoadSettings(); err == nil {
		t.Fatalf("expected failure for missing TOPIC_ID")
	}
}

func TestLoadBadEnvironment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENVIRONMENT", "staging")

	_, err := LoadSettings()
	if err == nil {
		t.Fatalf("expected failure for unknown environment")
	}
	if !strings.Contains(err.Error(), "ENVIRONMENT") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProductionRequiresSMTP(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENVIRONMENT", "production")

	_, err := LoadSettings()
	if err == nil {
		t.Fatalf("expected failure without smtp settings")
	}
	if !strings.Contains(err.Error(), "required in production") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProductionWithSMTP(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "ops@example.com")
	t.Setenv("SMTP_PASSWORD", "app-password")

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !s.IsProduction() {
		t.Fatalf("expected production")
	}
	if s.SMTPHost != "smtp.example.com" || s.SMTPUser != "ops@example.com" {
		t.Fatalf("unexpected smtp settings: %+v", s)
	}
}

func TestProductionRejectsBadSMTPUser(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "not-an-address")
	t.Setenv("SMTP_PASSWORD", "app-password")

	if _, err := LoadSettings(); err == nil {
		t.Fatalf("expected failure for invalid SMTP_USER")
	}
}
