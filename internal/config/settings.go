package config

import (
	"fmt"
	"net/mail"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Settings is the process-wide configuration sourced from the environment.
// It is loaded once at startup and never mutated afterwards.
type Settings struct {
	Environment Environment `env:"ENVIRONMENT,required"`

	// Telegram bot configuration
	BotToken    string `env:"BOT_TOKEN,required,unset"`
	TopicID     int    `env:"TOPIC_ID,required"`
	GroupChatID int64  `env:"GROUP_CHAT_ID,required"`

	// Email configuration, required only in production.
	// If you're using Gmail, the password needs to be an app password.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD,unset"`
}

func (s Settings) IsProduction() bool { return s.Environment == Production }

// LoadSettings reads the environment (plus an optional .env file in the
// working directory) and validates the result. Any failure here aborts
// startup.
func LoadSettings() (Settings, error) {
	// Best-effort: a missing .env is fine, real deployments set the
	// environment directly.
	_ = godotenv.Load()

	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, err
	}
	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) validate() error {
	switch s.Environment {
	case Development, Production:
	default:
		return fmt.Errorf("ENVIRONMENT must be %q or %q, got %q", Development, Production, s.Environment)
	}

	if s.IsProduction() {
		for name, v := range map[string]string{
			"SMTP_HOST":     s.SMTPHost,
			"SMTP_USER":     s.SMTPUser,
			"SMTP_PASSWORD": s.SMTPPassword,
		} {
			if v == "" {
				return fmt.Errorf("%s is required in production", name)
			}
		}
		if _, err := mail.ParseAddress(s.SMTPUser); err != nil {
			return fmt.Errorf("SMTP_USER is not a valid email address: %w", err)
		}
	}
	return nil
}
