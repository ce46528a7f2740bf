package mailer

import (
	"context"
	"errors"
	"strings"
	"time"

	mail "github.com/wneessen/go-mail"

	"mediatopicbot/pkg/logx"
)

const defaultSMTPPort = 587

type Config struct {
	Host     string
	Port     int
	User     string // used for auth and as both From and To
	Password string
}

// Mailer sends failure-notification emails over authenticated SMTP with
// STARTTLS. It implements logx.Notifier. One attempt per call, no retries.
type Mailer struct {
	cfg Config
}

func New(cfg Config) (*Mailer, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is empty")
	}
	if strings.TrimSpace(cfg.User) == "" {
		return nil, errors.New("smtp user is empty")
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultSMTPPort
	}
	return &Mailer{cfg: cfg}, nil
}

func (m *Mailer) Notify(ctx context.Context, f logx.Failure) error {
	body, err := Render(f)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.User); err != nil {
		return err
	}
	if err := msg.To(m.cfg.User); err != nil {
		return err
	}
	msg.Subject(subject(f))
	msg.SetBodyString(mail.TypeTextHTML, body)

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	return client.DialAndSendWithContext(ctx, msg)
}

func subject(f logx.Failure) string {
	at := f.At
	if at.IsZero() {
		at = time.Now()
	}
	return "Application " + strings.ToUpper(f.Level) + " - " + at.Format("2006-01-02 15:04:05")
}
