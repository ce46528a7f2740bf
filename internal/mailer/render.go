package mailer

import (
	_ "embed"
	"html/template"
	"strings"
	"time"

	"mediatopicbot/pkg/logx"
)

//go:embed error_email.html
var emailTemplate string

var tmpl = template.Must(template.New("error_email").Parse(emailTemplate))

type templateVars struct {
	Timestamp     string
	Level         string
	LevelLower    string
	LevelColor    string
	LoggerName    string
	FileLocation  string
	Message       string
	ExceptionInfo string
}

const (
	greenHex  = "#28a745"
	redHex    = "#dc3545"
	yellowHex = "#ffc107"
)

func levelColor(level string) string {
	switch strings.ToUpper(level) {
	case "ERROR", "CRITICAL", "FATAL":
		return redHex
	case "WARN", "WARNING":
		return yellowHex
	default:
		return greenHex
	}
}

// Render produces the HTML body for one failure record. All untrusted
// fields pass through html/template escaping, so message or trace text
// cannot inject live markup into the email.
func Render(f logx.Failure) (string, error) {
	at := f.At
	if at.IsZero() {
		at = time.Now()
	}
	level := strings.ToUpper(f.Level)
	if level == "" {
		level = "ERROR"
	}
	name := f.Component
	if name == "" {
		name = "main"
	}

	var b strings.Builder
	err := tmpl.Execute(&b, templateVars{
		Timestamp:     at.Format("2006-01-02 15:04:05"),
		Level:         level,
		LevelLower:    strings.ToLower(level),
		LevelColor:    levelColor(level),
		LoggerName:    name,
		FileLocation:  f.Location,
		Message:       f.Message,
		ExceptionInfo: f.Trace,
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
