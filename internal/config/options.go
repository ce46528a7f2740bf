package config

// Options is the optional tuning file. Everything here has a safe default
// so the bot runs with no file at all; secrets and chat identity stay in
// the environment (Settings).
type Options struct {
	// AllowedMedia lists the media kinds that may stay in the topic.
	AllowedMedia []string `yaml:"allowed_media"`

	Logging LoggingOptions `yaml:"logging"`
	Email   EmailOptions   `yaml:"email"`
	Report  ReportOptions  `yaml:"report"`
	Storage StorageOptions `yaml:"storage"`
}

type LoggingOptions struct {
	Level string `yaml:"level"`

	Console *bool `yaml:"console"`
	// ConsoleLevel raises the console minimum independently of Level,
	// e.g. "error" keeps the terminal quiet while the file log stays full.
	ConsoleLevel string `yaml:"console_level"`

	File FileOptions `yaml:"file"`
}

type FileOptions struct {
	Enabled    *bool  `yaml:"enabled"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type EmailOptions struct {
	MinLevel   string `yaml:"min_level"`
	RatePerMin int    `yaml:"rate_per_min"`
	Port       int    `yaml:"port"`
}

type ReportOptions struct {
	Enabled  *bool  `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

type StorageOptions struct {
	Driver string `yaml:"driver"` // none | file | sqlite
	Path   string `yaml:"path"`
}

// DefaultAllowedMedia mirrors the message kinds the topic is meant for.
var DefaultAllowedMedia = []string{
	"photo",
	"video",
	"animation",
	"document",
	"video_note",
	"story",
	"sticker",
}

// Defaults returns the options used when no file is given. Production
// additionally enables the rotating JSON file log and raises the console
// to errors only.
func Defaults(environment Environment) Options {
	consoleOn := true
	consoleLevel := ""
	fileOn := environment == Production
	if environment == Production {
		consoleLevel = "error"
	}
	reportOn := true
	return Options{
		AllowedMedia: append([]string(nil), DefaultAllowedMedia...),
		Logging: LoggingOptions{
			Level:        "info",
			Console:      &consoleOn,
			ConsoleLevel: consoleLevel,
			File: FileOptions{
				Enabled:    &fileOn,
				Path:       "./mediatopicbot.log",
				MaxSizeMB:  10,
				MaxBackups: 5,
			},
		},
		Email: EmailOptions{
			MinLevel:   "error",
			RatePerMin: 6,
			Port:       587,
		},
		Report: ReportOptions{
			Enabled:  &reportOn,
			Schedule: "@daily",
		},
		Storage: StorageOptions{Driver: "none"},
	}
}

// merge overlays file values onto defaults. Nil pointers and zero values
// keep the default.
func merge(base Options, file Options) Options {
	out := base
	if len(file.AllowedMedia) > 0 {
		out.AllowedMedia = append([]string(nil), file.AllowedMedia...)
	}
	if file.Logging.Level != "" {
		out.Logging.Level = file.Logging.Level
	}
	if file.Logging.Console != nil {
		out.Logging.Console = file.Logging.Console
	}
	if file.Logging.ConsoleLevel != "" {
		out.Logging.ConsoleLevel = file.Logging.ConsoleLevel
	}
	if file.Logging.File.Enabled != nil {
		out.Logging.File.Enabled = file.Logging.File.Enabled
	}
	if file.Logging.File.Path != "" {
		out.Logging.File.Path = file.Logging.File.Path
	}
	if file.Logging.File.MaxSizeMB > 0 {
		out.Logging.File.MaxSizeMB = file.Logging.File.MaxSizeMB
	}
	if file.Logging.File.MaxBackups > 0 {
		out.Logging.File.MaxBackups = file.Logging.File.MaxBackups
	}
	if file.Email.MinLevel != "" {
		out.Email.MinLevel = file.Email.MinLevel
	}
	if file.Email.RatePerMin > 0 {
		out.Email.RatePerMin = file.Email.RatePerMin
	}
	if file.Email.Port > 0 {
		out.Email.Port = file.Email.Port
	}
	if file.Report.Enabled != nil {
		out.Report.Enabled = file.Report.Enabled
	}
	if file.Report.Schedule != "" {
		out.Report.Schedule = file.Report.Schedule
	}
	if file.Storage.Driver != "" {
		out.Storage.Driver = file.Storage.Driver
	}
	if file.Storage.Path != "" {
		out.Storage.Path = file.Storage.Path
	}
	return out
}
