// Package logx configures the bot's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Optional email failure sink (min-level + rate limiting)
//
// The email sink is the bot's failure-notification path: every event at or
// above the configured minimum level is decoded into a Failure record and
// handed to a Notifier on a dedicated worker goroutine, so an SMTP call can
// never delay message processing. Sink registration is explicit (New takes
// the Notifier), which keeps the logging-triggers-email dependency visible
// and testable.
package logx
