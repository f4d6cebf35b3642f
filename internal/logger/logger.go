package logger

import (
	"log/slog"
)

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger,
	}
}

func (l *SlogLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l *SlogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func (l *SlogLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// Nop discards everything. Used by tests and by commands that run before the
// real handler is configured.
type Nop struct{}

func (Nop) Info(msg string, args ...any)  {}
func (Nop) Warn(msg string, args ...any)  {}
func (Nop) Error(msg string, args ...any) {}
