package main

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// cronLogger sends scheduler events to slog. Skipped runs are warnings; the
// rest of the scheduler chatter is debug output.
type cronLogger struct {
	logger *slog.Logger
}

func newCronLogger(logger *slog.Logger) cron.Logger {
	return cronLogger{logger: logger.With("component", "scheduler")}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	level := slog.LevelDebug
	if msg == "skip" {
		level = slog.LevelWarn
		msg = "scheduled sync skipped, previous run still in progress"
	}
	l.logger.Log(context.Background(), level, msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
