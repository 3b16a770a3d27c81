package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/robfig/cron/v3"
)

func decodeLogLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not JSON: %q: %v", line, err)
		}
		lines = append(lines, entry)
	}
	return lines
}

func TestCronLogger(t *testing.T) {
	t.Run("skipped run is a structured warning", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
		cronLog := newCronLogger(logger)

		started := make(chan struct{})
		release := make(chan struct{})
		job := cron.SkipIfStillRunning(cronLog)(cron.FuncJob(func() {
			close(started)
			<-release
		}))

		done := make(chan struct{})
		go func() {
			job.Run()
			close(done)
		}()
		<-started
		job.Run()
		close(release)
		<-done

		lines := decodeLogLines(t, &buf)
		if len(lines) != 1 {
			t.Fatalf("expected 1 log line, got %d: %s", len(lines), buf.String())
		}
		if lines[0]["level"] != "WARN" {
			t.Errorf("expected WARN level, got %v", lines[0]["level"])
		}
		if lines[0]["component"] != "scheduler" {
			t.Errorf("expected component=scheduler, got %v", lines[0]["component"])
		}
		if !strings.Contains(lines[0]["msg"].(string), "skipped") {
			t.Errorf("unexpected message %q", lines[0]["msg"])
		}
	})

	t.Run("scheduler chatter stays at debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

		newCronLogger(logger).Info("wake", "now", "2024-03-01T10:00:00Z")

		if buf.Len() != 0 {
			t.Errorf("expected no output at info level, got %s", buf.String())
		}
	})

	t.Run("errors keep key values and the error", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		newCronLogger(logger).Error(errors.New("boom"), "panic", "stack", "trace")

		lines := decodeLogLines(t, &buf)
		if len(lines) != 1 {
			t.Fatalf("expected 1 log line, got %d", len(lines))
		}
		entry := lines[0]
		if entry["level"] != "ERROR" || entry["msg"] != "panic" {
			t.Errorf("unexpected entry %v", entry)
		}
		if entry["error"] != "boom" || entry["stack"] != "trace" {
			t.Errorf("expected error and stack attributes, got %v", entry)
		}
	})
}
