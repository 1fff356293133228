package logging_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vignette/internal/logging"
	"vignette/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (*slog.Logger, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Format:           format,
		Level:            level,
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return logger, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logger, logPath := newFileLogger(t, "console", "info")

	logger.Info("message without caller")

	if text := readLog(t, logPath); strings.Contains(text, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", text)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logger, logPath := newFileLogger(t, "console", "debug")

	logger.Info("message with caller")

	if text := readLog(t, logPath); !strings.Contains(text, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", text)
	}
}

func TestConsoleLoggerFormatsComponentAndSubject(t *testing.T) {
	logger, logPath := newFileLogger(t, "console", "info")

	logger.With(
		logging.String(logging.FieldComponent, "selector"),
		logging.String(logging.FieldPackageUUID, "0a1b2c3d-0000-0000-0000-000000000000"),
		logging.String(logging.FieldIntent, "content_idle"),
	).Info("clips cached", logging.Args(logging.Int("count", 3))...)

	text := readLog(t, logPath)
	if !strings.Contains(text, "[selector]") {
		t.Fatalf("expected component tag in output, got %q", text)
	}
	if !strings.Contains(text, "0a1b2c3d (content_idle)") {
		t.Fatalf("expected abbreviated package subject, got %q", text)
	}
	if !strings.Contains(text, "count=3") {
		t.Fatalf("expected trailing attrs, got %q", text)
	}
}

func TestNewJSONLogger(t *testing.T) {
	logger, logPath := newFileLogger(t, "json", "debug")

	logger.Info("json message", logging.Args(logging.String("k", "v"))...)

	text := readLog(t, logPath)
	for _, fragment := range []string{`"msg":"json message"`, `"k":"v"`, `"level":"info"`} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("expected %q in JSON output %q", fragment, text)
		}
	}
}

func TestNewInvalidFormatFails(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	logger, logPath := newFileLogger(t, "console", "chatty")

	logger.Debug("hidden")
	logger.Info("visible")

	text := readLog(t, logPath)
	if strings.Contains(text, "hidden") {
		t.Fatalf("expected debug suppressed at info level, got %q", text)
	}
	if !strings.Contains(text, "visible") {
		t.Fatalf("expected info line present, got %q", text)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithPackageUUID(ctx, "pkg-uuid")
	ctx = services.WithIntent(ctx, "calm_idle")
	ctx = services.WithRequestID(ctx, "req-xyz")

	logger, logPath := newFileLogger(t, "json", "info")

	logging.WithContext(ctx, logger).Info("contextual log")

	text := readLog(t, logPath)
	for _, fragment := range []string{
		`"package_uuid":"pkg-uuid"`,
		`"intent":"calm_idle"`,
		`"correlation_id":"req-xyz"`,
	} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("expected %q in output %q", fragment, text)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Info("goes nowhere", logging.Args(logging.Error(nil))...)
}
