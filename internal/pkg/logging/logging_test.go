package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger for a bare context")
	}
}

func TestFromContext_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil)).With("session_id", "s1")
	ctx := WithLogger(context.Background(), l)

	FromContext(ctx).Info("marker placed")
	if !bytes.Contains(buf.Bytes(), []byte(`"session_id":"s1"`)) {
		t.Errorf("expected session_id in log line, got %s", buf.String())
	}
}

func TestSetup_Level(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	Setup("warn", "text")
	if slog.Default().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be enabled at warn level")
	}
}
