package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogLogger_TextLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "text", "debug")
	ctx := context.Background()

	log.Debug(ctx, "rendering", "box", 1800)
	log.Info(ctx, "uploaded", "key", "sunset/sunset.1800x1200.jpeg")
	log.Warn(ctx, "no XMP metadata")
	log.Error(ctx, "upload failed", "attempt", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if assert.Len(t, lines, 4) {
		assert.Contains(t, lines[0], "level=DEBUG msg=rendering box=1800")
		assert.Contains(t, lines[1], "level=INFO msg=uploaded key=sunset/sunset.1800x1200.jpeg")
		assert.Contains(t, lines[2], `level=WARN msg="no XMP metadata"`)
		assert.Contains(t, lines[3], `level=ERROR msg="upload failed" attempt=2`)
	}
}

func TestSlogLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "text", "info").With("module", "photos")

	log.With("request_id", "r-1").Info(context.TODO(), "photo created", "id", 42)

	out := buf.String()
	for _, want := range []string{"module=photos", "request_id=r-1", `msg="photo created"`, "id=42"} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_Slog(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "json", "info").Slog().Info("via slog")
	assert.Contains(t, buf.String(), `"msg":"via slog"`)
}

func TestNew_JSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", "warn")
	ctx := context.Background()

	log.Info(ctx, "hidden")
	log.Warn(ctx, "shown", "photo_id", 7)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info must be filtered at warn level:\n%s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"photo_id":7`) {
		t.Fatalf("expected JSON record, got:\n%s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDiscard_DoesNotPanic(t *testing.T) {
	Discard().With("k", "v").Error(context.Background(), "nothing")
}
