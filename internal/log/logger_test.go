package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Component: component,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, ComponentCatalog)

	l.Info("Game added", FieldPlaceID, "111")
	out := buf.String()
	if !strings.Contains(out, "component=catalog") || !strings.Contains(out, "place_id=111") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentReconciler).Warn("poll failed")
	if !strings.Contains(buf.String(), "component=reconciler") {
		t.Fatalf("WithComponent not applied: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithGame("1", "2", "Obby").
		WithError(errors.New("boom")).
		WithError(nil).
		WithOperation(OpSync)

	if f[FieldPlaceID] != "1" || f[FieldUniverseID] != "2" || f[FieldGameName] != "Obby" {
		t.Fatalf("game fields missing: %v", f)
	}
	if f[FieldError] != "boom" || f[FieldOperation] != OpSync {
		t.Fatalf("unexpected fields: %v", f)
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("ToSlice length mismatch")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := newBufferLogger(&buf, ComponentHTTP)

	var seen string
	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
			FromContext(r.Context()).Info("inside")
		}),
	))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen != "req_1" {
		t.Fatalf("request id not in context: %q", seen)
	}
	if rr.Header().Get("X-Request-ID") != "req_1" {
		t.Fatalf("request id header missing")
	}
	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Fatalf("logger not enriched: %s", buf.String())
	}
}

func TestFromContextFallback(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected fallback logger")
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentHTTP))
	req := httptest.NewRequest(http.MethodPost, "/api/games", nil)
	ctx := context.WithValue(context.Background(), RequestIDContextKey, "req-7")

	sl.LogHTTPEnd(ctx, req, http.StatusCreated, 12, "203.0.113.5")
	sl.LogHTTPEnd(ctx, req, http.StatusConflict, 3, "203.0.113.5")
	sl.LogHTTPEnd(ctx, req, http.StatusBadGateway, 900, "203.0.113.5")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}
	for i, level := range []string{"level=INFO", "level=WARN", "level=ERROR"} {
		if !strings.Contains(lines[i], level) || !strings.Contains(lines[i], "request_id=req-7") {
			t.Errorf("line %d: want %s with request id, got %s", i, level, lines[i])
		}
	}

	buf.Reset()
	sl.LogGameAdded(ctx, "606849621", "245662005", "Jailbreak", "2024-05-01T00:00:00Z")
	out := buf.String()
	for _, want := range []string{"place_id=606849621", "universe_id=245662005", "operation=create", "last_updated=2024-05-01T00:00:00Z"} {
		if !strings.Contains(out, want) {
			t.Errorf("game added line missing %s: %s", want, out)
		}
	}
}
