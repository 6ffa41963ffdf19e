package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gameradar/internal/core"
	"gameradar/internal/reconciler"
	"gameradar/internal/sheets"
)

func TestResponseBuilder_JSON(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		JSON(map[string]string{"name": "Default"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Header().Get("X-Custom") != "value" {
		t.Errorf("custom header not set")
	}
	if w.Body.String() != "{\"name\":\"Default\"}\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestResponseBuilder_Text(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().Text("text/csv; charset=utf-8", "a,b").Write(w)

	if w.Body.String() != "a,b" || w.Header().Get("Content-Type") != "text/csv; charset=utf-8" {
		t.Errorf("unexpected response %q %q", w.Header().Get("Content-Type"), w.Body.String())
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{"validation", fmt.Errorf("%w: bad url", core.ErrValidation), http.StatusBadRequest, "validation"},
		{"parse", fmt.Errorf("%w: empty CSV", core.ErrParse), http.StatusBadRequest, "parse"},
		{"duplicate", core.ErrDuplicate, http.StatusConflict, "duplicate"},
		{"not found", fmt.Errorf("resolve: %w", core.ErrNotFound), http.StatusNotFound, "not_found"},
		{"upstream", fmt.Errorf("fetch: %w", &core.UpstreamError{Status: 503, Message: "down"}), http.StatusBadGateway, "upstream"},
		{"sheets not configured", sheets.ErrNotConfigured, http.StatusServiceUnavailable, "not_configured"},
		{"poll busy", reconciler.ErrPollInProgress, http.StatusConflict, "busy"},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			FromError(tt.err).Write(w)

			if w.Code != tt.wantCode {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantCode)
			}
			var body errorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", body.Kind, tt.wantKind)
			}
		})
	}
}

func TestFromError_HidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	FromError(errors.New("open /secret/path: permission denied")).Write(w)

	var body errorBody
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Error != "internal error" {
		t.Errorf("internal error leaked: %q", body.Error)
	}
}
