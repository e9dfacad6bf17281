package logging

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

func TestParseLevel(t *testing.T) {
	tests := []struct {
		verbosity string
		count     int
		want      slog.Level
	}{
		{"", 0, slog.LevelInfo},
		{"", 1, slog.LevelDebug},
		{"", 3, LevelTrace},
		{"warn", 2, slog.LevelWarn},
		{"ERROR", 0, slog.LevelError},
		{"trace", 0, LevelTrace},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.verbosity, tt.count)
		if err != nil {
			t.Errorf("ParseLevel(%q, %d) unexpected error: %v", tt.verbosity, tt.count, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q, %d) = %v, want %v", tt.verbosity, tt.count, got, tt.want)
		}
	}

	if _, err := ParseLevel("loud", 0); err == nil {
		t.Error("Expected error for unknown verbosity")
	}
}

func TestNew_FollowsConfigure(t *testing.T) {
	log := New("layout")

	var buf bytes.Buffer
	Configure(&buf, slog.LevelDebug, false)
	defer Configure(&bytes.Buffer{}, slog.LevelInfo, false)

	log.Debug("scene started", "scene", 3)

	out := buf.String()
	if !strings.Contains(out, "[DEBUG]") {
		t.Errorf("Expected debug level tag, got %q", out)
	}
	if !strings.Contains(out, "[layout] scene started") {
		t.Errorf("Expected component prefix, got %q", out)
	}
	if !strings.Contains(out, "scene=3") {
		t.Errorf("Expected attribute, got %q", out)
	}
}

func TestCompactHandler_BoundAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	log := slog.New(h).With("source", "file")

	log.Info("loaded", "nodes", 4)
	log.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "| source=file nodes=4") {
		t.Errorf("Expected bound attrs before record attrs, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug record should be filtered at info level, got %q", out)
	}
}

func TestCompactHandler_GroupsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	h := NewCompactHandler(&buf, nil)
	log := slog.New(h).With("component", "web").WithGroup("req")

	log.Warn("failed", "path", "/api/model", "error", errors.New("no model loaded"), "sessionID", "0123456789")

	out := buf.String()
	for _, want := range []string{
		"[WARN]  ",
		"[web] failed",
		"req.path=/api/model",
		`req.error="no model loaded"`,
		"req.sessionID=0123456789",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %q", want, out)
		}
	}
	if strings.Contains(out, "component=") {
		t.Errorf("Expected component as a tag only, got %q", out)
	}
}

func TestCompactHandler_ShortensSessionIDs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, nil))

	log.Info("session created", "session", "fedcba98-7654-3210", "scene", uint64(2))

	if out := buf.String(); !strings.Contains(out, "| session=fedcba98 scene=2") {
		t.Errorf("Expected shortened session and scene, got %q", out)
	}
}

func TestContextIDs(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, slog.LevelInfo, false)
	defer Configure(&bytes.Buffer{}, slog.LevelInfo, false)

	ctx := WithRequestID(context.Background(), "0123456789abcdef")
	ctx = WithSessionID(ctx, "fedcba9876543210")
	InfoContext(ctx, "root selected")

	out := buf.String()
	if !strings.Contains(out, "req=01234567") {
		t.Errorf("Expected shortened request id, got %q", out)
	}
	if !strings.Contains(out, "session=fedcba98") {
		t.Errorf("Expected shortened session id, got %q", out)
	}
}

func TestSessionIDMiddleware(t *testing.T) {
	var seen string
	handler := SessionIDMiddleware(func(r *http.Request) string {
		return r.URL.Query().Get("session")
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/?session=abc", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "abc" {
		t.Errorf("Expected session abc in context, got %q", seen)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("Expected request id in context")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "given-id")
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "given-id" {
		t.Errorf("Expected echoed request id, got %q", got)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
}
