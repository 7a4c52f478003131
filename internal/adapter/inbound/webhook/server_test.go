package webhook

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonny/times-relay/internal/adapter/inbound/webhook/middleware"
	"github.com/jonny/times-relay/internal/domain/model"
	"github.com/jonny/times-relay/pkg/logging"
)

type pongDispatcher struct{}

func (pongDispatcher) Dispatch(context.Context, model.Interaction) model.CommandOutcome {
	return model.Pong()
}

func newTestServer(t *testing.T, cfg ServerConfig, logBuf *bytes.Buffer) *Server {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	logger := logging.New("info", "text", logBuf)
	return NewServer(cfg, NewHandler(pongDispatcher{}, logger), pub, logger)
}

func TestNewServer_ShutdownTimeout(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"configured", 3 * time.Second, 3 * time.Second},
		{"default", 0, defaultShutdownTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, ServerConfig{ShutdownTimeout: tt.in}, &buf)
			if s.cfg.ShutdownTimeout != tt.want {
				t.Errorf("shutdown timeout = %v, want %v", s.cfg.ShutdownTimeout, tt.want)
			}
		})
	}
}

func TestServer_StartStopsOnCancel(t *testing.T) {
	var buf bytes.Buffer
	s := newTestServer(t, ServerConfig{Port: 0, ShutdownTimeout: time.Second}, &buf)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within the shutdown timeout")
	}
}

func TestSetupRoutes_OversizedBodyIsLoggedWithHeaders(t *testing.T) {
	var buf bytes.Buffer
	h := newTestServer(t, ServerConfig{}, &buf).SetupRoutes()

	big := bytes.Repeat([]byte("a"), middleware.MaxBodyBytes+1)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(big)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	id := rec.Header().Get(middleware.RequestIDHeader)
	if id == "" {
		t.Error("missing request id header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
	out := buf.String()
	for _, want := range []string{"status=413", "request_id=" + id} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}
