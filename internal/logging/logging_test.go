package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		l, err := New(level, false)
		if err != nil {
			t.Errorf("New(%q): %v", level, err)
			continue
		}
		_ = l.Sync()
	}
	if _, err := New("loud", true); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Middleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("chai"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/flows", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/api/flows" || fields["status"] != int64(http.StatusTeapot) || fields["bytes"] != int64(4) {
		t.Errorf("fields = %v", fields)
	}
}
