package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NK11EIandCo/Interview/internal/config"
)

func TestServer_Healthz(t *testing.T) {
	e := New(config.Config{})
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestServer_WsRejectsPlainGet(t *testing.T) {
	e := New(config.Config{})
	// A plain GET without an Upgrade header must not be treated as a session.
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	if w.Code == http.StatusOK {
		t.Fatalf("expected upgrade failure status, got %d", w.Code)
	}
}
