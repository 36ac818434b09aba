package network_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"grid-observer/src/logger"
	"grid-observer/src/models"
	"grid-observer/src/network"
)

func newManager(retries int) *network.AsyncNetworkManager {
	cfg := &models.MConfig{
		Network: models.MNetworkConfig{
			RequestTimeout: 2,
			MaxRetries:     retries,
			UserAgent:      "grid-observer-test",
		},
	}
	return network.NewAsyncNetworkManager(cfg, logger.NewLogger("ERROR", "test"))
}

func TestGetQueryParamsAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("Expected limit=5 query param, got %q", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") != "grid-observer-test" {
			t.Errorf("Expected custom user agent, got %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	body, err := newManager(0).Get(server.URL, map[string]string{"limit": "5"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("Expected body ok, got %q", string(body))
	}
}

func TestGetRetriesOnBadStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	body, err := newManager(1).Get(server.URL, nil)
	if err != nil {
		t.Fatalf("Get failed after retry: %v", err)
	}
	if string(body) != "recovered" {
		t.Errorf("Expected retried body, got %q", string(body))
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestGetExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := newManager(0).Get(server.URL, nil); err == nil {
		t.Errorf("Expected error after exhausting retries")
	}
}
