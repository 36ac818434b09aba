package server

import (
	"testing"
	"time"

	"grid-observer/src/config"
	"grid-observer/src/logger"
	"grid-observer/src/models"
)

func hubServer() *QueryServer {
	cfg := &config.Config{MConfig: &models.MConfig{
		Name:     "test",
		Host:     "127.0.0.1",
		Port:     8080,
		LogLevel: "ERROR",
	}}
	return NewQueryServer(cfg, logger.NewLogger("ERROR", "test"))
}

func registerClient(t *testing.T, s *QueryServer) *Client {
	t.Helper()
	client := &Client{hub: s, send: make(chan *models.MLatestData, 4)}
	select {
	case s.register <- client:
	case <-time.After(time.Second):
		t.Fatalf("Hub did not accept registration")
	}
	// Receiving the initial state proves the hub finished registering
	select {
	case <-client.send:
	case <-time.After(time.Second):
		t.Fatalf("No initial state after registration")
	}
	return client
}

func waitClosed(t *testing.T, ch chan *models.MLatestData) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("Send channel not closed within 1s")
		}
	}
}

func TestHubTracksConnectionCount(t *testing.T) {
	s := hubServer()
	go s.handleWebsockets()
	defer s.Stop()

	first := registerClient(t, s)
	registerClient(t, s)
	if got := s.connCount.Load(); got != 2 {
		t.Fatalf("Expected 2 connections, got %d", got)
	}

	s.unregister <- first
	waitClosed(t, first.send)
	if got := s.connCount.Load(); got != 1 {
		t.Errorf("Expected 1 connection after unregister, got %d", got)
	}
}

func TestStopShutsHubDown(t *testing.T) {
	s := hubServer()
	go s.handleWebsockets()

	client := registerClient(t, s)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// The hub disconnects every client on shutdown
	waitClosed(t, client.send)
	if got := s.connCount.Load(); got != 0 {
		t.Errorf("Expected 0 connections after Stop, got %d", got)
	}

	// Stop is idempotent
	if err := s.Stop(); err != nil {
		t.Errorf("Second Stop failed: %v", err)
	}
}
