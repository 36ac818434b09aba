package grid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"grid-observer/src/config"
	"grid-observer/src/data_source/grid"
	"grid-observer/src/logger"
	"grid-observer/src/models"
	"grid-observer/src/network"
)

func sourceConfig(baseURL string) *config.Config {
	return &config.Config{MConfig: &models.MConfig{
		Name:     "test",
		LogLevel: "ERROR",
		Source: models.MSourceConfig{
			BaseURL:         baseURL,
			InternalPath:    "/api/stream/internal",
			ExternalPath:    "/api/stream/external",
			DevicePollMs:    100,
			GridPollSeconds: 15,
		},
		Network: models.MNetworkConfig{RequestTimeout: 2},
	}}
}

func newSource(cfg *config.Config) *grid.GridSource {
	netMgr := network.NewAsyncNetworkManager(cfg.MConfig, logger.NewLogger("ERROR", "test"))
	return grid.NewGridSource(cfg, netMgr, make(chan models.MGridContext, 1))
}

func TestFetchContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"carbon_intensity": 700.0,
			"carbon_level": "HIGH",
			"electricity_price": 0.28,
			"pricing_tier": "HIGH",
			"grid_renewable_percentage": 12.5,
			"last_updated": 2000.0
		}`))
	}))
	defer server.Close()

	snapshot, err := newSource(sourceConfig(server.URL)).FetchContext()
	if err != nil {
		t.Fatalf("FetchContext failed: %v", err)
	}

	if snapshot.CarbonIntensity != 700.0 || snapshot.CarbonLevel != models.LevelHigh {
		t.Errorf("Unexpected carbon fields: %+v", snapshot)
	}
	if snapshot.ElectricityPrice != 0.28 || snapshot.PricingTier != models.LevelHigh {
		t.Errorf("Unexpected pricing fields: %+v", snapshot)
	}
	// grid_renewable_percentage and last_updated map to the internal names
	if snapshot.RenewablePct != 12.5 || snapshot.Timestamp != 2000.0 {
		t.Errorf("Unexpected renewable/timestamp fields: %+v", snapshot)
	}
}

func TestStartPollsImmediately(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"carbon_intensity": 150.0,
			"carbon_level": "LOW",
			"electricity_price": 0.08,
			"pricing_tier": "LOW",
			"grid_renewable_percentage": 80.0,
			"last_updated": 100.0
		}`))
	}))
	defer server.Close()

	cfg := sourceConfig(server.URL)
	netMgr := network.NewAsyncNetworkManager(cfg.MConfig, logger.NewLogger("ERROR", "test"))
	out := make(chan models.MGridContext, 1)
	source := grid.NewGridSource(cfg, netMgr, out)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	if err := source.Start(ctx, &wg); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer wg.Wait()
	defer cancel()

	// The first snapshot must arrive well before one 15s cadence
	select {
	case snapshot := <-out:
		if snapshot.ElectricityPrice != 0.08 {
			t.Errorf("Unexpected first snapshot: %+v", snapshot)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("No snapshot within 2s of Start")
	}
}

func TestFetchContextMissingFieldFailsPoll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"carbon_intensity": 700.0,
			"carbon_level": "HIGH",
			"electricity_price": 0.28,
			"pricing_tier": "HIGH",
			"last_updated": 2000.0
		}`))
	}))
	defer server.Close()

	// Grid payloads are all-or-nothing: a partial snapshot is rejected
	if _, err := newSource(sourceConfig(server.URL)).FetchContext(); err == nil {
		t.Errorf("Expected error for missing renewable percentage")
	}
}
