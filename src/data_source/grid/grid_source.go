package grid

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"grid-observer/src/config"
	"grid-observer/src/interfaces"
	"grid-observer/src/logger"
	"grid-observer/src/models"
)

// GridSource polls the grid context endpoint (15s demo cadence, 15min in
// production) and emits one MGridContext per poll. Failed polls are logged
// and skipped.
type GridSource struct {
	Config     *config.Config
	Network    interfaces.INetworkManager
	Logger     *logger.Logger
	outputChan chan<- models.MGridContext
	ctx        context.Context
	cancelFunc context.CancelFunc
	isRunning  atomic.Bool
	mu         sync.Mutex
}

// -----------------------------------------------------------------------------

func NewGridSource(cfg *config.Config, netMgr interfaces.INetworkManager, outputChan chan<- models.MGridContext) *GridSource {
	return &GridSource{
		Config:     cfg,
		Network:    netMgr,
		Logger:     logger.NewLogger(cfg.LogLevel, "GridSource"),
		outputChan: outputChan,
	}
}

// -----------------------------------------------------------------------------

func (s *GridSource) Name() string {
	return "grid"
}

// -----------------------------------------------------------------------------

// Interval returns the poll cadence in milliseconds
func (s *GridSource) Interval() int {
	return s.Config.Source.GridPollSeconds * 1000
}

// -----------------------------------------------------------------------------

// gridPayload is the wire format of the external stream endpoint.
// Pointers distinguish "absent" from zero so coercion failures are explicit.
type gridPayload struct {
	CarbonIntensity  *float64 `json:"carbon_intensity"`
	CarbonLevel      *string  `json:"carbon_level"`
	ElectricityPrice *float64 `json:"electricity_price"`
	PricingTier      *string  `json:"pricing_tier"`
	RenewablePct     *float64 `json:"grid_renewable_percentage"`
	LastUpdated      *float64 `json:"last_updated"`
}

// -----------------------------------------------------------------------------

// FetchContext performs one poll and normalizes the payload into a typed row.
// Any missing required field fails the poll, not the process.
func (s *GridSource) FetchContext() (models.MGridContext, error) {
	body, err := s.Network.Get(s.Config.ExternalURL(), nil)
	if err != nil {
		return models.MGridContext{}, fmt.Errorf("network error: %w", err)
	}

	var payload gridPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.MGridContext{}, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if payload.CarbonIntensity == nil || payload.CarbonLevel == nil ||
		payload.ElectricityPrice == nil || payload.PricingTier == nil ||
		payload.RenewablePct == nil || payload.LastUpdated == nil {
		return models.MGridContext{}, fmt.Errorf("payload missing required fields")
	}

	return models.MGridContext{
		CarbonIntensity:  *payload.CarbonIntensity,
		CarbonLevel:      *payload.CarbonLevel,
		ElectricityPrice: *payload.ElectricityPrice,
		PricingTier:      *payload.PricingTier,
		RenewablePct:     *payload.RenewablePct,
		Timestamp:        *payload.LastUpdated,
	}, nil
}

// -----------------------------------------------------------------------------

// Start begins the polling loop
func (s *GridSource) Start(parentCtx context.Context, wg *sync.WaitGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning.Load() {
		return fmt.Errorf("source %s is already running", s.Name())
	}

	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancelFunc = cancel
	s.isRunning.Store(true)

	wg.Add(1)
	go s.runLoop(ctx, wg)
	s.Logger.Info("Started GridSource (%ds cadence)", s.Config.Source.GridPollSeconds)
	return nil
}

// -----------------------------------------------------------------------------

// Stop signals the run loop to exit
func (s *GridSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning.Load() {
		return fmt.Errorf("source %s is not running", s.Name())
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning.Store(false)
	s.Logger.Info("Stopped GridSource")
	return nil
}

// -----------------------------------------------------------------------------

// runLoop polls once immediately, then on every tick. Consumers get real
// grid context right away instead of defaults for the first cadence.
func (s *GridSource) runLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(time.Duration(s.Interval()) * time.Millisecond)
	defer ticker.Stop()

	if !s.pollOnce(ctx) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.pollOnce(ctx) {
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------

// pollOnce fetches one context snapshot and forwards it downstream.
// Returns false only when the context is cancelled.
func (s *GridSource) pollOnce(ctx context.Context) bool {
	snapshot, err := s.FetchContext()
	if err != nil {
		s.Logger.Warning("Poll failed: %v", err)
		return true
	}

	select {
	case s.outputChan <- snapshot:
	case <-ctx.Done():
		return false
	}
	return true
}
