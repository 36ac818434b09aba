package device

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"grid-observer/src/config"
	"grid-observer/src/interfaces"
	"grid-observer/src/logger"
	"grid-observer/src/models"
)

// DeviceSource polls the device telemetry endpoint (~10Hz) and emits one
// MDeviceReading per device entry per poll. A failed poll is logged and
// skipped; the loop never terminates on source errors.
type DeviceSource struct {
	Config     *config.Config
	Network    interfaces.INetworkManager
	Logger     *logger.Logger
	outputChan chan<- []models.MDeviceReading
	ctx        context.Context
	cancelFunc context.CancelFunc
	isRunning  atomic.Bool
	mu         sync.Mutex
}

// -----------------------------------------------------------------------------

func NewDeviceSource(cfg *config.Config, netMgr interfaces.INetworkManager, outputChan chan<- []models.MDeviceReading) *DeviceSource {
	return &DeviceSource{
		Config:     cfg,
		Network:    netMgr,
		Logger:     logger.NewLogger(cfg.LogLevel, "DeviceSource"),
		outputChan: outputChan,
	}
}

// -----------------------------------------------------------------------------

func (s *DeviceSource) Name() string {
	return "device"
}

// -----------------------------------------------------------------------------

// Interval returns the poll cadence in milliseconds
func (s *DeviceSource) Interval() int {
	return s.Config.Source.DevicePollMs
}

// -----------------------------------------------------------------------------

// deviceSnapshot is the wire format of the internal stream endpoint:
// one snapshot timestamp plus a mapping of device id to telemetry.
type deviceSnapshot struct {
	Timestamp *float64                          `json:"timestamp"`
	Devices   map[string]map[string]interface{} `json:"devices"`
}

// -----------------------------------------------------------------------------

// FetchSnapshot performs one poll and normalizes the payload into typed rows.
// Records with missing or non-coercible required fields are discarded
// individually; the rest of the snapshot still goes through.
func (s *DeviceSource) FetchSnapshot() ([]models.MDeviceReading, error) {
	body, err := s.Network.Get(s.Config.InternalURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}

	var snap deviceSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	snapTs := float64(time.Now().UnixNano()) / 1e9
	if snap.Timestamp != nil {
		snapTs = *snap.Timestamp
	}

	// Deterministic emission order for equal-timestamp rows
	ids := make([]string, 0, len(snap.Devices))
	for id := range snap.Devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	readings := make([]models.MDeviceReading, 0, len(ids))
	for _, id := range ids {
		entry := snap.Devices[id]

		reading, err := coerceReading(id, entry, snapTs)
		if err != nil {
			s.Logger.Warning("Discarding record for device %s: %v", id, err)
			continue
		}
		readings = append(readings, reading)
	}

	return readings, nil
}

// -----------------------------------------------------------------------------

// coerceReading validates and converts one raw device entry.
func coerceReading(id string, entry map[string]interface{}, snapTs float64) (models.MDeviceReading, error) {
	deviceType, err := coerceString(entry, "device_type")
	if err != nil {
		return models.MDeviceReading{}, err
	}
	status, err := coerceString(entry, "status")
	if err != nil {
		return models.MDeviceReading{}, err
	}
	voltage, err := coerceFloat(entry, "voltage")
	if err != nil {
		return models.MDeviceReading{}, err
	}
	current, err := coerceFloat(entry, "current")
	if err != nil {
		return models.MDeviceReading{}, err
	}
	power, err := coerceFloat(entry, "power")
	if err != nil {
		return models.MDeviceReading{}, err
	}

	// Rows share the snapshot timestamp unless the entry carries its own
	ts := snapTs
	if _, ok := entry["timestamp"]; ok {
		if own, err := coerceFloat(entry, "timestamp"); err == nil {
			ts = own
		}
	}

	return models.MDeviceReading{
		DeviceID:   id,
		DeviceType: deviceType,
		Status:     status,
		Voltage:    voltage,
		Current:    current,
		Power:      power,
		Timestamp:  ts,
	}, nil
}

// -----------------------------------------------------------------------------

func coerceString(entry map[string]interface{}, key string) (string, error) {
	val, ok := entry[key]
	if !ok {
		return "", fmt.Errorf("missing required field %q", key)
	}
	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("field %q is not a string (got %T)", key, val)
	}
	return str, nil
}

// -----------------------------------------------------------------------------

func coerceFloat(entry map[string]interface{}, key string) (float64, error) {
	val, ok := entry[key]
	if !ok {
		return 0, fmt.Errorf("missing required field %q", key)
	}
	switch v := val.(type) {
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("field %q is not a number (got %T)", key, val)
	}
}

// -----------------------------------------------------------------------------

// Start begins the polling loop
func (s *DeviceSource) Start(parentCtx context.Context, wg *sync.WaitGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning.Load() {
		return fmt.Errorf("source %s is already running", s.Name())
	}

	// Derive a context so we can stop just this source via Stop()
	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancelFunc = cancel
	s.isRunning.Store(true)

	wg.Add(1)
	go s.runLoop(ctx, wg)
	s.Logger.Info("Started DeviceSource (%dms cadence)", s.Interval())
	return nil
}

// -----------------------------------------------------------------------------

// Stop signals the run loop to exit
func (s *DeviceSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning.Load() {
		return fmt.Errorf("source %s is not running", s.Name())
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning.Store(false)
	s.Logger.Info("Stopped DeviceSource")
	return nil
}

// -----------------------------------------------------------------------------

// runLoop polls once immediately, then on every tick.
func (s *DeviceSource) runLoop(ctx context.Context, wg *sync.WaitGroup) {
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

// pollOnce fetches one snapshot and forwards it downstream. Returns false
// only when the context is cancelled.
func (s *DeviceSource) pollOnce(ctx context.Context) bool {
	readings, err := s.FetchSnapshot()
	if err != nil {
		// Skip this poll, retry next cycle
		s.Logger.Warning("Poll failed: %v", err)
		return true
	}

	if len(readings) == 0 {
		return true
	}

	select {
	case s.outputChan <- readings:
	case <-ctx.Done():
		return false
	}
	return true
}
