package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"grid-observer/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Standalone source simulator. Serves the two endpoints the engine polls,
// with a synthetic device fleet and a grid context that cycles through
// price/carbon regimes. Useful for local runs and demos without a real
// facility behind the API.
// -----------------------------------------------------------------------------

type simDevice struct {
	ID          string
	Type        string
	BaseVoltage float64
	BaseCurrent float64

	status      string
	statusUntil time.Time
}

// -----------------------------------------------------------------------------

type simulator struct {
	mu      sync.Mutex
	devices []*simDevice
	rng     *rand.Rand
	started time.Time
}

// -----------------------------------------------------------------------------

func newSimulator() *simulator {
	return &simulator{
		devices: []*simDevice{
			{ID: "HVAC_001", Type: "hvac", BaseVoltage: 400.0, BaseCurrent: 45.0, status: models.StatusRunning},
			{ID: "HVAC_002", Type: "hvac", BaseVoltage: 400.0, BaseCurrent: 40.0, status: models.StatusRunning},
			{ID: "COMPRESSOR_001", Type: "compressor", BaseVoltage: 400.0, BaseCurrent: 60.0, status: models.StatusRunning},
			{ID: "CONVEYOR_001", Type: "conveyor", BaseVoltage: 230.0, BaseCurrent: 25.0, status: models.StatusRunning},
			{ID: "LIGHTING_001", Type: "lighting", BaseVoltage: 230.0, BaseCurrent: 8.0, status: models.StatusRunning},
			{ID: "EV_CHARGER_001", Type: "ev_charger", BaseVoltage: 400.0, BaseCurrent: 32.0, status: models.StatusOff},
		},
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		started: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Device fleet
// -----------------------------------------------------------------------------

// step advances one device's state machine and returns its telemetry.
func (s *simulator) step(d *simDevice, now time.Time) map[string]interface{} {
	// Status transitions
	if now.After(d.statusUntil) {
		switch d.status {
		case models.StatusStarting:
			d.status = models.StatusRunning
		case models.StatusFault:
			d.status = models.StatusOff
		case models.StatusOff:
			if s.rng.Float64() < 0.05 {
				d.status = models.StatusStarting
				d.statusUntil = now.Add(time.Duration(500+s.rng.Intn(1500)) * time.Millisecond)
			}
		case models.StatusRunning:
			r := s.rng.Float64()
			if r < 0.005 {
				d.status = models.StatusFault
				d.statusUntil = now.Add(time.Duration(2+s.rng.Intn(5)) * time.Second)
			} else if r < 0.015 {
				d.status = models.StatusOff
			}
		}
	}

	voltage := d.BaseVoltage * (0.98 + 0.04*s.rng.Float64())
	var current float64

	switch d.status {
	case models.StatusOff:
		current = 0.0
	case models.StatusStarting:
		// Motor inrush, several times the nominal draw
		current = d.BaseCurrent * (3.0 + 3.0*s.rng.Float64())
	case models.StatusFault:
		current = d.BaseCurrent * (1.5 + 2.0*s.rng.Float64())
	default:
		current = d.BaseCurrent * (0.85 + 0.3*s.rng.Float64())
	}

	return map[string]interface{}{
		"device_type": d.Type,
		"status":      d.status,
		"voltage":     voltage,
		"current":     current,
		"power":       voltage * current,
	}
}

// -----------------------------------------------------------------------------

func (s *simulator) internalStream(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	devices := make(map[string]interface{}, len(s.devices))
	for _, d := range s.devices {
		devices[d.ID] = s.step(d, now)
	}

	c.JSON(200, gin.H{
		"timestamp": float64(now.UnixNano()) / 1e9,
		"devices":   devices,
	})
}

// -----------------------------------------------------------------------------
// Grid context regimes
// -----------------------------------------------------------------------------

// The grid cycles LOW -> MEDIUM -> HIGH every minute so every pricing and
// carbon branch of the engine gets exercised in a short demo run.
func (s *simulator) externalStream(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	phase := int(time.Since(s.started).Seconds()/60) % 3

	var price, carbon, renewable float64
	var tier, level string

	switch phase {
	case 0:
		price, tier = 0.08, models.LevelLow
		carbon, level = 150.0, models.LevelLow
		renewable = 65.0 + 20.0*s.rng.Float64()
	case 1:
		price, tier = 0.15, models.LevelMedium
		carbon, level = 400.0, models.LevelMedium
		renewable = 30.0 + 20.0*s.rng.Float64()
	default:
		price, tier = 0.28, models.LevelHigh
		carbon, level = 700.0, models.LevelHigh
		renewable = 10.0 + 15.0*s.rng.Float64()
	}

	c.JSON(200, gin.H{
		"carbon_intensity":          carbon,
		"carbon_level":              level,
		"electricity_price":         price,
		"pricing_tier":              tier,
		"grid_renewable_percentage": renewable,
		"last_updated":              float64(time.Now().UnixNano()) / 1e9,
	})
}

// -----------------------------------------------------------------------------

func (s *simulator) listDevices(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices := make([]gin.H, 0, len(s.devices))
	for _, d := range s.devices {
		devices = append(devices, gin.H{
			"device_id":   d.ID,
			"device_type": d.Type,
			"status":      d.status,
		})
	}
	c.JSON(200, gin.H{"devices": devices})
}

// -----------------------------------------------------------------------------

func main() {
	host := flag.String("host", "127.0.0.1", "bind address")
	port := flag.Int("port", 8000, "bind port")
	flag.Parse()

	gin.SetMode(gin.ReleaseMode)
	engine := gin.Default()

	sim := newSimulator()
	engine.GET("/api/stream/internal", sim.internalStream)
	engine.GET("/api/stream/external", sim.externalStream)
	engine.GET("/api/devices", sim.listDevices)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	fmt.Printf("Simulator listening on %s\n", addr)
	if err := engine.Run(addr); err != nil {
		panic(err)
	}
}
