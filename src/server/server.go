package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"grid-observer/src/config"
	"grid-observer/src/interfaces"
	"grid-observer/src/logger"
	"grid-observer/src/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// -----------------------------------------------------------------------------
// QueryServer
// -----------------------------------------------------------------------------

type QueryServer struct {
	Config *config.Config
	Logger *logger.Logger
	engine *gin.Engine

	// WebSocket clients, owned by the hub goroutine
	clients    map[*Client]struct{}
	broadcast  chan *models.MLatestData
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	// Mirror of len(clients) readable outside the hub goroutine
	connCount atomic.Int64

	// Local cache
	latestState *models.MLatestData
	stateMutex  sync.RWMutex

	// Optional redis read path, nil when cache.enabled is false
	liveCache interfaces.ILiveCacheReader
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewQueryServer(cfg *config.Config, log *logger.Logger) *QueryServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &QueryServer{
		Config:  cfg,
		Logger:  log,
		engine:  gin.Default(),
		clients: make(map[*Client]struct{}),
		// Buffered so a burst of engine updates never blocks the caller
		broadcast:  make(chan *models.MLatestData, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		latestState: &models.MLatestData{
			Type:       "INITIAL",
			Statistics: make(map[string]models.MDeviceStats),
		},
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

// SetLiveCache enables the redis read path for statistics and recent
// anomalies. File replay remains the fallback.
func (s *QueryServer) SetLiveCache(reader interfaces.ILiveCacheReader) {
	s.liveCache = reader
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *QueryServer) setupRoutes() {
	// Changelog view endpoints
	pathway := s.engine.Group("/api/pathway")
	pathway.GET("/anomalies", s.getAnomalies)
	pathway.GET("/statistics", s.getStatistics)
	pathway.GET("/recommendations", s.getRecommendations)
	pathway.GET("/total-power", s.getTotalPower)
	pathway.GET("/status", s.getStatus)
	pathway.GET("/summary", s.getSummary)

	// Operational endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Handler exposes the route tree for embedding and tests.
func (s *QueryServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------

func (s *QueryServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting query server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

// Stop shuts the hub loop down. The channels stay open so late senders
// never panic, the hub simply stops draining them.
func (s *QueryServer) Stop() error {
	s.stopOnce.Do(func() { close(s.done) })
	return nil
}

// -----------------------------------------------------------------------------
// Operational Handlers
// -----------------------------------------------------------------------------

func (s *QueryServer) getHealth(c *gin.Context) {
	connections := s.connCount.Load()

	s.stateMutex.RLock()
	timestamp := s.latestState.Timestamp
	s.stateMutex.RUnlock()

	c.JSON(200, gin.H{
		"status":        "ok",
		"connections":   connections,
		"latest_update": timestamp,
	})
}

// -----------------------------------------------------------------------------

func (s *QueryServer) getConfig(c *gin.Context) {
	c.JSON(200, gin.H{
		"high_current_threshold": s.Config.Engine.HighCurrentThreshold,
		"high_power_threshold":   s.Config.Engine.HighPowerThreshold,
		"total_power_window_s":   s.Config.Engine.TotalPowerWindowSeconds,
		"sink_type":              s.Config.Storage.SinkType,
	})
}
