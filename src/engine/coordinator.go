package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"grid-observer/src/config"
	"grid-observer/src/data_source/device"
	"grid-observer/src/data_source/grid"
	"grid-observer/src/interfaces"
	"grid-observer/src/logger"
	"grid-observer/src/models"
	"grid-observer/src/utils"
)

// recent rows kept in memory for the websocket initial state
const recentRows = 50

// -----------------------------------------------------------------------------
// Coordinator wires the two source adapters into the four consuming stages
// and routes each stage's emissions to its changelog view.
//
// It is the single consumer of both source channels, so every stateful
// stage sees rows serially and the enricher's grid slot is never raced.
// Runs until the context is cancelled or a sink write fails; source errors
// never stop it.
// -----------------------------------------------------------------------------

type Coordinator struct {
	Config    *config.Config
	Logger    *logger.Logger
	Sink      interfaces.IChangelogSink
	Exchanger interfaces.IDataExchanger // optional
	Cache     interfaces.ILiveCache    // optional

	Aggregator *Aggregator
	Detector   *AnomalyDetector
	Enricher   *Enricher
	Windower   *TotalPowerWindower

	deviceChan chan []models.MDeviceReading
	gridChan   chan models.MGridContext
	sources    []interfaces.IStreamSource

	recentAnomalies *utils.RingBuffer[models.MAnomaly]
	recentRecs      *utils.RingBuffer[models.MRecommendation]
	metrics         models.MEngineMetrics
}

// -----------------------------------------------------------------------------

func NewCoordinator(
	cfg *config.Config,
	netMgr interfaces.INetworkManager,
	sink interfaces.IChangelogSink,
	exchanger interfaces.IDataExchanger,
	cache interfaces.ILiveCache,
) *Coordinator {
	deviceChan := make(chan []models.MDeviceReading, cfg.Engine.ChannelBuffer)
	gridChan := make(chan models.MGridContext, cfg.Engine.ChannelBuffer)

	return &Coordinator{
		Config:    cfg,
		Logger:    logger.NewLogger(cfg.LogLevel, "Coordinator"),
		Sink:      sink,
		Exchanger: exchanger,
		Cache:     cache,

		Aggregator: NewAggregator(),
		Detector:   NewAnomalyDetector(cfg.Engine.HighCurrentThreshold),
		Enricher:   NewEnricher(cfg.Engine.HighPowerThreshold),
		Windower:   NewTotalPowerWindower(cfg.Engine.TotalPowerWindowSeconds),

		deviceChan: deviceChan,
		gridChan:   gridChan,
		sources: []interfaces.IStreamSource{
			device.NewDeviceSource(cfg, netMgr, deviceChan),
			grid.NewGridSource(cfg, netMgr, gridChan),
		},

		recentAnomalies: utils.NewRingBuffer[models.MAnomaly](recentRows),
		recentRecs:      utils.NewRingBuffer[models.MRecommendation](recentRows),
	}
}

// -----------------------------------------------------------------------------

// Sources returns the managed stream sources.
func (c *Coordinator) Sources() []interfaces.IStreamSource {
	return c.sources
}

// -----------------------------------------------------------------------------

// Run starts both pollers and drives the processing loop until the context
// is cancelled or a sink write fails. Cancellation is cooperative: it is
// observed between processing units, never mid-update.
func (c *Coordinator) Run(parentCtx context.Context) error {
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	wg := &sync.WaitGroup{}
	for _, src := range c.sources {
		if err := src.Start(ctx, wg); err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("failed to start source %s: %w", src.Name(), err)
		}
	}

	c.Logger.Info("Engine running: anomaly, statistics, recommendation and total-power pipelines active")

	for {
		select {
		case <-ctx.Done():
			c.Logger.Info("Shutting down...")
			wg.Wait()
			return nil

		case batch := <-c.deviceChan:
			if err := c.ProcessBatch(batch); err != nil {
				// Silently losing a changelog entry would break the replay
				// invariant, so a sink failure stops the pipeline.
				c.Logger.Error("Sink write failed, stopping pipeline: %v", err)
				cancel()
				wg.Wait()
				return err
			}
			c.broadcast()

		case snapshot := <-c.gridChan:
			c.ProcessGrid(snapshot)
		}
	}
}

// -----------------------------------------------------------------------------

// ProcessGrid feeds one grid snapshot into the enrichment join (latest wins).
func (c *Coordinator) ProcessGrid(snapshot models.MGridContext) {
	c.Enricher.IngestGrid(snapshot)
	gridRowsTotal.Inc()
	c.metrics.GridRows++
	c.Logger.Debug("Grid context updated: tier=%s carbon=%s price=%.3f",
		snapshot.PricingTier, snapshot.CarbonLevel, snapshot.ElectricityPrice)
}

// -----------------------------------------------------------------------------

// ProcessBatch runs one batch of device readings through all four stages.
// Returns an error only on sink write failure.
func (c *Coordinator) ProcessBatch(batch []models.MDeviceReading) error {
	for _, reading := range batch {
		deviceRowsTotal.Inc()
		c.metrics.DeviceRows++

		// Anomaly detection (append-only view)
		if anomaly, ok := c.Detector.Evaluate(reading); ok {
			if err := c.append(models.ViewAnomalies, models.Insert("", anomaly)); err != nil {
				return err
			}
			anomaliesTotal.Inc()
			c.metrics.AnomalyRows++
			c.recentAnomalies.Append(anomaly)
			if c.Cache != nil {
				if err := c.Cache.PushAnomaly(anomaly); err != nil {
					c.Logger.Warning("Cache push failed: %v", err)
				}
			}
		}

		// Running statistics (retract/insert view)
		if err := c.append(models.ViewDeviceStats, c.Aggregator.Ingest(reading)...); err != nil {
			return err
		}
		if c.Cache != nil {
			if stats, ok := c.Aggregator.Live()[reading.DeviceType]; ok {
				if err := c.Cache.StoreStats(stats); err != nil {
					c.Logger.Warning("Cache store failed: %v", err)
				}
			}
		}

		// Enrichment join (append-only view)
		rec := c.Enricher.IngestDevice(reading)
		if err := c.append(models.ViewRecommendations, models.Insert("", rec)); err != nil {
			return err
		}
		c.recentRecs.Append(rec)

		// Total power tumbling window (retract/insert view)
		if err := c.append(models.ViewTotalPower, c.Windower.Ingest(reading)...); err != nil {
			return err
		}
	}

	c.metrics.LastUpdateSec = time.Now().Unix()
	return nil
}

// -----------------------------------------------------------------------------

// append routes entries to one view, counting every successful write.
func (c *Coordinator) append(view string, entries ...models.MChangelogEntry) error {
	for _, entry := range entries {
		if err := c.Sink.Append(view, entry); err != nil {
			return fmt.Errorf("append to view %s (key %q, diff %+d): %w", view, entry.Key, entry.Diff, err)
		}
		entriesWrittenTotal.WithLabelValues(view).Inc()
		c.metrics.EntriesOut++
	}
	return nil
}

// -----------------------------------------------------------------------------

// broadcast pushes the latest state snapshot to the query server's hub.
func (c *Coordinator) broadcast() {
	if c.Exchanger == nil {
		return
	}

	state := &models.MLatestData{
		Type:            "UPDATE",
		Statistics:      c.Aggregator.Live(),
		Anomalies:       c.recentAnomalies.GetAll(),
		Recommendations: c.recentRecs.GetAll(),
		Timestamp:       time.Now().Unix(),
		EngineMetrics:   c.metrics,
	}

	c.Exchanger.UpdateAllDatas(state)
	c.Exchanger.Broadcast(state)
}

// -----------------------------------------------------------------------------

// Metrics returns a copy of the engine counters.
func (c *Coordinator) Metrics() models.MEngineMetrics {
	return c.metrics
}
