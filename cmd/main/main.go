package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"grid-observer/src/cache"
	"grid-observer/src/changelog"
	"grid-observer/src/config"
	"grid-observer/src/engine"
	"grid-observer/src/interfaces"
	"grid-observer/src/logger"
	"grid-observer/src/network"
	"grid-observer/src/server"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// Changelog sink (jsonl by default, sqlite/postgres via config)
	sink, err := changelog.New(cfg, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init changelog sink: %v", err)
	}
	defer sink.Close()

	// Optional live-view cache
	var liveCache interfaces.ILiveCache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Cache.Addr, cfg.Cache.RecentLimit, appLogger)
		if err != nil {
			appLogger.Critical("Failed to connect live cache: %v", err)
		}
		liveCache = redisCache
		defer redisCache.Close()
	}

	// Network + server
	var networkManager interfaces.INetworkManager = network.NewAsyncNetworkManager(cfg.MConfig, appLogger)
	srv := server.NewQueryServer(cfg, appLogger)
	if redisCache, ok := liveCache.(*cache.RedisCache); ok {
		srv.SetLiveCache(redisCache)
	}

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// Engine
	coordinator := engine.NewCoordinator(cfg, networkManager, sink, srv, liveCache)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		appLogger.Info("Signal received, shutting down...")
		cancel()
	}()

	appLogger.Info("Starting engine (Push Model)...")
	if err := coordinator.Run(ctx); err != nil {
		appLogger.Critical("Engine stopped: %v", err)
	}
}
