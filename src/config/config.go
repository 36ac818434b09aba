package config

import (
	"fmt"
	"os"

	"grid-observer/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills values omitted from the YAML file with the defaults
// the pipeline was tuned for.
func (c *Config) applyDefaults() {
	if c.Source.InternalPath == "" {
		c.Source.InternalPath = "/api/stream/internal"
	}
	if c.Source.ExternalPath == "" {
		c.Source.ExternalPath = "/api/stream/external"
	}
	if c.Source.DevicePollMs == 0 {
		c.Source.DevicePollMs = 100 // 10Hz
	}
	if c.Source.GridPollSeconds == 0 {
		c.Source.GridPollSeconds = 15 // 900 for production cadence
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 2
	}
	if c.Engine.HighCurrentThreshold == 0 {
		c.Engine.HighCurrentThreshold = 100.0 // Amperes
	}
	if c.Engine.HighPowerThreshold == 0 {
		c.Engine.HighPowerThreshold = 500.0 // Watts
	}
	if c.Engine.TotalPowerWindowSeconds == 0 {
		c.Engine.TotalPowerWindowSeconds = 1.0
	}
	if c.Engine.ChannelBuffer == 0 {
		c.Engine.ChannelBuffer = 1024
	}
	if c.Storage.SinkType == "" {
		c.Storage.SinkType = "jsonl"
	}
	if c.Storage.OutputDir == "" {
		c.Storage.OutputDir = "pathway_output"
	}
	if c.Cache.RecentLimit == 0 {
		c.Cache.RecentLimit = 100
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	switch c.Storage.SinkType {
	case "jsonl":
		if c.Storage.OutputDir == "" {
			return fmt.Errorf("output dir cannot be empty for jsonl sink")
		}
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite sink")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres sink")
		}
	default:
		return fmt.Errorf("unknown sink type: %s", c.Storage.SinkType)
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	// Validate Source configuration
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source base url cannot be empty")
	}
	if c.Source.DevicePollMs <= 0 {
		return fmt.Errorf("device poll interval must be greater than 0")
	}
	if c.Source.GridPollSeconds <= 0 {
		return fmt.Errorf("grid poll interval must be greater than 0")
	}

	// Validate Engine configuration
	if c.Engine.HighCurrentThreshold <= 0 {
		return fmt.Errorf("high current threshold must be greater than 0")
	}
	if c.Engine.TotalPowerWindowSeconds <= 0 {
		return fmt.Errorf("total power window must be greater than 0")
	}

	// Validate Cache configuration
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("cache addr cannot be empty when cache is enabled")
	}

	return nil
}

// -----------------------------------------------------------------------------

// InternalURL returns the full URL of the device telemetry endpoint
func (c *Config) InternalURL() string {
	return c.Source.BaseURL + c.Source.InternalPath
}

// -----------------------------------------------------------------------------

// ExternalURL returns the full URL of the grid context endpoint
func (c *Config) ExternalURL() string {
	return c.Source.BaseURL + c.Source.ExternalPath
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
