package models

// MConfig Structure
type MConfig struct {
	Name     string         `yaml:"name"`
	Host     string         `yaml:"host"`
	Port     int            `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	Storage  MStorageConfig `yaml:"storage"`
	Network  MNetworkConfig `yaml:"network"`
	Source   MSourceConfig  `yaml:"source"`
	Engine   MEngineConfig  `yaml:"engine"`
	Cache    MCacheConfig   `yaml:"cache"`
}

type MStorageConfig struct {
	SinkType           string `yaml:"sink_type"` // jsonl | sqlite | postgres
	OutputDir          string `yaml:"output_dir"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout"`
	MaxRetries     int    `yaml:"retries"`
	UserAgent      string `yaml:"user_agent"`
}

type MSourceConfig struct {
	BaseURL         string `yaml:"base_url"`
	InternalPath    string `yaml:"internal_path"`
	ExternalPath    string `yaml:"external_path"`
	DevicePollMs    int    `yaml:"device_poll_ms"`
	GridPollSeconds int    `yaml:"grid_poll_seconds"`
}

type MEngineConfig struct {
	HighCurrentThreshold    float64 `yaml:"high_current_threshold"`
	HighPowerThreshold      float64 `yaml:"high_power_threshold"`
	TotalPowerWindowSeconds float64 `yaml:"total_power_window_seconds"`
	ChannelBuffer           int     `yaml:"channel_buffer"`
}

type MCacheConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Addr        string `yaml:"addr"`
	RecentLimit int64  `yaml:"recent_limit"`
}
