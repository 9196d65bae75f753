package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")             // Current directory
		v.AddConfigPath("./configs")     // Project configs directory
		v.AddConfigPath("./config")      // Alternative config directory
		v.AddConfigPath("/etc/sitecast") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides, e.g. SITECAST_STORE_REDIS_ADDR
	v.SetEnvPrefix("SITECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.body_limit_mb", d.Server.BodyLimitMB)

	// Forecast defaults
	v.SetDefault("forecast.horizon", d.Forecast.Horizon)
	v.SetDefault("forecast.max_horizon", d.Forecast.MaxHorizon)
	v.SetDefault("forecast.min_points", d.Forecast.MinPoints)
	v.SetDefault("forecast.parallelism", d.Forecast.Parallelism)
	v.SetDefault("forecast.group_workers", d.Forecast.GroupWorkers)
	v.SetDefault("forecast.train_timeout", d.Forecast.TrainTimeout)

	// Store defaults
	v.SetDefault("store.type", d.Store.Type)
	v.SetDefault("store.redis_addr", d.Store.RedisAddr)
	v.SetDefault("store.key_prefix", d.Store.KeyPrefix)
	v.SetDefault("store.compression", d.Store.Compression)

	// Queue defaults
	v.SetDefault("queue.enabled", d.Queue.Enabled)
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.observation_subject", d.Queue.ObservationSubject)
	v.SetDefault("queue.event_subject", d.Queue.EventSubject)
	v.SetDefault("queue.consumer_group", d.Queue.ConsumerGroup)
	v.SetDefault("queue.node_id", d.Queue.NodeID)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)

	// Source defaults
	v.SetDefault("source.table", d.Source.Table)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			HTTPPort:     5580,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
			BodyLimitMB:  32,
		},
		Forecast: ForecastConfig{
			Horizon:      30,
			MaxHorizon:   365,
			MinPoints:    20,
			Parallelism:  4,
			GroupWorkers: 2,
			TrainTimeout: 10 * time.Minute,
		},
		Store: StoreConfig{
			Type:        "memory",
			RedisAddr:   "localhost:6379",
			KeyPrefix:   "sitecast:model",
			Compression: true,
		},
		Queue: QueueConfig{
			Enabled:            false,
			Type:               "nats",
			URL:                "nats://localhost:4222",
			ObservationSubject: "sitecast.observations",
			EventSubject:       "sitecast.forecasts",
			ConsumerGroup:      "sitecast-forecaster",
			NodeID:             "forecaster-1",
			RedisStream:        "sitecast",
		},
		Source: SourceConfig{
			Table: "t_monitor_litchi_summary",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
