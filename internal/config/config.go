package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Store    StoreConfig    `mapstructure:"store"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Source   SourceConfig   `mapstructure:"source"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`      // Bind address for server (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"` // HTTP server port
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BodyLimitMB  int           `mapstructure:"body_limit_mb"` // Max request body, training uploads can be large
}

// ForecastConfig controls training and prediction
type ForecastConfig struct {
	Horizon      int           `mapstructure:"horizon"`       // Default forecast horizon in days
	MaxHorizon   int           `mapstructure:"max_horizon"`   // Upper bound accepted from requests
	MinPoints    int           `mapstructure:"min_points"`    // Minimum series length before and after cleaning
	Parallelism  int           `mapstructure:"parallelism"`   // Concurrent candidate fits per group
	GroupWorkers int           `mapstructure:"group_workers"` // Groups trained concurrently by TrainAll
	TrainTimeout time.Duration `mapstructure:"train_timeout"` // Upper bound for one TrainAll run
}

// StoreConfig selects where fitted models are persisted
type StoreConfig struct {
	Type          string        `mapstructure:"type"` // memory (default), redis
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	TTL           time.Duration `mapstructure:"ttl"` // 0 keeps snapshots forever
	Compression   bool          `mapstructure:"compression"`
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Enabled  bool   `mapstructure:"enabled"`  // Start the observation subscriber
	Type     string `mapstructure:"type"`     // Queue type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Password string `mapstructure:"password"` // Optional authentication

	ObservationSubject string `mapstructure:"observation_subject"` // Incoming observations
	EventSubject       string `mapstructure:"event_subject"`       // Outgoing model/forecast events
	ConsumerGroup      string `mapstructure:"consumer_group"`
	NodeID             string `mapstructure:"node_id"`

	// Redis-specific options
	RedisDB     int    `mapstructure:"redis_db"`     // Redis database number (default: 0)
	RedisStream string `mapstructure:"redis_stream"` // Redis stream prefix (default: "sitecast")

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"` // Kafka broker addresses
}

// SourceConfig describes where summary records are loaded from
type SourceConfig struct {
	Type     string `mapstructure:"type"` // postgres, csv
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	CSVPath  string `mapstructure:"csv_path"`
	Timezone string `mapstructure:"timezone"` // Zone for date strings without offset (e.g., "Asia/Shanghai", "+08:00")
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast config: %w", err)
	}

	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.BodyLimitMB < 0 {
		return fmt.Errorf("body_limit_mb cannot be negative")
	}

	return nil
}

// Validate validates forecast configuration
func (c *ForecastConfig) Validate() error {
	if c.Horizon < 1 {
		return fmt.Errorf("forecast.horizon must be at least 1")
	}

	if c.MaxHorizon < c.Horizon {
		return fmt.Errorf("forecast.max_horizon cannot be below forecast.horizon")
	}

	if c.MinPoints < 20 {
		return fmt.Errorf("forecast.min_points must be at least 20")
	}

	if c.Parallelism < 0 || c.GroupWorkers < 0 {
		return fmt.Errorf("forecast.parallelism and forecast.group_workers cannot be negative")
	}

	return nil
}

// Validate validates store configuration
func (c *StoreConfig) Validate() error {
	switch c.Type {
	case "", "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for redis store")
		}
	default:
		return fmt.Errorf("store.type must be 'memory' or 'redis'")
	}

	if c.TTL < 0 {
		return fmt.Errorf("store.ttl cannot be negative")
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.ObservationSubject == "" {
		return fmt.Errorf("queue.observation_subject is required")
	}

	if c.Type == "kafka" && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("queue.kafka_brokers is required for kafka")
	}

	return nil
}

// Validate validates source configuration
func (c *SourceConfig) Validate() error {
	switch c.Type {
	case "":
	case "postgres":
		if c.DSN == "" {
			return fmt.Errorf("source.dsn is required for postgres")
		}
	case "csv":
		if c.CSVPath == "" {
			return fmt.Errorf("source.csv_path is required for csv")
		}
	default:
		return fmt.Errorf("source.type must be 'postgres' or 'csv'")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
