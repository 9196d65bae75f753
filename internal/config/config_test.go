package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigValidation(t *testing.T) {
	withChange := func(change func(c *Config)) *Config {
		c := DefaultConfig()
		change(c)
		return c
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "default config should be valid",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name:    "invalid http port",
			config:  withChange(func(c *Config) { c.Server.HTTPPort = 0 }),
			wantErr: true,
		},
		{
			name:    "horizon below one",
			config:  withChange(func(c *Config) { c.Forecast.Horizon = 0 }),
			wantErr: true,
		},
		{
			name:    "max horizon below default horizon",
			config:  withChange(func(c *Config) { c.Forecast.MaxHorizon = 10 }),
			wantErr: true,
		},
		{
			name:    "min points below training floor",
			config:  withChange(func(c *Config) { c.Forecast.MinPoints = 5 }),
			wantErr: true,
		},
		{
			name:    "unknown store type",
			config:  withChange(func(c *Config) { c.Store.Type = "etcd" }),
			wantErr: true,
		},
		{
			name: "redis store without address",
			config: withChange(func(c *Config) {
				c.Store.Type = "redis"
				c.Store.RedisAddr = ""
			}),
			wantErr: true,
		},
		{
			name: "kafka queue without brokers",
			config: withChange(func(c *Config) {
				c.Queue.Enabled = true
				c.Queue.Type = "kafka"
			}),
			wantErr: true,
		},
		{
			name:    "disabled queue is not validated",
			config:  withChange(func(c *Config) { c.Queue.ObservationSubject = "" }),
			wantErr: false,
		},
		{
			name:    "postgres source without dsn",
			config:  withChange(func(c *Config) { c.Source.Type = "postgres" }),
			wantErr: true,
		},
		{
			name: "csv source with path",
			config: withChange(func(c *Config) {
				c.Source.Type = "csv"
				c.Source.CSVPath = "records.csv"
			}),
			wantErr: false,
		},
		{
			name:    "invalid logging level",
			config:  withChange(func(c *Config) { c.Logging.Level = "invalid" }),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.HTTPPort != 5580 {
		t.Errorf("expected HTTPPort 5580, got %d", cfg.Server.HTTPPort)
	}

	if cfg.Forecast.Horizon != 30 {
		t.Errorf("expected horizon 30, got %d", cfg.Forecast.Horizon)
	}

	if cfg.Queue.ObservationSubject != "sitecast.observations" {
		t.Errorf("unexpected observation subject %q", cfg.Queue.ObservationSubject)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  http_port: 6000
forecast:
  horizon: 14
  train_timeout: 90s
store:
  type: redis
  redis_addr: cache:6379
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SITECAST_FORECAST_PARALLELISM", "8")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPPort != 6000 {
		t.Errorf("expected port 6000, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Forecast.Horizon != 14 {
		t.Errorf("expected horizon 14, got %d", cfg.Forecast.Horizon)
	}
	if cfg.Forecast.TrainTimeout != 90*time.Second {
		t.Errorf("expected train timeout 90s, got %v", cfg.Forecast.TrainTimeout)
	}
	if cfg.Forecast.Parallelism != 8 {
		t.Errorf("expected parallelism from env 8, got %d", cfg.Forecast.Parallelism)
	}
	if cfg.Store.Type != "redis" || cfg.Store.RedisAddr != "cache:6379" {
		t.Errorf("unexpected store config %+v", cfg.Store)
	}
	if cfg.Forecast.MinPoints != 20 {
		t.Errorf("expected default min points 20, got %d", cfg.Forecast.MinPoints)
	}
}

func TestLoadOrDefault_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  http_port: 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadOrDefault(path)
	if cfg.Server.HTTPPort != DefaultConfig().Server.HTTPPort {
		t.Errorf("expected default config on invalid file, got port %d", cfg.Server.HTTPPort)
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.IsDevelopment() {
		t.Error("default config should not be development mode")
	}

	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"

	if !cfg.IsDevelopment() {
		t.Error("config with debug/console should be development mode")
	}

	if addr := cfg.GetServerAddress(); addr != "0.0.0.0:5580" {
		t.Errorf("expected '0.0.0.0:5580', got %s", addr)
	}

	if got := cfg.Server.BodyLimitBytes(); got != 32*1024*1024 {
		t.Errorf("expected 32MB body limit, got %d", got)
	}
}

func TestSourceConfig_GetLocation(t *testing.T) {
	tests := []struct {
		zone       string
		wantOffset int
	}{
		{"UTC", 0},
		{"+08:00", 8 * 3600},
		{"-05:30", -(5*3600 + 30*60)},
	}

	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		c := SourceConfig{Timezone: tt.zone}
		_, offset := ref.In(c.GetLocation()).Zone()
		if offset != tt.wantOffset {
			t.Errorf("%s: expected offset %d, got %d", tt.zone, tt.wantOffset, offset)
		}
	}

	if (&SourceConfig{}).GetLocation() != time.Local {
		t.Error("empty timezone should fall back to time.Local")
	}
	if (&SourceConfig{Timezone: "not/a-zone"}).GetLocation() != time.Local {
		t.Error("invalid timezone should fall back to time.Local")
	}
}
