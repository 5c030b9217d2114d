package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server       ServerConfig     `yaml:"server"`
	Simulator    SimulatorConfig  `yaml:"simulator"`
	Database     DatabaseConfig   `yaml:"database"`
	Push         PushConfig       `yaml:"push"`
	WorkerPool   WorkerPoolConfig `yaml:"worker_pool"`
	Recommend    RecommendConfig  `yaml:"recommend"`
	SeedMachines []SeedMachine    `yaml:"seed_machines"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// SimulatorConfig drives the live-monitor simulation loop.
type SimulatorConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
	Seed            int64         `yaml:"seed"`

	// Per-tick stroke increment bounds, inclusive.
	MinStrokeIncrement int `yaml:"min_stroke_increment"`
	MaxStrokeIncrement int `yaml:"max_stroke_increment"`

	// Cycle time jitter bounds in seconds.
	MinCycleTime float64 `yaml:"min_cycle_time"`
	MaxCycleTime float64 `yaml:"max_cycle_time"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig sizes the notification and archival worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// RecommendConfig points at the external AI recommendation collaborator.
type RecommendConfig struct {
	URL            string            `yaml:"url"`
	Headers        map[string]string `yaml:"headers"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	Timeout        time.Duration     `yaml:"-"`
}

// SeedMachine describes a machine registered at startup when the machine
// master table is empty.
type SeedMachine struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	Model            string `yaml:"model"`
	Status           string `yaml:"status"`
	StrokeCount      int64  `yaml:"stroke_count"`
	UtilizationLimit int64  `yaml:"utilization_limit"`
	HealthScore      int    `yaml:"health_score"`
	OilLevel         int    `yaml:"oil_level"`
	LastServiced     string `yaml:"last_serviced"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields with their defaults and validates the
// bounds that have no sensible fallback.
func (cfg *Config) ApplyDefaults() error {
	if cfg.Simulator.IntervalSeconds <= 0 {
		cfg.Simulator.IntervalSeconds = 2
	}
	cfg.Simulator.Interval = time.Duration(cfg.Simulator.IntervalSeconds) * time.Second

	if cfg.Simulator.MinStrokeIncrement <= 0 {
		cfg.Simulator.MinStrokeIncrement = 1
	}
	if cfg.Simulator.MaxStrokeIncrement <= 0 {
		cfg.Simulator.MaxStrokeIncrement = 5
	}
	if cfg.Simulator.MaxStrokeIncrement < cfg.Simulator.MinStrokeIncrement {
		return fmt.Errorf("simulator: max_stroke_increment %d is below min_stroke_increment %d",
			cfg.Simulator.MaxStrokeIncrement, cfg.Simulator.MinStrokeIncrement)
	}
	if cfg.Simulator.MinCycleTime <= 0 {
		cfg.Simulator.MinCycleTime = 12
	}
	if cfg.Simulator.MaxCycleTime <= 0 {
		cfg.Simulator.MaxCycleTime = 15
	}
	if cfg.Simulator.MaxCycleTime < cfg.Simulator.MinCycleTime {
		return fmt.Errorf("simulator: max_cycle_time %.1f is below min_cycle_time %.1f",
			cfg.Simulator.MaxCycleTime, cfg.Simulator.MinCycleTime)
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Recommend.TimeoutSeconds <= 0 {
		cfg.Recommend.TimeoutSeconds = 30
	}
	cfg.Recommend.Timeout = time.Duration(cfg.Recommend.TimeoutSeconds) * time.Second

	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}

	return nil
}
