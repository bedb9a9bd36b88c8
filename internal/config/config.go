// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Advisor   AdvisorConfig   `yaml:"advisor"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// AdvisorConfig defines buy suggestion thresholds.
type AdvisorConfig struct {
	MinHistoryMonths   int     `yaml:"min_history_months"`
	DoNotBuyMaxPercent float64 `yaml:"do_not_buy_max_percent"`
	NeutralMaxPercent  float64 `yaml:"neutral_max_percent"`
}

// TrackingConfig defines favorite/alert limits and retry behavior.
type TrackingConfig struct {
	FavoriteLimit int `yaml:"favorite_limit"`
	MaxAttempts   int `yaml:"max_attempts"`
}

// ScheduleConfig defines periodic job intervals.
type ScheduleConfig struct {
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
}

// RateLimitConfig defines mutation endpoint rate limiting.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyAdvisorDefaults(&cfg.Advisor)
	applyTrackingDefaults(&cfg.Tracking)
	applyScheduleDefaults(&cfg.Schedule)
	applyRateLimitDefaults(&cfg.RateLimit)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyAdvisorDefaults(a *AdvisorConfig) {
	if a.MinHistoryMonths == 0 {
		a.MinHistoryMonths = 3
	}
	if a.DoNotBuyMaxPercent == 0 {
		a.DoNotBuyMaxPercent = 20
	}
	if a.NeutralMaxPercent == 0 {
		a.NeutralMaxPercent = 60
	}
}

func applyTrackingDefaults(t *TrackingConfig) {
	if t.FavoriteLimit == 0 {
		t.FavoriteLimit = 200
	}
	if t.MaxAttempts == 0 {
		t.MaxAttempts = 3
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.ReconcileInterval == 0 {
		s.ReconcileInterval = 6 * time.Hour
	}
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 20
	}
	if r.Burst == 0 {
		r.Burst = 40
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if cfg.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}
	if cfg.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}

	if cfg.Advisor.MinHistoryMonths < 1 {
		errs = append(errs, fmt.Errorf("advisor.min_history_months must be >= 1"))
	}
	if cfg.Advisor.DoNotBuyMaxPercent >= cfg.Advisor.NeutralMaxPercent {
		errs = append(errs, fmt.Errorf(
			"advisor.do_not_buy_max_percent (%v) must be below advisor.neutral_max_percent (%v)",
			cfg.Advisor.DoNotBuyMaxPercent, cfg.Advisor.NeutralMaxPercent,
		))
	}

	if cfg.Tracking.FavoriteLimit < 1 {
		errs = append(errs, fmt.Errorf("tracking.favorite_limit must be >= 1"))
	}
	if cfg.Tracking.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("tracking.max_attempts must be >= 1"))
	}

	return errors.Join(errs...)
}
