// Package config loads signald settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SIGNALD_"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	API       APIConfig       `yaml:"api"`
	Standings StandingsConfig `yaml:"standings"`
	Tracker   TrackerConfig   `yaml:"tracker"`
	Stream    StreamConfig    `yaml:"stream"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

type APIConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit"` // requests per second per client IP, 0 disables
	RateBurst      int      `yaml:"rate_burst"`
	DailyCallLimit int      `yaml:"daily_call_limit"` // per route, 0 means unlimited
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
}

type StandingsConfig struct {
	File            string  `yaml:"file"` // optional; strength lookup is disabled without it
	StrongThreshold float64 `yaml:"strong_threshold"`
}

type TrackerConfig struct {
	RetainFor     time.Duration `yaml:"retain_for"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

type StreamConfig struct {
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		API: APIConfig{
			AllowedOrigins: []string{"*"},
			RateLimit:      20,
			RateBurst:      40,
			MaxBodyBytes:   1 << 20,
		},
		Standings: StandingsConfig{
			StrongThreshold: 70,
		},
		Tracker: TrackerConfig{
			RetainFor:     6 * time.Hour,
			PruneInterval: 10 * time.Minute,
		},
		Stream: StreamConfig{
			Heartbeat: 30 * time.Second,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SIGNALD_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	if v, ok := get("ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	if v, ok := get("STANDINGS_FILE"); ok {
		c.Standings.File = v
	}
	if v, ok := get("STANDINGS_STRONG_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sSTANDINGS_STRONG_THRESHOLD: %w", EnvPrefix, err)
		}
		c.Standings.StrongThreshold = f
	}
	if v, ok := get("ALLOWED_ORIGINS"); ok {
		c.API.AllowedOrigins = splitList(v)
	}
	if v, ok := get("RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT: %w", EnvPrefix, err)
		}
		c.API.RateLimit = f
	}
	if v, ok := get("DAILY_CALL_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sDAILY_CALL_LIMIT: %w", EnvPrefix, err)
		}
		c.API.DailyCallLimit = n
	}
	return nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("api.rate_limit must not be negative"))
	}
	if c.API.RateLimit > 0 && c.API.RateBurst < 1 {
		errs = append(errs, errors.New("api.rate_burst must be at least 1 when rate limiting"))
	}
	if c.API.DailyCallLimit < 0 {
		errs = append(errs, errors.New("api.daily_call_limit must not be negative"))
	}
	if c.API.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("api.max_body_bytes must be positive"))
	}
	if c.Standings.StrongThreshold <= 0 || c.Standings.StrongThreshold > 100 {
		errs = append(errs, fmt.Errorf("standings.strong_threshold %.1f outside (0, 100]", c.Standings.StrongThreshold))
	}
	if c.Stream.Heartbeat <= 0 {
		errs = append(errs, errors.New("stream.heartbeat must be positive"))
	}
	if c.Tracker.RetainFor < 0 || c.Tracker.PruneInterval < 0 {
		errs = append(errs, errors.New("tracker durations must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
