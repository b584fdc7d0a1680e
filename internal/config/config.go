// Package config defines all configuration structures for the TradePulse
// gateway.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"

	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/logging"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BackendConfig holds the connection parameters for the external trade-data
// query service.
type BackendConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
}

// RedisConfig holds the optional reference-data cache connection parameters.
// Enabled=false keeps the gateway fully in-memory.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
}

// OrchestratorConfig holds the query-orchestration tunables: debounce quiet
// periods, row limits, the slow-fetch indicator threshold, and the two knobs
// the design leaves open (request timeout and cache bound).
type OrchestratorConfig struct {
	// DragQuiet is the trailing-edge debounce window after a continuous
	// interaction such as a slider drag.
	DragQuiet time.Duration `mapstructure:"drag_quiet"`

	// ClickQuiet is the shorter window after a discrete toggle.
	ClickQuiet time.Duration `mapstructure:"click_quiet"`

	// PreviewLimit and FinalLimit are the row-limit hints sent to the backend
	// for the two fetch modes.
	PreviewLimit int `mapstructure:"preview_limit"`
	FinalLimit   int `mapstructure:"final_limit"`

	// SlowThreshold is how long a final fetch may run before the loading
	// indicator is shown.  Completions under the threshold never flicker it.
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`

	// RequestTimeout bounds a single backend fetch.  Zero disables the bound,
	// matching the original behavior of never aborting a hung request.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// CacheMaxEntries caps each channel's result-cache namespace.  Zero means
	// unbounded for the session, the original (documented) behavior.
	CacheMaxEntries int `mapstructure:"cache_max_entries"`

	// SessionIdleTimeout evicts orchestrator sessions with no activity.
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`
}

// Config is the root configuration object.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Backend      BackendConfig      `mapstructure:"backend"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Log          logging.Config     `mapstructure:"log"`
}

// Validate checks cross-field constraints that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url must be set")
	}
	if c.Orchestrator.DragQuiet <= 0 || c.Orchestrator.ClickQuiet <= 0 {
		return fmt.Errorf("orchestrator quiet periods must be positive")
	}
	if c.Orchestrator.PreviewLimit <= 0 || c.Orchestrator.FinalLimit <= 0 {
		return fmt.Errorf("orchestrator row limits must be positive")
	}
	if c.Orchestrator.PreviewLimit > c.Orchestrator.FinalLimit {
		return fmt.Errorf("orchestrator.preview_limit (%d) must not exceed final_limit (%d)",
			c.Orchestrator.PreviewLimit, c.Orchestrator.FinalLimit)
	}
	if c.Orchestrator.RequestTimeout < 0 {
		return fmt.Errorf("orchestrator.request_timeout must not be negative")
	}
	if c.Orchestrator.CacheMaxEntries < 0 {
		return fmt.Errorf("orchestrator.cache_max_entries must not be negative")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must be set when redis is enabled")
	}
	return nil
}
