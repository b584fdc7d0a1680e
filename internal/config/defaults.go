package config

import "time"

// Version is the gateway release version, overridable at build time with
// -ldflags "-X github.com/tradepulse/tradepulse/internal/config.Version=...".
var Version = "0.1.0"

// ApplyDefaults fills every unset field with its platform default.  Defaults
// mirror the observed dashboard behavior: 180ms drag / 120ms click quiet
// periods, 15000/50000-row preview/final limits, 100ms slow threshold, no
// request timeout, unbounded session cache.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:8000"
	}
	if cfg.Backend.DialTimeout == 0 {
		cfg.Backend.DialTimeout = 10 * time.Second
	}
	if cfg.Backend.UserAgent == "" {
		cfg.Backend.UserAgent = "tradepulse/" + Version
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "tradepulse:"
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 6 * time.Hour
	}

	if cfg.Orchestrator.DragQuiet == 0 {
		cfg.Orchestrator.DragQuiet = 180 * time.Millisecond
	}
	if cfg.Orchestrator.ClickQuiet == 0 {
		cfg.Orchestrator.ClickQuiet = 120 * time.Millisecond
	}
	if cfg.Orchestrator.PreviewLimit == 0 {
		cfg.Orchestrator.PreviewLimit = 15000
	}
	if cfg.Orchestrator.FinalLimit == 0 {
		cfg.Orchestrator.FinalLimit = 50000
	}
	if cfg.Orchestrator.SlowThreshold == 0 {
		cfg.Orchestrator.SlowThreshold = 100 * time.Millisecond
	}
	if cfg.Orchestrator.SessionIdleTimeout == 0 {
		cfg.Orchestrator.SessionIdleTimeout = 30 * time.Minute
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// NewDefaultConfig returns a Config populated entirely from defaults.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
