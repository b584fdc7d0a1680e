// Daemon entry point for the TradePulse gateway: flag-based configuration,
// signal handling, graceful shutdown.  For the full CLI use cmd/tradepulse.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tradepulse/tradepulse/internal/app"
	"github.com/tradepulse/tradepulse/internal/config"
	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/logging"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, fromFile, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	log, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log.Info("starting tradepulse gateway",
		logging.String("version", config.Version),
		logging.Int("port", cfg.Server.Port),
		logging.String("backend", cfg.Backend.BaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runOpts []app.Option
	if fromFile {
		runOpts = append(runOpts, app.WithConfigFile(*configPath))
	}
	if err := app.Run(ctx, cfg, log, runOpts...); err != nil {
		log.Error("gateway exited with error", logging.Err(err))
		os.Exit(1)
	}
}

// loadConfig reads the config file when present and falls back to defaults
// overlaid with TRADEPULSE_* environment variables when it is not.
func loadConfig(path string) (*config.Config, bool, error) {
	if _, err := os.Stat(path); err == nil {
		cfg, err := config.Load(path)
		return cfg, err == nil, err
	}
	if path != defaultConfigPath {
		// An explicitly requested file that is missing is an error; the
		// default path is merely a convention.
		return nil, false, fmt.Errorf("config file %s not found", path)
	}
	cfg, err := config.LoadFromEnv()
	return cfg, false, err
}
