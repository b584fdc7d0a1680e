// Package cli implements the tradepulse command-line interface: the root
// command, global flags, and the serve/version/check subcommands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradepulse/tradepulse/internal/config"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds global CLI flags shared by all subcommands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand creates the root command and mounts the subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	root := &cobra.Command{
		Use:   "tradepulse",
		Short: "TradePulse trade-shipment analytics gateway",
		Long: "tradepulse runs the query-orchestration gateway that sits between the\n" +
			"trade-shipment dashboard and the analytics backend: debounced filter\n" +
			"changes, preview/final fetch coordination, and result caching.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "",
		"path to configuration file (default: environment variables)")
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "",
		"log level override: debug, info, warn, error")

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newCheckCommand(opts))
	root.AddCommand(newVersionCommand())

	return root
}

// loadConfig resolves the effective configuration: an explicit --config file
// wins, otherwise defaults overlaid with TRADEPULSE_* environment variables.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// ExecuteOrExit runs the root command and exits non-zero on failure.
func ExecuteOrExit() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
