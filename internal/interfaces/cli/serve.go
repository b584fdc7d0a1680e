package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tradepulse/tradepulse/internal/app"
	"github.com/tradepulse/tradepulse/internal/config"
	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/logging"
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway HTTP server",
		Long: "serve starts the gateway and blocks until SIGINT or SIGTERM.\n" +
			"Configuration comes from --config or TRADEPULSE_* environment variables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			log, err := logging.NewLogger(cfg.Log)
			if err != nil {
				return err
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
			if opts.ConfigPath != "" {
				runOpts = append(runOpts, app.WithConfigFile(opts.ConfigPath))
			}
			return app.Run(ctx, cfg, log, runOpts...)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP listen port (overrides config)")
	return cmd
}
