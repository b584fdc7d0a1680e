package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/logging"
	"github.com/tradepulse/tradepulse/internal/infrastructure/query"
)

const checkTimeout = 10 * time.Second

// newCheckCommand verifies that the configured analytics backend is
// reachable before the gateway is deployed against it.
func newCheckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify connectivity to the analytics backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			log, err := logging.NewLogger(cfg.Log)
			if err != nil {
				return err
			}

			client, err := query.NewClient(cfg.Backend, cfg.Orchestrator,
				query.WithLogger(log))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			defer cancel()

			start := time.Now()
			if err := client.Ping(ctx); err != nil {
				return fmt.Errorf("backend %s unreachable: %w", cfg.Backend.BaseURL, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backend %s healthy (%s)\n",
				cfg.Backend.BaseURL, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
