// CLI entry point for the TradePulse gateway.
package main

import (
	"github.com/tradepulse/tradepulse/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	cli.ExecuteOrExit()
}
