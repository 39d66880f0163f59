package main

import (
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "tracker",
	Short:   "Diabetes tracker estimators and MCP server",
	Version: version,
	Long: `Tracker runs the insulin dose and glucose projection estimators from the
command line and serves them to AI assistants over MCP.

QUICK START:

  $ tracker dose --glucose 180 --carbs 45             # Suggest an insulin dose
  $ tracker dose --glucose 180 --carbs 45 --json      # Same, as JSON
  $ tracker glucose --glucose 150 --insulin 2 --carbs 30
  $ tracker glucose --glucose 250 --carbs 90 --clamp  # Keep within 70-300 mg/dL

The dose and glucose commands work offline and record nothing.

MCP INTEGRATION:

  Run 'tracker mcp' to start the Model Context Protocol server. It reads the
  same environment (.env, DB_DRIVER, REDIS_HOST, ...) as the HTTP server:

  {
    "mcpServers": {
      "diabetes-tracker": { "command": "tracker", "args": ["mcp"] }
    }
  }`,
	SilenceUsage: true,
}
