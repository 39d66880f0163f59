package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vladimiradmaev/diabetes-tracker/internal/app"
	"github.com/vladimiradmaev/diabetes-tracker/internal/config"
	"github.com/vladimiradmaev/diabetes-tracker/internal/logger"
	"github.com/vladimiradmaev/diabetes-tracker/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server on stdin/stdout.

Estimates are audited and readings stored exactly as through the HTTP API.
Logs go to stderr unless LOG_OUTPUT names a file.

AVAILABLE TOOLS:

  predict_insulin  Suggest an insulin dose
  predict_glucose  Project blood glucose
  log_glucose      Record a glucose reading
  list_glucose     List recent glucose readings`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		// stdout carries the protocol
		if out := cfg.Logger.OutputPath; out == "" || out == "stdout" {
			cfg.Logger.OutputPath = "stderr"
		}
		if err := logger.InitWithConfig(cfg.Logger.Options()); err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}

		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := a.Close(ctx); err != nil {
				logger.Error("Shutdown incomplete", "error", err)
			}
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.Info("MCP server starting", "version", version)
		return mcp.NewServer(a.MCPDependencies(), version).Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
