package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"musage/internal/config"
	"musage/internal/mcp"
	"musage/internal/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(version string) *cobra.Command {
	var (
		debug      bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes module usage scanning as tools that AI agents can
discover and invoke:
  - musage_scan: count references to a module's members under a directory
  - musage_version: report server version and supported file extensions`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			// stdout carries the JSON-RPC stream, so logs stay on stderr.
			setupLogging(debug, cobraCmd.ErrOrStderr())

			cfg, err := loadConfig(cobraCmd.Flags(), configPath)
			if err != nil {
				return err
			}

			shutdown, err := observability.InitTracing(cobraCmd.Context(), observability.TracingConfig{
				OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
				ServiceName:    "musage-mcp",
				ServiceVersion: version,
				Insecure:       os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",
			})
			if err != nil {
				slog.Warn("tracing init failed", "error", err)
			} else {
				defer func() {
					if shutdownErr := shutdown(context.Background()); shutdownErr != nil {
						slog.Warn("tracing shutdown failed", "error", shutdownErr)
					}
				}()
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:  slog.Default(),
				Config:  cfg,
				Version: version,
			})

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging to stderr")
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "path to config file")

	return cmd
}
