package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/conshell"
	"github.com/aretw0/conshell/internal/cli"
	"github.com/aretw0/conshell/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes every non-control command as an MCP tool.
Mode control commands (--run, --start, --stop, --quit) are never exposed.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		configPath, _ := cmd.Flags().GetString("config")

		var shellArgs []string
		if configPath != "" {
			shellArgs = []string{"--config=" + configPath}
		}
		// Stdout carries JSON-RPC; console output goes to Stderr.
		sh, _, err := cli.Build(shellArgs, cli.Options{In: os.Stdin, Out: os.Stderr})
		if err != nil {
			return err
		}
		log.SetOutput(os.Stderr)

		srv := mcp.NewServer(sh, sh.Info().Title, conshell.Version)

		switch transport {
		case "stdio":
			slog.Info("Starting conshell MCP Server (Stdio)...")
			return srv.ServeStdio()
		case "sse":
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ServeSSE(ctx, port)
		default:
			return fmt.Errorf("unknown transport %q (use stdio or sse)", transport)
		}
	},
}

func init() {
	mcpCmd.Flags().String("transport", "stdio", "Transport to use (stdio, sse)")
	mcpCmd.Flags().Int("port", 8080, "Port for SSE server")
	mcpCmd.Flags().String("config", "", "Configuration file")
	rootCmd.AddCommand(mcpCmd)
}
