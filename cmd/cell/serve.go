package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/neboloop/cell/internal/config"
	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/provider"
	"github.com/neboloop/cell/internal/server"
	"github.com/neboloop/cell/internal/svc"
)

func ServeCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the prediction server",
		Long: `Serve the prediction and chat API over HTTP, session events over WebSocket (/ws)
and the same operations as MCP tools (/mcp).

When --config is given the file is watched and provider settings are
reloaded without a restart.

Examples:
  cell serve
  cell serve --config ./cell.yaml
  cell serve --provider ollama`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), quiet)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress request logging")
	return cmd
}

func runServe(parent context.Context, quiet bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := *ServerConfig
	p, err := provider.Build(c, providerArg)
	if err != nil {
		return err
	}
	svcCtx, err := svc.NewServiceContext(c, p)
	if err != nil {
		return err
	}

	if cfgFile != "" {
		w, err := config.Watch(baseConfig, cfgFile, func(next config.Config) {
			np, err := provider.Build(next, providerArg)
			if err != nil {
				logging.Errorf("[serve] keeping current provider: %v", err)
				return
			}
			if err := svcCtx.Reload(next, np); err != nil {
				logging.Errorf("[serve] reload failed: %v", err)
			}
		})
		if err != nil {
			logging.Warnf("[serve] config hot-reload disabled: %v", err)
		} else {
			defer w.Close()
		}
	}

	if err := server.Run(ctx, c, svcCtx, server.ServerOptions{Quiet: quiet}); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
