package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/internal/session"
	"github.com/marmos91/cafefs/pkg/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep a session open and serve health and metrics",
	Long: `Open the configured volume and serve /health, /health/ready and
/metrics until interrupted. metrics.enabled must be true.

Examples:
  cafefs serve
  CAFEFS_LOGGING_LEVEL=DEBUG cafefs serve --config /etc/cafefs/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(cfgFile)
	if err != nil {
		return err
	}
	if !cfg.Metrics.Enabled {
		return fmt.Errorf("metrics are disabled; set metrics.enabled: true to serve health and metrics")
	}
	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := session.Open(ctx, cfg, Version)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := s.Close(closeCtx); err != nil {
			logger.Error("Session shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Server is running. Press Ctrl+C to stop.", logger.KeyPort, s.Server().Port())
	if err := s.Server().Start(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
