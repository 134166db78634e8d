package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/cafefs/internal/cli/output"
	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/internal/session"
	"github.com/marmos91/cafefs/pkg/config"
)

// loadConfig loads --config when given. Without it the default file is
// used if present, otherwise built-in defaults.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.MustLoad(cfgFile)
	}
	return config.Load("")
}

// openSession loads configuration, initializes logging and opens a session.
func openSession(ctx context.Context) (*session.Session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return session.Open(ctx, cfg, Version)
}

// withVolume runs fn against a freshly opened session and closes it
// afterwards.
func withVolume(cmd *cobra.Command, fn func(ctx context.Context, s *session.Session, v *session.Volume) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx)
	if err != nil {
		return err
	}

	runErr := fn(ctx, s, session.NewVolume(s.Client))

	closeCtx, cancel := context.WithTimeout(context.Background(), s.Config.ShutdownTimeout)
	defer cancel()
	if err := s.Close(closeCtx); err != nil {
		logger.Warn("Session close failed", logger.Err(err))
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

// newPrinter builds a printer for cmd's output stream from the -o flag.
func newPrinter(cmd *cobra.Command) (*output.Printer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	w := cmd.OutOrStdout()
	return output.NewPrinter(w, format, output.ColorSupported(w)), nil
}
