package commands

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/cafefs/internal/cli/health"
)

var (
	statusPort    int
	statusTimeout time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the health of a running cafefs server",
	Long: `Query the readiness endpoint of a server started with "cafefs serve"
or "cafefs shell" and print the health of each component.

Without --port the metrics port from the configuration is used.

Examples:
  cafefs status
  cafefs status --port 9091 -o json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusPort, "port", 0, "Health server port (default: metrics.port from config)")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 2*time.Second, "Request timeout")
}

func runStatus(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	port := statusPort
	if port == 0 {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		port = cfg.Metrics.Port
	}

	url := fmt.Sprintf("http://localhost:%d/health/ready", port)
	client := &http.Client{Timeout: statusTimeout}
	resp, err := health.Fetch(cmd.Context(), client, url)
	if err != nil {
		return fmt.Errorf("server is not reachable at %s: %w", url, err)
	}
	if err := p.Print(resp); err != nil {
		return err
	}
	if !resp.Healthy() {
		return fmt.Errorf("server is unhealthy: %s", resp.Error)
	}
	return nil
}
