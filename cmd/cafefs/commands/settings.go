package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/marmos91/cafefs/internal/cli/output"
	"github.com/marmos91/cafefs/internal/cli/prompt"
	"github.com/marmos91/cafefs/internal/session"
	"github.com/marmos91/cafefs/pkg/mcp"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the system product settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the platform and game region",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPrinter(cmd)
		if err != nil {
			return err
		}
		return withVolume(cmd, func(ctx context.Context, s *session.Session, _ *session.Volume) error {
			cur, err := readSettings(ctx, s.Settings)
			if err != nil {
				return err
			}
			return p.Print(output.NewSettings(cur))
		})
	},
}

var (
	setPlatformRegion string
	setGameRegion     string
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the platform and game region",
	Long: `Change the stored regions. Unknown bytes of the record are kept.
Without flags on a terminal the regions are chosen interactively.

Examples:
  cafefs settings set --game EUR
  cafefs settings set --platform JPN --game JPN`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPrinter(cmd)
		if err != nil {
			return err
		}
		interactive := setPlatformRegion == "" && setGameRegion == ""
		if interactive && !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("--platform or --game is required when not running on a terminal")
		}

		return withVolume(cmd, func(ctx context.Context, s *session.Session, _ *session.Volume) error {
			cur, err := readSettings(ctx, s.Settings)
			if err != nil {
				return err
			}
			if interactive {
				if cur.PlatformRegion, err = prompt.SelectRegion("Platform region", cur.PlatformRegion); err != nil {
					return err
				}
				if cur.GameRegion, err = prompt.SelectRegion("Game region", cur.GameRegion); err != nil {
					return err
				}
			} else if err := applyRegionFlags(cur, setPlatformRegion, setGameRegion); err != nil {
				return err
			}

			if err := writeSettings(ctx, s.Settings, cur); err != nil {
				return err
			}
			return p.Print(output.NewSettings(cur))
		})
	},
}

func init() {
	settingsSetCmd.Flags().StringVar(&setPlatformRegion, "platform", "", "Platform region (JPN|USA|EUR|CHN|KOR|TWN)")
	settingsSetCmd.Flags().StringVar(&setGameRegion, "game", "", "Game region (JPN|USA|EUR|CHN|KOR|TWN)")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func applyRegionFlags(s *mcp.SysProdSettings, platform, game string) error {
	if platform != "" {
		r, err := mcp.ParseRegion(platform)
		if err != nil {
			return err
		}
		s.PlatformRegion = r
	}
	if game != "" {
		r, err := mcp.ParseRegion(game)
		if err != nil {
			return err
		}
		s.GameRegion = r
	}
	return nil
}

func readSettings(ctx context.Context, svc *mcp.Service) (*mcp.SysProdSettings, error) {
	h := svc.Open()
	defer svc.Close(h)

	var out mcp.SysProdSettings
	if err := svc.GetSysProdSettings(ctx, h, &out).Err(); err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return &out, nil
}

func writeSettings(ctx context.Context, svc *mcp.Service, in *mcp.SysProdSettings) error {
	h := svc.Open()
	defer svc.Close(h)

	if err := svc.SetSysProdSettings(ctx, h, in).Err(); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
