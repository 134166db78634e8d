package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/cafefs/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample cafefs configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/cafefs/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  cafefs init

  # Initialize with custom path
  cafefs init --config /etc/cafefs/config.yaml

  # Force overwrite existing config
  cafefs init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	var (
		configPath string
		err        error
	)
	if cfgFile != "" {
		err = config.InitConfigToPath(cfgFile, initForce)
		configPath = cfgFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(w, "\nNext steps:")
	_, _ = fmt.Fprintln(w, "  1. Point fs.root at the directory to serve as the volume")
	_, _ = fmt.Fprintln(w, "  2. Browse it with: cafefs ls /")
	_, _ = fmt.Fprintf(w, "  3. Or open an interactive shell: cafefs shell --config %s\n", configPath)
	return nil
}
