package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const configHeader = `# cafefs configuration file
#
# Every key can be overridden with a CAFEFS_ environment variable, for
# example CAFEFS_LOGGING_LEVEL=DEBUG or CAFEFS_FS_WORKERS=8.
#
# Sizes accept human-readable values ("1MiB", "512KiB") and hex ("0x100000").

`

// InitConfig writes a default configuration to the default location and
// returns its path. An existing file is kept unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath writes a default configuration to path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}

	data, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	return writeConfigFile(path, append([]byte(configHeader), data...))
}
