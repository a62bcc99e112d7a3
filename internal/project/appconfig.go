package project

import (
	"os"
	"path/filepath"

	"github.com/piwi3910/StowPlan/internal/model"
)

// DefaultConfigDir returns ~/.stowplan, or .stowplan in the working
// directory when no home directory is known.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".stowplan")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// SaveAppConfig writes config to path.
func SaveAppConfig(path string, config model.AppConfig) error {
	return writeJSON(path, config)
}

// LoadAppConfig reads the config at path. A missing file yields
// DefaultAppConfig; zero engine settings in the file are replaced by the
// defaults.
func LoadAppConfig(path string) (model.AppConfig, error) {
	var config model.AppConfig
	if err := readJSON(path, &config); err != nil {
		if os.IsNotExist(err) {
			return model.DefaultAppConfig(), nil
		}
		return model.AppConfig{}, err
	}
	return normalizeConfig(config), nil
}

func normalizeConfig(config model.AppConfig) model.AppConfig {
	defaults := model.DefaultAppConfig()
	if config.CellSize <= 0 {
		config.CellSize = defaults.CellSize
	}
	if config.SnapTolerance <= 0 {
		config.SnapTolerance = defaults.SnapTolerance
	}
	if config.DefaultContainerID == "" {
		config.DefaultContainerID = defaults.DefaultContainerID
	}
	if config.RecentProjects == nil {
		config.RecentProjects = []string{}
	}
	return config
}
