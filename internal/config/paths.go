package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "ytq"

// Paths locates the config and data directories.
type Paths struct {
	ConfigDir string
	DataDir   string
}

// ConfigFile returns the path of config.json.
func (p Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, FileName)
}

// ResolvePaths finds the directories for this user. $YTQ_HOME puts both in
// one directory. Otherwise config goes under os.UserConfigDir() and data
// under $XDG_DATA_HOME, falling back to ~/.local/share.
func ResolvePaths() (Paths, error) {
	if home := os.Getenv("YTQ_HOME"); home != "" {
		return Paths{ConfigDir: home, DataDir: home}, nil
	}

	configRoot, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("locate config directory: %w", err)
	}

	dataRoot := os.Getenv("XDG_DATA_HOME")
	if dataRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("locate data directory: %w", err)
		}
		dataRoot = filepath.Join(home, ".local", "share")
	}

	return Paths{
		ConfigDir: filepath.Join(configRoot, appName),
		DataDir:   filepath.Join(dataRoot, appName),
	}, nil
}
