package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// StoragePaths holds the detected paths for agrichat state
type StoragePaths struct {
	BasePath     string // per-user agrichat directory
	DatabasePath string // SQLite key/value database
	ConfigFile   string // optional YAML configuration
}

// DetectStoragePaths detects the agrichat paths based on the operating system
func DetectStoragePaths() (StoragePaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return StoragePaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	var basePath string
	switch runtime.GOOS {
	case "darwin":
		basePath = filepath.Join(home, "Library/Application Support/agrichat")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			basePath = filepath.Join(xdg, "agrichat")
		} else {
			basePath = filepath.Join(home, ".config/agrichat")
		}
	case "windows":
		basePath = filepath.Join(home, "AppData/Roaming/agrichat")
	default:
		return StoragePaths{}, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}

	return StoragePathsAt(basePath), nil
}

// StoragePathsAt builds the paths rooted at a custom directory
func StoragePathsAt(basePath string) StoragePaths {
	return StoragePaths{
		BasePath:     basePath,
		DatabasePath: filepath.Join(basePath, "state.db"),
		ConfigFile:   filepath.Join(basePath, "config.yaml"),
	}
}

// DatabaseExists checks if the SQLite database has been created yet
func (sp StoragePaths) DatabaseExists() bool {
	_, err := os.Stat(sp.DatabasePath)
	return err == nil
}

// ConfigExists checks if a config file is present
func (sp StoragePaths) ConfigExists() bool {
	info, err := os.Stat(sp.ConfigFile)
	return err == nil && !info.IsDir()
}
