package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DiscoverConfigPath finds the config file by checking standard locations.
// Priority order: $DEBUGBRIDGE_CONFIG, ~/.config/debugbridge/config.yaml,
// /etc/debugbridge/config.yaml, ./config.yaml.
func DiscoverConfigPath() (string, error) {
	if path := os.Getenv("DEBUGBRIDGE_CONFIG"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfig := filepath.Join(homeDir, ".config", "debugbridge", "config.yaml")
		if fileExists(userConfig) {
			return userConfig, nil
		}
	}

	if systemConfig := "/etc/debugbridge/config.yaml"; fileExists(systemConfig) {
		return systemConfig, nil
	}

	if fileExists("./config.yaml") {
		return "./config.yaml", nil
	}

	return "", fmt.Errorf("no config found (checked: $DEBUGBRIDGE_CONFIG, ~/.config/debugbridge/config.yaml, /etc/debugbridge/config.yaml, ./config.yaml)")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
