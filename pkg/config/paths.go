package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigDir returns the path to the client config directory (~/.pubsub).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".pubsub"), nil
}

// DefaultPath returns the config file path for name, or "" when the file
// does not exist so callers fall back to defaults.
// If name is already an absolute path, it is returned as-is.
func DefaultPath(name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", nil
	}
	return path, nil
}
