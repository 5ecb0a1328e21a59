// Package filex contains filesystem helpers for client-side state.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// StateDir returns (and creates) the per-user state directory for appName,
// following the XDG layout: $XDG_STATE_HOME/appName or ~/.local/state/appName.
func StateDir(appName string) (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("home dir: %w", err)
		}
		base = filepath.Join(home, ".local", "state")
	}
	return EnsureDir(filepath.Join(base, appName))
}

// EnsureDir creates dir (and parents) with owner-only permissions.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}
