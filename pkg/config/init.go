package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ErrConfigExists is returned when WriteDefault would overwrite a file
var ErrConfigExists = errors.New("config file already exists")

// SettingsDir returns $XDG_CONFIG_HOME/tessera, falling back to ~/.config/tessera
func SettingsDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tessera"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "tessera"), nil
}

// DefaultPath is the settings file written by WriteDefault when no path is given
func DefaultPath() (string, error) {
	dir, err := SettingsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.yaml"), nil
}

// WriteDefault writes the built-in defaults to path. An existing file is
// kept unless force is set.
func WriteDefault(path string, force bool) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	return nil
}
