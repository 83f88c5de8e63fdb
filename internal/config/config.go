// Package config loads the application config file. The file is optional;
// a missing file yields the defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mkoval/trecker/internal/constants"
)

type Config struct {
	// Storage is either a filesystem path to the SQLite database or a
	// postgres:// connection string. Postgres credentials live in the OS
	// keyring, not here.
	Storage string `yaml:"storage"`

	// Debug enables verbose logging to stderr.
	Debug bool `yaml:"debug"`

	Defaults Defaults `yaml:"defaults"`
}

type Defaults struct {
	Time           string `yaml:"time"`
	AdvanceMinutes int    `yaml:"advance_minutes"`
	Category       string `yaml:"category"`
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(dir, constants.AppName, "config.yaml"), nil
}

// DefaultStoragePath returns the default SQLite database location.
func DefaultStoragePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(dir, constants.AppName, constants.AppName+".db"), nil
}

func defaults() Config {
	return Config{
		Defaults: Defaults{
			Time:           constants.DefaultTime,
			AdvanceMinutes: constants.DefaultAdvanceMinutes,
		},
	}
}

// Load reads the config file at path. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return defaults(), fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Defaults.Time == "" {
		cfg.Defaults.Time = constants.DefaultTime
	}
	return cfg, nil
}

// Save writes the config file, creating its directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
