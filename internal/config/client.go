package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ClientConfig configures the terminal storefront.
type ClientConfig struct {
	BaseURL string `yaml:"base_url"`
	Storage struct {
		// Driver is one of "file", "sqlite" or "memory".
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"storage"`
	LogLevel string `yaml:"log_level"`
}

// DefaultClientPath returns ~/.univendor/config.yaml.
func DefaultClientPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "univendor.yaml"
	}
	return filepath.Join(home, ".univendor", "config.yaml")
}

// LoadClient reads the YAML file at path. A missing file yields defaults.
// UNIVENDOR_BASE_URL and UNIVENDOR_STORAGE override the file.
func LoadClient(path string) (ClientConfig, error) {
	cfg := ClientConfig{BaseURL: "http://localhost:8080", LogLevel: "warn"}
	cfg.Storage.Driver = "sqlite"

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read client config: %w", err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parse client config %s: %w", path, err)
			}
		}
	}

	cfg.BaseURL = envOrDefault("UNIVENDOR_BASE_URL", cfg.BaseURL)
	cfg.Storage.Driver = envOrDefault("UNIVENDOR_STORAGE", cfg.Storage.Driver)
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultStoragePath(cfg.Storage.Driver)
	}
	return cfg, nil
}

func defaultStoragePath(driver string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	if driver == "file" {
		return filepath.Join(home, ".univendor", "storage")
	}
	return filepath.Join(home, ".univendor", "storage.db")
}
