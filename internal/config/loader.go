package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the name of the configuration file searched for
// in the current directory and the user's home directory.
const DefaultConfigFile = ".sitegraph"

// FindConfigFile locates the configuration file.
// Search order:
//  1. The explicit path, if non-empty (an error if it does not exist).
//  2. .sitegraph in the current working directory.
//  3. .sitegraph in the user's home directory.
//
// It returns ErrConfigNotFound when no file exists in any location and no
// explicit path was given. Scanning without a config file is perfectly
// valid, so callers typically treat ErrConfigNotFound as a non-error.
func FindConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile, nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		path := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", ErrConfigNotFound
}

// LoadConfigFile reads and parses the YAML configuration file at path.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &f, nil
}
