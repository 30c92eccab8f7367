package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFileName = ".flowork.yaml"

// consoleConfig is the optional per-user console configuration file in the
// home directory. Flags and environment variables take precedence over it.
type consoleConfig struct {
	APIURL string `yaml:"api_url"`
}

func loadConsoleConfig() consoleConfig {
	var cfg consoleConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg
	}

	data, err := os.ReadFile(filepath.Join(home, configFileName))
	if err != nil {
		return cfg
	}

	// A malformed file is treated as absent.
	_ = yaml.Unmarshal(data, &cfg)

	return cfg
}
