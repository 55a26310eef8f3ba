// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// readFile loads a YAML or TOML configuration file, chosen by extension.
func (cfg *Config) readFile(configFilePath string) error {
	if configFilePath == "" {
		return nil
	}

	_, err := os.Stat(configFilePath)
	if os.IsNotExist(err) {
		log.Info().
			Str("path", configFilePath).
			Msg("No configuration file found, skipping")

		return nil
	}

	data, err := os.ReadFile(configFilePath) // #nosec G304 -- Only loading a config file
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", configFilePath, err)
	}

	switch strings.ToLower(filepath.Ext(configFilePath)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse TOML from %s: %w", configFilePath, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML from %s: %w", configFilePath, err)
		}
	}

	log.Info().
		Str("path", configFilePath).
		Msg("Successfully loaded configuration")

	return nil
}
