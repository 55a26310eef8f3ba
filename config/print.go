// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
)

const redactedValue = "[redacted]"

// Redacted returns a copy of the configuration that is safe to print.
func (cfg *Config) Redacted() Config {
	// Shallow copy; only string fields are replaced.
	printableConfig := *cfg

	if printableConfig.Transifex.APIToken != "" {
		printableConfig.Transifex.APIToken = redactedValue
	}

	return printableConfig
}

func (cfg *Config) print() {
	log.Info().
		Str("version", BuildVersion).
		Str("revision", cfg.Build.Revision()).
		Bool("dry_run", cfg.Sync.DryRun).
		Msg("Starting txsync")

	// Marshal the processed config to indented YAML.
	configYAML, err := yaml.MarshalWithOptions(
		cfg.Redacted(),
		GetDurationEncoderOption(),
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal config to YAML for printing")

		return
	}

	log.Debug().
		Msg("Application configuration:")

	if log.Debug().Enabled() {
		fmt.Fprintln(os.Stderr, string(configYAML))
	}
}
