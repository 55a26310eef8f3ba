// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// readEnv overrides cfg with TXSYNC_* environment variables.
//
// Variables that are not set leave the current value untouched, so defaults
// and file values survive. Nested sections extend the prefix, for example
// Transifex.DeedsUX.TeamID is read from TXSYNC_TRANSIFEX_DEEDS_UX_TEAM_ID.
func readEnv(cfg *Config) error {
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}

	return nil
}

// useDotEnv loads environment variables from a .env file, checking
// the current working directory, then the directory of the binary.
//
// Variables that are already set are not overwritten. This function soft
// fails if the .env file doesn't exist in either location.
func useDotEnv() error {
	var candidates []string

	if cwd, err := os.Getwd(); err != nil {
		log.Warn().
			Err(err).
			Msg("Could not get current working directory")
	} else {
		candidates = append(candidates, filepath.Join(cwd, ".env"))
	}

	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), ".env"))
	}

	for _, envPath := range candidates {
		if _, err := os.Stat(envPath); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Warn().
					Err(err).
					Str("path", envPath).
					Msg("Could not read .env file")
			}

			continue
		}

		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("failed to load %s: %w", envPath, err)
		}

		log.Info().
			Str("path", envPath).
			Msg("Loaded configuration from .env file")

		return nil
	}

	log.Debug().Msg("No .env file found, skipping")

	return nil
}
