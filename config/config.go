// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Global exposes the active configuration.
var Global Config

// Default locations of the configuration file, in order of preference.
var defaultConfigFiles = []string{"./txsync.yaml", "./txsync.yml", "./txsync.toml"}

// envPrefix prefixes every environment variable read by readEnv.
const envPrefix = "TXSYNC"

// Project describes one Transifex project the tool reconciles.
type Project struct {
	// Slug as used in Transifex URLs. The API requires it lowercase; the web
	// interface does not.
	Slug          string   `split_words:"true" toml:"slug" yaml:"slug"`
	TeamID        int      `split_words:"true" toml:"teamId" yaml:"teamId"`
	ResourceSlugs []string `split_words:"true" toml:"resourceSlugs" yaml:"resourceSlugs"`
}

// Config holds the application configuration.
type Config struct {
	Build buildInfo `ignored:"true" toml:"-" yaml:"-"`

	Transifex struct {
		APIToken          string        `split_words:"true" toml:"apiToken" yaml:"apiToken"`
		OrganizationSlug  string        `split_words:"true" toml:"organizationSlug" yaml:"organizationSlug"`
		BaseURL           string        `split_words:"true" toml:"baseUrl" yaml:"baseUrl"`
		Timeout           time.Duration `split_words:"true" toml:"timeout" yaml:"timeout"`
		RequestsPerSecond float64       `split_words:"true" toml:"requestsPerSecond" yaml:"requestsPerSecond"`
		Burst             int           `split_words:"true" toml:"burst" yaml:"burst"`
		PollInterval      time.Duration `split_words:"true" toml:"pollInterval" yaml:"pollInterval"`
		PollTimeout       time.Duration `split_words:"true" toml:"pollTimeout" yaml:"pollTimeout"`
		// DownloadCacheSize is the number of downloaded catalogs kept in
		// memory. Zero disables the cache.
		DownloadCacheSize int `split_words:"true" toml:"downloadCacheSize" yaml:"downloadCacheSize"`

		DeedsUX   Project `split_words:"true" toml:"deedsUx" yaml:"deedsUx"`
		LegalCode Project `split_words:"true" toml:"legalCode" yaml:"legalCode"`
	} `split_words:"true" toml:"transifex" yaml:"transifex"`

	Language struct {
		// Source is the site code of the language resources are authored in.
		Source string `split_words:"true" toml:"source" yaml:"source"`
		// Overrides maps site codes to Transifex codes that cannot be derived.
		Overrides map[string]string `split_words:"true" toml:"overrides" yaml:"overrides"`
	} `split_words:"true" toml:"language" yaml:"language"`

	Data struct {
		RepositoryDir     string `split_words:"true" toml:"repositoryDir" yaml:"repositoryDir"`
		LocaleDir         string `split_words:"true" toml:"localeDir" yaml:"localeDir"`
		LegalCodeManifest string `split_words:"true" toml:"legalCodeManifest" yaml:"legalCodeManifest"`

		DeedsUX struct {
			ResourceSlug string `split_words:"true" toml:"resourceSlug" yaml:"resourceSlug"`
			ResourceName string `split_words:"true" toml:"resourceName" yaml:"resourceName"`
			Domain       string `split_words:"true" toml:"domain" yaml:"domain"`
		} `split_words:"true" toml:"deedsUx" yaml:"deedsUx"`
	} `split_words:"true" toml:"data" yaml:"data"`

	Sync struct {
		// DryRun replaces every mutating call with a log statement.
		DryRun bool `split_words:"true" toml:"dryRun" yaml:"dryRun"`
	} `split_words:"true" toml:"sync" yaml:"sync"`

	Development struct {
		SaveResponses        bool   `split_words:"true" toml:"saveResponses" yaml:"saveResponses"`
		ResponseSaveLocation string `split_words:"true" toml:"responseSaveLocation" yaml:"responseSaveLocation"`
	} `split_words:"true" toml:"development" yaml:"development"`

	Log struct {
		Level   string   `split_words:"true" toml:"logLevel" yaml:"logLevel"`
		Outputs []string `split_words:"true" toml:"logOutputs" yaml:"logOutputs"`
		Format  string   `split_words:"true" toml:"logFormat" yaml:"logFormat"`
	} `split_words:"true" toml:"log" yaml:"log"`
}

// LoadConfig loads the configuration from its sources, in increasing order
// of precedence: defaults, the configuration file, .env and the environment.
//
// An empty configFilePath falls back to TXSYNC_CONFIGFILE and then to the
// first default file that exists.
func (cfg *Config) LoadConfig(configFilePath string) error {
	if configFilePath == "" {
		configFilePath = os.Getenv(envPrefix + "_CONFIGFILE")
	}

	if configFilePath == "" {
		for _, candidate := range defaultConfigFiles {
			if _, err := os.Stat(candidate); err == nil {
				configFilePath = candidate

				break
			}
		}
	}

	cfg.SetDefaults()

	cfg.Build.load()

	if err := cfg.readFile(configFilePath); err != nil {
		return fmt.Errorf("error loading config file: %w", err)
	}

	if err := useDotEnv(); err != nil {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	cfg.setupAudit()

	cfg.print()

	return nil
}

// Projects returns the configured projects keyed by their role.
func (cfg *Config) Projects() map[string]Project {
	return map[string]Project{
		"deeds_ux":   cfg.Transifex.DeedsUX,
		"legal_code": cfg.Transifex.LegalCode,
	}
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string format (e.g., "30m", "1h").
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
