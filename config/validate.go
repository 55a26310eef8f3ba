// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// validation errors.
var (
	errNoTokenSupplied          = errors.New("no Transifex API token supplied. Please set TXSYNC_TRANSIFEX_API_TOKEN")
	errNoOrganization           = errors.New("Transifex.OrganizationSlug is required")
	errInvalidBaseURL           = errors.New("Transifex.BaseURL must be an absolute http(s) URL")
	errInvalidRequestsPerSecond = errors.New("Transifex.RequestsPerSecond must be positive")
	errInvalidBurst             = errors.New("Transifex.Burst must be at least 1")
	errInvalidPollInterval      = errors.New("Transifex.PollInterval must be positive")
	errInvalidPollTimeout       = errors.New("Transifex.PollTimeout must not be shorter than PollInterval")
	errInvalidTimeout           = errors.New("Transifex.Timeout must be positive")
	errInvalidProject           = errors.New("invalid Transifex project")
	errDuplicateResourceSlug    = errors.New("resource slug configured for both projects")
	errInvalidSourceLanguage    = errors.New("Language.Source is not a valid language code")
	errNoRepositoryDir          = errors.New("Data.RepositoryDir is required")
	errDeedsUXResourceNotListed = errors.New("Data.DeedsUX.ResourceSlug is not a Deeds & UX project resource")
	errInvalidDownloadCacheSize = errors.New("Transifex.DownloadCacheSize must not be negative")
	errInvalidLogLevel          = errors.New("invalid Log.Level")
	errInvalidLogFormat         = errors.New("invalid Log.Format")
)

// validateAndSet validates the configuration and populates derived fields.
func (cfg *Config) validateAndSet() error {
	if strings.TrimSpace(cfg.Transifex.APIToken) == "" {
		return errNoTokenSupplied
	}

	if cfg.Transifex.OrganizationSlug == "" {
		return errNoOrganization
	}

	baseURL, err := url.Parse(cfg.Transifex.BaseURL)
	if err != nil || !baseURL.IsAbs() || (baseURL.Scheme != "http" && baseURL.Scheme != "https") {
		return fmt.Errorf("%w: %q", errInvalidBaseURL, cfg.Transifex.BaseURL)
	}

	cfg.Transifex.BaseURL = strings.TrimSuffix(baseURL.String(), "/")

	if cfg.Transifex.Timeout <= 0 {
		return errInvalidTimeout
	}

	if cfg.Transifex.RequestsPerSecond <= 0 {
		return errInvalidRequestsPerSecond
	}

	if cfg.Transifex.Burst < 1 {
		return errInvalidBurst
	}

	if cfg.Transifex.PollInterval <= 0 {
		return errInvalidPollInterval
	}

	if cfg.Transifex.PollTimeout < cfg.Transifex.PollInterval {
		return errInvalidPollTimeout
	}

	if cfg.Transifex.DownloadCacheSize < 0 {
		return errInvalidDownloadCacheSize
	}

	seen := make(map[string]string)

	for role, project := range cfg.Projects() {
		if err := validateProject(role, project); err != nil {
			return err
		}

		for _, slug := range project.ResourceSlugs {
			if other, ok := seen[slug]; ok && other != role {
				return fmt.Errorf("%w: %s", errDuplicateResourceSlug, slug)
			}

			seen[slug] = role
		}
	}

	if _, err := language.Parse(cfg.Language.Source); err != nil {
		return fmt.Errorf("%w: %q", errInvalidSourceLanguage, cfg.Language.Source)
	}

	if cfg.Data.RepositoryDir == "" {
		return errNoRepositoryDir
	}

	if cfg.Data.LocaleDir == "" {
		cfg.Data.LocaleDir = filepath.Join(cfg.Data.RepositoryDir, "locale")
		log.Debug().
			Str("path", cfg.Data.LocaleDir).
			Msg("Using default locale directory")
	}

	if cfg.Data.LegalCodeManifest == "" {
		cfg.Data.LegalCodeManifest = filepath.Join(cfg.Data.RepositoryDir, "legalcode", "manifest.yaml")
	}

	if seen[cfg.Data.DeedsUX.ResourceSlug] != "deeds_ux" {
		return fmt.Errorf("%w: %q", errDeedsUXResourceNotListed, cfg.Data.DeedsUX.ResourceSlug)
	}

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil || cfg.Log.Level == "" {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, cfg.Log.Level)
	}

	switch cfg.Log.Format {
	case "console", "json":
		// valid
	default:
		return fmt.Errorf("%w: %q", errInvalidLogFormat, cfg.Log.Format)
	}

	return nil
}

func validateProject(role string, project Project) error {
	switch {
	case project.Slug == "":
		return fmt.Errorf("%w %s: slug is required", errInvalidProject, role)
	case project.TeamID <= 0:
		return fmt.Errorf("%w %s: team id must be positive", errInvalidProject, role)
	case len(project.ResourceSlugs) == 0:
		return fmt.Errorf("%w %s: at least one resource slug is required", errInvalidProject, role)
	}

	return nil
}
