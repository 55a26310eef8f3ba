// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "time"

const (
	// Default Transifex HTTP timeout in seconds.
	defaultTransifexTimeoutSeconds = 60
	// Default Transifex request rate.
	defaultRequestsPerSecond = 5
	// Default initial interval between polls of an asynchronous job in milliseconds.
	defaultPollIntervalMs = 500
	// Default deadline for an asynchronous job in minutes.
	defaultPollTimeoutMinutes = 5

	// Default number of cached Transifex catalogs.
	defaultDownloadCacheSize = 64

	// Transifex team ids of the two projects.
	defaultDeedsUXTeamID   = 11342
	defaultLegalCodeTeamID = 153501
)

// SetDefaults populates the configuration with default values.
func (cfg *Config) SetDefaults() {
	cfg.Transifex.APIToken = ""
	cfg.Transifex.OrganizationSlug = "creativecommons"
	cfg.Transifex.BaseURL = "https://rest.api.transifex.com"
	cfg.Transifex.Timeout = defaultTransifexTimeoutSeconds * time.Second
	cfg.Transifex.RequestsPerSecond = defaultRequestsPerSecond
	cfg.Transifex.Burst = 1
	cfg.Transifex.PollInterval = defaultPollIntervalMs * time.Millisecond
	cfg.Transifex.PollTimeout = defaultPollTimeoutMinutes * time.Minute
	cfg.Transifex.DownloadCacheSize = defaultDownloadCacheSize

	cfg.Transifex.DeedsUX = Project{
		Slug:          "CC",
		TeamID:        defaultDeedsUXTeamID,
		ResourceSlugs: []string{"deeds_ux"},
	}
	cfg.Transifex.LegalCode = Project{
		Slug:   "cc-legal-code",
		TeamID: defaultLegalCodeTeamID,
		ResourceSlugs: []string{
			"by-nc-nd_40",
			"by-nc-sa_40",
			"by-nc_40",
			"by-nd_40",
			"by-sa_40",
			"by_40",
			"zero_10",
		},
	}

	cfg.Language.Source = "en"
	cfg.Language.Overrides = nil

	cfg.Data.RepositoryDir = "../cc-legal-tools-data"
	cfg.Data.LocaleDir = ""
	cfg.Data.LegalCodeManifest = ""
	cfg.Data.DeedsUX.ResourceSlug = "deeds_ux"
	cfg.Data.DeedsUX.ResourceName = "Deeds & UX"
	cfg.Data.DeedsUX.Domain = "django"

	cfg.Sync.DryRun = true

	cfg.Development.SaveResponses = false
	cfg.Development.ResponseSaveLocation = "/tmp/txsync/responses"

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"
}
