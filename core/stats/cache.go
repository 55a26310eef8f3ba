// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package stats caches Transifex resource and translation statistics for one
reconciliation session.

Both caches are filled on first use by paging through the remote listings of
the configured projects, and are dropped with Clear after any call that
changes remote state.
*/
package stats

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"codeberg.org/legaltools/txsync/core/audit"
	"codeberg.org/legaltools/txsync/core/transifex"
)

// Scope restricts the statistics of a project to the listed resources.
type Scope struct {
	Project   string
	Resources []string
}

// ResourceStats are resource statistics keyed by resource slug.
type ResourceStats map[string]transifex.Resource

// TranslationStats are language statistics keyed by resource slug, then by
// Transifex language code.
type TranslationStats map[string]map[string]transifex.LanguageStats

// Cache memoizes remote statistics.
type Cache struct {
	client transifex.Client
	scopes []Scope
	logger zerolog.Logger

	resources    Lazy[ResourceStats]
	translations Lazy[TranslationStats]
}

// New returns an empty cache over the given project scopes.
func New(client transifex.Client, logger zerolog.Logger, scopes ...Scope) *Cache {
	return &Cache{
		client: client,
		scopes: scopes,
		logger: logger,
	}
}

// Resources returns the resource statistics, fetching them on first use.
func (c *Cache) Resources(ctx context.Context) (ResourceStats, error) {
	return c.resources.Get(func() (ResourceStats, error) {
		stats := make(ResourceStats)

		for _, scope := range c.scopes {
			resources, err := c.client.Resources(ctx, scope.Project)
			if err != nil {
				return nil, fmt.Errorf("failed to list resources of %s: %w", scope.Project, err)
			}

			for _, r := range resources {
				if slices.Contains(scope.Resources, r.Slug) {
					stats[r.Slug] = r
				}
			}
		}

		c.logger.Debug().
			Int("resources", len(stats)).
			Msg("Loaded Transifex resource stats")

		return stats, nil
	})
}

// Translations returns the translation statistics, fetching them on first use.
func (c *Cache) Translations(ctx context.Context) (TranslationStats, error) {
	return c.translations.Get(func() (TranslationStats, error) {
		stats := make(TranslationStats)

		for _, scope := range c.scopes {
			languageStats, err := c.client.ResourceLanguageStats(ctx, scope.Project)
			if err != nil {
				return nil, fmt.Errorf("failed to list language stats of %s: %w", scope.Project, err)
			}

			for _, s := range languageStats {
				if !slices.Contains(scope.Resources, s.ResourceSlug) {
					continue
				}

				if stats[s.ResourceSlug] == nil {
					stats[s.ResourceSlug] = make(map[string]transifex.LanguageStats)
				}

				stats[s.ResourceSlug][s.LanguageCode] = s
			}
		}

		c.logger.Debug().
			Int("resources", len(stats)).
			Msg("Loaded Transifex translation stats")

		return stats, nil
	})
}

// Resource returns the statistics of one resource.
func (c *Cache) Resource(ctx context.Context, slug string) (transifex.Resource, bool, error) {
	stats, err := c.Resources(ctx)
	if err != nil {
		return transifex.Resource{}, false, err
	}

	r, ok := stats[slug]

	return r, ok, nil
}

// Translation returns the statistics of one language of one resource.
func (c *Cache) Translation(ctx context.Context, slug, code string) (transifex.LanguageStats, bool, error) {
	stats, err := c.Translations(ctx)
	if err != nil {
		return transifex.LanguageStats{}, false, err
	}

	s, ok := stats[slug][code]

	return s, ok, nil
}

// Clear drops both caches. It is safe to call when nothing is cached.
func (c *Cache) Clear() {
	c.resources.Reset()
	c.translations.Reset()
}

// ResourcePresent reports whether Transifex knows the resource. A false
// result is logged as critical.
func (c *Cache) ResourcePresent(ctx context.Context, slug, name string) bool {
	_, ok, err := c.Resource(ctx, slug)
	if err != nil {
		audit.Critical(&c.logger).
			Err(err).
			Str("resource", slug).
			Msgf("%s (%s): could not load Transifex resource stats. Aborting resource processing.", name, slug)

		return false
	}

	if !ok {
		audit.Critical(&c.logger).
			Str("resource", slug).
			Msgf("%s (%s) has not yet been added to Transifex. Aborting resource processing.", name, slug)

		return false
	}

	return true
}

// TranslationSupported reports whether Transifex knows the language of the
// resource. A false result is logged as critical.
func (c *Cache) TranslationSupported(ctx context.Context, slug, name, code string) bool {
	_, ok, err := c.Translation(ctx, slug, code)
	if err != nil {
		audit.Critical(&c.logger).
			Err(err).
			Str("resource", slug).
			Str("transifex_code", code).
			Msgf("%s (%s) %s: could not load Transifex translation stats. Aborting translation language processing.",
				name, slug, code)

		return false
	}

	if !ok {
		audit.Critical(&c.logger).
			Str("resource", slug).
			Str("transifex_code", code).
			Msgf("%s (%s) %s: Language not yet supported by Transifex. Aborting translation language processing.",
				name, slug, code)

		return false
	}

	return true
}
