// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package reconcile keeps local translation catalogs consistent with Transifex.

A Helper works on one resource/language pair at a time: it normalizes catalog
metadata, compares entries, synchronizes translations in both directions and
uploads resources and translations. A Driver runs those operations over the
whole local corpus.

In dry-run mode every mutating file or remote call is replaced by a log
statement. Every message carries a dry_run field.
*/
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"codeberg.org/legaltools/txsync/core/audit"
	"codeberg.org/legaltools/txsync/core/catalogcache"
	"codeberg.org/legaltools/txsync/core/transifex"
	"codeberg.org/legaltools/txsync/i18n/po"
)

var (
	// ErrSourceLanguage is returned when a translation operation targets the
	// source language.
	ErrSourceLanguage = errors.New("source language catalog is not a translation")
	// ErrResourceMissing is returned when a resource is not configured or not
	// present on Transifex.
	ErrResourceMissing = errors.New("resource not found")
)

const teamURLBase = "https://www.transifex.com"

// Stats is the view of remote statistics a Helper needs. *stats.Cache
// implements it.
type Stats interface {
	Resource(ctx context.Context, slug string) (transifex.Resource, bool, error)
	Translation(ctx context.Context, slug, code string) (transifex.LanguageStats, bool, error)
	ResourcePresent(ctx context.Context, slug, name string) bool
	TranslationSupported(ctx context.Context, slug, name, code string) bool
	Clear()
}

// CatalogWriter persists catalogs.
type CatalogWriter interface {
	Save(c *po.Catalog, path string) error
}

// FileWriter saves catalogs to the file system.
type FileWriter struct{}

// Save implements CatalogWriter.
func (FileWriter) Save(c *po.Catalog, path string) error {
	return c.Save(path)
}

// Project is a Transifex project and the resources it holds.
type Project struct {
	Slug      string
	TeamID    int
	Resources []string
}

// Options configures a Helper.
type Options struct {
	Organization string
	// SourceLanguage is the Transifex code of the source language.
	SourceLanguage string
	DryRun         bool
	Projects       []Project
	// Writer defaults to FileWriter.
	Writer CatalogWriter
	// Downloads caches remote catalogs between calls. Nil disables caching.
	Downloads *catalogcache.Cache
}

// Target identifies the catalog of one resource in one language.
type Target struct {
	ResourceSlug string
	ResourceName string
	// LanguageCode is the site language code.
	LanguageCode string
	// TransifexCode is the Transifex language code.
	TransifexCode string
	Path          string
}

// String implements fmt.Stringer.
func (t Target) String() string {
	return fmt.Sprintf("%s (%s) %s", t.ResourceName, t.ResourceSlug, t.TransifexCode)
}

// Helper reconciles single catalogs with Transifex.
type Helper struct {
	client   transifex.Client
	stats    Stats
	opts     Options
	writer   CatalogWriter
	projects map[string]Project
	logger   zerolog.Logger
}

// New returns a Helper.
func New(client transifex.Client, stats Stats, opts Options, logger zerolog.Logger) *Helper {
	projects := make(map[string]Project)

	for _, p := range opts.Projects {
		for _, slug := range p.Resources {
			projects[slug] = p
		}
	}

	writer := opts.Writer
	if writer == nil {
		writer = FileWriter{}
	}

	return &Helper{
		client:   client,
		stats:    stats,
		opts:     opts,
		writer:   writer,
		projects: projects,
		logger:   logger.With().Bool("dry_run", opts.DryRun).Logger(),
	}
}

// DryRun reports whether mutating calls are replaced by log statements.
func (h *Helper) DryRun() bool {
	return h.opts.DryRun
}

func (h *Helper) isSource(t Target) bool {
	return t.TransifexCode == h.opts.SourceLanguage
}

func (h *Helper) project(t Target) (Project, error) {
	p, ok := h.projects[t.ResourceSlug]
	if !ok {
		return Project{}, fmt.Errorf("%w: %s is not configured for any project", ErrResourceMissing, t.ResourceSlug)
	}

	return p, nil
}

// languageTeam returns the Language-Team URL of the target.
func (h *Helper) languageTeam(t Target) (string, error) {
	p, err := h.project(t)
	if err != nil {
		return "", err
	}

	if h.isSource(t) {
		return fmt.Sprintf("%s/%s/%s/", teamURLBase, h.opts.Organization, p.Slug), nil
	}

	return fmt.Sprintf("%s/%s/teams/%d/%s/", teamURLBase, h.opts.Organization, p.TeamID, t.TransifexCode), nil
}

func (h *Helper) targetLogger(t Target) zerolog.Logger {
	return h.logger.With().
		Str("resource", t.ResourceSlug).
		Str("language", t.LanguageCode).
		Str("transifex_code", t.TransifexCode).
		Logger()
}

func (h *Helper) critical(t Target) *zerolog.Event {
	logger := h.targetLogger(t)

	return audit.Critical(&logger)
}

// invalidate drops every cached view of remote state after a change.
func (h *Helper) invalidate() {
	h.stats.Clear()

	if h.opts.Downloads != nil {
		h.opts.Downloads.Purge()
	}
}

// fetch returns the remote catalog content of the target, from the download
// cache when possible.
func (h *Helper) fetch(ctx context.Context, project string, t Target) ([]byte, error) {
	code := t.TransifexCode
	if h.isSource(t) {
		code = ""
	}

	key := catalogcache.Key(project, t.ResourceSlug, code)

	if h.opts.Downloads != nil {
		if content, ok := h.opts.Downloads.Get(key); ok {
			logger := h.targetLogger(t)
			logger.Debug().Msgf("%s: Using cached Transifex catalog", t)

			return content, nil
		}
	}

	var (
		content []byte
		err     error
	)

	if code == "" {
		content, err = h.client.DownloadResource(ctx, project, t.ResourceSlug)
	} else {
		content, err = h.client.DownloadTranslation(ctx, project, t.ResourceSlug, code)
	}

	if err != nil {
		return nil, err
	}

	if h.opts.Downloads != nil {
		h.opts.Downloads.Add(key, content)
	}

	return content, nil
}

// download fetches and parses the remote catalog of the target.
func (h *Helper) download(ctx context.Context, t Target) (*po.Catalog, error) {
	p, err := h.project(t)
	if err != nil {
		return nil, err
	}

	content, err := h.fetch(ctx, p.Slug, t)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to download catalog: %w", t, err)
	}

	c, err := po.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse remote catalog: %w", t, err)
	}

	return c, nil
}

// save persists c unless nothing changed or dry-run is on.
func (h *Helper) save(t Target, c *po.Catalog, changed []string) error {
	if len(changed) == 0 {
		return nil
	}

	logger := h.targetLogger(t)

	if h.opts.DryRun {
		logger.Info().
			Strs("changed", changed).
			Str("path", t.Path).
			Msgf("%s: Would save PO file", t)

		return nil
	}

	if err := h.writer.Save(c, t.Path); err != nil {
		return fmt.Errorf("%s: failed to save %s: %w", t, t.Path, err)
	}

	logger.Info().
		Strs("changed", changed).
		Str("path", t.Path).
		Msgf("%s: Saved PO file", t)

	return nil
}
