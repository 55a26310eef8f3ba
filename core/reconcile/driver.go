// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package reconcile

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/legaltools/txsync/core/localdata"
	"codeberg.org/legaltools/txsync/core/transifex"
	"codeberg.org/legaltools/txsync/i18n/po"
)

// DataSource loads the local corpus.
type DataSource interface {
	Load(ctx context.Context) (*localdata.Data, error)
}

// RepositoryChecker warns about uncommitted changes in the data repository.
type RepositoryChecker interface {
	CheckClean() bool
}

// Driver runs Helper operations over the whole local corpus.
//
// Problems with a single catalog are logged and the remaining catalogs are
// still processed. Only failures to load the corpus and cancellation end a
// run early.
type Driver struct {
	helper *Helper
	source DataSource
	repo   RepositoryChecker
}

// NewDriver returns a Driver.
func NewDriver(helper *Helper, source DataSource, repo RepositoryChecker) *Driver {
	return &Driver{helper: helper, source: source, repo: repo}
}

func resourceTarget(r localdata.Resource) Target {
	return translationTarget(r, r.Source)
}

func translationTarget(r localdata.Resource, t localdata.Translation) Target {
	return Target{
		ResourceSlug:  r.Slug,
		ResourceName:  r.Name,
		LanguageCode:  t.LanguageCode,
		TransifexCode: t.TransifexCode,
		Path:          t.Path,
	}
}

func (d *Driver) load(ctx context.Context) (*localdata.Data, error) {
	d.repo.CheckClean()

	data, err := d.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load local data: %w", err)
	}

	return data, nil
}

// handle logs a failure of one catalog. It returns an error only when the
// run must stop.
func (d *Driver) handle(ctx context.Context, t Target, err error) error {
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return err
	}

	logger := d.helper.targetLogger(t)
	logger.Error().Err(err).Msgf("%s: Processing failed", t)

	return nil
}

// Check logs the state of the data repository, the Transifex organization and
// the languages of the local translations.
func (d *Driver) Check(ctx context.Context) error {
	data, err := d.load(ctx)
	if err != nil {
		return err
	}

	h := d.helper

	org, err := h.client.Organization(ctx)
	if err != nil {
		return fmt.Errorf("failed to get Transifex organization: %w", err)
	}

	h.logger.Info().
		Str("organization", org.Slug).
		Str("name", org.Name).
		Msg("Connected to Transifex")

	checked := make(map[string]bool)

	for _, r := range data.Resources {
		for _, tr := range r.Translations {
			if checked[tr.TransifexCode] {
				continue
			}

			checked[tr.TransifexCode] = true

			lang, err := h.client.Language(ctx, tr.TransifexCode)
			if errors.Is(err, transifex.ErrNotFound) {
				h.logger.Warn().
					Str("language", tr.LanguageCode).
					Str("transifex_code", tr.TransifexCode).
					Msg("Language is not known to Transifex")

				continue
			}

			if err != nil {
				return fmt.Errorf("failed to get language %s: %w", tr.TransifexCode, err)
			}

			h.logger.Debug().
				Str("transifex_code", lang.Code).
				Str("name", lang.Name).
				Msg("Language is known to Transifex")
		}
	}

	return nil
}

// Normalize brings every local catalog in line with Transifex: metadata is
// normalized, missing resources and translations are uploaded, translations
// whose metadata differ are synchronized, and dates are aligned.
func (d *Driver) Normalize(ctx context.Context) error {
	data, err := d.load(ctx)
	if err != nil {
		return err
	}

	for _, r := range data.Resources {
		t := resourceTarget(r)

		present, err := d.normalizeSource(ctx, t, r)
		if err := d.handle(ctx, t, err); err != nil {
			return err
		}

		if !present {
			continue
		}

		for _, tr := range r.Translations {
			t := translationTarget(r, tr)

			if err := d.handle(ctx, t, d.normalizeTranslation(ctx, t, tr.Catalog)); err != nil {
				return err
			}
		}
	}

	return ctx.Err()
}

// normalizeSource normalizes the source catalog of r and reports whether the
// translations of r can be processed.
func (d *Driver) normalizeSource(ctx context.Context, t Target, r localdata.Resource) (bool, error) {
	h := d.helper

	c, err := h.NormalizeMetadata(t, r.Source.Catalog)
	if err != nil {
		return false, err
	}

	if err := h.UploadResource(ctx, t, c, false); err != nil {
		return false, err
	}

	if !h.stats.ResourcePresent(ctx, r.Slug, r.Name) {
		return false, nil
	}

	if _, err := h.NormalizeDates(ctx, t, c); err != nil {
		return false, err
	}

	return true, nil
}

func (d *Driver) normalizeTranslation(ctx context.Context, t Target, c *po.Catalog) error {
	h := d.helper

	c, err := h.NormalizeMetadata(t, c)
	if err != nil {
		return err
	}

	if !h.stats.TranslationSupported(ctx, t.ResourceSlug, t.ResourceName, t.TransifexCode) {
		return nil
	}

	if err := h.UploadTranslation(ctx, t, c, false); err != nil {
		return err
	}

	identical, err := h.TranslationsMetadataIdentical(ctx, t, c)
	if err != nil {
		return err
	}

	var report SyncReport

	if !identical {
		if c, report, err = h.Sync(ctx, t, c); err != nil {
			return err
		}
	}

	if err := h.SaveSynced(t, c, report); err != nil {
		return err
	}

	_, err = h.NormalizeDates(ctx, t, c)

	return err
}

// Compare logs metadata differences and, when metadata differ or force is
// set, entry diffs for every local catalog.
func (d *Driver) Compare(ctx context.Context, force, colorize bool) error {
	data, err := d.load(ctx)
	if err != nil {
		return err
	}

	h := d.helper

	for _, r := range data.Resources {
		if !h.stats.ResourcePresent(ctx, r.Slug, r.Name) {
			continue
		}

		t := resourceTarget(r)

		err := d.compare(ctx, t, r.Source.Catalog, force, colorize, h.ResourcesMetadataIdentical)
		if err := d.handle(ctx, t, err); err != nil {
			return err
		}

		for _, tr := range r.Translations {
			if !h.stats.TranslationSupported(ctx, r.Slug, r.Name, tr.TransifexCode) {
				continue
			}

			t := translationTarget(r, tr)

			err := d.compare(ctx, t, tr.Catalog, force, colorize, h.TranslationsMetadataIdentical)
			if err := d.handle(ctx, t, err); err != nil {
				return err
			}
		}
	}

	return ctx.Err()
}

func (d *Driver) compare(
	ctx context.Context,
	t Target,
	c *po.Catalog,
	force, colorize bool,
	identical func(context.Context, Target, *po.Catalog) (bool, error),
) error {
	same, err := identical(ctx, t, c)
	if err != nil {
		return err
	}

	if same && !force {
		return nil
	}

	_, err = d.helper.CompareEntries(ctx, t, c, colorize)

	return err
}

// forEachTranslation calls fn for every supported translation of every
// resource present on Transifex.
func (d *Driver) forEachTranslation(
	ctx context.Context,
	data *localdata.Data,
	fn func(t Target, c *po.Catalog) error,
) error {
	h := d.helper

	for _, r := range data.Resources {
		if !h.stats.ResourcePresent(ctx, r.Slug, r.Name) {
			continue
		}

		for _, tr := range r.Translations {
			if !h.stats.TranslationSupported(ctx, r.Slug, r.Name, tr.TransifexCode) {
				continue
			}

			t := translationTarget(r, tr)

			if err := d.handle(ctx, t, fn(t, tr.Catalog)); err != nil {
				return err
			}
		}
	}

	return ctx.Err()
}

// Pull overwrites every local translation with its Transifex content and,
// outside dry-run, normalizes the result.
func (d *Driver) Pull(ctx context.Context) error {
	data, err := d.load(ctx)
	if err != nil {
		return err
	}

	err = d.forEachTranslation(ctx, data, func(t Target, _ *po.Catalog) error {
		_, err := d.helper.PullTranslation(ctx, t)

		return err
	})
	if err != nil {
		return err
	}

	if d.helper.DryRun() {
		return nil
	}

	return d.Normalize(ctx)
}

// PushTranslations uploads every local translation, replacing the Transifex
// content, and, outside dry-run, normalizes the result.
func (d *Driver) PushTranslations(ctx context.Context) error {
	data, err := d.load(ctx)
	if err != nil {
		return err
	}

	err = d.forEachTranslation(ctx, data, func(t Target, c *po.Catalog) error {
		return d.helper.UploadTranslation(ctx, t, c, true)
	})
	if err != nil {
		return err
	}

	if d.helper.DryRun() {
		return nil
	}

	return d.Normalize(ctx)
}

// PushResource uploads the source catalog of one resource, replacing the
// Transifex resource.
func (d *Driver) PushResource(ctx context.Context, slug string) error {
	data, err := d.load(ctx)
	if err != nil {
		return err
	}

	r, ok := data.Resource(slug)
	if !ok {
		return fmt.Errorf("%w: no local data for %s", ErrResourceMissing, slug)
	}

	return d.helper.UploadResource(ctx, resourceTarget(*r), r.Source.Catalog, true)
}
