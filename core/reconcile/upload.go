// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"codeberg.org/legaltools/txsync/i18n/po"
)

// UploadResource uploads the source catalog c as the resource of the target,
// creating the resource first when Transifex does not have it.
//
// Without overwrite an existing resource is left alone. The upload carries
// the message ids only; c itself is not modified.
func (h *Helper) UploadResource(ctx context.Context, t Target, c *po.Catalog, overwrite bool) error {
	p, err := h.project(t)
	if err != nil {
		return err
	}

	logger := h.targetLogger(t)

	_, exists, err := h.stats.Resource(ctx, t.ResourceSlug)
	if err != nil {
		return err
	}

	if exists && !overwrite {
		logger.Debug().Msgf("%s: Transifex already contains resource", t)

		return nil
	}

	if h.opts.DryRun {
		logger.Info().Msgf("%s: Would upload resource to Transifex", t)

		return nil
	}

	if !exists {
		if _, err := h.client.CreateResource(ctx, p.Slug, t.ResourceSlug, t.ResourceName); err != nil {
			return fmt.Errorf("%s: failed to create resource: %w", t, err)
		}

		logger.Info().Msgf("%s: Created resource on Transifex", t)
	}

	source := c.Clone()
	source.BlankTranslations()

	result, err := h.client.UploadResource(ctx, p.Slug, t.ResourceSlug, source.Marshal())
	if err != nil {
		return fmt.Errorf("%s: failed to upload resource: %w", t, err)
	}

	if result.StringsCreated == 0 {
		h.critical(t).
			Int("strings_created", result.StringsCreated).
			Int("strings_updated", result.StringsUpdated).
			Int("strings_skipped", result.StringsSkipped).
			Msgf("%s: Resource upload failed: no strings created", t)

		return nil
	}

	level := zerolog.InfoLevel
	if result.StringsSkipped > 0 {
		level = zerolog.WarnLevel
	}

	logger.WithLevel(level).
		Int("strings_created", result.StringsCreated).
		Int("strings_updated", result.StringsUpdated).
		Int("strings_skipped", result.StringsSkipped).
		Int("strings_deleted", result.StringsDeleted).
		Msgf("%s: Resource upload complete", t)

	h.invalidate()

	return nil
}

// UploadTranslation uploads the translation catalog c of the target.
//
// Untranslated catalogs are skipped. Without overwrite a translation that
// already has translated strings on Transifex is left alone.
func (h *Helper) UploadTranslation(ctx context.Context, t Target, c *po.Catalog, overwrite bool) error {
	if h.isSource(t) {
		return fmt.Errorf("%s: %w", t, ErrSourceLanguage)
	}

	p, err := h.project(t)
	if err != nil {
		return err
	}

	_, exists, err := h.stats.Resource(ctx, t.ResourceSlug)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("%s: %w on Transifex", t, ErrResourceMissing)
	}

	logger := h.targetLogger(t)

	if c.PercentTranslated() == 0 {
		logger.Debug().Msgf("%s: PO File is 0%% translated. Skipping upload.", t)

		return nil
	}

	if !overwrite {
		s, ok, err := h.stats.Translation(ctx, t.ResourceSlug, t.TransifexCode)
		if err != nil {
			return err
		}

		if ok && s.TranslatedStrings == len(c.Translated()) {
			logger.Debug().
				Int("transifex_translated", s.TranslatedStrings).
				Int("local_translated", len(c.Translated())).
				Msgf("%s: Transifex already contains translation", t)

			return nil
		}
	}

	if h.opts.DryRun {
		logger.Info().Msgf("%s: Would upload translation to Transifex", t)

		return nil
	}

	result, err := h.client.UploadTranslation(ctx, p.Slug, t.ResourceSlug, t.TransifexCode, c.Marshal())
	if err != nil {
		return fmt.Errorf("%s: failed to upload translation: %w", t, err)
	}

	if result.TranslationsCreated+result.TranslationsUpdated == 0 {
		h.critical(t).
			Int("translations_created", result.TranslationsCreated).
			Int("translations_updated", result.TranslationsUpdated).
			Int("translations_skipped", result.TranslationsSkipped).
			Msgf("%s: Translation upload failed: nothing created or updated", t)

		return nil
	}

	logger.Info().
		Int("translations_created", result.TranslationsCreated).
		Int("translations_updated", result.TranslationsUpdated).
		Int("translations_skipped", result.TranslationsSkipped).
		Msgf("%s: Translation upload complete", t)

	h.invalidate()

	return nil
}
