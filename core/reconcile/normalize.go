// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package reconcile

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"codeberg.org/legaltools/txsync/i18n/po"
)

// placeholderTranslator is the Last-Translator value left by xgettext.
const placeholderTranslator = "FULL NAME <EMAIL@ADDRESS>"

// corrections collects metadata changes to one catalog.
type corrections struct {
	t       Target
	c       *po.Catalog
	logger  zerolog.Logger
	changed []string
}

func (h *Helper) corrections(t Target, c *po.Catalog) *corrections {
	return &corrections{t: t, c: c, logger: h.targetLogger(t)}
}

func (x *corrections) set(key, value string) {
	if current, ok := x.c.Metadata.Get(key); ok && current == value {
		return
	}

	x.logger.Info().
		Str("field", key).
		Str("old", x.c.Metadata.Value(key)).
		Str("new", value).
		Msgf("%s: Correcting PO file '%s'", x.t, key)

	x.c.Metadata.Set(key, value)
	x.changed = append(x.changed, key)
}

func (x *corrections) remove(key string) {
	if !x.c.Metadata.Delete(key) {
		return
	}

	x.logger.Info().
		Str("field", key).
		Msgf("%s: Correcting PO file '%s': removing placeholder", x.t, key)

	x.changed = append(x.changed, key)
}

// percentTranslated corrects Percent-Translated. A missing field counts as 0.
func (x *corrections) percentTranslated() {
	current, _ := strconv.Atoi(x.c.Metadata.Value(po.KeyPercentTranslated))
	if current == x.c.PercentTranslated() {
		return
	}

	x.set(po.KeyPercentTranslated, strconv.Itoa(x.c.PercentTranslated()))
}

// NormalizeMetadata brings the deterministic header fields of c to their
// canonical values and saves c once if anything changed.
//
// c is modified in place and returned.
func (h *Helper) NormalizeMetadata(t Target, c *po.Catalog) (*po.Catalog, error) {
	team, err := h.languageTeam(t)
	if err != nil {
		return c, err
	}

	x := h.corrections(t, c)

	x.set(po.KeyLanguage, t.TransifexCode)
	x.set(po.KeyLanguageDjango, t.LanguageCode)
	x.set(po.KeyLanguageTransifex, t.TransifexCode)
	x.set(po.KeyLanguageTeam, team)

	if c.Metadata.Value(po.KeyLastTranslator) == placeholderTranslator {
		x.remove(po.KeyLastTranslator)
	}

	if !h.isSource(t) {
		x.percentTranslated()
	}

	x.set(po.KeyProjectIDVersion, t.ResourceSlug)

	return c, h.save(t, c, x.changed)
}

// NormalizePercentTranslated corrects only Percent-Translated. The source
// language catalog is left alone.
func (h *Helper) NormalizePercentTranslated(t Target, c *po.Catalog) (*po.Catalog, error) {
	if h.isSource(t) {
		return c, nil
	}

	x := h.corrections(t, c)
	x.percentTranslated()

	return c, h.save(t, c, x.changed)
}

// remoteDates returns the creation and revision times Transifex reports for
// the target.
func (h *Helper) remoteDates(ctx context.Context, t Target) (created, revised time.Time, ok bool, err error) {
	r, ok, err := h.stats.Resource(ctx, t.ResourceSlug)
	if err != nil || !ok {
		return time.Time{}, time.Time{}, false, err
	}

	if h.isSource(t) {
		return r.Created, r.Modified, true, nil
	}

	s, ok, err := h.stats.Translation(ctx, t.ResourceSlug, t.TransifexCode)
	if err != nil || !ok {
		return time.Time{}, time.Time{}, false, err
	}

	return r.Created, s.LastTranslationUpdate, true, nil
}

// NormalizeDates aligns POT-Creation-Date and PO-Revision-Date with
// Transifex.
//
// The creation date always follows Transifex. A missing revision date is
// filled in; a differing one is only replaced when the local and remote
// entries are identical, otherwise the difference is reported.
func (h *Helper) NormalizeDates(ctx context.Context, t Target, c *po.Catalog) (*po.Catalog, error) {
	created, revised, ok, err := h.remoteDates(ctx, t)
	if err != nil {
		return c, err
	}

	if !ok {
		logger := h.targetLogger(t)
		logger.Debug().Msgf("%s: No Transifex stats. Skipping date normalization.", t)

		return c, nil
	}

	x := h.corrections(t, c)

	if !created.IsZero() {
		if local, ok := c.CreationDate(); !ok || !sameSecond(local, created) {
			x.set(po.KeyPOTCreationDate, po.FormatDate(created.Truncate(time.Second)))
		}
	}

	if !revised.IsZero() {
		local, ok := c.RevisionDate()

		switch {
		case !ok:
			x.set(po.KeyPORevisionDate, po.FormatDate(revised.Truncate(time.Second)))
		case !sameSecond(local, revised):
			if err := h.reviseIfIdentical(ctx, x, local, revised); err != nil {
				return c, err
			}
		}
	}

	return c, h.save(t, c, x.changed)
}

func (h *Helper) reviseIfIdentical(ctx context.Context, x *corrections, local, revised time.Time) error {
	remote, err := h.download(ctx, x.t)
	if err != nil {
		return err
	}

	if entriesIdentical(x.c, remote, h.isSource(x.t)) {
		x.set(po.KeyPORevisionDate, po.FormatDate(revised.Truncate(time.Second)))

		return nil
	}

	x.logger.Error().
		Time("local_revision", local).
		Time("transifex_revision", revised).
		Int("local_translated", len(x.c.Translated())).
		Int("local_untranslated", len(x.c.Untranslated())).
		Int("transifex_translated", len(remote.Translated())).
		Int("transifex_untranslated", len(remote.Untranslated())).
		Msgf("%s: Local PO file revision date (%s) does not match Transifex revision date (%s) and entries differ",
			x.t, po.FormatDate(local), po.FormatDate(revised))

	return nil
}

func sameSecond(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}

// entriesIdentical reports whether the active entries of a and b match
// pairwise. Only message ids are compared in resource mode.
func entriesIdentical(a, b *po.Catalog, resource bool) bool {
	x, y := a.Active(), b.Active()
	if len(x) != len(y) {
		return false
	}

	for i := range x {
		ex, ey := x[i], y[i]

		if resource {
			ex, ey = blank(ex), blank(ey)
		}

		if !ex.Equal(ey) {
			return false
		}
	}

	return true
}

func blank(e *po.Entry) *po.Entry {
	e = e.Clone()
	e.Str = ""

	for i := range e.StrPlural {
		e.StrPlural[i] = ""
	}

	return e
}

// Snapshot is the metadata compared between a local catalog and Transifex.
type Snapshot struct {
	Created time.Time
	Revised time.Time
	// Count is the string count for resources and the translated count for
	// translations.
	Count int
}

func (s Snapshot) equal(o Snapshot) bool {
	return sameSecond(s.Created, o.Created) && sameSecond(s.Revised, o.Revised) && s.Count == o.Count
}

func localSnapshot(c *po.Catalog, count int) Snapshot {
	created, _ := c.CreationDate()
	revised, _ := c.RevisionDate()

	return Snapshot{Created: created, Revised: revised, Count: count}
}

// ResourcesMetadataIdentical compares the creation date, revision date and
// string count of the source catalog with Transifex.
func (h *Helper) ResourcesMetadataIdentical(ctx context.Context, t Target, c *po.Catalog) (bool, error) {
	r, ok, err := h.stats.Resource(ctx, t.ResourceSlug)
	if err != nil {
		return false, err
	}

	if !ok {
		return false, fmt.Errorf("%w: %s", ErrResourceMissing, t.ResourceSlug)
	}

	local := localSnapshot(c, len(c.Active()))
	remote := Snapshot{Created: r.Created, Revised: r.Modified, Count: r.StringCount}

	return h.metadataIdentical(t, "Resources", local, remote), nil
}

// TranslationsMetadataIdentical compares the creation date, revision date and
// translated count of a translation catalog with Transifex.
func (h *Helper) TranslationsMetadataIdentical(ctx context.Context, t Target, c *po.Catalog) (bool, error) {
	created, revised, ok, err := h.remoteDates(ctx, t)
	if err != nil {
		return false, err
	}

	if !ok {
		return false, fmt.Errorf("%w: %s", ErrResourceMissing, t)
	}

	s, _, err := h.stats.Translation(ctx, t.ResourceSlug, t.TransifexCode)
	if err != nil {
		return false, err
	}

	local := localSnapshot(c, len(c.Translated()))
	remote := Snapshot{Created: created, Revised: revised, Count: s.TranslatedStrings}

	return h.metadataIdentical(t, "Translations", local, remote), nil
}

func (h *Helper) metadataIdentical(t Target, kind string, local, remote Snapshot) bool {
	logger := h.targetLogger(t)

	if local.equal(remote) {
		logger.Debug().Msgf("%s: %s appear to be identical based on metadata", t, kind)

		return true
	}

	logger.Error().
		Time("local_creation", local.Created).
		Time("transifex_creation", remote.Created).
		Time("local_revision", local.Revised).
		Time("transifex_revision", remote.Revised).
		Int("local_count", local.Count).
		Int("transifex_count", remote.Count).
		Msgf("%s: %s differ", t, kind)

	return false
}
