// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package reconcile

import (
	"context"
	"fmt"

	"codeberg.org/legaltools/txsync/core/transifex"
	"codeberg.org/legaltools/txsync/i18n/po"
)

// Outcome classifies one entry against its remote translation unit.
type Outcome int

const (
	// InSync entries carry the same string on both sides.
	InSync Outcome = iota
	// LocalAhead entries are translated locally only.
	LocalAhead
	// RemoteAhead entries are translated on Transifex only.
	RemoteAhead
	// Conflicted entries carry different translations on both sides.
	Conflicted
	// Mismatched entries have no remote unit with the same identity.
	Mismatched
)

var outcomeNames = [...]string{
	InSync:      "in sync",
	LocalAhead:  "local ahead",
	RemoteAhead: "remote ahead",
	Conflicted:  "conflicted",
	Mismatched:  "mismatched",
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("Outcome(%d)", int(o))
	}

	return outcomeNames[o]
}

// EntrySync is the classification of one entry.
type EntrySync struct {
	Outcome Outcome
	Key     string
	Local   string
	Remote  string

	entry *po.Entry
	unit  transifex.TranslationUnit
}

// SyncReport summarizes a synchronization.
type SyncReport struct {
	// Aborted is set when the guards failed or message ids did not align.
	// Nothing was changed on either side.
	Aborted bool

	Pushed     []EntrySync
	Adopted    []EntrySync
	Conflicted []EntrySync
	// Failed lists pushes Transifex rejected.
	Failed []EntrySync
	// Mismatched lists the local entries without a remote unit.
	Mismatched []EntrySync
}

// Changed reports whether either side was modified.
func (r SyncReport) Changed() bool {
	return len(r.Pushed) > 0 || len(r.Adopted) > 0
}

// classify pairs every active entry of c with the unit of the same identity.
// Plural entries are only checked for a counterpart and otherwise count as
// in sync: their translations live in msgstr[n], which units do not carry.
func classify(c *po.Catalog, units []transifex.TranslationUnit) []EntrySync {
	byKey := make(map[string]transifex.TranslationUnit, len(units))

	for _, u := range units {
		byKey[po.EntryKey(u.Context, u.SourceString)] = u
	}

	entries := c.Active()
	out := make([]EntrySync, 0, len(entries))

	for _, e := range entries {
		s := EntrySync{Key: e.Key(), Local: e.Str, entry: e}

		u, ok := byKey[s.Key]
		if !ok {
			s.Outcome = Mismatched
			out = append(out, s)

			continue
		}

		s.unit, s.Remote = u, u.String

		switch {
		case e.IDPlural != "":
			s.Outcome = InSync
		case s.Local == s.Remote:
			s.Outcome = InSync
		case s.Remote == "":
			s.Outcome = LocalAhead
		case s.Local == "":
			s.Outcome = RemoteAhead
		default:
			s.Outcome = Conflicted
		}

		out = append(out, s)
	}

	return out
}

// Sync reconciles the translations of c with Transifex entry by entry.
//
// Entries translated only locally are pushed, entries translated only on
// Transifex are adopted into c, and entries translated differently on both
// sides are reported and left alone. Every entry is classified before
// anything changes: if any local entry has no remote counterpart the whole
// catalog is abandoned unchanged.
//
// Adopted strings are merged into c in memory. Callers persist c.
func (h *Helper) Sync(ctx context.Context, t Target, c *po.Catalog) (*po.Catalog, SyncReport, error) {
	var report SyncReport

	if h.isSource(t) {
		return c, report, fmt.Errorf("%s: %w", t, ErrSourceLanguage)
	}

	p, err := h.project(t)
	if err != nil {
		return c, report, err
	}

	if !h.stats.ResourcePresent(ctx, t.ResourceSlug, t.ResourceName) ||
		!h.stats.TranslationSupported(ctx, t.ResourceSlug, t.ResourceName, t.TransifexCode) {
		report.Aborted = true

		return c, report, nil
	}

	units, err := h.client.ResourceTranslations(ctx, p.Slug, t.ResourceSlug, t.TransifexCode)
	if err != nil {
		return c, report, fmt.Errorf("%s: failed to list translations: %w", t, err)
	}

	entries := classify(c, units)

	for _, s := range entries {
		if s.Outcome == Mismatched {
			report.Mismatched = append(report.Mismatched, s)
		}
	}

	if len(report.Mismatched) > 0 {
		keys := make([]string, 0, len(report.Mismatched))
		for _, s := range report.Mismatched {
			keys = append(keys, s.Key)
		}

		remote := make([]string, 0, len(units))
		for _, u := range units {
			remote = append(remote, u.SourceString)
		}

		h.critical(t).
			Strs("local_msgids", keys).
			Strs("transifex_msgids", remote).
			Msgf("%s: Local PO File msgid and Transifex msgid mismatch. Aborting synchronization.", t)

		report.Aborted = true

		return c, report, nil
	}

	logger := h.targetLogger(t)

	for _, s := range entries {
		switch s.Outcome {
		case InSync:
			if s.entry.IDPlural != "" {
				logger.Debug().
					Str("msgid", s.entry.ID).
					Msgf("%s: Skipping plural entry", t)
			}
		case Mismatched:
		case LocalAhead:
			report.Pushed = append(report.Pushed, s)
		case RemoteAhead:
			logger.Info().
				Str("msgid", s.entry.ID).
				Msgf("%s: Adding translation from Transifex to PO File", t)

			s.entry.Str = s.Remote
			report.Adopted = append(report.Adopted, s)
		case Conflicted:
			h.critical(t).
				Str("msgid", s.entry.ID).
				Str("local", s.Local).
				Str("transifex", s.Remote).
				Msgf("%s: Translations differ for %q: local %q, Transifex %q. Skipping entry.",
					t, s.entry.ID, s.Local, s.Remote)

			report.Conflicted = append(report.Conflicted, s)
		}
	}

	report.Pushed, report.Failed = h.push(ctx, t, report.Pushed)

	return c, report, nil
}

// SaveSynced persists c after Sync. Percent-Translated is corrected first so
// that adopted strings and the new percentage land in a single write. Nothing
// is written when report adopted nothing and the percentage is current.
func (h *Helper) SaveSynced(t Target, c *po.Catalog, report SyncReport) error {
	x := h.corrections(t, c)

	if !h.isSource(t) {
		x.percentTranslated()
	}

	if len(report.Adopted) > 0 {
		x.changed = append(x.changed, "entries")
	}

	return h.save(t, c, x.changed)
}

// push saves the local string of every staged entry to Transifex. A failed
// save is logged and the remaining entries are still pushed.
func (h *Helper) push(ctx context.Context, t Target, staged []EntrySync) (pushed, failed []EntrySync) {
	logger := h.targetLogger(t)

	for _, s := range staged {
		if h.opts.DryRun {
			logger.Info().
				Str("msgid", s.entry.ID).
				Msgf("%s: Would add translation from PO File to Transifex", t)

			pushed = append(pushed, s)

			continue
		}

		unit := s.unit
		unit.String = s.Local

		if err := h.client.SaveTranslation(ctx, unit); err != nil {
			logger.Error().
				Err(err).
				Str("msgid", s.entry.ID).
				Msgf("%s: Failed to add translation from PO File to Transifex", t)

			failed = append(failed, s)

			continue
		}

		logger.Info().
			Str("msgid", s.entry.ID).
			Msgf("%s: Added translation from PO File to Transifex", t)

		pushed = append(pushed, s)
	}

	if !h.opts.DryRun && len(pushed) > 0 {
		h.invalidate()
	}

	return pushed, failed
}
