// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"

	"codeberg.org/legaltools/txsync/i18n/po"
)

// diffContext is large enough for a whole entry to be shown.
const diffContext = 999

// EntryDiff is the unified diff of one diverging entry.
type EntryDiff struct {
	Key  string
	Text string
}

type palette struct {
	header, removed, added, hunk *color.Color
}

func newPalette() palette {
	p := palette{
		header:  color.New(color.Bold),
		removed: color.New(color.FgRed),
		added:   color.New(color.FgGreen),
		hunk:    color.New(color.FgCyan),
	}

	for _, c := range []*color.Color{p.header, p.removed, p.added, p.hunk} {
		c.EnableColor()
	}

	return p
}

func (p palette) paint(diff string) string {
	lines := strings.SplitAfter(diff, "\n")

	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			lines[i] = p.header.Sprint(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = p.removed.Sprint(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = p.added.Sprint(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = p.hunk.Sprint(line)
		}
	}

	return strings.Join(lines, "")
}

// CompareEntries downloads the remote catalog of the target and logs a
// unified diff, at warning level, for every local entry that differs from
// the remote entry with the same identity.
//
// Source catalogs are compared by message id only. Local entries absent from
// the remote catalog are diffed against an empty entry.
func (h *Helper) CompareEntries(ctx context.Context, t Target, c *po.Catalog, colorize bool) ([]EntryDiff, error) {
	remote, err := h.download(ctx, t)
	if err != nil {
		return nil, err
	}

	resource := h.isSource(t)
	fromFile := fmt.Sprintf("%s PO File %s", t.ResourceName, t.Path)
	toFile := fmt.Sprintf("%s Transifex %s %s (%s)", t.ResourceName, t.ResourceSlug, t.LanguageCode, t.TransifexCode)

	var p palette
	if colorize {
		p = newPalette()
	}

	logger := h.targetLogger(t)

	var diffs []EntryDiff

	for _, local := range c.Active() {
		other := remote.Find(local.Context, local.ID)
		if other == nil {
			other = &po.Entry{}
		}

		if resource {
			local, other = blank(local), blank(other)
		}

		if local.Equal(other) {
			continue
		}

		text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(local.String()),
			B:        difflib.SplitLines(other.String()),
			FromFile: fromFile,
			ToFile:   toFile,
			Context:  diffContext,
		})
		if err != nil {
			return diffs, fmt.Errorf("%s: failed to diff %q: %w", t, local.ID, err)
		}

		if colorize {
			text = p.paint(text)
		}

		logger.Warn().
			Str("msgid", local.ID).
			Msgf("%s:\n%s", t, text)

		diffs = append(diffs, EntryDiff{Key: local.Key(), Text: text})
	}

	if len(diffs) == 0 {
		logger.Debug().Msgf("%s: Entries are identical", t)
	}

	return diffs, nil
}
