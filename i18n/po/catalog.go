// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package po reads and writes GNU gettext .po catalogs while preserving entry
order, comments and obsolete entries, so that a catalog can be loaded,
normalized and saved back without unrelated churn.
*/
package po

import (
	"math"
	"slices"

	"github.com/leonelquinteros/gotext"
)

// Well-known header keys.
const (
	KeyLanguage          = "Language"
	KeyLanguageDjango    = "Language-Django"
	KeyLanguageTransifex = "Language-Transifex"
	KeyLanguageTeam      = "Language-Team"
	KeyLastTranslator    = "Last-Translator"
	KeyPercentTranslated = "Percent-Translated"
	KeyProjectIDVersion  = "Project-Id-Version"
	KeyPOTCreationDate   = "POT-Creation-Date"
	KeyPORevisionDate    = "PO-Revision-Date"
)

// FlagFuzzy marks an entry whose translation needs review.
const FlagFuzzy = "fuzzy"

// Entry is a single message of a catalog.
type Entry struct {
	Context   string
	ID        string
	IDPlural  string
	Str       string
	StrPlural []string

	TranslatorComments []string
	ExtractedComments  []string
	References         []string
	Flags              []string
	Previous           []string

	Obsolete bool
}

// Key identifies an entry within a catalog, in the same "ctx<EOT>msgid"
// form the gettext runtime uses.
func (e *Entry) Key() string {
	return EntryKey(e.Context, e.ID)
}

// EntryKey builds the key for a context and msgid pair.
func EntryKey(context, id string) string {
	if context == "" {
		return id
	}

	return context + gotext.EotSeparator + id
}

// Fuzzy reports whether the entry carries the fuzzy flag.
func (e *Entry) Fuzzy() bool {
	return slices.Contains(e.Flags, FlagFuzzy)
}

// Translated reports whether the entry has a usable translation.
func (e *Entry) Translated() bool {
	if e.Obsolete || e.Fuzzy() {
		return false
	}

	if e.IDPlural != "" {
		if len(e.StrPlural) == 0 {
			return false
		}

		for _, s := range e.StrPlural {
			if s == "" {
				return false
			}
		}

		return true
	}

	return e.Str != ""
}

// Equal reports whether two entries carry the same message data.
//
// Source references and comments are ignored since the remote service
// does not round-trip them reliably.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}

	return e.Context == other.Context &&
		e.ID == other.ID &&
		e.IDPlural == other.IDPlural &&
		e.Str == other.Str &&
		slices.Equal(e.StrPlural, other.StrPlural) &&
		e.Obsolete == other.Obsolete
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.StrPlural = slices.Clone(e.StrPlural)
	c.TranslatorComments = slices.Clone(e.TranslatorComments)
	c.ExtractedComments = slices.Clone(e.ExtractedComments)
	c.References = slices.Clone(e.References)
	c.Flags = slices.Clone(e.Flags)
	c.Previous = slices.Clone(e.Previous)

	return &c
}

// Catalog is an ordered gettext catalog.
type Catalog struct {
	// Path is the file the catalog was loaded from, if any.
	Path string

	HeaderComments []string
	HeaderFlags    []string
	Metadata       Metadata
	Entries        []*Entry
}

// New returns an empty catalog bound to path.
func New(path string) *Catalog {
	return &Catalog{Path: path}
}

// Len returns the number of entries, obsolete ones included.
func (c *Catalog) Len() int {
	return len(c.Entries)
}

// Find returns the entry with the given context and msgid.
func (c *Catalog) Find(context, id string) *Entry {
	key := EntryKey(context, id)

	for _, e := range c.Entries {
		if e.Key() == key {
			return e
		}
	}

	return nil
}

// Active returns the non-obsolete entries.
func (c *Catalog) Active() []*Entry {
	out := make([]*Entry, 0, len(c.Entries))

	for _, e := range c.Entries {
		if !e.Obsolete {
			out = append(out, e)
		}
	}

	return out
}

// Translated returns the entries that have a usable translation.
func (c *Catalog) Translated() []*Entry {
	var out []*Entry

	for _, e := range c.Entries {
		if e.Translated() {
			out = append(out, e)
		}
	}

	return out
}

// Untranslated returns the active entries that are neither translated nor fuzzy.
func (c *Catalog) Untranslated() []*Entry {
	var out []*Entry

	for _, e := range c.Entries {
		if !e.Translated() && !e.Obsolete && !e.Fuzzy() {
			out = append(out, e)
		}
	}

	return out
}

// PercentTranslated returns the share of active entries that are translated,
// rounded half to even. A catalog without active entries is complete.
func (c *Catalog) PercentTranslated() int {
	total := len(c.Active())
	if total == 0 {
		return 100
	}

	translated := len(c.Translated())

	return int(math.RoundToEven(float64(translated) / float64(total) * 100))
}

// BlankTranslations clears every translated string.
func (c *Catalog) BlankTranslations() {
	for _, e := range c.Entries {
		e.Str = ""

		for i := range e.StrPlural {
			e.StrPlural[i] = ""
		}
	}
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		Path:           c.Path,
		HeaderComments: slices.Clone(c.HeaderComments),
		HeaderFlags:    slices.Clone(c.HeaderFlags),
		Metadata:       c.Metadata.Clone(),
		Entries:        make([]*Entry, len(c.Entries)),
	}

	for i, e := range c.Entries {
		out.Entries[i] = e.Clone()
	}

	return out
}
