// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package po

import (
	"strings"
	"time"
)

// dateLayouts are the timestamp forms found in catalog headers, from
// xgettext, Transifex and earlier runs of this tool.
var dateLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04-0700",
	"2006-01-02 15:04Z0700",
	time.RFC3339Nano,
}

// ParseDate parses a header timestamp. Placeholders such as
// "YEAR-MO-DA HO:MI+ZONE" are reported as invalid.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

// FormatDate renders a timestamp for a catalog header.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05-07:00")
}

// CreationDate returns the parsed POT-Creation-Date.
func (c *Catalog) CreationDate() (time.Time, bool) {
	return ParseDate(c.Metadata.Value(KeyPOTCreationDate))
}

// RevisionDate returns the parsed PO-Revision-Date.
func (c *Catalog) RevisionDate() (time.Time, bool) {
	return ParseDate(c.Metadata.Value(KeyPORevisionDate))
}
