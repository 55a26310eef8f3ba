// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package po

import (
	"slices"
	"strings"
)

// Field is one "Key: Value" line of the catalog header.
type Field struct {
	Key   string
	Value string
}

// Metadata is the ordered catalog header.
type Metadata []Field

// Get returns the value stored under key.
func (m Metadata) Get(key string) (string, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}

	return "", false
}

// Value returns the value stored under key, or "" when absent.
func (m Metadata) Value(key string) string {
	v, _ := m.Get(key)

	return v
}

// Set replaces the value under key, appending the field if it is new.
func (m *Metadata) Set(key, value string) {
	for i := range *m {
		if (*m)[i].Key == key {
			(*m)[i].Value = value

			return
		}
	}

	*m = append(*m, Field{Key: key, Value: value})
}

// Delete removes key and reports whether it was present.
func (m *Metadata) Delete(key string) bool {
	before := len(*m)

	*m = slices.DeleteFunc(*m, func(f Field) bool { return f.Key == key })

	return len(*m) != before
}

// Clone returns a copy of the header.
func (m Metadata) Clone() Metadata {
	return slices.Clone(m)
}

// parseHeader splits the header msgstr into fields.
func parseHeader(s string) Metadata {
	var m Metadata

	for line := range strings.SplitSeq(s, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		m = append(m, Field{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}

	return m
}
