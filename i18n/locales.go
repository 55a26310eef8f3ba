// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// LocaleCatalog is a translation catalog found under a locale directory.
type LocaleCatalog struct {
	// Code is the site language code, for example "pt-br".
	Code string
	Path string
}

// Locales scans dir for gettext catalogs of the given domain. The expected
// layout is:
//
//	<dir>/<locale>/LC_MESSAGES/<domain>.po
//
// The <locale> directory name may use hyphens or underscores, for example
// "pt-BR" or "pt_BR", and is normalised to a lowercase site code. Directories
// that do not name a language or hold no catalog are skipped.
//
// The result is sorted by code.
func Locales(dir, domain string) ([]LocaleCatalog, error) {
	logger := Logger()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read locale directory %s: %w", dir, err)
	}

	var out []LocaleCatalog

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Accept both underscore and hyphen.
		t, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
		if err != nil {
			logger.Debug().Err(err).Str("dir", name).Msg("Skipping non-locale directory")

			continue
		}

		path := filepath.Join(dir, name, "LC_MESSAGES", domain+".po")

		if _, err := os.Stat(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to stat %s: %w", path, err)
			}

			logger.Debug().Str("path", path).Msg("No catalog for locale")

			continue
		}

		out = append(out, LocaleCatalog{Code: strings.ToLower(t.String()), Path: path})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

	logger.Info().
		Str("dir", dir).
		Str("domain", domain).
		Int("count", len(out)).
		Msg("Discovered locale catalogs")

	return out, nil
}
