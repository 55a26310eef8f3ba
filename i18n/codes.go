// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"golang.org/x/text/language"
)

// SourceLanguage is the language resources are authored in.
const SourceLanguage = "en"

var errInvalidLanguageCode = errors.New("invalid language code")

// defaultOverrides lists site codes whose Transifex code cannot be derived
// from the language tag alone.
var defaultOverrides = map[string]string{
	"sr-latn": "sr@latin",
}

// Codes maps site language codes, which are lowercase IETF tags such as
// "pt-br", to Transifex language codes, which are POSIX-like locales such as
// "pt_BR".
type Codes struct {
	overrides map[string]string
}

// NewCodes returns a mapper using the built-in overrides extended by extra.
func NewCodes(extra map[string]string) *Codes {
	overrides := maps.Clone(defaultOverrides)

	for k, v := range extra {
		overrides[strings.ToLower(k)] = v
	}

	return &Codes{overrides: overrides}
}

// Transifex returns the Transifex code for a site language code.
//
// Regions are joined with an underscore ("de-at" becomes "de_AT") and
// scripts with a hyphen ("zh-hans" becomes "zh-Hans").
func (c *Codes) Transifex(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))

	if v, ok := c.overrides[code]; ok {
		return v, nil
	}

	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", errInvalidLanguageCode, code, err)
	}

	// Variant tags such as "oc-aranes" are used verbatim.
	if len(tag.Variants()) > 0 {
		return code, nil
	}

	base, script, region := tag.Raw()

	out := base.String()

	if strings.Contains(code, "-"+strings.ToLower(script.String())) {
		out += "-" + script.String()
	}

	if strings.HasSuffix(code, "-"+strings.ToLower(region.String())) {
		out += "_" + region.String()
	}

	return out, nil
}

// Site is the inverse of Transifex for the codes in use by this tool.
func (c *Codes) Site(transifexCode string) (string, error) {
	for site, tx := range c.overrides {
		if tx == transifexCode {
			return site, nil
		}
	}

	normalized := strings.NewReplacer("_", "-", "@", "-").Replace(transifexCode)

	tag, err := language.Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", errInvalidLanguageCode, transifexCode, err)
	}

	return strings.ToLower(tag.String()), nil
}
