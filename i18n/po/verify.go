// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package po

import (
	"github.com/leonelquinteros/gotext"
)

// VerifyRuntime loads the rendered catalog with the gettext runtime and
// returns the msgids whose lookup does not yield the catalog's translation.
// Plural entries are not checked.
func VerifyRuntime(c *Catalog) []string {
	runtime := gotext.NewPo()
	runtime.Parse(c.Marshal())

	domain := runtime.GetDomain()
	plain, contextual := domain.GetTranslations(), domain.GetCtxTranslations()

	var mismatched []string

	for _, e := range c.Translated() {
		if e.IDPlural != "" {
			continue
		}

		var tr *gotext.Translation
		if e.Context != "" {
			tr = contextual[e.Context][e.ID]
		} else {
			tr = plain[e.ID]
		}

		if tr == nil || tr.Get() != e.Str {
			mismatched = append(mismatched, e.ID)
		}
	}

	return mismatched
}
