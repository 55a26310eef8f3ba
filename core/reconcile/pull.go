// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package reconcile

import (
	"context"
	"fmt"

	"codeberg.org/legaltools/txsync/i18n/po"
)

// PullTranslation replaces the target's catalog with the Transifex content.
//
// The language fields and Percent-Translated of the downloaded catalog are
// corrected, the catalog is checked against the gettext runtime and saved
// outside dry-run. The downloaded catalog is returned.
func (h *Helper) PullTranslation(ctx context.Context, t Target) (*po.Catalog, error) {
	if h.isSource(t) {
		return nil, fmt.Errorf("%s: %w", t, ErrSourceLanguage)
	}

	remote, err := h.download(ctx, t)
	if err != nil {
		return nil, err
	}

	remote.Path = t.Path

	x := h.corrections(t, remote)
	x.set(po.KeyLanguageDjango, t.LanguageCode)
	x.set(po.KeyLanguageTransifex, t.TransifexCode)
	x.percentTranslated()

	if broken := po.VerifyRuntime(remote); len(broken) > 0 {
		logger := h.targetLogger(t)
		logger.Warn().
			Strs("msgids", broken).
			Msgf("%s: gettext runtime does not return the downloaded translations", t)
	}

	return remote, h.save(t, remote, []string{"content"})
}
