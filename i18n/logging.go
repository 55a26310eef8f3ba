// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger returns the logger used by package i18n.
//
// It is derived from the global logger on every call so that output
// configured after startup is honoured.
func Logger() zerolog.Logger {
	return log.With().Str("sys", "i18n").Logger()
}
