// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package i18n knows how the site names its languages and where their gettext
catalogs live.

# Language codes

Site language codes are lowercase IETF tags ("en", "pt-br", "zh-hans").
Transifex uses POSIX-like locales instead ("pt_BR", "zh-Hans", "sr@latin").
Codes converts between the two:

	codes := i18n.NewCodes(nil)
	tx, _ := codes.Transifex("pt-br") // "pt_BR"

The source language of every resource is SourceLanguage.

# Catalog discovery

Locales lists the catalogs of a gettext domain under a locale directory.
Parsing and writing the catalogs themselves is done by subpackage i18n/po.
*/
package i18n
