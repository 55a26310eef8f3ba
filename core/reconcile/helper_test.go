// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package reconcile

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"codeberg.org/legaltools/txsync/core/stats"
	"codeberg.org/legaltools/txsync/core/transifex"
	"codeberg.org/legaltools/txsync/core/transifex/transifextest"
	"codeberg.org/legaltools/txsync/i18n/po"
)

const (
	org          = "creativecommons"
	deedsProject = "CC"
	legalProject = "cc-legal-code"
	legalTeamID  = 153501
)

var (
	created  = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	modified = time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	updated  = time.Date(2021, 4, 1, 12, 0, 0, 0, time.UTC)

	sourceTarget = Target{
		ResourceSlug:  "by-nd_40",
		ResourceName:  "CC BY-ND 4.0",
		LanguageCode:  "en",
		TransifexCode: "en",
		Path:          "legalcode/en/by-nd_40.po",
	}
	nlTarget = Target{
		ResourceSlug:  "by-nd_40",
		ResourceName:  "CC BY-ND 4.0",
		LanguageCode:  "nl",
		TransifexCode: "nl",
		Path:          "legalcode/nl/by-nd_40.po",
	}
)

// nlHeader is a fully normalized header apart from Percent-Translated.
const nlHeader = `msgid ""
msgstr ""
"Project-Id-Version: by-nd_40\n"
"Language-Team: https://www.transifex.com/creativecommons/teams/153501/nl/\n"
"Language: nl\n"
"Language-Django: nl\n"
"Language-Transifex: nl\n"
"Percent-Translated: %d\n"
`

// countingStats counts cache invalidations.
type countingStats struct {
	*stats.Cache

	clears int
}

func (s *countingStats) Clear() {
	s.clears++
	s.Cache.Clear()
}

// memoryWriter records saves instead of writing files.
type memoryWriter struct {
	paths []string
	saved []*po.Catalog
	err   error
}

func (w *memoryWriter) Save(c *po.Catalog, path string) error {
	w.paths = append(w.paths, path)
	w.saved = append(w.saved, c.Clone())

	return w.err
}

type fixture struct {
	fake   *transifextest.Fake
	stats  *countingStats
	writer *memoryWriter
	logs   *bytes.Buffer
	helper *Helper
}

// newFixture returns a Helper over a fake organization holding the legal code
// resource by-nd_40 with an English source and a Dutch translation.
func newFixture(t *testing.T, dryRun bool) *fixture {
	t.Helper()

	fake := transifextest.New(org)
	fake.AddResource(legalProject, transifex.Resource{
		Slug:        "by-nd_40",
		Name:        "CC BY-ND 4.0",
		StringCount: 2,
		Created:     created,
		Modified:    modified,
	})
	fake.AddLanguageStats(legalProject, transifex.LanguageStats{
		ResourceSlug:          "by-nd_40",
		LanguageCode:          "en",
		TotalStrings:          2,
		TranslatedStrings:     2,
		LastTranslationUpdate: modified,
	})
	fake.AddLanguageStats(legalProject, transifex.LanguageStats{
		ResourceSlug:          "by-nd_40",
		LanguageCode:          "nl",
		TotalStrings:          2,
		TranslatedStrings:     2,
		LastTranslationUpdate: updated,
	})
	fake.AddLanguageStats(legalProject, transifex.LanguageStats{
		ResourceSlug: "by-nd_40",
		LanguageCode: "de",
		TotalStrings: 2,
	})

	logs := &bytes.Buffer{}
	logger := zerolog.New(logs)

	projects := []Project{
		{Slug: deedsProject, TeamID: 11342, Resources: []string{"deeds_ux"}},
		{Slug: legalProject, TeamID: legalTeamID, Resources: []string{"by-nd_40", "zero_10"}},
	}

	var scopes []stats.Scope
	for _, p := range projects {
		scopes = append(scopes, stats.Scope{Project: p.Slug, Resources: p.Resources})
	}

	cache := &countingStats{Cache: stats.New(fake, logger, scopes...)}
	writer := &memoryWriter{}

	helper := New(fake, cache, Options{
		Organization:   org,
		SourceLanguage: "en",
		DryRun:         dryRun,
		Projects:       projects,
		Writer:         writer,
	}, logger)

	return &fixture{fake: fake, stats: cache, writer: writer, logs: logs, helper: helper}
}

func (f *fixture) lines() []gjson.Result {
	var out []gjson.Result

	for _, line := range strings.Split(f.logs.String(), "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, gjson.Parse(line))
		}
	}

	return out
}

func (f *fixture) criticals() []gjson.Result {
	var out []gjson.Result

	for _, line := range f.lines() {
		if line.Get("critical").Bool() {
			out = append(out, line)
		}
	}

	return out
}

func (f *fixture) messages(level string) []string {
	var out []string

	for _, line := range f.lines() {
		if line.Get("level").String() == level {
			out = append(out, line.Get("message").String())
		}
	}

	return out
}

// catalog builds a Dutch catalog from msgid/msgstr pairs.
func catalog(t *testing.T, percent int, pairs ...string) *po.Catalog {
	t.Helper()

	var b strings.Builder

	b.WriteString(strings.Replace(nlHeader, "%d", strconv.Itoa(percent), 1))

	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString("\nmsgid " + strconv.Quote(pairs[i]) + "\n")
		b.WriteString("msgstr " + strconv.Quote(pairs[i+1]) + "\n")
	}

	c, err := po.Parse([]byte(b.String()))
	require.NoError(t, err)

	return c
}

func unit(id, msgid, str string) transifex.TranslationUnit {
	return transifex.TranslationUnit{ID: id, Key: msgid, SourceString: msgid, String: str}
}
