// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/legaltools/txsync/i18n/po"
)

const sourceCatalog = `msgid ""
msgstr ""
"Project-Id-Version: PACKAGE VERSION\n"
"Last-Translator: FULL NAME <EMAIL@ADDRESS>\n"
"Language-Team: LANGUAGE <LL@li.org>\n"
"Language: \n"
"Percent-Translated: 12\n"

msgid "license_medium"
msgstr "Attribution-NoDerivatives 4.0 International"

msgid "english text"
msgstr "english text"
`

func parse(t *testing.T, content string) *po.Catalog {
	t.Helper()

	c, err := po.Parse([]byte(content))
	require.NoError(t, err)

	return c
}

func TestNormalizeMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		target    Target
		catalog   func(t *testing.T) *po.Catalog
		want      map[string]string
		wantGone  []string
		wantSaves int
	}{
		{
			name:    "source catalog",
			target:  sourceTarget,
			catalog: func(t *testing.T) *po.Catalog { t.Helper(); return parse(t, sourceCatalog) },
			want: map[string]string{
				po.KeyLanguage:          "en",
				po.KeyLanguageDjango:    "en",
				po.KeyLanguageTransifex: "en",
				po.KeyLanguageTeam:      "https://www.transifex.com/creativecommons/cc-legal-code/",
				po.KeyProjectIDVersion:  "by-nd_40",
				// Never recomputed for the source language.
				po.KeyPercentTranslated: "12",
			},
			wantGone:  []string{po.KeyLastTranslator},
			wantSaves: 1,
		},
		{
			name:   "stale percent",
			target: nlTarget,
			catalog: func(t *testing.T) *po.Catalog {
				t.Helper()

				return catalog(t, 37,
					"license_medium", "Attribution-NoDerivatives 4.0 International",
					"english text", "english text")
			},
			want:      map[string]string{po.KeyPercentTranslated: "100"},
			wantSaves: 1,
		},
		{
			name:   "already normalized",
			target: nlTarget,
			catalog: func(t *testing.T) *po.Catalog {
				t.Helper()

				return catalog(t, 50, "license_medium", "Naamsvermelding", "english text", "")
			},
			want: map[string]string{
				po.KeyPercentTranslated: "50",
				po.KeyLanguageTeam:      "https://www.transifex.com/creativecommons/teams/153501/nl/",
			},
		},
		{
			name:   "real translator kept",
			target: nlTarget,
			catalog: func(t *testing.T) *po.Catalog {
				t.Helper()

				c := catalog(t, 100, "license_medium", "Naamsvermelding")
				c.Metadata.Set(po.KeyLastTranslator, "Jan Jansen <jan@example.org>")

				return c
			},
			want: map[string]string{po.KeyLastTranslator: "Jan Jansen <jan@example.org>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, false)
			c := tt.catalog(t)

			got, err := f.helper.NormalizeMetadata(tt.target, c)
			require.NoError(t, err)
			assert.Same(t, c, got)

			for key, value := range tt.want {
				assert.Equal(t, value, got.Metadata.Value(key), key)
			}

			for _, key := range tt.wantGone {
				_, ok := got.Metadata.Get(key)
				assert.False(t, ok, key)
			}

			require.Len(t, f.writer.paths, tt.wantSaves)

			if tt.wantSaves > 0 {
				assert.Equal(t, tt.target.Path, f.writer.paths[0])
			}

			// A second pass changes nothing and writes nothing.
			before := string(got.Marshal())

			again, err := f.helper.NormalizeMetadata(tt.target, got)
			require.NoError(t, err)
			assert.Equal(t, before, string(again.Marshal()))
			assert.Len(t, f.writer.paths, tt.wantSaves)
		})
	}
}

func TestNormalizeMetadataDryRun(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)

	c, err := f.helper.NormalizeMetadata(nlTarget, catalog(t, 37, "license_medium", "Naamsvermelding"))
	require.NoError(t, err)

	assert.Equal(t, "100", c.Metadata.Value(po.KeyPercentTranslated))
	assert.Empty(t, f.writer.paths)
	assert.Contains(t, f.messages("info"), "CC BY-ND 4.0 (by-nd_40) nl: Would save PO file")

	for _, line := range f.lines() {
		assert.True(t, line.Get("dry_run").Bool())
	}
}

func TestNormalizeMetadataErrors(t *testing.T) {
	t.Parallel()

	t.Run("unknown resource", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, false)
		target := nlTarget
		target.ResourceSlug = "by_40"

		_, err := f.helper.NormalizeMetadata(target, catalog(t, 0))
		require.ErrorIs(t, err, ErrResourceMissing)
		assert.Empty(t, f.writer.paths)
	})

	t.Run("save fails", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, false)
		f.writer.err = errors.New("read-only file system")

		_, err := f.helper.NormalizeMetadata(nlTarget, catalog(t, 37, "license_medium", "Naamsvermelding"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read-only file system")
	})
}

func TestNormalizePercentTranslated(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)

	c, err := f.helper.NormalizePercentTranslated(sourceTarget, parse(t, sourceCatalog))
	require.NoError(t, err)
	assert.Equal(t, "12", c.Metadata.Value(po.KeyPercentTranslated))

	c, err = f.helper.NormalizePercentTranslated(nlTarget, catalog(t, 100, "license_medium", "", "english text", ""))
	require.NoError(t, err)
	assert.Equal(t, "0", c.Metadata.Value(po.KeyPercentTranslated))
	assert.Len(t, f.writer.paths, 1)
}

func TestNormalizeDates(t *testing.T) {
	t.Parallel()

	const remote = `msgid ""
msgstr ""
"Language: nl\n"

msgid "license_medium"
msgstr "Naamsvermelding"
`

	tests := []struct {
		name         string
		revision     string
		remote       string
		wantRevision string
		wantDownload bool
		wantError    bool
	}{
		{
			name:         "missing revision",
			wantRevision: "2021-04-01 12:00:00+00:00",
		},
		{
			name:         "same revision",
			revision:     "2021-04-01 12:00:00.000000+00:00",
			wantRevision: "2021-04-01 12:00:00.000000+00:00",
		},
		{
			name:         "different revision, identical entries",
			revision:     "2020-01-01 00:00:00+00:00",
			remote:       remote,
			wantRevision: "2021-04-01 12:00:00+00:00",
			wantDownload: true,
		},
		{
			name:         "different revision, different entries",
			revision:     "2020-01-01 00:00:00+00:00",
			remote:       `msgid ""` + "\n" + `msgstr ""` + "\n\nmsgid \"license_medium\"\nmsgstr \"Anders\"\n",
			wantRevision: "2020-01-01 00:00:00+00:00",
			wantDownload: true,
			wantError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, false)
			f.fake.SetFile("by-nd_40", "nl", []byte(tt.remote))

			c := catalog(t, 100, "license_medium", "Naamsvermelding")
			if tt.revision != "" {
				c.Metadata.Set(po.KeyPORevisionDate, tt.revision)
			}

			c, err := f.helper.NormalizeDates(context.Background(), nlTarget, c)
			require.NoError(t, err)

			assert.Equal(t, "2021-01-01 00:00:00+00:00", c.Metadata.Value(po.KeyPOTCreationDate))
			assert.Equal(t, tt.wantRevision, c.Metadata.Value(po.KeyPORevisionDate))
			assert.Equal(t, tt.wantDownload, f.fake.Count("DownloadTranslation") == 1)
			assert.Len(t, f.writer.paths, 1, "creation date is always corrected")

			if tt.wantError {
				require.Len(t, f.messages("error"), 1)
				assert.Contains(t, f.messages("error")[0], "entries differ")
			} else {
				assert.Empty(t, f.messages("error"))
			}
		})
	}
}

func TestNormalizeDatesSource(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.fake.SetFile("by-nd_40", "", []byte(`msgid ""`+"\n"+`msgstr ""`+"\n\nmsgid \"license_medium\"\nmsgstr \"\"\n"))

	c := parse(t, sourceCatalog)
	c.Entries = c.Entries[:1]
	c.Metadata.Set(po.KeyPORevisionDate, "2020-01-01 00:00:00+00:00")

	c, err := f.helper.NormalizeDates(context.Background(), sourceTarget, c)
	require.NoError(t, err)

	// Source entries are compared by msgid only.
	assert.Equal(t, "2021-03-01 00:00:00+00:00", c.Metadata.Value(po.KeyPORevisionDate))
	assert.Equal(t, 1, f.fake.Count("DownloadResource"))
}

func TestNormalizeDatesWithoutStats(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)

	fy := nlTarget
	fy.LanguageCode, fy.TransifexCode, fy.Path = "fy", "fy", "legalcode/fy/by-nd_40.po"

	c := catalog(t, 100, "license_medium", "Nammefermelding")
	before := string(c.Marshal())

	got, err := f.helper.NormalizeDates(context.Background(), fy, c)
	require.NoError(t, err)

	assert.Equal(t, before, string(got.Marshal()))
	assert.Empty(t, f.writer.paths)
	assert.Contains(t, f.messages("debug"), fy.String()+": No Transifex stats. Skipping date normalization.")
}

func TestMetadataIdentical(t *testing.T) {
	t.Parallel()

	identical := func(t *testing.T) *po.Catalog {
		t.Helper()

		c := catalog(t, 100, "license_medium", "Naamsvermelding", "english text", "Engelse tekst")
		c.Metadata.Set(po.KeyPOTCreationDate, "2021-01-01 00:00:00+00:00")
		c.Metadata.Set(po.KeyPORevisionDate, "2021-04-01 12:00:00+00:00")

		return c
	}

	t.Run("translations identical", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, false)

		ok, err := f.helper.TranslationsMetadataIdentical(context.Background(), nlTarget, identical(t))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Contains(t, f.messages("debug"),
			"CC BY-ND 4.0 (by-nd_40) nl: Translations appear to be identical based on metadata")
		assert.Empty(t, f.messages("error"))
	})

	t.Run("translated count differs", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, false)
		c := identical(t)
		c.Entries[1].Str = ""

		ok, err := f.helper.TranslationsMetadataIdentical(context.Background(), nlTarget, c)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, []string{"CC BY-ND 4.0 (by-nd_40) nl: Translations differ"}, f.messages("error"))
	})

	t.Run("resources differ by revision", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, false)
		c := identical(t)

		ok, err := f.helper.ResourcesMetadataIdentical(context.Background(), sourceTarget, c)
		require.NoError(t, err)
		assert.False(t, ok)

		line := f.lines()[len(f.lines())-1]
		assert.Equal(t, 2, int(line.Get("local_count").Int()))
		assert.Equal(t, 2, int(line.Get("transifex_count").Int()))
	})

	t.Run("unknown translation", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, false)
		target := nlTarget
		target.TransifexCode = "fy"

		_, err := f.helper.TranslationsMetadataIdentical(context.Background(), target, identical(t))
		require.ErrorIs(t, err, ErrResourceMissing)
	})
}
