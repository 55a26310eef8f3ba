// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/legaltools/txsync/core/localdata"
	"codeberg.org/legaltools/txsync/core/transifex"
	"codeberg.org/legaltools/txsync/i18n/po"
)

type memorySource struct {
	data  func() *localdata.Data
	err   error
	loads int
}

func (s *memorySource) Load(context.Context) (*localdata.Data, error) {
	s.loads++

	if s.err != nil {
		return nil, s.err
	}

	return s.data(), nil
}

type cleanRepo struct {
	checks int
}

func (r *cleanRepo) CheckClean() bool {
	r.checks++

	return true
}

func translation(t *testing.T, target Target, pairs ...string) localdata.Translation {
	t.Helper()

	return localdata.Translation{
		LanguageCode:  target.LanguageCode,
		TransifexCode: target.TransifexCode,
		Path:          target.Path,
		Catalog:       catalog(t, 100, pairs...),
	}
}

// legalCode returns by-nd_40 with an English source and the given translations.
func legalCode(t *testing.T, translations ...localdata.Translation) func() *localdata.Data {
	t.Helper()

	return func() *localdata.Data {
		return &localdata.Data{Resources: []localdata.Resource{{
			Slug: "by-nd_40",
			Name: "CC BY-ND 4.0",
			Source: localdata.Translation{
				LanguageCode:  "en",
				TransifexCode: "en",
				Path:          sourceTarget.Path,
				Catalog:       parse(t, sourceCatalog),
			},
			Translations: translations,
		}}}
	}
}

func newDriver(f *fixture, data func() *localdata.Data) (*Driver, *memorySource, *cleanRepo) {
	source := &memorySource{data: data}
	repo := &cleanRepo{}

	return NewDriver(f.helper, source, repo), source, repo
}

func TestDriverNormalize(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.fake.SetUnits("by-nd_40", "nl",
		unit("1", "license_medium", "Naamsvermelding"),
		unit("2", "english text", "Engelse tekst"))

	d, source, repo := newDriver(f, legalCode(t,
		translation(t, nlTarget, "license_medium", "Naamsvermelding", "english text", "Engelse tekst")))

	require.NoError(t, d.Normalize(context.Background()))

	assert.Equal(t, 1, source.loads)
	assert.Equal(t, 1, repo.checks)
	assert.Contains(t, f.writer.paths, sourceTarget.Path)
	assert.Contains(t, f.writer.paths, nlTarget.Path)
	assert.Empty(t, f.criticals())
	assert.Zero(t, f.fake.Count("UploadResource"))
	assert.Zero(t, f.fake.Count("UploadTranslation"))
	// The local catalog carries no dates, so entries are synchronized.
	assert.Equal(t, 1, f.fake.Count("ResourceTranslations"))
	assert.Zero(t, f.fake.Count("SaveTranslation"))

	for _, msg := range f.messages("error") {
		assert.NotContains(t, msg, "Processing failed")
	}

	last := f.writer.saved[len(f.writer.saved)-1]
	assert.Equal(t, "2021-04-01 12:00:00+00:00", last.Metadata.Value(po.KeyPORevisionDate))
}

func TestDriverNormalizeSavesAdoptedStrings(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.fake.SetUnits("by-nd_40", "nl",
		unit("1", "license_medium", "Naamsvermelding"),
		unit("2", "english text", "Engelse tekst"),
		unit("3", "new text", "nieuwe tekst"))

	d, _, _ := newDriver(f, legalCode(t,
		translation(t, nlTarget, "license_medium", "Naamsvermelding", "english text", "Engelse tekst", "new text", "")))

	require.NoError(t, d.Normalize(context.Background()))

	// Transifex already holds as many translations as the local catalog.
	assert.Zero(t, f.fake.Count("UploadTranslation"))
	assert.Equal(t, 1, f.fake.Count("ResourceTranslations"))

	var last *po.Catalog

	for i, path := range f.writer.paths {
		if path == nlTarget.Path {
			last = f.writer.saved[i]
		}
	}

	require.NotNil(t, last)
	assert.Equal(t, "nieuwe tekst", last.Find("", "new text").Str)
	assert.Equal(t, "100", last.Metadata.Value(po.KeyPercentTranslated))
}

func TestDriverNormalizeUnsupportedLanguage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)

	fy := nlTarget
	fy.LanguageCode, fy.TransifexCode, fy.Path = "fy", "fy", "legalcode/fy/by-nd_40.po"

	d, _, _ := newDriver(f, legalCode(t, translation(t, fy, "license_medium", "Nammefermelding")))

	require.NoError(t, d.Normalize(context.Background()))

	assert.Len(t, f.criticals(), 1)
	assert.Zero(t, f.fake.Count("UploadTranslation"))
	assert.Zero(t, f.fake.Count("ResourceTranslations"))
}

func TestDriverLoadFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	d, source, _ := newDriver(f, nil)
	source.err = errors.New("manifest.yaml: permission denied")

	for name, run := range map[string]func(context.Context) error{
		"check":     d.Check,
		"normalize": d.Normalize,
		"pull":      d.Pull,
		"push":      d.PushTranslations,
	} {
		err := run(context.Background())
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "failed to load local data", name)
	}

	assert.Empty(t, f.fake.Calls(""))
}

func TestDriverCheck(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.fake.Languages["nl"] = transifex.Language{Code: "nl", Name: "Dutch"}

	fy := nlTarget
	fy.LanguageCode, fy.TransifexCode = "fy", "fy"

	d, _, repo := newDriver(f, legalCode(t,
		translation(t, nlTarget, "license_medium", "Naamsvermelding"),
		translation(t, fy, "license_medium", "Nammefermelding"),
		translation(t, nlTarget, "license_medium", "Naamsvermelding")))

	require.NoError(t, d.Check(context.Background()))

	assert.Equal(t, 1, repo.checks)
	assert.Equal(t, 1, f.fake.Count("Organization"))
	assert.Equal(t, 2, f.fake.Count("Language"))
	assert.Contains(t, f.messages("info"), "Connected to Transifex")
	assert.Equal(t, []string{"Language is not known to Transifex"}, f.messages("warn"))
}

func TestDriverCheckOrganizationFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.fake.Errors["Organization"] = errors.New("401 Unauthorized")

	d, _, _ := newDriver(f, legalCode(t))

	err := d.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401 Unauthorized")
}

func TestDriverCompare(t *testing.T) {
	t.Parallel()

	const remote = `msgid ""
msgstr ""

msgid "license_medium"
msgstr "Erkenning"

msgid "english text"
msgstr "Engelse tekst"
`

	tests := []struct {
		name  string
		dated bool
		force bool

		wantDownloads int
		wantDiffs     int
	}{
		{name: "metadata differ", wantDownloads: 1, wantDiffs: 1},
		{name: "metadata identical", dated: true},
		{name: "forced", dated: true, force: true, wantDownloads: 1, wantDiffs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, true)
			f.fake.SetFile("by-nd_40", "", []byte(remote))
			f.fake.SetFile("by-nd_40", "nl", []byte(remote))

			data := legalCode(t,
				translation(t, nlTarget, "license_medium", "Naamsvermelding", "english text", "Engelse tekst"))

			d, _, _ := newDriver(f, func() *localdata.Data {
				loaded := data()
				if tt.dated {
					r := loaded.Resources[0]
					r.Source.Catalog.Metadata.Set(po.KeyPOTCreationDate, po.FormatDate(created))
					r.Source.Catalog.Metadata.Set(po.KeyPORevisionDate, po.FormatDate(modified))
					r.Translations[0].Catalog.Metadata.Set(po.KeyPOTCreationDate, po.FormatDate(created))
					r.Translations[0].Catalog.Metadata.Set(po.KeyPORevisionDate, po.FormatDate(updated))
				}

				return loaded
			})

			require.NoError(t, d.Compare(context.Background(), tt.force, false))

			assert.Equal(t, tt.wantDownloads, f.fake.Count("DownloadResource"))
			assert.Equal(t, tt.wantDownloads, f.fake.Count("DownloadTranslation"))
			assert.Len(t, f.messages("warn"), tt.wantDiffs)
			assert.Empty(t, f.writer.paths)
		})
	}
}

func TestDriverPull(t *testing.T) {
	t.Parallel()

	const remote = `msgid ""
msgstr ""
"Language: de\n"

msgid "license_medium"
msgstr "Namensnennung"
`

	de := nlTarget
	de.LanguageCode, de.TransifexCode, de.Path = "de", "de", "legalcode/de/by-nd_40.po"

	t.Run("dry run", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, true)
		f.fake.SetFile("by-nd_40", "de", []byte(remote))

		d, source, _ := newDriver(f, legalCode(t, translation(t, de, "license_medium", "")))

		require.NoError(t, d.Pull(context.Background()))

		assert.Equal(t, 1, source.loads)
		assert.Equal(t, 1, f.fake.Count("DownloadTranslation"))
		assert.Empty(t, f.writer.paths)
	})

	t.Run("one failure does not stop the run", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, false)
		// Nothing is set for nl, so its download fails.
		f.fake.SetFile("by-nd_40", "de", []byte(remote))

		d, source, _ := newDriver(f, legalCode(t,
			translation(t, nlTarget, "license_medium", "Naamsvermelding"),
			translation(t, de, "license_medium", "")))

		require.NoError(t, d.Pull(context.Background()))

		// The second load comes from the normalization that follows a pull.
		assert.Equal(t, 2, source.loads)
		assert.Contains(t, f.writer.paths, de.Path)

		var failed int

		for _, msg := range f.messages("error") {
			if strings.HasSuffix(msg, "Processing failed") {
				failed++
			}
		}

		assert.GreaterOrEqual(t, failed, 1)
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, false)
		f.fake.SetFile("by-nd_40", "de", []byte(remote))

		d, _, _ := newDriver(f, legalCode(t, translation(t, de, "license_medium", "")))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, d.Pull(ctx), context.Canceled)
	})
}

func TestDriverPushTranslations(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)

	d, _, _ := newDriver(f, legalCode(t,
		translation(t, nlTarget, "license_medium", "Naamsvermelding")))

	require.NoError(t, d.PushTranslations(context.Background()))

	assert.Zero(t, f.fake.Count("UploadTranslation"))
	assert.Contains(t, f.messages("info"), nlTarget.String()+": Would upload translation to Transifex")
}

func TestDriverPushResource(t *testing.T) {
	t.Parallel()

	t.Run("uploaded with overwrite", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, false)
		f.fake.ResourceUploadResult = transifex.UploadResult{StringsCreated: 1, StringsUpdated: 1}

		d, _, _ := newDriver(f, legalCode(t))

		require.NoError(t, d.PushResource(context.Background(), "by-nd_40"))
		assert.Equal(t, 1, f.fake.Count("UploadResource"))
		assert.Equal(t, 1, f.stats.clears)
	})

	t.Run("no local data", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, false)
		d, _, _ := newDriver(f, legalCode(t))

		require.ErrorIs(t, d.PushResource(context.Background(), "by_40"), ErrResourceMissing)
		assert.Zero(t, f.fake.Count("UploadResource"))
	})
}
