// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package localdata builds the local translation corpus.

Two sources feed the corpus: the Deeds & UX locale directory, holding one
catalog per language, and the legal code manifest, listing each legal code
resource with its source and translation catalogs. Catalogs are read in
parallel; everything after loading is sequential.
*/
package localdata

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"codeberg.org/legaltools/txsync/i18n"
	"codeberg.org/legaltools/txsync/i18n/po"
)

// DomainLegalCode selects every legal code resource.
const DomainLegalCode = "legal_code"

const defaultConcurrency = 8

var errNoSourceCatalog = errors.New("no source language catalog")

// Translation is one catalog of a resource.
type Translation struct {
	// LanguageCode is the site language code.
	LanguageCode string
	// TransifexCode is the Transifex language code.
	TransifexCode string
	Path          string
	Catalog       *po.Catalog
}

// Resource is a resource with its source catalog and translations.
type Resource struct {
	Slug         string
	Name         string
	Source       Translation
	Translations []Translation
}

// Data is the local corpus, ordered with Deeds & UX first and the legal code
// resources in manifest order.
type Data struct {
	Resources []Resource
}

// Resource returns the resource with the given slug.
func (d *Data) Resource(slug string) (*Resource, bool) {
	for i := range d.Resources {
		if d.Resources[i].Slug == slug {
			return &d.Resources[i], true
		}
	}

	return nil, false
}

// Options configures a Loader.
type Options struct {
	LocaleDir    string
	Domain       string
	DeedsUXSlug  string
	DeedsUXName  string
	ManifestPath string

	SourceLanguage string
	Codes          *i18n.Codes

	// LimitDomain is empty, a resource slug or DomainLegalCode.
	LimitDomain string
	// LimitLanguage is empty or a site language code. Source catalogs are
	// always loaded.
	LimitLanguage string

	Concurrency int
}

// Loader reads the local corpus.
type Loader struct {
	opts   Options
	logger zerolog.Logger
}

// NewLoader returns a Loader for opts.
func NewLoader(opts Options, logger zerolog.Logger) *Loader {
	if opts.Codes == nil {
		opts.Codes = i18n.NewCodes(nil)
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}

	return &Loader{opts: opts, logger: logger}
}

// Load discovers and parses every catalog within the configured limits.
func (l *Loader) Load(ctx context.Context) (*Data, error) {
	l.logger.Debug().
		Str("limit_domain", l.opts.LimitDomain).
		Str("limit_language", l.opts.LimitLanguage).
		Msg("Loading local data")

	var data Data

	if l.wantDeedsUX() {
		r, ok, err := l.deedsUX()
		if err != nil {
			return nil, err
		}

		if ok {
			data.Resources = append(data.Resources, r)
		}
	}

	if l.wantLegalCode() {
		resources, err := l.legalCode()
		if err != nil {
			return nil, err
		}

		data.Resources = append(data.Resources, resources...)
	}

	if err := l.readCatalogs(ctx, &data); err != nil {
		return nil, err
	}

	l.logger.Info().
		Int("resources", len(data.Resources)).
		Msg("Loaded local data")

	return &data, nil
}

func (l *Loader) wantDeedsUX() bool {
	return l.opts.LimitDomain == "" || l.opts.LimitDomain == l.opts.DeedsUXSlug
}

func (l *Loader) wantLegalCode() bool {
	return l.opts.LimitDomain != l.opts.DeedsUXSlug
}

func (l *Loader) wantLanguage(code string) bool {
	return l.opts.LimitLanguage == "" || strings.EqualFold(l.opts.LimitLanguage, code)
}

func (l *Loader) translation(code, path string) (Translation, error) {
	txCode, err := l.opts.Codes.Transifex(code)
	if err != nil {
		return Translation{}, err
	}

	return Translation{LanguageCode: code, TransifexCode: txCode, Path: path}, nil
}

func (l *Loader) deedsUX() (Resource, bool, error) {
	locales, err := i18n.Locales(l.opts.LocaleDir, l.opts.Domain)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn().
			Str("path", l.opts.LocaleDir).
			Msg("Locale directory does not exist. Skipping Deeds & UX.")

		return Resource{}, false, nil
	}

	if err != nil {
		return Resource{}, false, err
	}

	r := Resource{Slug: l.opts.DeedsUXSlug, Name: l.opts.DeedsUXName}
	haveSource := false

	for _, locale := range locales {
		if locale.Code == l.opts.SourceLanguage {
			if r.Source, err = l.translation(locale.Code, locale.Path); err != nil {
				return Resource{}, false, err
			}

			haveSource = true

			continue
		}

		if !l.wantLanguage(locale.Code) {
			continue
		}

		t, err := l.translation(locale.Code, locale.Path)
		if err != nil {
			return Resource{}, false, err
		}

		r.Translations = append(r.Translations, t)
	}

	if !haveSource {
		return Resource{}, false, fmt.Errorf("%s: %w in %s", r.Name, errNoSourceCatalog, l.opts.LocaleDir)
	}

	return r, true, nil
}

func (l *Loader) legalCode() ([]Resource, error) {
	manifest, err := ReadManifest(l.opts.ManifestPath)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn().
			Str("path", l.opts.ManifestPath).
			Msg("Legal code manifest does not exist. Skipping legal code.")

		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	var resources []Resource

	for _, m := range manifest.Resources {
		if l.opts.LimitDomain != "" && l.opts.LimitDomain != DomainLegalCode && l.opts.LimitDomain != m.Slug {
			continue
		}

		source, err := l.translation(l.opts.SourceLanguage, m.Source)
		if err != nil {
			return nil, err
		}

		r := Resource{Slug: m.Slug, Name: m.Name, Source: source}

		for _, mt := range m.Translations {
			code := strings.ToLower(strings.ReplaceAll(mt.Language, "_", "-"))

			if code == l.opts.SourceLanguage || !l.wantLanguage(code) {
				continue
			}

			t, err := l.translation(code, mt.Path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", m.Slug, err)
			}

			r.Translations = append(r.Translations, t)
		}

		resources = append(resources, r)
	}

	return resources, nil
}

// readCatalogs parses every catalog of data concurrently.
func (l *Loader) readCatalogs(ctx context.Context, data *Data) error {
	var targets []*Translation

	for i := range data.Resources {
		r := &data.Resources[i]
		targets = append(targets, &r.Source)

		for j := range r.Translations {
			targets = append(targets, &r.Translations[j])
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)

	for _, t := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			c, err := po.Load(t.Path)
			if err != nil {
				return err
			}

			t.Catalog = c

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to read catalogs: %w", err)
	}

	return nil
}
