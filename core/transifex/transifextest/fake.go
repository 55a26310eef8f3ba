// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package transifextest provides an in-memory transifex.Client.
package transifextest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"codeberg.org/legaltools/txsync/core/transifex"
)

// Call records one invocation of a Fake method.
type Call struct {
	Method string
	Args   []string
}

// Upload records the content passed to an upload method.
type Upload struct {
	Resource string
	Code     string
	Content  []byte
}

// Fake is an in-memory transifex.Client.
//
// Exported fields may be set directly before use. Errors maps a method name to
// the error it returns.
type Fake struct {
	mu sync.Mutex

	Org         transifex.Organization
	ProjectList []transifex.Project

	resources map[string][]transifex.Resource
	stats     map[string][]transifex.LanguageStats
	files     map[string][]byte
	units     map[string][]transifex.TranslationUnit

	Languages map[string]transifex.Language

	ResourceUploadResult    transifex.UploadResult
	TranslationUploadResult transifex.UploadResult

	Errors map[string]error

	// SaveErrors maps a unit ID to the error SaveTranslation returns for it.
	SaveErrors map[string]error

	calls   []Call
	uploads []Upload
	saved   []transifex.TranslationUnit
}

var _ transifex.Client = (*Fake)(nil)

// New returns an empty Fake for the organization.
func New(organization string) *Fake {
	return &Fake{
		Org:        transifex.Organization{ID: "o:" + organization, Slug: organization, Name: organization},
		resources:  make(map[string][]transifex.Resource),
		stats:      make(map[string][]transifex.LanguageStats),
		files:      make(map[string][]byte),
		units:      make(map[string][]transifex.TranslationUnit),
		Languages:  make(map[string]transifex.Language),
		Errors:     make(map[string]error),
		SaveErrors: make(map[string]error),
	}
}

func key(resource, code string) string {
	return resource + "/" + code
}

// AddResource adds a resource to a project.
func (f *Fake) AddResource(project string, r transifex.Resource) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.I18nType == "" {
		r.I18nType = transifex.I18nFormatPO
	}

	f.resources[project] = append(f.resources[project], r)
}

// AddLanguageStats adds language statistics to a project.
func (f *Fake) AddLanguageStats(project string, s transifex.LanguageStats) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stats[project] = append(f.stats[project], s)
}

// SetFile sets the content downloaded for a resource language. An empty
// code sets the source catalog.
func (f *Fake) SetFile(resource, code string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.files[key(resource, code)] = content
}

// SetUnits sets the translation units of a resource language.
func (f *Fake) SetUnits(resource, code string, units ...transifex.TranslationUnit) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.units[key(resource, code)] = units
}

// Units returns the current translation units of a resource language.
func (f *Fake) Units(resource, code string) []transifex.TranslationUnit {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.units[key(resource, code)])
}

// Calls returns the recorded calls of method, or every call if method is empty.
func (f *Fake) Calls(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	var calls []Call

	for _, c := range f.calls {
		if method == "" || c.Method == method {
			calls = append(calls, c)
		}
	}

	return calls
}

// Count returns the number of calls of method.
func (f *Fake) Count(method string) int {
	return len(f.Calls(method))
}

// Uploads returns the recorded uploads.
func (f *Fake) Uploads() []Upload {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.uploads)
}

// Saved returns the units passed to SaveTranslation that were stored.
func (f *Fake) Saved() []transifex.TranslationUnit {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.saved)
}

// record logs a call and returns the injected error for method, if any.
func (f *Fake) record(method string, args ...string) error {
	f.calls = append(f.calls, Call{Method: method, Args: args})

	return f.Errors[method]
}

func (f *Fake) Organization(context.Context) (transifex.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Organization"); err != nil {
		return transifex.Organization{}, err
	}

	return f.Org, nil
}

func (f *Fake) Projects(context.Context) ([]transifex.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Projects"); err != nil {
		return nil, err
	}

	return slices.Clone(f.ProjectList), nil
}

func (f *Fake) Resources(_ context.Context, project string) ([]transifex.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Resources", project); err != nil {
		return nil, err
	}

	return slices.Clone(f.resources[project]), nil
}

func (f *Fake) findResource(project, resource string) (transifex.Resource, bool) {
	for _, r := range f.resources[project] {
		if r.Slug == resource {
			return r, true
		}
	}

	return transifex.Resource{}, false
}

func (f *Fake) Resource(_ context.Context, project, resource string) (transifex.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Resource", project, resource); err != nil {
		return transifex.Resource{}, err
	}

	r, ok := f.findResource(project, resource)
	if !ok {
		return transifex.Resource{}, fmt.Errorf("resource %s: %w", resource, transifex.ErrNotFound)
	}

	return r, nil
}

func (f *Fake) CreateResource(_ context.Context, project, resource, name string) (transifex.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("CreateResource", project, resource, name); err != nil {
		return transifex.Resource{}, err
	}

	r := transifex.Resource{
		ID:       "o:" + f.Org.Slug + ":p:" + project + ":r:" + resource,
		Slug:     resource,
		Name:     name,
		I18nType: transifex.I18nFormatPO,
	}
	f.resources[project] = append(f.resources[project], r)

	return r, nil
}

func (f *Fake) ResourceLanguageStats(_ context.Context, project string) ([]transifex.LanguageStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("ResourceLanguageStats", project); err != nil {
		return nil, err
	}

	return slices.Clone(f.stats[project]), nil
}

func (f *Fake) Language(_ context.Context, code string) (transifex.Language, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Language", code); err != nil {
		return transifex.Language{}, err
	}

	l, ok := f.Languages[code]
	if !ok {
		return transifex.Language{}, fmt.Errorf("language %s: %w", code, transifex.ErrNotFound)
	}

	return l, nil
}

func (f *Fake) download(method, resource, code string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(method, resource, code); err != nil {
		return nil, err
	}

	content, ok := f.files[key(resource, code)]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", key(resource, code), transifex.ErrNotFound)
	}

	return slices.Clone(content), nil
}

func (f *Fake) DownloadResource(_ context.Context, _, resource string) ([]byte, error) {
	return f.download("DownloadResource", resource, "")
}

func (f *Fake) DownloadTranslation(_ context.Context, _, resource, code string) ([]byte, error) {
	return f.download("DownloadTranslation", resource, code)
}

func (f *Fake) UploadResource(_ context.Context, _, resource string, content []byte) (transifex.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("UploadResource", resource); err != nil {
		return transifex.UploadResult{}, err
	}

	f.uploads = append(f.uploads, Upload{Resource: resource, Content: slices.Clone(content)})

	return f.ResourceUploadResult, nil
}

func (f *Fake) UploadTranslation(
	_ context.Context,
	_, resource, code string,
	content []byte,
) (transifex.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("UploadTranslation", resource, code); err != nil {
		return transifex.UploadResult{}, err
	}

	f.uploads = append(f.uploads, Upload{Resource: resource, Code: code, Content: slices.Clone(content)})

	return f.TranslationUploadResult, nil
}

func (f *Fake) ResourceTranslations(_ context.Context, _, resource, code string) ([]transifex.TranslationUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("ResourceTranslations", resource, code); err != nil {
		return nil, err
	}

	return slices.Clone(f.units[key(resource, code)]), nil
}

func (f *Fake) SaveTranslation(_ context.Context, unit transifex.TranslationUnit) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("SaveTranslation", unit.ID, unit.String); err != nil {
		return err
	}

	if err := f.SaveErrors[unit.ID]; err != nil {
		return err
	}

	for k, units := range f.units {
		for i := range units {
			if units[i].ID == unit.ID {
				f.units[k][i].String = unit.String
			}
		}
	}

	f.saved = append(f.saved, unit)

	return nil
}
