// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package transifex talks to the Transifex REST API (version 3, JSON:API).

Every remote operation is an explicit method on Client; nothing is fetched
implicitly. HTTPClient is the production implementation and
transifextest.Fake an in-memory one for tests.
*/
package transifex

import (
	"context"
	"errors"
	"time"
)

// I18nFormatPO is the Transifex i18n format of gettext catalogs.
const I18nFormatPO = "PO"

var (
	// ErrNotFound is wrapped by errors for objects that do not exist remotely.
	ErrNotFound = errors.New("object not found")

	// ErrUnsupportedFormat is returned when a resource is not a PO resource.
	ErrUnsupportedFormat = errors.New("resource file format is not PO")

	// ErrJobFailed is returned when an asynchronous upload or download fails.
	ErrJobFailed = errors.New("asynchronous job failed")

	// ErrJobTimeout is returned when an asynchronous job does not finish in time.
	ErrJobTimeout = errors.New("asynchronous job did not finish in time")
)

// Client is the set of remote operations used by the reconciliation engine.
//
// Projects and resources are addressed by slug; language by Transifex code.
type Client interface {
	Organization(ctx context.Context) (Organization, error)
	Projects(ctx context.Context) ([]Project, error)

	// Resources lists every resource of a project, following all pages.
	Resources(ctx context.Context, project string) ([]Resource, error)
	Resource(ctx context.Context, project, resource string) (Resource, error)
	CreateResource(ctx context.Context, project, resource, name string) (Resource, error)

	// ResourceLanguageStats lists the per-language statistics of every
	// resource of a project, following all pages.
	ResourceLanguageStats(ctx context.Context, project string) ([]LanguageStats, error)
	Language(ctx context.Context, code string) (Language, error)

	// DownloadResource returns the source catalog of a resource.
	DownloadResource(ctx context.Context, project, resource string) ([]byte, error)
	// DownloadTranslation returns the catalog of one language of a resource.
	DownloadTranslation(ctx context.Context, project, resource, code string) ([]byte, error)

	UploadResource(ctx context.Context, project, resource string, content []byte) (UploadResult, error)
	UploadTranslation(ctx context.Context, project, resource, code string, content []byte) (UploadResult, error)

	// ResourceTranslations lists the translation units of one language of a
	// resource together with their source strings.
	ResourceTranslations(ctx context.Context, project, resource, code string) ([]TranslationUnit, error)
	// SaveTranslation stores unit.String as the translation of unit.
	SaveTranslation(ctx context.Context, unit TranslationUnit) error
}

// Organization is a Transifex organization.
type Organization struct {
	ID   string
	Slug string
	Name string
}

// Project is a Transifex project.
type Project struct {
	ID           string
	Slug         string
	Name         string
	SourceLocale string
}

// Resource is a Transifex resource together with its statistics.
type Resource struct {
	ID          string
	Slug        string
	Name        string
	I18nType    string
	StringCount int
	WordCount   int
	Created     time.Time
	Modified    time.Time
}

// LanguageStats are the statistics of one language of one resource.
type LanguageStats struct {
	ID                    string
	ResourceSlug          string
	LanguageCode          string
	TotalStrings          int
	TranslatedStrings     int
	UntranslatedStrings   int
	ReviewedStrings       int
	LastUpdate            time.Time
	LastTranslationUpdate time.Time
}

// Language is a language known to Transifex.
type Language struct {
	ID   string
	Code string
	Name string
	RTL  bool
}

// TranslationUnit is the remote counterpart of a catalog entry in one language.
type TranslationUnit struct {
	ID               string
	ResourceStringID string
	Key              string
	Context          string
	// SourceString is the msgid the unit translates.
	SourceString string
	// String is the translation, empty when untranslated.
	String string
}

// UploadResult reports the outcome of an asynchronous upload.
type UploadResult struct {
	StringsCreated      int
	StringsUpdated      int
	StringsSkipped      int
	StringsDeleted      int
	TranslationsCreated int
	TranslationsUpdated int
	TranslationsSkipped int
}
