// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package transifex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

func (c *HTTPClient) organizationID() string {
	return "o:" + c.opts.Organization
}

func (c *HTTPClient) projectID(project string) string {
	return c.organizationID() + ":p:" + project
}

func (c *HTTPClient) resourceID(project, resource string) string {
	return c.projectID(project) + ":r:" + resource
}

func languageID(code string) string {
	return "l:" + code
}

// lastSegment returns the slug or code at the end of a compound Transifex ID.
func lastSegment(id string) string {
	return id[strings.LastIndex(id, ":")+1:]
}

func relationship(kind, id string) map[string]any {
	return map[string]any{
		"data": map[string]string{"type": kind, "id": id},
	}
}

func document(kind string, attributes, relationships map[string]any) map[string]any {
	data := map[string]any{"type": kind, "attributes": attributes}
	if relationships != nil {
		data["relationships"] = relationships
	}

	return map[string]any{"data": data}
}

func parseTime(r gjson.Result) time.Time {
	t, err := time.Parse(time.RFC3339, r.String())
	if err != nil {
		return time.Time{}
	}

	return t.UTC()
}

// Organization returns the configured organization.
func (c *HTTPClient) Organization(ctx context.Context) (Organization, error) {
	resp, err := c.do(ctx, requestOptions{
		Method: http.MethodGet,
		Path:   "organizations/" + c.organizationID(),
	})
	if err != nil {
		return Organization{}, err
	}

	data := gjson.GetBytes(resp.Body, "data")

	return Organization{
		ID:   data.Get("id").String(),
		Slug: data.Get("attributes.slug").String(),
		Name: data.Get("attributes.name").String(),
	}, nil
}

// Projects lists the projects of the organization.
func (c *HTTPClient) Projects(ctx context.Context) ([]Project, error) {
	data, _, err := c.list(ctx, "projects", url.Values{
		"filter[organization]": {c.organizationID()},
	})
	if err != nil {
		return nil, err
	}

	projects := make([]Project, 0, len(data))

	for _, item := range data {
		projects = append(projects, Project{
			ID:           item.Get("id").String(),
			Slug:         item.Get("attributes.slug").String(),
			Name:         item.Get("attributes.name").String(),
			SourceLocale: lastSegment(item.Get("relationships.source_language.data.id").String()),
		})
	}

	return projects, nil
}

func parseResource(item gjson.Result) Resource {
	attributes := item.Get("attributes")

	return Resource{
		ID:          item.Get("id").String(),
		Slug:        attributes.Get("slug").String(),
		Name:        attributes.Get("name").String(),
		I18nType:    attributes.Get("i18n_type").String(),
		StringCount: int(attributes.Get("string_count").Int()),
		WordCount:   int(attributes.Get("word_count").Int()),
		Created:     parseTime(attributes.Get("datetime_created")),
		Modified:    parseTime(attributes.Get("datetime_modified")),
	}
}

// Resources lists every resource of a project.
func (c *HTTPClient) Resources(ctx context.Context, project string) ([]Resource, error) {
	data, _, err := c.list(ctx, "resources", url.Values{
		"filter[project]": {c.projectID(project)},
	})
	if err != nil {
		return nil, err
	}

	resources := make([]Resource, 0, len(data))
	for _, item := range data {
		resources = append(resources, parseResource(item))
	}

	return resources, nil
}

// Resource returns one resource of a project.
func (c *HTTPClient) Resource(ctx context.Context, project, resource string) (Resource, error) {
	resp, err := c.do(ctx, requestOptions{
		Method: http.MethodGet,
		Path:   "resources/" + c.resourceID(project, resource),
	})
	if err != nil {
		return Resource{}, err
	}

	return parseResource(gjson.GetBytes(resp.Body, "data")), nil
}

// CreateResource creates a PO resource in a project.
func (c *HTTPClient) CreateResource(ctx context.Context, project, resource, name string) (Resource, error) {
	resp, err := c.do(ctx, requestOptions{
		Method: http.MethodPost,
		Path:   "resources",
		Payload: document("resources",
			map[string]any{"name": name, "slug": resource},
			map[string]any{
				"i18n_format": relationship("i18n_formats", I18nFormatPO),
				"project":     relationship("projects", c.projectID(project)),
			},
		),
	})
	if err != nil {
		return Resource{}, err
	}

	return parseResource(gjson.GetBytes(resp.Body, "data")), nil
}

// ResourceLanguageStats lists the language statistics of every resource of a project.
func (c *HTTPClient) ResourceLanguageStats(ctx context.Context, project string) ([]LanguageStats, error) {
	data, _, err := c.list(ctx, "resource_language_stats", url.Values{
		"filter[project]": {c.projectID(project)},
	})
	if err != nil {
		return nil, err
	}

	stats := make([]LanguageStats, 0, len(data))

	for _, item := range data {
		attributes := item.Get("attributes")

		stats = append(stats, LanguageStats{
			ID:                    item.Get("id").String(),
			ResourceSlug:          lastSegment(item.Get("relationships.resource.data.id").String()),
			LanguageCode:          lastSegment(item.Get("relationships.language.data.id").String()),
			TotalStrings:          int(attributes.Get("total_strings").Int()),
			TranslatedStrings:     int(attributes.Get("translated_strings").Int()),
			UntranslatedStrings:   int(attributes.Get("untranslated_strings").Int()),
			ReviewedStrings:       int(attributes.Get("reviewed_strings").Int()),
			LastUpdate:            parseTime(attributes.Get("last_update")),
			LastTranslationUpdate: parseTime(attributes.Get("last_translation_update")),
		})
	}

	return stats, nil
}

// Language returns a language by Transifex code.
func (c *HTTPClient) Language(ctx context.Context, code string) (Language, error) {
	resp, err := c.do(ctx, requestOptions{
		Method: http.MethodGet,
		Path:   "languages/" + languageID(code),
	})
	if err != nil {
		return Language{}, err
	}

	data := gjson.GetBytes(resp.Body, "data")

	return Language{
		ID:   data.Get("id").String(),
		Code: data.Get("attributes.code").String(),
		Name: data.Get("attributes.name").String(),
		RTL:  data.Get("attributes.rtl").Bool(),
	}, nil
}

// checkFormat refuses resources that are not gettext catalogs.
func (c *HTTPClient) checkFormat(ctx context.Context, project, resource string) error {
	r, err := c.Resource(ctx, project, resource)
	if err != nil {
		return err
	}

	if r.I18nType != "" && r.I18nType != I18nFormatPO {
		return fmt.Errorf("%w: %s is %s", ErrUnsupportedFormat, resource, r.I18nType)
	}

	return nil
}

// DownloadResource returns the source catalog of a resource.
func (c *HTTPClient) DownloadResource(ctx context.Context, project, resource string) ([]byte, error) {
	if err := c.checkFormat(ctx, project, resource); err != nil {
		return nil, err
	}

	return c.download(ctx, "resource_strings_async_downloads",
		map[string]any{"content_encoding": "text", "file_type": "default"},
		map[string]any{"resource": relationship("resources", c.resourceID(project, resource))},
	)
}

// DownloadTranslation returns the translated catalog of one language of a resource.
func (c *HTTPClient) DownloadTranslation(ctx context.Context, project, resource, code string) ([]byte, error) {
	if err := c.checkFormat(ctx, project, resource); err != nil {
		return nil, err
	}

	return c.download(ctx, "resource_translations_async_downloads",
		map[string]any{"content_encoding": "text", "file_type": "default", "mode": "translator"},
		map[string]any{
			"resource": relationship("resources", c.resourceID(project, resource)),
			"language": relationship("languages", languageID(code)),
		},
	)
}

// UploadResource replaces the source strings of a resource.
func (c *HTTPClient) UploadResource(ctx context.Context, project, resource string, content []byte) (UploadResult, error) {
	return c.upload(ctx, "resource_strings_async_uploads",
		map[string]any{"content": string(content), "content_encoding": "text"},
		map[string]any{"resource": relationship("resources", c.resourceID(project, resource))},
	)
}

// UploadTranslation uploads the translations of one language of a resource.
func (c *HTTPClient) UploadTranslation(
	ctx context.Context,
	project, resource, code string,
	content []byte,
) (UploadResult, error) {
	return c.upload(ctx, "resource_translations_async_uploads",
		map[string]any{"content": string(content), "content_encoding": "text", "file_type": "default"},
		map[string]any{
			"resource": relationship("resources", c.resourceID(project, resource)),
			"language": relationship("languages", languageID(code)),
		},
	)
}

// ResourceTranslations lists the translation units of one language of a resource.
func (c *HTTPClient) ResourceTranslations(ctx context.Context, project, resource, code string) ([]TranslationUnit, error) {
	data, included, err := c.list(ctx, "resource_translations", url.Values{
		"filter[resource]": {c.resourceID(project, resource)},
		"filter[language]": {languageID(code)},
		"include":          {"resource_string"},
	})
	if err != nil {
		return nil, err
	}

	sources := make(map[string]gjson.Result, len(included))

	for _, item := range included {
		if item.Get("type").String() == "resource_strings" {
			sources[item.Get("id").String()] = item.Get("attributes")
		}
	}

	units := make([]TranslationUnit, 0, len(data))

	for _, item := range data {
		stringID := item.Get("relationships.resource_string.data.id").String()
		source := sources[stringID]

		units = append(units, TranslationUnit{
			ID:               item.Get("id").String(),
			ResourceStringID: stringID,
			Key:              source.Get("key").String(),
			Context:          source.Get("context").String(),
			SourceString:     source.Get("strings.other").String(),
			String:           item.Get("attributes.strings.other").String(),
		})
	}

	return units, nil
}

// SaveTranslation stores unit.String as the translation of unit.
func (c *HTTPClient) SaveTranslation(ctx context.Context, unit TranslationUnit) error {
	payload := document("resource_translations",
		map[string]any{"strings": map[string]string{"other": unit.String}},
		nil,
	)
	payload["data"].(map[string]any)["id"] = unit.ID

	_, err := c.do(ctx, requestOptions{
		Method:  http.MethodPatch,
		Path:    "resource_translations/" + unit.ID,
		Payload: payload,
	})

	return err
}
