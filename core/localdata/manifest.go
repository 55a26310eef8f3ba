// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package localdata

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed manifest.schema.json
var manifestSchemaJSON string

const manifestSchemaURL = "manifest.schema.json"

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error

	errInvalidManifest   = errors.New("invalid legal code manifest")
	errDuplicateResource = errors.New("resource listed more than once")
)

// Manifest lists the legal code resources and their translation catalogs.
//
// Relative paths are resolved against the directory holding the manifest.
type Manifest struct {
	Resources []ManifestResource `json:"resources"`
}

// ManifestResource is one legal code resource.
type ManifestResource struct {
	Slug         string                `json:"slug"`
	Name         string                `json:"name"`
	Source       string                `json:"source"`
	Translations []ManifestTranslation `json:"translations"`
}

// ManifestTranslation is one translation catalog of a resource.
type ManifestTranslation struct {
	Language string `json:"language"`
	Path     string `json:"path"`
}

// ReadManifest reads and validates the YAML manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)

	for i := range manifest.Resources {
		r := &manifest.Resources[i]
		r.Source = resolve(dir, r.Source)

		for j := range r.Translations {
			r.Translations[j].Path = resolve(dir, r.Translations[j].Path)
		}
	}

	return manifest, nil
}

// ParseManifest decodes YAML manifest content and validates it against the
// embedded schema.
func ParseManifest(data []byte) (*Manifest, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidManifest, err)
	}

	value, err := decodeStrictJSON(jsonData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidManifest, err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidManifest, err)
	}

	var manifest Manifest
	if err := json.Unmarshal(jsonData, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidManifest, err)
	}

	seen := make(map[string]bool, len(manifest.Resources))

	for _, r := range manifest.Resources {
		if seen[r.Slug] {
			return nil, fmt.Errorf("%w: %w: %s", errInvalidManifest, errDuplicateResource, r.Slug)
		}

		seen[r.Slug] = true
	}

	return &manifest, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource(manifestSchemaURL, strings.NewReader(manifestSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)

			return
		}

		compiledSchema, compiledSchemaErr = compiler.Compile(manifestSchemaURL)
	})

	return compiledSchema, compiledSchemaErr
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errors.New("manifest is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("manifest contains trailing content")
	}

	return value, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(dir, path)
}
