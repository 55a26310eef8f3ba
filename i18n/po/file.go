// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package po

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o644
)

var errNoPath = errors.New("catalog has no path")

// Load reads and parses the catalog stored at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- catalog paths come from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	c.Path = path

	return c, nil
}

// Save writes the catalog to path, or to the path it was loaded from when
// path is empty. The file is replaced atomically.
func (c *Catalog) Save(path string) error {
	if path == "" {
		path = c.Path
	}

	if path == "" {
		return errNoPath
	}

	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}

	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(c.Marshal()); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("failed to write catalog %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close catalog %s: %w", path, err)
	}

	if err := os.Chmod(tmp.Name(), filePermissions); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace catalog %s: %w", path, err)
	}

	c.Path = path

	return nil
}
