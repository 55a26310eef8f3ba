// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package repo inspects the git working tree that holds the translation data.
package repo

import (
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/rs/zerolog"
)

// Repository is an opened data repository.
type Repository struct {
	dir  string
	repo *git.Repository
}

// Open opens the repository containing dir, searching parent directories for
// the .git directory.
func Open(dir string) (*Repository, error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open data repository %s: %w", dir, err)
	}

	return &Repository{dir: dir, repo: r}, nil
}

// Dirty returns the sorted paths with uncommitted changes, including
// untracked files.
func (r *Repository) Dirty() ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree of %s: %w", r.dir, err)
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get status of %s: %w", r.dir, err)
	}

	if status.IsClean() {
		return nil, nil
	}

	paths := make([]string, 0, len(status))

	for path, s := range status {
		if s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
			paths = append(paths, path)
		}
	}

	sort.Strings(paths)

	return paths, nil
}

// Checker warns when the data repository has uncommitted changes.
type Checker struct {
	Dir    string
	Logger zerolog.Logger
}

// CheckClean reports whether the repository is clean. A dirty repository,
// or one that cannot be inspected, is logged as a warning.
func (c Checker) CheckClean() bool {
	r, err := Open(c.Dir)
	if err != nil {
		c.Logger.Warn().Err(err).Msg("Unable to check data repository")

		return false
	}

	dirty, err := r.Dirty()
	if err != nil {
		c.Logger.Warn().Err(err).Msg("Unable to check data repository")

		return false
	}

	if len(dirty) > 0 {
		c.Logger.Warn().
			Str("path", c.Dir).
			Strs("dirty", dirty).
			Msg("Repository is dirty.")

		return false
	}

	return true
}
