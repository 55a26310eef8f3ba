// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

//go:build integration

/*
To run these tests, specify `-tags=integration` when running `go test` and
set TXSYNC_TEST_TOKEN to a Transifex API token.
*/
package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/legaltools/txsync/core/transifex"
)

const integrationTimeout = 2 * time.Minute

var testToken = os.Getenv("TXSYNC_TEST_TOKEN")

func requireToken(t *testing.T) {
	t.Helper()

	if testToken == "" {
		t.Skip("TXSYNC_TEST_TOKEN is not set")
	}
}

func TestTransifexReadOnly(t *testing.T) {
	requireToken(t)

	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	defer cancel()

	client := transifex.NewHTTPClient(transifex.Options{
		BaseURL:           "https://rest.api.transifex.com",
		Token:             testToken,
		Organization:      "creativecommons",
		Timeout:           time.Minute,
		RequestsPerSecond: 2,
	})

	org, err := client.Organization(ctx)
	require.NoError(t, err)
	assert.Equal(t, "creativecommons", org.Slug)

	resources, err := client.Resources(ctx, "cc-legal-code")
	require.NoError(t, err)
	assert.NotEmpty(t, resources)

	lang, err := client.Language(ctx, "nl")
	require.NoError(t, err)
	assert.Equal(t, "nl", lang.Code)
}

// TestCheckCommand runs the check command in dry-run mode against an empty
// data repository.
func TestCheckCommand(t *testing.T) {
	requireToken(t)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "locale"), 0o755))

	t.Setenv("TXSYNC_TRANSIFEX_API_TOKEN", testToken)
	t.Setenv("TXSYNC_DATA_REPOSITORY_DIR", dir)
	t.Setenv("TXSYNC_LOG_LEVEL", "debug")

	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	defer cancel()

	var stderr bytes.Buffer

	require.NoError(t, run(ctx, []string{"check", "-dryrun"}, &stderr))
}
