// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
txsync keeps the gettext catalogs of the legal tools data repository
consistent with their Transifex projects.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"codeberg.org/legaltools/txsync/config"
	"codeberg.org/legaltools/txsync/core/audit"
	"codeberg.org/legaltools/txsync/core/catalogcache"
	"codeberg.org/legaltools/txsync/core/localdata"
	"codeberg.org/legaltools/txsync/core/reconcile"
	"codeberg.org/legaltools/txsync/core/repo"
	"codeberg.org/legaltools/txsync/core/stats"
	"codeberg.org/legaltools/txsync/core/transifex"
	"codeberg.org/legaltools/txsync/i18n"
)

// Exit codes.
const (
	exitFailure = 1
	exitUsage   = 2
)

// main is the entry point of the application.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stderr)

	stop()

	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		os.Exit(exitUsage)
	default:
		log.Error().Err(err).Msg("txsync failed")
		os.Exit(exitFailure)
	}
}

var errUsage = errors.New("invalid command line")

// run parses args, loads the configuration and executes one command.
func run(ctx context.Context, args []string, stderr io.Writer) error {
	audit.SetDefaultLogger()

	cl, err := config.ParseCommandLine(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}

		fmt.Fprintf(stderr, "txsync: %v\n", err)
		config.Usage(stderr)

		return fmt.Errorf("%w: %w", errUsage, err)
	}

	cfg := &config.Global

	if err := cfg.LoadConfig(cl.ConfigFile); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cl.Apply(cfg)

	driver, err := newDriver(cfg, cl)
	if err != nil {
		return err
	}

	log.Info().
		Str("command", cl.Command).
		Bool("dry_run", cfg.Sync.DryRun).
		Str("domain", cl.Domain).
		Str("language", cl.Language).
		Msg("Starting")

	switch cl.Command {
	case config.CommandCheck:
		return driver.Check(ctx)
	case config.CommandNormalize:
		return driver.Normalize(ctx)
	case config.CommandCompare:
		return driver.Compare(ctx, cl.Force, cl.ColorDiff)
	case config.CommandPull:
		return driver.Pull(ctx)
	case config.CommandPushTranslation:
		return driver.PushTranslations(ctx)
	case config.CommandPushResource:
		return driver.PushResource(ctx, cl.Domain)
	}

	return fmt.Errorf("%w: unhandled command %q", errUsage, cl.Command)
}

// newDriver wires the Transifex client, statistics cache, local data loader
// and repository checker described by cfg.
func newDriver(cfg *config.Config, cl config.CommandLine) (*reconcile.Driver, error) {
	logger := log.With().Str("sys", "txsync").Logger()

	codes := i18n.NewCodes(cfg.Language.Overrides)

	sourceCode, err := codes.Transifex(cfg.Language.Source)
	if err != nil {
		return nil, fmt.Errorf("invalid source language: %w", err)
	}

	client := transifex.NewHTTPClient(transifex.Options{
		BaseURL:           cfg.Transifex.BaseURL,
		Token:             cfg.Transifex.APIToken,
		Organization:      cfg.Transifex.OrganizationSlug,
		Timeout:           cfg.Transifex.Timeout,
		RequestsPerSecond: cfg.Transifex.RequestsPerSecond,
		Burst:             cfg.Transifex.Burst,
		PollInterval:      cfg.Transifex.PollInterval,
		PollTimeout:       cfg.Transifex.PollTimeout,
	})

	var (
		projects []reconcile.Project
		scopes   []stats.Scope
	)

	for _, role := range []string{"deeds_ux", "legal_code"} {
		p := cfg.Projects()[role]

		projects = append(projects, reconcile.Project{Slug: p.Slug, TeamID: p.TeamID, Resources: p.ResourceSlugs})
		scopes = append(scopes, stats.Scope{Project: p.Slug, Resources: p.ResourceSlugs})
	}

	var downloads *catalogcache.Cache

	if cfg.Transifex.DownloadCacheSize > 0 {
		if downloads, err = catalogcache.New(cfg.Transifex.DownloadCacheSize); err != nil {
			return nil, fmt.Errorf("failed to create download cache: %w", err)
		}
	}

	helper := reconcile.New(client, stats.New(client, logger, scopes...), reconcile.Options{
		Organization:   cfg.Transifex.OrganizationSlug,
		SourceLanguage: sourceCode,
		DryRun:         cfg.Sync.DryRun,
		Projects:       projects,
		Downloads:      downloads,
	}, logger)

	loader := localdata.NewLoader(localdata.Options{
		LocaleDir:      cfg.Data.LocaleDir,
		Domain:         cfg.Data.DeedsUX.Domain,
		DeedsUXSlug:    cfg.Data.DeedsUX.ResourceSlug,
		DeedsUXName:    cfg.Data.DeedsUX.ResourceName,
		ManifestPath:   cfg.Data.LegalCodeManifest,
		SourceLanguage: cfg.Language.Source,
		Codes:          codes,
		LimitDomain:    cl.Domain,
		LimitLanguage:  cl.Language,
	}, logger)

	checker := repo.Checker{Dir: cfg.Data.RepositoryDir, Logger: logger}

	return reconcile.NewDriver(helper, loader, checker), nil
}
