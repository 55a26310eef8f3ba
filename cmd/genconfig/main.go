// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

// genconfig writes the example configuration files under deploy/.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"codeberg.org/legaltools/txsync/config"
	"codeberg.org/legaltools/txsync/core/audit"
)

const (
	envOutputFile  = "deploy/.env.example"
	yamlOutputFile = "deploy/txsync.yaml.example"
	filePerm       = 0o644
	dirPerm        = 0o755

	envPrefix        = "TXSYNC"
	placeholderToken = "1/0123456789abcdef"

	envFileHeader = `# txsync configuration (via environment variables)
#
# Copy this file to .env and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.

`
	// envFormat is an envconfig usage template listing every variable.
	envFormat = `{{range .}}# {{usage_key .}}=
{{end}}`

	yamlFileHeader = `# txsync configuration (via configuration file)
#
# Copy this file to txsync.yaml and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.
`
	tokenYAMLComment = `  # -- Transifex API token
  # ref: https://developers.transifex.com/reference/api-authentication`
)

func main() {
	audit.SetDefaultLogger()

	if err := os.MkdirAll(filepath.Dir(envOutputFile), dirPerm); err != nil {
		log.Fatal().Err(err).Msg("Failed to create output directory")
	}

	generateEnvFile()
	generateYAMLFile()
}

// generateEnvFile generates the deploy/.env.example file.
func generateEnvFile() {
	cfg := &config.Config{}
	cfg.SetDefaults()

	var sb strings.Builder
	sb.WriteString(envFileHeader)

	if err := envconfig.Usagef(envPrefix, cfg, &sb, envFormat); err != nil {
		log.Fatal().Err(err).Msg("Failed to list environment variables")
	}

	content := strings.Replace(sb.String(),
		"# "+envPrefix+"_TRANSIFEX_API_TOKEN=",
		envPrefix+"_TRANSIFEX_API_TOKEN=\""+placeholderToken+"\"", 1)

	if err := os.WriteFile(envOutputFile, []byte(content), filePerm); err != nil {
		log.Fatal().Err(err).Str("path", envOutputFile).Msg("Failed to write .env.example file")
	}

	log.Info().Str("path", envOutputFile).Msg("Successfully generated .env.example")
}

// generateYAMLFile generates the deploy/txsync.yaml.example file.
func generateYAMLFile() {
	cfg := &config.Config{}
	cfg.SetDefaults()

	cfg.Transifex.APIToken = placeholderToken

	var yamlContent strings.Builder

	encoderOpts := []yaml.EncodeOption{
		config.GetDurationEncoderOption(),
		yaml.Indent(2),
	}
	if err := yaml.NewEncoder(&yamlContent, encoderOpts...).Encode(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal config to YAML")
	}

	var sb strings.Builder
	sb.WriteString(yamlFileHeader)

	// Process the marshaled YAML line-by-line to create a clean template.
	for line := range strings.SplitSeq(yamlContent.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Top-level keys (e.g., "transifex:") are treated as section headers.
		if !strings.HasPrefix(line, " ") {
			fmt.Fprintf(&sb, "\n%s\n", line)

			continue
		}

		// Keep the token uncommented.
		if strings.HasPrefix(trimmed, "apiToken:") {
			sb.WriteString(tokenYAMLComment + "\n")
			sb.WriteString(line + "\n")

			continue
		}

		indentSize := len(line) - len(strings.TrimLeft(line, " "))
		fmt.Fprintf(&sb, "%s# %s\n", strings.Repeat(" ", indentSize), trimmed)
	}

	if err := os.WriteFile(yamlOutputFile, []byte(sb.String()), filePerm); err != nil {
		log.Fatal().Err(err).Str("path", yamlOutputFile).Msg("Failed to write config file")
	}

	log.Info().Str("path", yamlOutputFile).Msg("Successfully generated txsync.yaml.example")
}
