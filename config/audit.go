// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codeberg.org/legaltools/txsync/core/audit"
)

const (
	responseDirPermissions = 0o700
	logFilePermissions     = 0o666
)

// setupAudit initializes logging and response saving from the configuration.
func (cfg *Config) setupAudit() {
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	writers := []io.Writer{}

	for _, output := range cfg.Log.Outputs {
		var w io.Writer

		switch output {
		case "/dev/stdout":
			w = cfg.writerFor(os.Stdout)
		case "/dev/stderr":
			w = cfg.writerFor(os.Stderr)
		default:
			file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions) // #nosec:G302,G304
			if err != nil {
				// If opening the file fails, we simply don't add it to the writers.
				fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", output, err)

				continue
			}

			w = cfg.writerFor(file)
		}

		writers = append(writers, w)
	}

	if len(writers) == 0 {
		writers = append(writers, ConsoleWriter(os.Stderr))
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))

	audit.SaveResponses = cfg.Development.SaveResponses
	audit.ResponseDirectory = cfg.Development.ResponseSaveLocation

	if audit.SaveResponses {
		if err := os.MkdirAll(audit.ResponseDirectory, responseDirPermissions); err != nil {
			log.Error().
				Err(err).
				Str("path", audit.ResponseDirectory).
				Msg("Failed to create response directory, responses will not be saved")

			audit.SaveResponses = false
		}
	}
}

func (cfg *Config) writerFor(f *os.File) io.Writer {
	if cfg.Log.Format == "json" {
		return f
	}

	return ConsoleWriter(f)
}

// isTerminal returns true if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd())
}

// IsTerminal reports whether standard error is a terminal.
func IsTerminal() bool {
	return isTerminal(os.Stderr)
}

// ConsoleWriter returns a writer for zerolog that has NoColor:isTerminal(f).
func ConsoleWriter(f *os.File) io.Writer {
	noColor := !isTerminal(f)

	w := zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.DateTime}

	if !noColor {
		w.FormatPrepare = func(m map[string]any) error {
			// pretty print request logs
			if sys, ok := m["sys"]; ok && sys == "http" {
				m["message"] = fmt.Sprintf("[%s] %v %-5s %s", m["destination"], m["status_code"], m["method"], m["url"])
				delete(m, "sys")
				delete(m, "method")
				delete(m, "status_code")
				delete(m, "url")
				delete(m, "destination")
				delete(m, "request_id")
			}

			return nil
		}
	}

	return w
}
