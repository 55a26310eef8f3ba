// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package audit records outbound HTTP traffic.
package audit

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetDefaultLogger provides an ok log output format on startup if no config is set.
func SetDefaultLogger() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// Critical starts an error-level event marking an item that was aborted.
//
// zerolog has no critical level; the critical field distinguishes these
// events from ordinary errors.
func Critical(logger *zerolog.Logger) *zerolog.Event {
	return logger.Error().Bool("critical", true)
}

// NewRequestID makes a short ID with a 6 byte timestamp and 3 bytes of entropy.
func NewRequestID() string {
	entropy := [3]byte{'a', 'a', 'a'}

	_, _ = rand.Read(entropy[:])

	return requestTime(time.Now()) + base64.RawURLEncoding.EncodeToString(entropy[:])
}

func requestTime(t time.Time) string {
	return t.Format("150405")
}
