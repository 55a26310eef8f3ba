// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"context"
	"fmt"
	"os"
	"path"
	"runtime/trace"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Span represents an HTTP request in flight.
type Span struct {
	// only these fields are set automatically
	task     *trace.Task
	start    time.Time
	duration time.Duration

	Destination TrafficDestination
	RequestID   string
	Method      string
	URL         string
	StatusCode  int
	Error       error
	Body        []byte // Body is not logged as is; only for response saving

	responseFilename string // responseFilename logs the filename of a saved response
}

// TrafficDestination describes the logical destination of an HTTP request.
type TrafficDestination string

// Constants for traffic destinations.
const (
	ToTransifex TrafficDestination = "transifex"
	// ToStorage marks redirected downloads served by the file host.
	ToStorage TrafficDestination = "storage"

	responseFilePermissions = 0o600
)

var (
	// SaveResponses indicates whether to save response bodies to storage.
	SaveResponses bool

	// ResponseDirectory is the directory where response bodies are saved.
	ResponseDirectory string
)

// Begin starts timing the span. A request ID is assigned when missing.
func (span *Span) Begin(ctx context.Context) context.Context {
	span.start = time.Now()

	if span.RequestID == "" {
		span.RequestID = NewRequestID()
	}

	ctx, span.task = trace.NewTask(ctx, "http."+string(span.Destination))

	return ctx
}

// End stops timing the span.
func (span *Span) End() {
	// only log once
	if span.task != nil {
		span.duration = time.Since(span.start)
		span.task.End()
		span.task = nil
	}
}

// Duration returns the measured duration once End has been called.
func (span *Span) Duration() time.Duration {
	return span.duration
}

// Log logs the span and saves the response body if applicable.
func (span Span) Log() {
	span.LogTo(log.Logger)
}

// LogTo logs the span to logger.
func (span Span) LogTo(logger zerolog.Logger) {
	if len(span.Body) > 0 && SaveResponses {
		filename := path.Join(ResponseDirectory, span.RequestID)

		if err := os.WriteFile(filename, span.Body, responseFilePermissions); err != nil {
			logger.Err(err).
				Str("request_id", span.RequestID).
				Msg("Failed to save response")
		} else {
			span.responseFilename = filename
		}
	}

	event := logger.Debug()

	event.Str("sys", "http")
	event.Str("method", span.Method)
	event.Str("url", span.URL)
	event.Int("status_code", span.StatusCode)
	event.Str("len", humanizeSize(len(span.Body)))
	event.Dur("dur", span.duration)
	event.Str("destination", string(span.Destination))
	event.Str("request_id", span.RequestID)

	if span.responseFilename != "" {
		event.Str("response_filename", span.responseFilename)
	}

	if span.Error != nil {
		event.Err(span.Error)
	}

	event.Send()
}

const (
	bytesInKB = 1024
	bytesInMB = bytesInKB * bytesInKB
	bytesInGB = bytesInMB * bytesInKB
)

func humanizeSize(x int) string {
	if x < bytesInKB {
		return strconv.Itoa(x)
	}

	if x < bytesInMB {
		return fmt.Sprintf("%.2fK", float64(x)/bytesInKB)
	}

	if x < bytesInGB {
		return fmt.Sprintf("%.2fM", float64(x)/bytesInMB)
	}

	return fmt.Sprintf("%.2fG", float64(x)/bytesInGB)
}
