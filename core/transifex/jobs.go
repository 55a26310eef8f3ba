// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package transifex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
)

// Terminal states of asynchronous jobs; anything else is still running.
const (
	jobSucceeded = "succeeded"
	jobFailed    = "failed"
)

// maxPollIntervalFactor bounds the poll interval relative to the first one.
const maxPollIntervalFactor = 16

var errJobPending = errors.New("job still running")

// poll calls op until it stops returning errJobPending, backing off
// exponentially between calls.
func poll[T any](ctx context.Context, opts Options, op backoff.OperationWithData[T]) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.PollInterval
	b.MaxInterval = opts.PollInterval * maxPollIntervalFactor
	b.MaxElapsedTime = opts.PollTimeout

	result, err := backoff.RetryWithData(op, backoff.WithContext(b, ctx))
	if errors.Is(err, errJobPending) {
		return result, fmt.Errorf("%w after %s", ErrJobTimeout, opts.PollTimeout)
	}

	return result, err
}

// start creates an asynchronous job and returns its ID.
func (c *HTTPClient) start(ctx context.Context, kind string, attributes, relationships map[string]any) (string, error) {
	resp, err := c.do(ctx, requestOptions{
		Method:  http.MethodPost,
		Path:    kind,
		Payload: document(kind, attributes, relationships),
	})
	if err != nil {
		return "", err
	}

	return gjson.GetBytes(resp.Body, "data.id").String(), nil
}

// jobError builds the error of a failed job from its reported errors.
func jobError(attributes gjson.Result) error {
	var details []string

	for _, e := range attributes.Get("errors").Array() {
		if detail := e.Get("detail").String(); detail != "" {
			details = append(details, detail)
		}
	}

	if len(details) == 0 {
		return ErrJobFailed
	}

	return fmt.Errorf("%w: %s", ErrJobFailed, strings.Join(details, "; "))
}

// download runs an asynchronous download job and fetches the file it
// redirects to.
func (c *HTTPClient) download(ctx context.Context, kind string, attributes, relationships map[string]any) ([]byte, error) {
	id, err := c.start(ctx, kind, attributes, relationships)
	if err != nil {
		return nil, err
	}

	location, err := poll(ctx, c.opts, func() (string, error) {
		resp, err := c.do(ctx, requestOptions{Method: http.MethodGet, Path: kind + "/" + id})
		if err != nil {
			return "", backoff.Permanent(err)
		}

		if resp.StatusCode == http.StatusSeeOther {
			location := resp.Header.Get("Location")
			if location == "" {
				return "", backoff.Permanent(errMissingLocation)
			}

			return location, nil
		}

		status := gjson.GetBytes(resp.Body, "data.attributes")
		if status.Get("status").String() == jobFailed {
			return "", backoff.Permanent(jobError(status))
		}

		return "", errJobPending
	})
	if err != nil {
		return nil, err
	}

	return c.fetch(ctx, location)
}

// upload runs an asynchronous upload job and returns its reported details.
func (c *HTTPClient) upload(ctx context.Context, kind string, attributes, relationships map[string]any) (UploadResult, error) {
	id, err := c.start(ctx, kind, attributes, relationships)
	if err != nil {
		return UploadResult{}, err
	}

	details, err := poll(ctx, c.opts, func() (gjson.Result, error) {
		resp, err := c.do(ctx, requestOptions{Method: http.MethodGet, Path: kind + "/" + id})
		if err != nil {
			return gjson.Result{}, backoff.Permanent(err)
		}

		status := gjson.GetBytes(resp.Body, "data.attributes")

		switch status.Get("status").String() {
		case jobSucceeded:
			return status.Get("details"), nil
		case jobFailed:
			return gjson.Result{}, backoff.Permanent(jobError(status))
		default:
			return gjson.Result{}, errJobPending
		}
	})
	if err != nil {
		return UploadResult{}, err
	}

	return UploadResult{
		StringsCreated:      int(details.Get("strings_created").Int()),
		StringsUpdated:      int(details.Get("strings_updated").Int()),
		StringsSkipped:      int(details.Get("strings_skipped").Int()),
		StringsDeleted:      int(details.Get("strings_deleted").Int()),
		TranslationsCreated: int(details.Get("translations_created").Int()),
		TranslationsUpdated: int(details.Get("translations_updated").Int()),
		TranslationsSkipped: int(details.Get("translations_skipped").Int()),
	}, nil
}
