// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package stats

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"codeberg.org/legaltools/txsync/core/transifex"
	"codeberg.org/legaltools/txsync/core/transifex/transifextest"
)

func newFake() *transifextest.Fake {
	fake := transifextest.New("creativecommons")

	fake.AddResource("CC", transifex.Resource{Slug: "deeds_ux", StringCount: 12})
	fake.AddResource("CC", transifex.Resource{Slug: "unrelated", StringCount: 3})
	fake.AddResource("cc-legal-code", transifex.Resource{Slug: "by_40", StringCount: 80})

	fake.AddLanguageStats("CC", transifex.LanguageStats{ResourceSlug: "deeds_ux", LanguageCode: "nl", TranslatedStrings: 10})
	fake.AddLanguageStats("CC", transifex.LanguageStats{ResourceSlug: "unrelated", LanguageCode: "nl"})
	fake.AddLanguageStats("cc-legal-code", transifex.LanguageStats{ResourceSlug: "by_40", LanguageCode: "pt_BR"})

	return fake
}

func newCache(client transifex.Client, buf *bytes.Buffer) *Cache {
	return New(client, zerolog.New(buf),
		Scope{Project: "CC", Resources: []string{"deeds_ux"}},
		Scope{Project: "cc-legal-code", Resources: []string{"by_40", "zero_10"}},
	)
}

// criticals returns the log lines of buf flagged critical.
func criticals(buf *bytes.Buffer) []gjson.Result {
	var out []gjson.Result

	for _, line := range strings.Split(buf.String(), "\n") {
		if r := gjson.Parse(line); r.Get("critical").Bool() {
			out = append(out, r)
		}
	}

	return out
}

func TestLazy(t *testing.T) {
	t.Parallel()

	var (
		l     Lazy[int]
		calls int
	)

	load := func() (int, error) {
		calls++

		return 42, nil
	}

	assert.False(t, l.Loaded())

	v, err := l.Get(load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, _ = l.Get(load)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
	assert.True(t, l.Loaded())

	l.Reset()
	l.Reset()
	assert.False(t, l.Loaded())

	_, err = l.Get(func() (int, error) { return 0, errors.New("boom") })
	require.Error(t, err)
	assert.False(t, l.Loaded())
}

func TestResourcesFiltersAndCaches(t *testing.T) {
	t.Parallel()

	fake := newFake()
	cache := newCache(fake, &bytes.Buffer{})

	stats, err := cache.Resources(context.Background())
	require.NoError(t, err)

	assert.Len(t, stats, 2)
	assert.Contains(t, stats, "deeds_ux")
	assert.Contains(t, stats, "by_40")
	assert.NotContains(t, stats, "unrelated")

	_, err = cache.Resources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Count("Resources"))
}

func TestTranslationsFiltersAndCaches(t *testing.T) {
	t.Parallel()

	fake := newFake()
	cache := newCache(fake, &bytes.Buffer{})

	stats, err := cache.Translations(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, stats["deeds_ux"]["nl"].TranslatedStrings)
	assert.Contains(t, stats["by_40"], "pt_BR")
	assert.NotContains(t, stats, "unrelated")

	_, ok, err := cache.Translation(context.Background(), "by_40", "nl")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, fake.Count("ResourceLanguageStats"))
}

func TestClear(t *testing.T) {
	t.Parallel()

	fake := newFake()
	cache := newCache(fake, &bytes.Buffer{})

	cache.Clear()

	_, err := cache.Resources(context.Background())
	require.NoError(t, err)
	_, err = cache.Translations(context.Background())
	require.NoError(t, err)

	cache.Clear()
	cache.Clear()

	_, err = cache.Resources(context.Background())
	require.NoError(t, err)
	_, err = cache.Translations(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, fake.Count("Resources"))
	assert.Equal(t, 4, fake.Count("ResourceLanguageStats"))
}

func TestGuards(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		check   func(c *Cache) bool
		want    bool
		message string
	}{
		{
			name:  "resource present",
			check: func(c *Cache) bool { return c.ResourcePresent(context.Background(), "deeds_ux", "Deeds & UX") },
			want:  true,
		},
		{
			name:    "resource absent",
			check:   func(c *Cache) bool { return c.ResourcePresent(context.Background(), "zero_10", "CC0 1.0") },
			message: "CC0 1.0 (zero_10) has not yet been added to Transifex. Aborting resource processing.",
		},
		{
			name: "translation supported",
			check: func(c *Cache) bool {
				return c.TranslationSupported(context.Background(), "deeds_ux", "Deeds & UX", "nl")
			},
			want: true,
		},
		{
			name: "translation not supported",
			check: func(c *Cache) bool {
				return c.TranslationSupported(context.Background(), "deeds_ux", "Deeds & UX", "x_XX")
			},
			message: "Deeds & UX (deeds_ux) x_XX: Language not yet supported by Transifex." +
				" Aborting translation language processing.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			got := tt.check(newCache(newFake(), &buf))
			assert.Equal(t, tt.want, got)

			lines := criticals(&buf)

			if tt.want {
				assert.Empty(t, lines)

				return
			}

			require.Len(t, lines, 1)
			assert.Equal(t, "error", lines[0].Get("level").String())
			assert.Equal(t, tt.message, lines[0].Get("message").String())
		})
	}
}

func TestGuardsOnFetchError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	fake := newFake()
	fake.Errors["Resources"] = errors.New("connection refused")
	fake.Errors["ResourceLanguageStats"] = errors.New("connection refused")

	cache := newCache(fake, &buf)

	assert.False(t, cache.ResourcePresent(context.Background(), "deeds_ux", "Deeds & UX"))
	assert.False(t, cache.TranslationSupported(context.Background(), "deeds_ux", "Deeds & UX", "nl"))
	assert.Contains(t, buf.String(), "connection refused")
}
