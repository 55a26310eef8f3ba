// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalogcache

import (
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// catalog returns content large and repetitive enough to be compressed.
func catalog(id string) []byte {
	var b strings.Builder

	b.WriteString("msgid \"\"\nmsgstr \"\"\n\"Language: " + id + "\\n\"\n")

	for i := range 50 {
		b.WriteString("\nmsgid \"entry " + strconv.Itoa(i) + "\"\nmsgstr \"\"\n")
	}

	return []byte(b.String())
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1} {
		c, err := New(size)
		require.ErrorIs(t, err, ErrInvalidSize)
		assert.Nil(t, c)
	}

	c, err := New(3)
	require.NoError(t, err)
	assert.Zero(t, c.Len())
}

func TestAddGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content []byte
	}{
		{name: "compressible", content: catalog("nl")},
		{name: "short", content: []byte("msgid \"x\"")},
		{name: "empty", content: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := New(2)
			require.NoError(t, err)

			key := Key("cc-legal-code", "by_40", "nl")
			assert.False(t, c.Add(key, tt.content))

			got, ok := c.Get(key)
			require.True(t, ok)
			assert.Equal(t, string(tt.content), string(got))

			if len(got) > 0 {
				// Callers get a copy.
				got[0] = 'X'

				again, _ := c.Get(key)
				assert.Equal(t, string(tt.content), string(again))
			}
		})
	}
}

func TestCompressed(t *testing.T) {
	t.Parallel()

	c, err := New(1)
	require.NoError(t, err)

	content := catalog("de")
	c.Add("de", content)

	e := c.items["de"].Value.(*entry) //nolint:forcetypeassert
	assert.True(t, e.compressed)
	assert.Less(t, len(e.content), len(content))
}

func TestEviction(t *testing.T) {
	t.Parallel()

	c, err := New(2)
	require.NoError(t, err)

	assert.False(t, c.Add("a", catalog("a")))
	assert.False(t, c.Add("b", catalog("b")))

	// Touch a so that b is the least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	assert.True(t, c.Add("c", catalog("c")))
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok)

	_, ok = c.Get("a")
	assert.True(t, ok)

	// Updating an existing key never evicts.
	assert.False(t, c.Add("a", catalog("a2")))

	got, _ := c.Get("a")
	assert.Equal(t, string(catalog("a2")), string(got))
}

func TestRemovePurge(t *testing.T) {
	t.Parallel()

	c, err := New(3)
	require.NoError(t, err)

	c.Add("a", catalog("a"))
	c.Add("b", catalog("b"))

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Zero(t, c.Len())

	_, ok := c.Get("b")
	assert.False(t, ok)

	// The cache is usable after a purge.
	c.Add("d", catalog("d"))
	assert.Equal(t, 1, c.Len())
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	c, err := New(8)
	require.NoError(t, err)

	var wg sync.WaitGroup

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			key := strconv.Itoa(i % 10)
			c.Add(key, catalog(key))

			if got, ok := c.Get(key); ok {
				assert.Contains(t, string(got), "msgid")
			}
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 8)
}
