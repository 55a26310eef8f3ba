// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package catalogcache holds downloaded Transifex catalogs in a fixed-capacity,
least-recently-used cache.

Catalogs are stored zstd-compressed when that saves space and are
decompressed transparently by [Cache.Get]. A Cache is safe for concurrent use.
*/
package catalogcache

import (
	"container/list"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var ErrInvalidSize = errors.New("must provide a positive size")

// Cache is a fixed-capacity LRU cache of catalog content keyed by
// resource and language. The zero value is not ready for use.
type Cache struct {
	size      int
	evictList *list.List
	items     map[string]*list.Element
	lock      sync.Mutex

	enc *zstd.Encoder
	dec *zstd.Decoder
}

type entry struct {
	key        string
	content    []byte
	compressed bool
}

// Key returns the cache key of a catalog. An empty code denotes the source
// catalog of the resource.
func Key(project, resource, code string) string {
	return project + "/" + resource + "/" + code
}

// New returns a Cache holding at most size catalogs.
func New(size int) (*Cache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	// A nil writer/reader allows EncodeAll/DecodeAll without streams.
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &Cache{
		size:      size,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
		enc:       enc,
		dec:       dec,
	}, nil
}

// Add stores content under key, making it the most recently used entry.
// It reports whether an older entry was evicted.
func (c *Cache) Add(key string, content []byte) bool {
	stored, compressed := c.pack(content)

	c.lock.Lock()
	defer c.lock.Unlock()

	if el, ok := c.items[key]; ok {
		c.evictList.MoveToFront(el)

		e := el.Value.(*entry) //nolint:forcetypeassert
		e.content, e.compressed = stored, compressed

		return false
	}

	c.items[key] = c.evictList.PushFront(&entry{key: key, content: stored, compressed: compressed})

	if c.evictList.Len() <= c.size {
		return false
	}

	if oldest := c.evictList.Back(); oldest != nil {
		c.remove(oldest)
	}

	return true
}

// Get returns a copy of the content stored under key.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.lock.Lock()

	el, ok := c.items[key]
	if !ok {
		c.lock.Unlock()

		return nil, false
	}

	c.evictList.MoveToFront(el)

	e := el.Value.(*entry) //nolint:forcetypeassert
	stored, compressed := e.content, e.compressed

	c.lock.Unlock()

	return c.unpack(stored, compressed)
}

// Remove deletes key and reports whether it was present.
func (c *Cache) Remove(key string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	el, ok := c.items[key]
	if ok {
		c.remove(el)
	}

	return ok
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.evictList.Init()
	clear(c.items)
}

// Len returns the number of cached catalogs.
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.evictList.Len()
}

func (c *Cache) remove(el *list.Element) {
	c.evictList.Remove(el)
	delete(c.items, el.Value.(*entry).key) //nolint:forcetypeassert
}

// pack compresses content when that makes it smaller and copies it
// otherwise. It runs without the lock; EncodeAll is safe for concurrent use.
func (c *Cache) pack(content []byte) ([]byte, bool) {
	if len(content) == 0 {
		return nil, false
	}

	if packed := c.enc.EncodeAll(content, nil); len(packed) < len(content) {
		return packed, true
	}

	return append([]byte(nil), content...), false
}

// unpack returns a fresh copy of stored content. A catalog that fails to
// decompress is reported missing.
func (c *Cache) unpack(stored []byte, compressed bool) ([]byte, bool) {
	if !compressed {
		return append([]byte(nil), stored...), true
	}

	content, err := c.dec.DecodeAll(stored, nil)
	if err != nil {
		return nil, false
	}

	return content, true
}
