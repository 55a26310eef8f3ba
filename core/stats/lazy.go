// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package stats

// Lazy holds a value that is either unloaded or loaded.
//
// The zero value is unloaded. Lazy is not safe for concurrent use.
type Lazy[T any] struct {
	value  T
	loaded bool
}

// Get returns the loaded value, calling load first if the value is unloaded.
// A failed load leaves the value unloaded.
func (l *Lazy[T]) Get(load func() (T, error)) (T, error) {
	if l.loaded {
		return l.value, nil
	}

	value, err := load()
	if err != nil {
		var zero T

		return zero, err
	}

	l.value, l.loaded = value, true

	return value, nil
}

// Loaded reports whether a value is held.
func (l *Lazy[T]) Loaded() bool {
	return l.loaded
}

// Reset returns l to the unloaded state.
func (l *Lazy[T]) Reset() {
	var zero T

	l.value, l.loaded = zero, false
}
