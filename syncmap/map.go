// Copyright (c) 2023 BVK Chaitanya

// Package syncmap implements a typed wrapper over sync.Map.
package syncmap

import (
	"iter"
	"sync"
)

type Map[K comparable, V any] struct {
	v sync.Map
}

func (m *Map[K, V]) Delete(key K) {
	m.v.Delete(key)
}

func (m *Map[K, V]) Store(key K, value V) {
	m.v.Store(key, value)
}

func (m *Map[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	a, loaded := m.v.LoadOrStore(key, value)
	return a.(V), loaded
}

// All returns an iterator over a snapshot-free view of the map. Entries
// added or removed concurrently may or may not be visited.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		m.v.Range(func(key, value any) bool {
			return yield(key.(K), value.(V))
		})
	}
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	n := 0
	for range m.All() {
		n++
	}
	return n
}
