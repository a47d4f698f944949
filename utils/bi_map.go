package utils

import (
	"cmp"
	"slices"
)

// BiMap is an immutable two-way lookup table. It backs the enum <-> name
// tables of the shell (job status, engine, display mode, output format).
// Both sides must be unique; with duplicate values the reverse side keeps
// an arbitrary one of the keys.
type BiMap[K comparable, V cmp.Ordered] struct {
	forward map[K]V
	reverse map[V]K
}

// NewBiMap copies input into a new BiMap. Later changes to input are not
// visible through the map.
func NewBiMap[K comparable, V cmp.Ordered](input map[K]V) *BiMap[K, V] {
	m := &BiMap[K, V]{
		forward: make(map[K]V, len(input)),
		reverse: make(map[V]K, len(input)),
	}
	for k, v := range input {
		m.forward[k] = v
		m.reverse[v] = k
	}
	return m
}

// Lookup returns the value stored for key.
func (m *BiMap[K, V]) Lookup(key K) (V, bool) {
	v, ok := m.forward[key]
	return v, ok
}

// RLookup returns the key stored for value.
func (m *BiMap[K, V]) RLookup(value V) (K, bool) {
	k, ok := m.reverse[value]
	return k, ok
}

// Values returns every value in ascending order. Used to list valid
// choices in usage and error messages.
func (m *BiMap[K, V]) Values() []V {
	values := make([]V, 0, len(m.reverse))
	for v := range m.reverse {
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}

// Len reports the number of entries.
func (m *BiMap[K, V]) Len() int {
	return len(m.forward)
}
