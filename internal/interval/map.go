// Package interval provides an ordered map from closed intervals to values,
// used to answer "which range covers this line" queries.
package interval

import (
	"cmp"
	"fmt"

	"github.com/tidwall/btree"
)

// Map maps closed intervals with endpoints in K to values of type V.
// Intervals never overlap; Insert reports a conflict instead of clobbering.
//
// A zero value is ready to use.
type Map[K cmp.Ordered, V any] struct {
	// Keys in the tree are the inclusive ends of the stored intervals.
	tree btree.Map[K, *entry[K, V]]
}

type entry[K cmp.Ordered, V any] struct {
	start K
	value V
}

// Interval is an entry of the map as seen by callers.
type Interval[K cmp.Ordered, V any] struct {
	Start, End K
	Value      *V
}

// Get looks up the interval containing key. If none does, the returned
// Interval has a nil Value.
func (m *Map[K, V]) Get(key K) Interval[K, V] {
	it := m.tree.Iter()
	if !it.Seek(key) || key < it.Value().start {
		return Interval[K, V]{}
	}
	return Interval[K, V]{Start: it.Value().start, End: it.Key(), Value: &it.Value().value}
}

// Insert adds [start, end] with the given value. Both endpoints are
// inclusive. If the new interval overlaps an existing one, nothing is
// inserted and the overlapping interval with the least start is returned;
// that case is distinguished by overlap.Value != nil.
func (m *Map[K, V]) Insert(start, end K, value V) (overlap Interval[K, V]) {
	if start > end {
		panic(fmt.Sprintf("interval: start (%#v) > end (%#v)", start, end))
	}

	it := m.tree.Iter()
	if !it.Seek(start) || end < it.Value().start {
		// nothing at or after start, or the least candidate begins past our
		// end; no overlap possible
		m.tree.Set(end, &entry[K, V]{start: start, value: value})
		return Interval[K, V]{}
	}
	return Interval[K, V]{Start: it.Value().start, End: it.Key(), Value: &it.Value().value}
}

// Delete removes the interval whose inclusive end is the given key,
// reporting whether one existed.
func (m *Map[K, V]) Delete(end K) bool {
	_, ok := m.tree.Delete(end)
	return ok
}

// Each visits every interval in ascending order. Returning false stops the
// walk.
func (m *Map[K, V]) Each(visit func(Interval[K, V]) bool) {
	m.tree.Scan(func(end K, e *entry[K, V]) bool {
		return visit(Interval[K, V]{Start: e.start, End: end, Value: &e.value})
	})
}

// Len returns the number of stored intervals.
func (m *Map[K, V]) Len() int {
	return m.tree.Len()
}
