// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "slices"

// List is the ordered result of a list call. Elements keep the order in
// which the API returned them.
type List[T any] []T

// Mapper is implemented by every record type.
type Mapper interface {
	ToMap() map[string]any
}

// Len returns the number of records.
func (l List[T]) Len() int { return len(l) }

// Filter returns the records for which keep returns true, in order.
func (l List[T]) Filter(keep func(T) bool) List[T] {
	var out List[T]
	for _, item := range l {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Find returns the first record for which match returns true.
func (l List[T]) Find(match func(T) bool) (T, bool) {
	for _, item := range l {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// SortFunc returns a stably sorted copy of l.
func (l List[T]) SortFunc(cmp func(a, b T) int) List[T] {
	out := slices.Clone(l)
	slices.SortStableFunc(out, cmp)
	return out
}
