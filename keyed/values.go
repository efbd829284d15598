package keyed

import (
	"slices"

	"github.com/amp-labs/keyed-array/optional"
)

// IndexFunc returns the position of the first pair satisfying pred, or -1.
// It is a linear scan.
func (s *Sequence[K, V]) IndexFunc(pred func(Pair[K, V]) bool) int {
	return slices.IndexFunc(s.pairs, pred)
}

// FirstKeyFunc returns the key of the first pair satisfying pred, or None.
func (s *Sequence[K, V]) FirstKeyFunc(pred func(Pair[K, V]) bool) optional.Value[K] {
	return s.KeyAt(s.IndexFunc(pred))
}

// RemoveFirstFunc removes the first pair satisfying pred and returns the
// position it occupied, or -1 if nothing matched.
func (s *Sequence[K, V]) RemoveFirstFunc(pred func(Pair[K, V]) bool) int {
	s.repair()

	pos := s.IndexFunc(pred)
	if pos < 0 {
		return -1
	}

	s.removeAt(pos)

	return pos
}

// RemoveFunc removes every pair satisfying pred and returns how many were
// removed. The survivors keep their relative order and the index is rebuilt
// once, so the whole call is O(n).
func (s *Sequence[K, V]) RemoveFunc(pred func(Pair[K, V]) bool) int {
	s.repair()

	before := len(s.pairs)
	s.pairs = slices.DeleteFunc(s.pairs, pred)

	removed := before - len(s.pairs)
	if removed > 0 {
		s.rebuild()
	}

	return removed
}

func valueIs[K comparable, V comparable](value V) func(Pair[K, V]) bool {
	return func(pair Pair[K, V]) bool {
		return pair.Value == value
	}
}

// IndexOfValue returns the position of the first pair holding value, or -1.
func IndexOfValue[K comparable, V comparable](s *Sequence[K, V], value V) int {
	return s.IndexFunc(valueIs[K](value))
}

// ContainsValue reports whether any pair holds value.
func ContainsValue[K comparable, V comparable](s *Sequence[K, V], value V) bool {
	return IndexOfValue(s, value) >= 0
}

// FirstKeyOf returns the key of the first pair holding value, or None.
func FirstKeyOf[K comparable, V comparable](s *Sequence[K, V], value V) optional.Value[K] {
	return s.FirstKeyFunc(valueIs[K](value))
}

// RemoveFirstValue removes the first pair holding value and returns the
// position it occupied, or -1.
func RemoveFirstValue[K comparable, V comparable](s *Sequence[K, V], value V) int {
	return s.RemoveFirstFunc(valueIs[K](value))
}

// RemoveAllValue removes every pair holding value and returns the count.
func RemoveAllValue[K comparable, V comparable](s *Sequence[K, V], value V) int {
	return s.RemoveFunc(valueIs[K](value))
}
