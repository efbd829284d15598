package keyed

import (
	"encoding/json"
	"iter"
	"maps"
	"slices"
)

// Pairs returns a copy of the pairs in order.
func (s *Sequence[K, V]) Pairs() []Pair[K, V] {
	return append(make([]Pair[K, V], 0, len(s.pairs)), s.pairs...)
}

// Index returns a copy of the key to position map.
func (s *Sequence[K, V]) Index() map[K]int {
	s.repair()

	return maps.Clone(s.index)
}

// Keys returns the keys in order.
func (s *Sequence[K, V]) Keys() []K {
	keys := make([]K, len(s.pairs))
	for i, pair := range s.pairs {
		keys[i] = pair.Key
	}

	return keys
}

// Values returns the values in order.
func (s *Sequence[K, V]) Values() []V {
	values := make([]V, len(s.pairs))
	for i, pair := range s.pairs {
		values[i] = pair.Value
	}

	return values
}

// All returns an iterator over (position, pair) in order. The sequence must
// not be structurally modified while iterating.
func (s *Sequence[K, V]) All() iter.Seq2[int, Pair[K, V]] {
	return slices.All(s.pairs)
}

// Clone returns an independent copy with a consistent index.
func (s *Sequence[K, V]) Clone() *Sequence[K, V] {
	return FromPairs(s.pairs...)
}

// MarshalJSON encodes the sequence as its ordered array of pairs. The index is
// never serialized; the receiving side derives it with Reconcile.
func (s Sequence[K, V]) MarshalJSON() ([]byte, error) { //nolint:gocritic
	if s.pairs == nil {
		return []byte("[]"), nil
	}

	return json.Marshal(s.pairs)
}

// UnmarshalJSON replaces the backing slice with the decoded pairs and marks the
// index stale, exactly like Replace.
func (s *Sequence[K, V]) UnmarshalJSON(data []byte) error {
	var pairs []Pair[K, V]
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}

	s.Replace(pairs)

	return nil
}
