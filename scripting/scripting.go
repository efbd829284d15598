// Package scripting exposes keyed arrays to scripting callers. Reads return
// copies. Key based reads (Get, Contains, GetPair) on a stale sequence repair
// its index first, the same as calling Reconcile; GetData, GetMap and Num never
// modify the sequence. Mutations go through a replication.Component so the
// authority gate and change notification still apply.
package scripting

import (
	"context"

	"github.com/amp-labs/keyed-array/keyed"
	"github.com/amp-labs/keyed-array/replication"
)

// Get returns the value for key, or the zero value.
func Get[K comparable, V any](s *keyed.Sequence[K, V], key K) V { //nolint:ireturn
	return s.Get(key)
}

// Contains reports whether key is present.
func Contains[K comparable, V any](s *keyed.Sequence[K, V], key K) bool {
	return s.Contains(key)
}

// Num returns the number of pairs.
func Num[K comparable, V any](s *keyed.Sequence[K, V]) int {
	return s.Len()
}

// GetData returns a copy of the ordered pairs.
func GetData[K comparable, V any](s *keyed.Sequence[K, V]) []keyed.Pair[K, V] {
	return s.Pairs()
}

// GetMap returns a key to position map. On a stale sequence the map is derived
// from the pairs, giving the positions Reconcile would produce, and the
// sequence is left stale.
func GetMap[K comparable, V any](s *keyed.Sequence[K, V]) map[K]int {
	if !s.Stale() {
		return s.Index()
	}

	pairs := s.Pairs()
	out := make(map[K]int, len(pairs))

	for _, p := range pairs {
		if _, dup := out[p.Key]; !dup {
			out[p.Key] = len(out)
		}
	}

	return out
}

// GetKey returns the key at pos, or the zero key.
func GetKey[K comparable, V any](s *keyed.Sequence[K, V], pos int) K { //nolint:ireturn
	return s.KeyOrZero(pos)
}

// GetPair returns the pair for key and whether it was found.
func GetPair[K comparable, V any](s *keyed.Sequence[K, V], key K) (keyed.Pair[K, V], bool) {
	return s.PairOf(key).Get()
}

// GetPairAt returns the pair at pos and whether pos was valid.
func GetPairAt[K comparable, V any](s *keyed.Sequence[K, V], pos int) (keyed.Pair[K, V], bool) {
	return s.PairAt(pos).Get()
}

// Last returns the value offset places from the end. It panics when offset
// is out of range.
func Last[K comparable, V any](s *keyed.Sequence[K, V], offset int) V { //nolint:ireturn
	return s.Last(offset)
}

// LastPair returns the pair offset places from the end. It panics when offset
// is out of range.
func LastPair[K comparable, V any](s *keyed.Sequence[K, V], offset int) keyed.Pair[K, V] {
	return s.LastPair(offset)
}

// Add upserts key on c. It returns -1 when c lacks authority.
func Add[K comparable, V any](ctx context.Context, c *replication.Component[K, V], key K, value V) int {
	return c.Add(ctx, key, value)
}

// Emplace is Add.
func Emplace[K comparable, V any](ctx context.Context, c *replication.Component[K, V], key K, value V) int {
	return c.Emplace(ctx, key, value)
}

// EmplaceAt inserts key at position at on c. It returns -1 when c lacks
// authority.
func EmplaceAt[K comparable, V any](ctx context.Context, c *replication.Component[K, V], key K, value V, at int) int {
	return c.EmplaceAt(ctx, key, value, at)
}

// Remove deletes key from c.
func Remove[K comparable, V any](ctx context.Context, c *replication.Component[K, V], key K) bool {
	return c.Remove(ctx, key)
}

// RemoveAt deletes the pair at pos from c.
func RemoveAt[K comparable, V any](ctx context.Context, c *replication.Component[K, V], pos int) bool {
	return c.RemoveAt(ctx, pos)
}

// Empty clears c, reserving room for allocated pairs.
func Empty[K comparable, V any](ctx context.Context, c *replication.Component[K, V], allocated int) {
	c.Clear(ctx, allocated)
}

// RemoveFirstValue deletes the first pair of c holding value and returns its
// position, or -1.
func RemoveFirstValue[K comparable, V comparable](ctx context.Context, c *replication.Component[K, V], value V) int {
	return c.RemoveFirstFunc(ctx, func(p keyed.Pair[K, V]) bool {
		return p.Value == value
	})
}

// RemoveAllValue deletes every pair of c holding value and returns the count.
func RemoveAllValue[K comparable, V comparable](ctx context.Context, c *replication.Component[K, V], value V) int {
	return c.RemoveFunc(ctx, func(p keyed.Pair[K, V]) bool {
		return p.Value == value
	})
}
