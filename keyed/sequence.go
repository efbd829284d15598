// Package keyed provides Sequence, an ordered slice of key/value pairs with an
// auxiliary key-to-position index that gives O(1) average lookup by key and
// O(1) lookup by position.
//
// The slice is the single source of truth for contents and order. The index is
// a cache derived from it: appends keep it in sync for free, inserts and
// removals that move later pairs cost one pass over the index, and a slice that
// was replaced wholesale (for example by a network update) is repaired with
// Reconcile.
//
// A Sequence is not safe for concurrent use. Pointers handed out by PairPtr,
// PairPtrAt, ValuePtr and ValuePtrAt alias the backing slice and are invalidated
// by any structural mutation (Add of a new key, Insert, Remove, RemoveAt, Clear,
// Replace).
//
// Example:
//
//	s := keyed.New[string, float64](0)
//	s.Add("a", 1)        // 0
//	s.Add("b", 2)        // 1
//	s.Insert("c", 3, 0)  // 0, order is now c, a, b
//	s.Remove("a")        // true, order is now c, b
//	s.Get("a")           // 0 (zero value, never fails)
package keyed

import (
	"fmt"

	"github.com/amp-labs/keyed-array/optional"
	"github.com/amp-labs/keyed-array/zero"
)

// Pair is a single entry of a Sequence.
type Pair[K comparable, V any] struct {
	Key   K `json:"key"`
	Value V `json:"value"`
}

// Sequence is an ordered collection of pairs with unique keys.
// The zero value is an empty sequence ready to use.
type Sequence[K comparable, V any] struct {
	pairs []Pair[K, V]
	index map[K]int

	// stale is set when pairs was replaced without going through the
	// mutation methods. Key based operations reconcile before reading index.
	stale bool

	// unreported records a rebuild done lazily by a key based read, so the
	// next explicit Reconcile still reports the change.
	unreported bool
}

// New creates an empty Sequence with room for capacity pairs.
func New[K comparable, V any](capacity int) *Sequence[K, V] {
	capacity = max(capacity, 0)

	return &Sequence[K, V]{
		pairs: make([]Pair[K, V], 0, capacity),
		index: make(map[K]int, capacity),
	}
}

// FromPairs creates a Sequence holding a copy of pairs. If a key appears more
// than once only its first occurrence is kept.
func FromPairs[K comparable, V any](pairs ...Pair[K, V]) *Sequence[K, V] {
	s := &Sequence[K, V]{pairs: append([]Pair[K, V](nil), pairs...)}
	s.rebuild()

	return s
}

func (s *Sequence[K, V]) ensureIndex() {
	if s.index == nil {
		s.index = make(map[K]int, len(s.pairs))
	}
}

// repair restores the index before a key based operation reads it.
func (s *Sequence[K, V]) repair() {
	if s.stale && s.reconcile() {
		s.unreported = true
	}

	s.ensureIndex()
}

// shift adds delta to every indexed position >= from.
// This is a full pass over the index.
func (s *Sequence[K, V]) shift(from, delta int) {
	for key, pos := range s.index {
		if pos >= from {
			s.index[key] = pos + delta
		}
	}
}

// Add stores value under key. If the key is already present its value is
// overwritten in place and its existing position is returned. Otherwise the pair
// is appended and its new position (Len()-1) is returned. Appending never
// touches other index entries.
func (s *Sequence[K, V]) Add(key K, value V) int {
	s.repair()

	if pos, ok := s.index[key]; ok {
		s.pairs[pos].Value = value

		return pos
	}

	s.pairs = append(s.pairs, Pair[K, V]{Key: key, Value: value})
	pos := len(s.pairs) - 1
	s.index[key] = pos

	return pos
}

// Emplace is Add under the name used by callers that construct pairs in place.
func (s *Sequence[K, V]) Emplace(key K, value V) int {
	return s.Add(key, value)
}

// EmplaceAt is Insert under the Emplace naming.
func (s *Sequence[K, V]) EmplaceAt(key K, value V, at int) int {
	return s.Insert(key, value, at)
}

// Insert places a new pair at position at, moving the pairs at and after that
// position one step towards the end, and returns at. The position is clamped to
// [0, Len()]. If key is already present Insert behaves like Add: the value is
// updated in place, at is ignored and the existing position is returned.
//
// Insert costs one pass over the index.
func (s *Sequence[K, V]) Insert(key K, value V, at int) int {
	s.repair()

	if pos, ok := s.index[key]; ok {
		s.pairs[pos].Value = value

		return pos
	}

	at = min(max(at, 0), len(s.pairs))

	s.pairs = append(s.pairs, Pair[K, V]{})
	copy(s.pairs[at+1:], s.pairs[at:])
	s.pairs[at] = Pair[K, V]{Key: key, Value: value}

	s.shift(at, 1)
	s.index[key] = at

	return at
}

// Remove deletes the pair stored under key. It returns false if the key is
// absent. Remove costs one pass over the index.
func (s *Sequence[K, V]) Remove(key K) bool {
	s.repair()

	pos, ok := s.index[key]
	if !ok {
		return false
	}

	s.removeAt(pos)

	return true
}

// RemoveAt deletes the pair at position pos. It returns false if pos is not a
// valid position.
func (s *Sequence[K, V]) RemoveAt(pos int) bool {
	s.repair()

	if !s.IsValidIndex(pos) {
		return false
	}

	s.removeAt(pos)

	return true
}

func (s *Sequence[K, V]) removeAt(pos int) {
	key := s.pairs[pos].Key

	copy(s.pairs[pos:], s.pairs[pos+1:])
	s.pairs[len(s.pairs)-1] = Pair[K, V]{}
	s.pairs = s.pairs[:len(s.pairs)-1]

	delete(s.index, key)
	s.shift(pos+1, -1)
}

// Clear removes every pair. A positive reserve keeps (or allocates) room for
// that many pairs; zero or less releases the storage.
func (s *Sequence[K, V]) Clear(reserve int) {
	s.stale = false
	s.unreported = false

	if reserve <= 0 {
		s.pairs = nil
		s.index = nil

		return
	}

	if cap(s.pairs) >= reserve {
		clear(s.pairs)
		s.pairs = s.pairs[:0]
	} else {
		s.pairs = make([]Pair[K, V], 0, reserve)
	}

	s.index = make(map[K]int, reserve)
}

// Get returns the value stored under key, or the zero value of V if the key is
// absent. It never fails.
func (s *Sequence[K, V]) Get(key K) V { //nolint:ireturn
	s.repair()

	pos, ok := s.index[key]
	if !ok {
		return zero.Value[V]()
	}

	return s.pairs[pos].Value
}

// Lookup returns the value stored under key, or None.
func (s *Sequence[K, V]) Lookup(key K) optional.Value[V] {
	s.repair()

	pos, ok := s.index[key]
	if !ok {
		return optional.None[V]()
	}

	return optional.Some(s.pairs[pos].Value)
}

// PairOf returns a copy of the pair stored under key, or None.
func (s *Sequence[K, V]) PairOf(key K) optional.Value[Pair[K, V]] {
	s.repair()

	pos, ok := s.index[key]
	if !ok {
		return optional.None[Pair[K, V]]()
	}

	return optional.Some(s.pairs[pos])
}

// PairAt returns a copy of the pair at position pos, or None.
func (s *Sequence[K, V]) PairAt(pos int) optional.Value[Pair[K, V]] {
	if !s.IsValidIndex(pos) {
		return optional.None[Pair[K, V]]()
	}

	return optional.Some(s.pairs[pos])
}

// PairPtr returns a pointer to the stored pair for key, or nil. Changing the
// Key through the pointer desynchronizes the index until Reconcile is called.
func (s *Sequence[K, V]) PairPtr(key K) *Pair[K, V] {
	s.repair()

	pos, ok := s.index[key]
	if !ok {
		return nil
	}

	return &s.pairs[pos]
}

// PairPtrAt returns a pointer to the stored pair at position pos, or nil.
func (s *Sequence[K, V]) PairPtrAt(pos int) *Pair[K, V] {
	if !s.IsValidIndex(pos) {
		return nil
	}

	return &s.pairs[pos]
}

// ValuePtr returns a pointer to the value stored under key, or nil.
func (s *Sequence[K, V]) ValuePtr(key K) *V {
	pair := s.PairPtr(key)
	if pair == nil {
		return nil
	}

	return &pair.Value
}

// ValuePtrAt returns a pointer to the value at position pos, or nil.
func (s *Sequence[K, V]) ValuePtrAt(pos int) *V {
	pair := s.PairPtrAt(pos)
	if pair == nil {
		return nil
	}

	return &pair.Value
}

// Contains reports whether key is present.
func (s *Sequence[K, V]) Contains(key K) bool {
	s.repair()

	_, ok := s.index[key]

	return ok
}

// IndexOf returns the position of key, or -1 if it is absent.
func (s *Sequence[K, V]) IndexOf(key K) int {
	s.repair()

	pos, ok := s.index[key]
	if !ok {
		return -1
	}

	return pos
}

// KeyAt returns the key at position pos, or None.
func (s *Sequence[K, V]) KeyAt(pos int) optional.Value[K] {
	if !s.IsValidIndex(pos) {
		return optional.None[K]()
	}

	return optional.Some(s.pairs[pos].Key)
}

// KeyOrZero returns the key at position pos, or the zero key.
func (s *Sequence[K, V]) KeyOrZero(pos int) K { //nolint:ireturn
	return s.KeyAt(pos).GetOrElse(zero.Value[K]())
}

// Len returns the number of pairs.
func (s *Sequence[K, V]) Len() int {
	return len(s.pairs)
}

// Cap returns how many pairs fit before the backing slice grows.
func (s *Sequence[K, V]) Cap() int {
	return cap(s.pairs)
}

// IsValidIndex reports whether pos addresses a pair.
func (s *Sequence[K, V]) IsValidIndex(pos int) bool {
	return pos >= 0 && pos < len(s.pairs)
}

// LastPair returns the pair offset positions before the end (0 is the last
// pair). Unlike the other accessors it panics when offset is out of range, the
// same way indexing a slice does. Use LastPairOrNone for a checked variant.
func (s *Sequence[K, V]) LastPair(offset int) Pair[K, V] {
	pos := len(s.pairs) - 1 - offset
	if offset < 0 || pos < 0 {
		panic(fmt.Sprintf("keyed: offset %d from the end out of range for length %d", offset, len(s.pairs)))
	}

	return s.pairs[pos]
}

// Last returns the value of LastPair(offset). It panics under the same
// conditions.
func (s *Sequence[K, V]) Last(offset int) V { //nolint:ireturn
	return s.LastPair(offset).Value
}

// LastPairOrNone is LastPair that returns None instead of panicking.
func (s *Sequence[K, V]) LastPairOrNone(offset int) optional.Value[Pair[K, V]] {
	if offset < 0 {
		return optional.None[Pair[K, V]]()
	}

	return s.PairAt(len(s.pairs) - 1 - offset)
}
