package keyed

import (
	"errors"
	"fmt"

	errors2 "github.com/amp-labs/keyed-array/errors"
)

var (
	// ErrIndexInconsistent is reported by Verify when the index does not match
	// the position of a key in the backing slice.
	ErrIndexInconsistent = errors.New("keyed: index inconsistent with sequence")

	// ErrDuplicateKey is reported by Verify when a key occurs more than once.
	ErrDuplicateKey = errors.New("keyed: duplicate key")
)

// Replace installs pairs as the new backing slice, the way a network update
// overwrites the whole array. The Sequence takes ownership of the slice. The
// index is marked stale; call Reconcile afterwards to repair it and learn
// whether the key layout changed.
func (s *Sequence[K, V]) Replace(pairs []Pair[K, V]) {
	s.pairs = pairs
	s.stale = true
}

// Stale reports whether the backing slice was replaced and not yet reconciled.
func (s *Sequence[K, V]) Stale() bool {
	return s.stale
}

// Reconcile repairs the index after the backing slice changed through Replace
// (or through a pointer that rewrote a Key). It returns true if the index had to
// be rebuilt and false if it already matched.
//
// The check is a single ordered walk that stops at the first key whose indexed
// position differs. Any divergence forces a full rebuild; the index is never
// patched partially. Calling Reconcile again without an intervening change
// always returns false.
func (s *Sequence[K, V]) Reconcile() bool {
	changed := s.reconcile() || s.unreported
	s.unreported = false

	return changed
}

func (s *Sequence[K, V]) reconcile() bool {
	s.stale = false

	if s.consistent() {
		return false
	}

	s.rebuild()

	return true
}

func (s *Sequence[K, V]) consistent() bool {
	if len(s.index) != len(s.pairs) {
		return false
	}

	for i, pair := range s.pairs {
		pos, ok := s.index[pair.Key]
		if !ok || pos != i {
			return false
		}
	}

	return true
}

// Rebuild unconditionally recreates the index from the backing slice. It is
// O(n). Later duplicates of a key are dropped from the slice so every key stays
// unique.
func (s *Sequence[K, V]) Rebuild() {
	s.stale = false
	s.rebuild()
}

func (s *Sequence[K, V]) rebuild() {
	s.index = make(map[K]int, len(s.pairs))

	kept := s.pairs[:0]

	for _, pair := range s.pairs {
		if _, dup := s.index[pair.Key]; dup {
			continue
		}

		s.index[pair.Key] = len(kept)
		kept = append(kept, pair)
	}

	clear(s.pairs[len(kept):])
	s.pairs = kept
}

// Verify checks the sequence against the index without repairing anything.
// It returns nil when every key is unique and indexed at its actual position,
// otherwise an error describing every problem found.
func (s *Sequence[K, V]) Verify() error {
	var problems errors2.Collection

	seen := make(map[K]int, len(s.pairs))

	for i, pair := range s.pairs {
		if first, dup := seen[pair.Key]; dup {
			problems.Add(fmt.Errorf("%w: %v at positions %d and %d", ErrDuplicateKey, pair.Key, first, i))

			continue
		}

		seen[pair.Key] = i

		pos, ok := s.index[pair.Key]

		switch {
		case !ok:
			problems.Add(fmt.Errorf("%w: %v at position %d is not indexed", ErrIndexInconsistent, pair.Key, i))
		case pos != i:
			problems.Add(fmt.Errorf("%w: %v at position %d is indexed at %d", ErrIndexInconsistent, pair.Key, i, pos))
		}
	}

	for key, pos := range s.index {
		if _, ok := seen[key]; !ok {
			problems.Add(fmt.Errorf("%w: %v indexed at %d is not in the sequence", ErrIndexInconsistent, key, pos))
		}
	}

	return problems.GetError()
}
