package keyed_test

import (
	"math/rand/v2"
	"slices"
	"strconv"
	"testing"

	"github.com/amp-labs/keyed-array/keyed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysOf[K comparable, V any](s *keyed.Sequence[K, V]) []K {
	return s.Keys()
}

func TestSequence_Scenario(t *testing.T) {
	t.Parallel()

	s := keyed.New[string, float64](0)

	assert.Equal(t, 0, s.Add("a", 1.0))
	assert.Equal(t, 1, s.Add("b", 2.0))
	assert.Equal(t, 0, s.Insert("c", 3.0, 0))

	assert.Equal(t, []string{"c", "a", "b"}, keysOf(s))
	assert.Equal(t, map[string]int{"c": 0, "a": 1, "b": 2}, s.Index())

	assert.True(t, s.Remove("a"))
	assert.Equal(t, []string{"c", "b"}, keysOf(s))
	assert.Equal(t, map[string]int{"c": 0, "b": 1}, s.Index())

	assert.InDelta(t, 0.0, s.Get("a"), 0)
	assert.False(t, s.Contains("a"))
	require.NoError(t, s.Verify())
}

func TestSequence_ZeroValue(t *testing.T) {
	t.Parallel()

	var s keyed.Sequence[string, int]

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Get("missing"))
	assert.False(t, s.Remove("missing"))
	assert.Equal(t, 0, s.Add("x", 5))
	assert.Equal(t, 5, s.Get("x"))
	require.NoError(t, s.Verify())
}

func TestSequence_Add(t *testing.T) {
	t.Parallel()

	t.Run("appends in insertion order", func(t *testing.T) {
		t.Parallel()

		s := keyed.New[int, string](4)
		for i := range 10 {
			assert.Equal(t, i, s.Add(i*7, strconv.Itoa(i)))
		}

		assert.Equal(t, 10, s.Len())
		require.NoError(t, s.Verify())
	})

	t.Run("upserts existing key in place", func(t *testing.T) {
		t.Parallel()

		s := keyed.New[string, int](0)
		s.Add("first", 0)
		first := s.Add("k", 1)
		s.Add("last", 2)

		second := s.Add("k", 2)

		assert.Equal(t, first, second)
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, 2, s.Get("k"))
		assert.Equal(t, []string{"first", "k", "last"}, keysOf(s))
	})

	t.Run("emplace is add", func(t *testing.T) {
		t.Parallel()

		s := keyed.New[string, int](0)
		assert.Equal(t, 0, s.Emplace("a", 1))
		assert.Equal(t, 0, s.Emplace("a", 2))
		assert.Equal(t, 2, s.Get("a"))
	})

	t.Run("negative capacity is tolerated", func(t *testing.T) {
		t.Parallel()

		s := keyed.New[string, int](-3)
		assert.Equal(t, 0, s.Add("a", 1))
	})
}

func TestSequence_Insert(t *testing.T) {
	t.Parallel()

	t.Run("inserts in the middle and reindexes", func(t *testing.T) {
		t.Parallel()

		s := keyed.New[string, int](0)
		s.Add("a", 1)
		s.Add("b", 2)
		s.Add("c", 3)

		assert.Equal(t, 1, s.Insert("x", 9, 1))
		assert.Equal(t, []string{"a", "x", "b", "c"}, keysOf(s))
		assert.Equal(t, 2, s.IndexOf("b"))
		assert.Equal(t, 3, s.IndexOf("c"))
		require.NoError(t, s.Verify())
	})

	t.Run("existing key ignores position", func(t *testing.T) {
		t.Parallel()

		s := keyed.New[string, int](0)
		s.Add("a", 1)
		s.Add("b", 2)

		assert.Equal(t, 1, s.Insert("b", 5, 0))
		assert.Equal(t, []string{"a", "b"}, keysOf(s))
		assert.Equal(t, 5, s.Get("b"))
	})

	t.Run("position is clamped", func(t *testing.T) {
		t.Parallel()

		s := keyed.New[string, int](0)
		s.Add("a", 1)

		assert.Equal(t, 1, s.Insert("end", 2, 99))
		assert.Equal(t, 0, s.Insert("start", 0, -4))
		assert.Equal(t, []string{"start", "a", "end"}, keysOf(s))
		require.NoError(t, s.Verify())
	})

	t.Run("insert at end behaves like append", func(t *testing.T) {
		t.Parallel()

		s := keyed.New[string, int](0)
		assert.Equal(t, 0, s.Insert("a", 1, 0))
		assert.Equal(t, 1, s.Insert("b", 2, 1))
		require.NoError(t, s.Verify())
	})

	t.Run("EmplaceAt is Insert", func(t *testing.T) {
		t.Parallel()

		s := keyed.New[string, int](0)
		s.Add("a", 1)
		s.Add("c", 3)

		assert.Equal(t, 1, s.EmplaceAt("b", 2, 1))
		assert.Equal(t, 0, s.EmplaceAt("c", 30, 0))
		assert.Equal(t, []string{"a", "b", "c"}, keysOf(s))
		assert.Equal(t, 30, s.Get("c"))
		require.NoError(t, s.Verify())
	})
}

func TestSequence_Remove(t *testing.T) {
	t.Parallel()

	t.Run("absent key is not an error", func(t *testing.T) {
		t.Parallel()

		s := keyed.New[string, int](0)
		s.Add("a", 1)

		assert.False(t, s.Remove("b"))
		assert.Equal(t, 1, s.Len())
	})

	t.Run("remove then re-add", func(t *testing.T) {
		t.Parallel()

		s := keyed.New[string, int](0)
		s.Add("a", 1)
		s.Add("b", 2)

		assert.True(t, s.Remove("a"))
		assert.False(t, s.Contains("a"))

		pos := s.Add("a", 1)
		assert.True(t, s.IsValidIndex(pos))
		assert.Equal(t, 1, s.Get("a"))
		require.NoError(t, s.Verify())
	})

	t.Run("remove at position", func(t *testing.T) {
		t.Parallel()

		s := keyed.New[string, int](0)
		s.Add("a", 1)
		s.Add("b", 2)
		s.Add("c", 3)

		assert.True(t, s.RemoveAt(0))
		assert.False(t, s.Contains("a"))
		assert.Equal(t, 0, s.IndexOf("b"))
		assert.Equal(t, 1, s.IndexOf("c"))
		require.NoError(t, s.Verify())

		assert.False(t, s.RemoveAt(-1))
		assert.False(t, s.RemoveAt(2))
	})
}

func TestSequence_Accessors(t *testing.T) {
	t.Parallel()

	s := keyed.New[string, int](0)
	s.Add("a", 1)
	s.Add("b", 2)

	t.Run("lookup", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, 2, s.Lookup("b").GetOrPanic())
		assert.True(t, s.Lookup("z").Empty())
		assert.Equal(t, keyed.Pair[string, int]{Key: "a", Value: 1}, s.PairOf("a").GetOrPanic())
		assert.True(t, s.PairOf("z").Empty())
		assert.Equal(t, "b", s.PairAt(1).GetOrPanic().Key)
		assert.True(t, s.PairAt(2).Empty())
	})

	t.Run("keys by position", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "a", s.KeyAt(0).GetOrPanic())
		assert.True(t, s.KeyAt(5).Empty())
		assert.Equal(t, "b", s.KeyOrZero(1))
		assert.Empty(t, s.KeyOrZero(-1))
		assert.Equal(t, -1, s.IndexOf("z"))
	})

	t.Run("last", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, 2, s.Last(0))
		assert.Equal(t, "a", s.LastPair(1).Key)
		assert.Equal(t, "b", s.LastPairOrNone(0).GetOrPanic().Key)
		assert.True(t, s.LastPairOrNone(2).Empty())
		assert.True(t, s.LastPairOrNone(-1).Empty())
		assert.Panics(t, func() { s.LastPair(2) })
		assert.Panics(t, func() { s.Last(-1) })
	})
}

func TestSequence_Pointers(t *testing.T) {
	t.Parallel()

	s := keyed.New[string, int](0)
	s.Add("a", 1)
	s.Add("b", 2)

	*s.ValuePtr("a") = 10
	assert.Equal(t, 10, s.Get("a"))

	*s.ValuePtrAt(1) = 20
	assert.Equal(t, 20, s.Get("b"))

	assert.Nil(t, s.PairPtr("z"))
	assert.Nil(t, s.PairPtrAt(9))
	assert.Nil(t, s.ValuePtr("z"))
	assert.Nil(t, s.ValuePtrAt(-1))

	// Rewriting a key through a pointer needs a reconcile.
	s.PairPtrAt(0).Key = "renamed"
	require.Error(t, s.Verify())
	assert.True(t, s.Reconcile())
	assert.Equal(t, 10, s.Get("renamed"))
	require.NoError(t, s.Verify())
}

func TestSequence_Clear(t *testing.T) {
	t.Parallel()

	t.Run("release storage", func(t *testing.T) {
		t.Parallel()

		s := keyed.New[string, int](0)
		s.Add("a", 1)
		s.Clear(0)

		assert.Equal(t, 0, s.Len())
		assert.False(t, s.Contains("a"))
		assert.Equal(t, 0, s.Add("b", 2))
		require.NoError(t, s.Verify())
	})

	t.Run("reserve keeps the sequence usable", func(t *testing.T) {
		t.Parallel()

		s := keyed.New[string, int](0)
		s.Add("a", 1)
		s.Add("b", 2)
		s.Clear(1)
		s.Clear(64)

		assert.Equal(t, 0, s.Len())
		assert.GreaterOrEqual(t, s.Cap(), 64)
		assert.Empty(t, s.Index())
		assert.Equal(t, 0, s.Add("c", 3))
		require.NoError(t, s.Verify())
	})
}

// model is a naive reference implementation used to cross-check Sequence.
type model struct {
	keys   []int
	values []int
}

func (m *model) find(key int) int {
	return slices.Index(m.keys, key)
}

func TestSequence_RandomOperationsKeepIndexConsistent(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2)) //nolint:gosec
	s := keyed.New[int, int](0)
	ref := &model{keys: []int{}, values: []int{}}

	for step := range 2000 {
		key := rng.IntN(40)
		value := rng.IntN(1000)

		switch rng.IntN(5) {
		case 0, 1:
			pos := s.Add(key, value)
			if i := ref.find(key); i >= 0 {
				ref.values[i] = value
				assert.Equal(t, i, pos)
			} else {
				ref.keys = append(ref.keys, key)
				ref.values = append(ref.values, value)
				assert.Equal(t, len(ref.keys)-1, pos)
			}
		case 2:
			at := rng.IntN(len(ref.keys) + 1)

			pos := s.Insert(key, value, at)
			if i := ref.find(key); i >= 0 {
				ref.values[i] = value
				assert.Equal(t, i, pos)
			} else {
				ref.keys = slices.Insert(ref.keys, at, key)
				ref.values = slices.Insert(ref.values, at, value)
				assert.Equal(t, at, pos)
			}
		case 3:
			i := ref.find(key)
			assert.Equal(t, i >= 0, s.Remove(key))

			if i >= 0 {
				ref.keys = slices.Delete(ref.keys, i, i+1)
				ref.values = slices.Delete(ref.values, i, i+1)
			}
		case 4:
			pos := rng.IntN(len(ref.keys) + 2)
			valid := pos < len(ref.keys)
			assert.Equal(t, valid, s.RemoveAt(pos))

			if valid {
				ref.keys = slices.Delete(ref.keys, pos, pos+1)
				ref.values = slices.Delete(ref.values, pos, pos+1)
			}
		}

		require.NoError(t, s.Verify(), "step %d", step)
		require.Equal(t, ref.keys, s.Keys(), "step %d", step)
		require.Equal(t, ref.values, s.Values(), "step %d", step)
	}
}
