package keyed_test

import (
	"math/rand/v2"
	"testing"

	"github.com/amp-labs/keyed-array/keyed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair = keyed.Pair[string, int]

func abc() *keyed.Sequence[string, int] {
	return keyed.FromPairs(pair{"a", 1}, pair{"b", 2}, pair{"c", 3})
}

func TestReconcile(t *testing.T) {
	t.Parallel()

	t.Run("consistent index is a no-op", func(t *testing.T) {
		t.Parallel()

		s := abc()
		assert.False(t, s.Reconcile())
	})

	t.Run("value-only replacement does not rebuild", func(t *testing.T) {
		t.Parallel()

		s := abc()
		s.Replace([]pair{{"a", 10}, {"b", 20}, {"c", 30}})
		assert.True(t, s.Stale())

		assert.False(t, s.Reconcile())
		assert.False(t, s.Stale())
		assert.Equal(t, 20, s.Get("b"))
	})

	t.Run("size change rebuilds", func(t *testing.T) {
		t.Parallel()

		s := abc()
		s.Replace([]pair{{"a", 1}, {"b", 2}})

		assert.True(t, s.Reconcile())
		assert.False(t, s.Contains("c"))
		require.NoError(t, s.Verify())
	})

	t.Run("reordering rebuilds", func(t *testing.T) {
		t.Parallel()

		s := abc()
		s.Replace([]pair{{"c", 3}, {"a", 1}, {"b", 2}})

		assert.True(t, s.Reconcile())
		assert.Equal(t, 0, s.IndexOf("c"))
		assert.Equal(t, 2, s.IndexOf("b"))
		require.NoError(t, s.Verify())
	})

	t.Run("new key with same size rebuilds", func(t *testing.T) {
		t.Parallel()

		s := abc()
		s.Replace([]pair{{"a", 1}, {"b", 2}, {"d", 4}})

		assert.True(t, s.Reconcile())
		assert.Equal(t, 4, s.Get("d"))
		assert.False(t, s.Contains("c"))
	})

	t.Run("second call is always a no-op", func(t *testing.T) {
		t.Parallel()

		s := abc()
		s.Replace([]pair{{"z", 0}})

		assert.True(t, s.Reconcile())
		assert.False(t, s.Reconcile())
	})

	t.Run("duplicate keys keep the first occurrence", func(t *testing.T) {
		t.Parallel()

		s := abc()
		s.Replace([]pair{{"a", 1}, {"b", 2}, {"a", 9}, {"c", 3}})

		assert.True(t, s.Reconcile())
		assert.Equal(t, []string{"a", "b", "c"}, s.Keys())
		assert.Equal(t, 1, s.Get("a"))
		require.NoError(t, s.Verify())
		assert.False(t, s.Reconcile())
	})

	t.Run("replace with empty", func(t *testing.T) {
		t.Parallel()

		s := abc()
		s.Replace(nil)

		assert.True(t, s.Reconcile())
		assert.Equal(t, 0, s.Len())
		assert.Empty(t, s.Index())
	})
}

func TestReconcile_LazyRepairIsReported(t *testing.T) {
	t.Parallel()

	s := abc()
	s.Replace([]pair{{"b", 2}, {"a", 1}})

	// A key based read repairs the index on its own...
	assert.Equal(t, 0, s.IndexOf("b"))
	assert.False(t, s.Stale())

	// ...and the explicit repair point still reports the change once.
	assert.True(t, s.Reconcile())
	assert.False(t, s.Reconcile())
}

func TestReconcile_StaleMutationsSeeRepairedIndex(t *testing.T) {
	t.Parallel()

	s := abc()
	s.Replace([]pair{{"c", 3}, {"b", 2}, {"a", 1}})

	assert.True(t, s.Remove("b"))
	assert.Equal(t, []string{"c", "a"}, s.Keys())
	require.NoError(t, s.Verify())
}

func TestRebuild(t *testing.T) {
	t.Parallel()

	s := abc()
	s.Replace([]pair{{"x", 1}})
	s.Rebuild()

	assert.False(t, s.Stale())
	assert.Equal(t, map[string]int{"x": 0}, s.Index())
	assert.False(t, s.Reconcile())
}

func TestVerify(t *testing.T) {
	t.Parallel()

	t.Run("consistent", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, abc().Verify())
	})

	t.Run("stale index is reported", func(t *testing.T) {
		t.Parallel()

		s := abc()
		s.Replace([]pair{{"b", 2}, {"d", 4}})

		err := s.Verify()
		require.ErrorIs(t, err, keyed.ErrIndexInconsistent)
		assert.Contains(t, err.Error(), "d at position 1 is not indexed")
		assert.Contains(t, err.Error(), "b at position 0 is indexed at 1")
	})

	t.Run("duplicates are reported", func(t *testing.T) {
		t.Parallel()

		s := abc()
		s.Replace([]pair{{"a", 1}, {"a", 2}})

		require.ErrorIs(t, s.Verify(), keyed.ErrDuplicateKey)
	})
}

func TestReconcile_RandomPermutations(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11)) //nolint:gosec

	universe := make([]keyed.Pair[int, int], 50)
	for i := range universe {
		universe[i] = keyed.Pair[int, int]{Key: i, Value: i * i}
	}

	s := keyed.FromPairs(universe...)

	for round := range 200 {
		replacement := append([]keyed.Pair[int, int](nil), universe...)
		rng.Shuffle(len(replacement), func(i, j int) {
			replacement[i], replacement[j] = replacement[j], replacement[i]
		})

		replacement = replacement[:rng.IntN(len(replacement)+1)]
		s.Replace(replacement)
		s.Reconcile()

		require.NoError(t, s.Verify(), "round %d", round)
		require.False(t, s.Reconcile(), "round %d", round)

		for i, p := range replacement {
			require.Equal(t, i, s.IndexOf(p.Key))
		}
	}
}
