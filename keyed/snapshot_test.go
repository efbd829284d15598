package keyed_test

import (
	"encoding/json"
	"testing"

	"github.com/amp-labs/keyed-array/keyed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotsAreCopies(t *testing.T) {
	t.Parallel()

	s := abc()

	pairs := s.Pairs()
	pairs[0].Value = 100

	index := s.Index()
	index["a"] = 42

	keys := s.Keys()
	keys[0] = "zzz"

	assert.Equal(t, 1, s.Get("a"))
	assert.Equal(t, 0, s.IndexOf("a"))
	assert.Equal(t, "a", s.KeyOrZero(0))
	assert.Equal(t, []int{1, 2, 3}, s.Values())
}

func TestAll(t *testing.T) {
	t.Parallel()

	var keys []string

	for i, p := range abc().All() {
		assert.Len(t, keys, i)

		keys = append(keys, p.Key)
	}

	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestClone(t *testing.T) {
	t.Parallel()

	s := abc()
	c := s.Clone()
	c.Add("d", 4)
	c.Remove("a")

	assert.Equal(t, []string{"a", "b", "c"}, s.Keys())
	assert.Equal(t, []string{"b", "c", "d"}, c.Keys())
	require.NoError(t, c.Verify())
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("encodes ordered pairs only", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(abc())
		require.NoError(t, err)
		assert.JSONEq(t, `[{"key":"a","value":1},{"key":"b","value":2},{"key":"c","value":3}]`, string(data))
	})

	t.Run("empty sequence encodes as an empty array", func(t *testing.T) {
		t.Parallel()

		var s keyed.Sequence[string, int]

		data, err := json.Marshal(&s)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(data))
	})

	t.Run("decoding is a bulk replacement", func(t *testing.T) {
		t.Parallel()

		s := abc()
		require.NoError(t, json.Unmarshal([]byte(`[{"key":"c","value":3},{"key":"a","value":1}]`), s))

		assert.True(t, s.Stale())
		assert.True(t, s.Reconcile())
		assert.Equal(t, map[string]int{"c": 0, "a": 1}, s.Index())
	})

	t.Run("embedded in a struct", func(t *testing.T) {
		t.Parallel()

		type holder struct {
			Scores keyed.Sequence[string, float64] `json:"scores"`
		}

		var h holder

		h.Scores.Add("x", 1.5)

		data, err := json.Marshal(h)
		require.NoError(t, err)
		assert.JSONEq(t, `{"scores":[{"key":"x","value":1.5}]}`, string(data))

		var back holder

		require.NoError(t, json.Unmarshal(data, &back))
		assert.InDelta(t, 1.5, back.Scores.Get("x"), 0)
	})

	t.Run("malformed input", func(t *testing.T) {
		t.Parallel()

		s := abc()
		require.Error(t, json.Unmarshal([]byte(`{"nope":1}`), s))
		assert.False(t, s.Stale())
	})
}
