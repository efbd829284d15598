package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_Add(t *testing.T) {
	t.Parallel()

	t.Run("adds non-nil errors", func(t *testing.T) {
		t.Parallel()

		c := &Collection{}
		c.Add(errors.New("error 1")) //nolint:err113
		c.Add(errors.New("error 2")) //nolint:err113

		assert.True(t, c.HasError())
		assert.Equal(t, 2, c.Len())
	})

	t.Run("ignores nil errors", func(t *testing.T) {
		t.Parallel()

		c := &Collection{}
		c.Add(nil)

		assert.False(t, c.HasError())
		assert.Equal(t, 0, c.Len())
	})
}

func TestCollection_Clear(t *testing.T) {
	t.Parallel()

	c := &Collection{}
	c.Add(errors.New("error")) //nolint:err113
	c.Clear()

	assert.False(t, c.HasError())
	assert.NoError(t, c.GetError())
}

func TestCollection_GetError(t *testing.T) {
	t.Parallel()

	t.Run("empty collection returns nil", func(t *testing.T) {
		t.Parallel()

		c := &Collection{}
		assert.NoError(t, c.GetError())
	})

	t.Run("single error is returned as is", func(t *testing.T) {
		t.Parallel()

		sentinel := errors.New("only") //nolint:err113

		c := &Collection{}
		c.Add(sentinel)

		assert.Same(t, sentinel, c.GetError()) //nolint:testifylint
	})

	t.Run("multiple errors are joined", func(t *testing.T) {
		t.Parallel()

		first := errors.New("first")   //nolint:err113
		second := errors.New("second") //nolint:err113

		c := &Collection{}
		c.Add(first)
		c.Add(second)

		err := c.GetError()
		require.Error(t, err)
		require.ErrorIs(t, err, first)
		require.ErrorIs(t, err, second)
		assert.Contains(t, err.Error(), "first")
		assert.Contains(t, err.Error(), "second")
	})
}
