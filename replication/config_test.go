package replication_test

import (
	"os"
	"testing"

	"github.com/amp-labs/keyed-array/envutil"
	"github.com/amp-labs/keyed-array/replication"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("KEYEDARRAY_COMPRESSION", "")
		t.Setenv("KEYEDARRAY_FANOUT_WORKERS", "")

		// An empty variable is still set; unset it for the default path.
		require.NoError(t, os.Unsetenv("KEYEDARRAY_COMPRESSION"))
		require.NoError(t, os.Unsetenv("KEYEDARRAY_FANOUT_WORKERS"))

		cfg, err := replication.ConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, replication.CompressionZstd, cfg.Compression)
		assert.Equal(t, 8, cfg.FanoutWorkers)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("KEYEDARRAY_COMPRESSION", "brotli")
		t.Setenv("KEYEDARRAY_FANOUT_WORKERS", "3")

		cfg, err := replication.ConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, replication.CompressionBrotli, cfg.Compression)
		assert.Equal(t, 3, cfg.FanoutWorkers)
	})

	t.Run("unknown compression", func(t *testing.T) {
		t.Setenv("KEYEDARRAY_COMPRESSION", "rar")
		t.Setenv("KEYEDARRAY_FANOUT_WORKERS", "3")

		_, err := replication.ConfigFromEnv()
		require.ErrorIs(t, err, replication.ErrUnknownCompression)
	})

	t.Run("non-positive workers", func(t *testing.T) {
		t.Setenv("KEYEDARRAY_COMPRESSION", "none")
		t.Setenv("KEYEDARRAY_FANOUT_WORKERS", "0")

		_, err := replication.ConfigFromEnv()
		require.ErrorIs(t, err, envutil.ErrBadEnvVar)
	})
}
