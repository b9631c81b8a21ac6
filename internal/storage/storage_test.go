package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/staticeval/internal/eval"
)

func TestEvalCache(t *testing.T) {
	dir := t.TempDir()

	cache, err := Open(dir)
	require.NoError(t, err)

	key := "Testfish\x00position startpos moves e2e4"
	want := eval.Vector{1.07, 1.02, -0.36, -0.36, 1.9, 1.28, 1.7}

	t.Run("miss", func(t *testing.T) {
		v, ok, err := cache.Get(key)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, cache.Put(key, want))
		v, ok, err := cache.Get(key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, want, v)
	})

	t.Run("hit rate", func(t *testing.T) {
		assert.Equal(t, 50.0, cache.HitRate())
		n, err := cache.Len()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	require.NoError(t, cache.Close())

	t.Run("persists across reopen", func(t *testing.T) {
		reopened, err := Open(dir)
		require.NoError(t, err)
		defer reopened.Close()

		v, ok, err := reopened.Get(key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, want, v)
	})
}

func TestDataPaths(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_DATA_HOME only applies on Linux")
	}
	base := t.TempDir()
	t.Setenv("XDG_DATA_HOME", base)

	cacheDir, err := GetCacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, appName, "cache"), cacheDir)

	info, err := os.Stat(cacheDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
