package cache_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-lang/lumen/internal/cache"
	"github.com/lumen-lang/lumen/internal/vm"
)

func TestStoreLookupRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	store, err := cache.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	gc := vm.NewGC()
	fn := buildSampleFunction(gc)
	source := "let x = 42\n"
	hash := cache.HashSource(source)

	_, ok, err := store.Lookup(hash, gc)
	require.NoError(t, err)
	require.False(t, ok, "fresh cache must miss")

	require.NoError(t, store.Store(hash, "main.lum", fn))

	decoded, ok, err := store.Lookup(hash, gc)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, fn.Name, decoded.Name)
}

func TestHashSourceDiffersOnContentChange(t *testing.T) {
	require.NotEqual(t, cache.HashSource("let x = 1\n"), cache.HashSource("let x = 2\n"))
	require.Equal(t, cache.HashSource("let x = 1\n"), cache.HashSource("let x = 1\n"))
}

func TestListReturnsStoredEntries(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	store, err := cache.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	gc := vm.NewGC()
	fn := buildSampleFunction(gc)
	hash := cache.HashSource("let y = 1\n")
	require.NoError(t, store.Store(hash, "a.lum", fn))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a.lum", entries[0].Path)
}
