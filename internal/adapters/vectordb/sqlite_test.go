package vectordb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteVectorStore_SaveAndLoad(t *testing.T) {
	store, err := OpenSQLiteVectorStore(filepath.Join(t.TempDir(), "vectors.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	vectors := [][]float32{
		{1, 0, 0},
		{0, 0.6, 0.8},
		{-0.5, 0.5, 0.70710677},
	}
	meta := map[string]string{"manifest": `{"count":3}`}

	require.NoError(t, store.Save(ctx, vectors, meta))

	got, err := store.Vectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, vectors, got)

	gotMeta, err := store.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, meta, gotMeta)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSQLiteVectorStore_SaveReplaces(t *testing.T) {
	store, err := OpenSQLiteVectorStore(filepath.Join(t.TempDir(), "vectors.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, [][]float32{{1}, {2}, {3}}, map[string]string{"a": "1"}))
	require.NoError(t, store.Save(ctx, [][]float32{{4}}, map[string]string{"b": "2"}))

	got, err := store.Vectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{4}}, got)

	meta, err := store.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b": "2"}, meta)
}

func TestSQLiteVectorStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")
	ctx := context.Background()

	store, err := OpenSQLiteVectorStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, [][]float32{{0.25, 0.75}}, nil))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLiteVectorStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Vectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.25, 0.75}}, got)
	assert.Equal(t, path, reopened.Path())
}

func TestDecodeVector_BadLength(t *testing.T) {
	_, err := decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
