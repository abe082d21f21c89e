package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("record-1/front.png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "record-1/front.png", name)

	data, err := store.ReadAll(name)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	require.NoError(t, store.Delete(name))
	_, err = store.ReadAll(name)
	require.Error(t, err)
}

func TestLocalStorageStaysInsideBaseDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	path, err := store.resolve("../../etc/passwd")
	require.NoError(t, err)
	assert.Contains(t, path, dir)

	_, err = store.resolve("")
	require.Error(t, err)
}
