package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemDB(t *testing.T) {
	db := NewMemDB()
	t.Cleanup(db.Close)

	ok, err := db.Has([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = db.Get([]byte("missing"))
	assert.Error(t, err)

	require.NoError(t, db.Put([]byte("key"), []byte("value")))
	ok, err = db.Has([]byte("key"))
	require.NoError(t, err)
	assert.True(t, ok)
	value, err := db.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)

	// Stored values are copies, not aliases.
	value[0] = 'X'
	reread, err := db.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), reread)
}

func TestLevelDBRoundTrip(t *testing.T) {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "ledger"))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Put([]byte("key"), []byte("value")))
	ok, err := db.Has([]byte("key"))
	require.NoError(t, err)
	assert.True(t, ok)
	value, err := db.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)

	ok, err = db.Has([]byte("other"))
	require.NoError(t, err)
	assert.False(t, ok)
}
