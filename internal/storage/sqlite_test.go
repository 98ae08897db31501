package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesSchema(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	require.NoError(t, err)
	defer db.Close()

	var count int
	row := db.Conn().QueryRow(`SELECT COUNT(*) FROM schema_version`)
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, len(migrations), count)
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	db1, err := Open(dir)
	require.NoError(t, err)
	db1.Close()

	db2, err := Open(dir)
	require.NoError(t, err)
	defer db2.Close()

	var count int
	row := db2.Conn().QueryRow(`SELECT COUNT(*) FROM schema_version`)
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, len(migrations), count)
}
