package summary

import (
	"testing"
	"time"

	"coco/internal/storage"

	"github.com/stretchr/testify/require"
)

func TestStoreSaveAndLoadAll(t *testing.T) {
	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	s := NewStore(db)
	require.NoError(t, s.Save(Summary{ID: "s1", Text: "first", CoversFrom: "e1", CoversTo: "e10", TokenEstimate: 50, CreatedAt: time.Now()}))
	require.NoError(t, s.Save(Summary{ID: "s2", Text: "second", CoversFrom: "e11", CoversTo: "e20", TokenEstimate: 40, CreatedAt: time.Now()}))

	all, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "s1", all[0].ID)
	require.Equal(t, "s2", all[1].ID)
}
