package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dorepo/pkg/repository"
	"github.com/mesh-intelligence/dorepo/pkg/types"
)

func TestOpen_SharedBackend(t *testing.T) {
	backend, err := Open(filepath.Join(t.TempDir(), "db", "objects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	repo, err := repository.Open(types.Config{}, repository.WithBackend(backend))
	require.NoError(t, err)

	ctx := context.Background()
	obj := types.RestoreDigitalObject("S1", "shared", types.Metadata{"type": "note"})
	require.NoError(t, repo.Save(ctx, obj))

	rec, err := backend.LoadObject(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "S1", rec.Identifier)
	assert.Equal(t, types.Metadata{"type": "note"}, rec.Metadata)
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open("")
	assert.ErrorIs(t, err, types.ErrStorageURLEmpty)
}
