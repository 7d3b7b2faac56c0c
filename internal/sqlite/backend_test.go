package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dorepo/pkg/types"
)

// setupBackend attaches a Backend to a fresh database file and detaches it
// when the test ends.
func setupBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := Open(filepath.Join(t.TempDir(), "objects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackend_Attach(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "objects.db")

	b := NewBackend()
	require.NoError(t, b.Attach(dbPath))
	defer b.Detach()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file not created")
	}
	assert.Equal(t, dbPath, b.Path())

	err := b.Attach(dbPath)
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)
}

func TestBackend_Detach(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "second Detach should not error")

	_, err := b.LoadObject(ctx, "T1")
	assert.ErrorIs(t, err, types.ErrDetached)
	assert.ErrorIs(t, b.InsertObject(ctx, types.ObjectRecord{Identifier: "T1"}), types.ErrDetached)
	_, err = b.ListRelationships(ctx, types.RelationshipFilter{})
	assert.ErrorIs(t, err, types.ErrDetached)
}

func TestBackend_SchemaVersion(t *testing.T) {
	b := setupBackend(t)
	var version int
	require.NoError(t, b.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, schemaVersion, version)
}

func TestBackend_ReattachKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "objects.db")
	ctx := context.Background()

	b1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, b1.InsertObject(ctx, types.ObjectRecord{Identifier: "T1", Data: []byte(`"x"`)}))
	require.NoError(t, b1.Detach())

	b2, err := Open(path)
	require.NoError(t, err)
	defer b2.Detach()
	rec, err := b2.LoadObject(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"x"`), rec.Data)
}

func TestObjects_CRUD(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	rec := types.ObjectRecord{
		Identifier: "T1",
		Data:       []byte(`"x"`),
		Metadata:   types.Metadata{"k": "v"},
	}
	require.NoError(t, b.InsertObject(ctx, rec))

	got, err := b.LoadObject(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	rec.Data = []byte(`"y"`)
	rec.Metadata = types.Metadata{"k": "w"}
	require.NoError(t, b.UpdateObject(ctx, rec))

	got, err = b.LoadObject(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"y"`), got.Data)
	assert.Equal(t, "w", got.Metadata["k"])

	require.NoError(t, b.DeleteObject(ctx, "T1"))
	_, err = b.LoadObject(ctx, "T1")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestObjects_ZeroRowsAreNotFound(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	tests := []struct {
		name string
		op   func() error
	}{
		{"load missing", func() error { _, err := b.LoadObject(ctx, "missing"); return err }},
		{"update missing", func() error { return b.UpdateObject(ctx, types.ObjectRecord{Identifier: "missing"}) }},
		{"delete missing", func() error { return b.DeleteObject(ctx, "missing") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.op(), types.ErrNotFound)
		})
	}
}

func TestObjects_DeleteTwice(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	require.NoError(t, b.InsertObject(ctx, types.ObjectRecord{Identifier: "T1"}))
	require.NoError(t, b.DeleteObject(ctx, "T1"))
	assert.ErrorIs(t, b.DeleteObject(ctx, "T1"), types.ErrNotFound)
}

func TestObjects_DuplicateInsertConflicts(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	require.NoError(t, b.InsertObject(ctx, types.ObjectRecord{Identifier: "T1", Data: []byte(`"a"`)}))
	err := b.InsertObject(ctx, types.ObjectRecord{Identifier: "T1", Data: []byte(`"b"`)})
	require.ErrorIs(t, err, types.ErrIntegrityConflict)

	got, err := b.LoadObject(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"a"`), got.Data, "conflicting insert must not overwrite")
}

func TestObjects_NilMetadataLoadsEmpty(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	require.NoError(t, b.InsertObject(ctx, types.ObjectRecord{Identifier: "T1"}))
	got, err := b.LoadObject(ctx, "T1")
	require.NoError(t, err)
	assert.NotNil(t, got.Metadata)
	assert.Empty(t, got.Metadata)
}

func TestObjects_List(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	ids, err := b.ListObjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, b.InsertObject(ctx, types.ObjectRecord{Identifier: id}))
	}
	ids, err = b.ListObjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestObjects_ConcurrentInserts(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = b.InsertObject(ctx, types.ObjectRecord{Identifier: string(rune('a' + i))})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	ids, err := b.ListObjects(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 20)
}

func TestObjects_CanceledContext(t *testing.T) {
	b := setupBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.InsertObject(ctx, types.ObjectRecord{Identifier: "T1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRelationships_InsertAndLoad(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	rel := types.NewRelationship([]string{"A"}, []string{"B", "C"}, types.Metadata{"type": "derives"})
	require.NoError(t, b.InsertRelationship(ctx, rel))

	got, err := b.LoadRelationship(ctx, rel.Identifier())
	require.NoError(t, err)
	assert.Equal(t, rel.Identifier(), got.Identifier())
	assert.Equal(t, []string{"A"}, got.Sources())
	assert.Equal(t, []string{"B", "C"}, got.Targets())
	assert.Equal(t, "derives", got.Kind())
	assert.True(t, rel.CreatedAt().Equal(got.CreatedAt()))

	_, err = b.LoadRelationship(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRelationships_EmptySets(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	rel := types.NewRelationship(nil, nil, nil)
	require.NoError(t, b.InsertRelationship(ctx, rel))

	got, err := b.LoadRelationship(ctx, rel.Identifier())
	require.NoError(t, err)
	assert.Empty(t, got.Sources())
	assert.Empty(t, got.Targets())
}

func TestRelationships_DuplicateConflicts(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	rel := types.NewRelationship([]string{"A"}, []string{"B"}, nil)
	require.NoError(t, b.InsertRelationship(ctx, rel))
	assert.ErrorIs(t, b.InsertRelationship(ctx, rel), types.ErrIntegrityConflict)
}

func TestRelationships_ListFilter(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r1 := types.RestoreRelationship("r1", []string{"A"}, []string{"B", "C"}, types.Metadata{"type": "derives"}, base)
	r2 := types.RestoreRelationship("r2", []string{"B"}, []string{"D"}, types.Metadata{"type": "cites"}, base.Add(time.Second))
	r3 := types.RestoreRelationship("r3", []string{"A", "D"}, []string{"C"}, types.Metadata{"type": "cites"}, base.Add(100*time.Millisecond))
	for _, r := range []*types.Relationship{r1, r2, r3} {
		require.NoError(t, b.InsertRelationship(ctx, r))
	}

	tests := []struct {
		name   string
		filter types.RelationshipFilter
		want   []string
	}{
		{"all ordered by creation", types.RelationshipFilter{}, []string{"r1", "r3", "r2"}},
		{"by source", types.RelationshipFilter{Source: "A"}, []string{"r1", "r3"}},
		{"by target", types.RelationshipFilter{Target: "C"}, []string{"r1", "r3"}},
		{"by kind", types.RelationshipFilter{Kind: "cites"}, []string{"r3", "r2"}},
		{"combined", types.RelationshipFilter{Source: "A", Kind: "cites"}, []string{"r3"}},
		{"no match", types.RelationshipFilter{Source: "Z"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rels, err := b.ListRelationships(ctx, tt.filter)
			require.NoError(t, err)
			got := make([]string, 0, len(rels))
			for _, r := range rels {
				got = append(got, r.Identifier())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelationships_VisibleToSecondBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "objects.db")
	ctx := context.Background()

	b1, err := Open(path)
	require.NoError(t, err)
	defer b1.Detach()

	rel := types.NewRelationship([]string{"A"}, []string{"B", "C"}, types.Metadata{"type": "derives"})
	require.NoError(t, b1.InsertRelationship(ctx, rel))

	b2, err := Open(path)
	require.NoError(t, err)
	defer b2.Detach()

	got, err := b2.LoadRelationship(ctx, rel.Identifier())
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, got.Targets())
}
