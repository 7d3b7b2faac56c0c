package archive

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dorepo/pkg/irs"
	"github.com/mesh-intelligence/dorepo/pkg/repository"
	"github.com/mesh-intelligence/dorepo/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openRepo(t *testing.T, url string) *repository.Repository {
	t.Helper()
	r, err := repository.Open(types.Config{StorageURL: url}, repository.WithLogger(discardLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func seed(t *testing.T, repo *repository.Repository) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, types.RestoreDigitalObject("A", "alpha", types.Metadata{"type": "note"})))
	require.NoError(t, repo.Save(ctx, types.RestoreDigitalObject("B", map[string]any{"n": 2.0}, nil)))
	_, err := repo.CreateRelationship(ctx, []string{"A"}, []string{"B"}, types.Metadata{"type": "cites"})
	require.NoError(t, err)
}

func TestExportRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openRepo(t, "sqlite://"+filepath.Join(t.TempDir(), "src.db"))
	seed(t, src)

	a := New(filepath.Join(t.TempDir(), "backup"), discardLogger())
	stats, err := a.Export(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, Stats{Objects: 2, Relationships: 1}, stats)

	// Restore into the degraded backend to cross engines.
	dst := openRepo(t, filepath.Join(t.TempDir(), "dst"))
	stats, err = a.Restore(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, Stats{Objects: 2, Relationships: 1}, stats)

	for _, id := range []string{"A", "B"} {
		want, err := src.Load(ctx, id)
		require.NoError(t, err)
		got, err := dst.Load(ctx, id)
		require.NoError(t, err)
		if diff := deep.Equal(want.Data(), got.Data()); diff != nil {
			t.Errorf("%s data: %v", id, diff)
		}
		if diff := deep.Equal(want.Metadata(), got.Metadata()); diff != nil {
			t.Errorf("%s metadata: %v", id, diff)
		}
	}

	wantRels, err := src.ListRelationships(ctx, types.RelationshipFilter{})
	require.NoError(t, err)
	gotRels, err := dst.ListRelationships(ctx, types.RelationshipFilter{})
	require.NoError(t, err)
	require.Len(t, gotRels, 1)
	assert.Equal(t, wantRels[0].Identifier(), gotRels[0].Identifier())
	assert.True(t, wantRels[0].CreatedAt().Equal(gotRels[0].CreatedAt()))
}

func TestExportRestore_TypedPayloads(t *testing.T) {
	ctx := context.Background()
	src := openRepo(t, "sqlite://"+filepath.Join(t.TempDir(), "src.db"))
	payloads := map[string]any{
		"bytes":  []byte{0, 1, 0xff},
		"int":    42,
		"uint64": uint64(1) << 63,
		"nested": map[string]any{"raw": []byte("x"), "n": int64(-7), "f": 1.5},
		"absent": nil,
	}
	for id, data := range payloads {
		require.NoError(t, src.Save(ctx, types.RestoreDigitalObject(id, data, nil)))
	}

	a := New(t.TempDir(), discardLogger())
	_, err := a.Export(ctx, src)
	require.NoError(t, err)

	dst := openRepo(t, filepath.Join(t.TempDir(), "dst"))
	stats, err := a.Restore(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, Stats{Objects: len(payloads)}, stats)

	for id, want := range payloads {
		got, err := dst.Load(ctx, id)
		require.NoError(t, err)
		assert.IsType(t, want, got.Data(), id)
		if diff := deep.Equal(want, got.Data()); diff != nil {
			t.Errorf("%s: %v", id, diff)
		}
	}
}

func TestRestore_Twice(t *testing.T) {
	ctx := context.Background()
	src := openRepo(t, "sqlite://"+filepath.Join(t.TempDir(), "src.db"))
	seed(t, src)

	a := New(t.TempDir(), discardLogger())
	_, err := a.Export(ctx, src)
	require.NoError(t, err)

	stats, err := a.Restore(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, Stats{Skipped: 3}, stats)
}

func TestRestore_SkipsMalformedLines(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	lines := strings.Join([]string{
		`{"doid":"A","data":"x","metadata":{}}`,
		`not json`,
		``,
		`{"data":"no id"}`,
		`{"doid":"C","data":{"$nope":"x"}}`,
		`{"doid":"B","data":[1,2],"metadata":{"k":"v"}}`,
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ObjectsFile), []byte(lines), 0o644))

	dst := openRepo(t, "sqlite://"+filepath.Join(t.TempDir(), "dst.db"))
	stats, err := New(dir, discardLogger()).Restore(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, Stats{Objects: 2, Skipped: 3}, stats)

	ids, err := dst.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ids)
}

func TestRestore_MissingObjectsFile(t *testing.T) {
	dst := openRepo(t, "sqlite://"+filepath.Join(t.TempDir(), "dst.db"))
	_, err := New(t.TempDir(), discardLogger()).Restore(context.Background(), dst)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExport_EmptyRepository(t *testing.T) {
	src := openRepo(t, filepath.Join(t.TempDir(), "empty"))
	dir := t.TempDir()

	stats, err := New(dir, discardLogger()).Export(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)

	for _, name := range []string{ObjectsFile, RelationshipsFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	files := map[string]string{
		"one.json":         `{"data":"first","metadata":{"type":"note"}}`,
		"nested/two.json":  `{"data":{"k":[1,2]}}`,
		"nested/skip.txt":  `ignored`,
		".hidden/x.json":   `{"data":"hidden"}`,
		"nested/.tmp.json": `{"data":"hidden file"}`,
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	repo := openRepo(t, "sqlite://"+filepath.Join(t.TempDir(), "objects.db"))
	gen := irs.New(repo)

	imported, err := Import(ctx, repo, gen, dir, 2)
	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Equal(t, filepath.Join(dir, "nested", "two.json"), imported[0].Path)
	assert.Equal(t, filepath.Join(dir, "one.json"), imported[1].Path)

	obj, err := repo.Load(ctx, imported[1].Identifier)
	require.NoError(t, err)
	assert.Equal(t, "first", obj.Data())
	assert.Equal(t, "note", obj.Metadata().String(types.MetaKeyType))
}

func TestImport_BadFileStops(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644))

	repo := openRepo(t, filepath.Join(t.TempDir(), "objects"))
	_, err := Import(context.Background(), repo, irs.New(repo), dir, 0)
	assert.ErrorContains(t, err, "bad.json")
}

func TestImport_MissingDirectory(t *testing.T) {
	repo := openRepo(t, filepath.Join(t.TempDir(), "objects"))
	_, err := Import(context.Background(), repo, irs.New(repo), filepath.Join(t.TempDir(), "nope"), 1)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
