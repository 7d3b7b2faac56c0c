package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/karrick/godirwalk"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/dorepo/pkg/types"
)

// DefaultWorkers bounds concurrent saves during Import.
const DefaultWorkers = 4

// Imported pairs a source file with the identifier minted for it.
type Imported struct {
	Path       string
	Identifier string
}

// objectSource is the content of one importable file.
type objectSource struct {
	Data     any            `json:"data"`
	Metadata types.Metadata `json:"metadata"`
}

// Import walks dir for *.json files of the form {"data": ..., "metadata":
// {...}}, mints an identifier for each through gen and saves it to dst.
// Hidden files and directories are skipped. The first failure cancels the
// remaining work. Results are ordered by path.
func Import(ctx context.Context, dst Sink, gen types.IdentifierGenerator, dir string, workers int) ([]Imported, error) {
	paths, err := findObjectFiles(dir)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = DefaultWorkers
	}

	var (
		mu      sync.Mutex
		results = make([]Imported, 0, len(paths))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			id, err := importFile(ctx, dst, gen, path)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, Imported{Path: path, Identifier: id})
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, err
}

func importFile(ctx context.Context, dst Sink, gen types.IdentifierGenerator, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	var src objectSource
	if err := json.Unmarshal(raw, &src); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}

	obj := types.NewDigitalObject(src.Data, src.Metadata)
	if err := obj.AssignIdentifier(gen); err != nil {
		return "", fmt.Errorf("identifying %s: %w", path, err)
	}
	if err := dst.Save(ctx, obj); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	return obj.Identifier(), nil
}

// findObjectFiles lists every visible *.json file under dir.
func findObjectFiles(dir string) ([]string, error) {
	dir = filepath.Clean(dir)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("import directory: %w", err)
	}
	var paths []string
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			name := de.Name()
			if osPathname != dir && strings.HasPrefix(name, ".") {
				if de.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if de.IsRegular() && strings.EqualFold(filepath.Ext(name), ".json") {
				paths = append(paths, osPathname)
			}
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
