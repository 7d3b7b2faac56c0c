// Package atomicfile writes whole files so that readers see either the old
// content or the new, never a partial write.
package atomicfile

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Temporary files are named tempPrefix + base + "." + random digits, so they
// never share an extension with their target.
const tempPrefix = ".dorepo.atomic."

// writeTemp writes data to a synced temporary file next to path and returns
// its name. The caller renames or links it into place and removes it.
func writeTemp(path string, data []byte) (string, error) {
	tfile, err := os.CreateTemp(filepath.Dir(path), tempPrefix+filepath.Base(path)+".*")
	if err != nil {
		return "", errors.Wrapf(err, "could not create temporary file for %s", path)
	}
	tname := tfile.Name()

	if _, err := tfile.Write(data); err != nil {
		tfile.Close()
		os.Remove(tname)
		return "", errors.Wrapf(err, "could not write %s", tname)
	}
	if err := tfile.Sync(); err != nil {
		tfile.Close()
		os.Remove(tname)
		return "", errors.Wrapf(err, "could not sync %s", tname)
	}
	if err := tfile.Close(); err != nil {
		os.Remove(tname)
		return "", errors.Wrapf(err, "could not close %s", tname)
	}
	return tname, nil
}

// Replace atomically replaces path with data, creating it if absent.
func Replace(path string, data []byte) error {
	tname, err := writeTemp(path, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tname, path); err != nil {
		os.Remove(tname)
		return errors.Wrapf(err, "could not rename %s to %s", tname, path)
	}
	return nil
}

// Create atomically creates path with data. If path already exists it
// returns an error satisfying errors.Is(err, fs.ErrExist) and leaves the
// existing file untouched.
func Create(path string, data []byte) error {
	tname, err := writeTemp(path, data)
	if err != nil {
		return err
	}
	defer os.Remove(tname)

	// link fails with EEXIST instead of overwriting, unlike rename.
	if err := os.Link(tname, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return err
		}
		return errors.Wrapf(err, "could not link %s to %s", tname, path)
	}
	return nil
}
