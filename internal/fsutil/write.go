// Package fsutil holds the filesystem plumbing shared by the build steps.
// All access goes through an afero.Fs so tests can run against memory.
package fsutil

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/teranos/dtsgen/errors"
)

// File system permissions for generated artifacts
const (
	DirPermissions  os.FileMode = 0o755
	FilePermissions os.FileMode = 0o644
)

// WriteFileAtomic writes data to path, creating intermediate directories.
// The content lands in a temp file next to path first and is renamed into
// place, so readers never observe a partially written artifact.
func WriteFileAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, DirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file for %s", path)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = fs.Remove(tmpPath) // best effort
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Wrapf(err, "failed to sync %s", path)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Wrapf(err, "failed to close %s", path)
	}
	if err := fs.Chmod(tmpPath, FilePermissions); err != nil {
		cleanup()
		return errors.Wrapf(err, "failed to chmod %s", path)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		cleanup()
		return errors.Wrapf(err, "failed to move %s into place", path)
	}

	return nil
}

// ReadFile reads the whole file at path. A missing file is reported as
// errors.ErrNotFound so callers can classify it without os.IsNotExist.
func ReadFile(fs afero.Fs, path string) ([]byte, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mark(errors.Wrapf(err, "%s does not exist", path), errors.ErrNotFound)
		}
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return data, nil
}
