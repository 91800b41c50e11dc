// Package storage provides rooted file-system access with traversal
// protection and atomic writes.
package storage

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/starford/folio/internal/apperr"
)

// TempPrefix names the temporary files created by Write.
const TempPrefix = ".folio-tmp-"

// FS is a directory tree rooted at an absolute path. The root does not have
// to exist; Write creates it on demand.
type FS struct {
	root string // absolute
}

// NewFS creates an FS rooted at root. If root exists it must be a directory.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "storage: resolve root")
	}
	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, errors.Wrap(err, "storage: stat root")
	case !info.IsDir():
		return nil, errors.Newf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute root directory.
func (f *FS) Root() string { return f.root }

// Abs resolves rel against the root and rejects any result that escapes it.
func (f *FS) Abs(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", errors.Wrapf(apperr.ErrInvalidPath, "storage: absolute paths not allowed: %s", rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", errors.Wrapf(apperr.ErrInvalidPath, "storage: path escapes root: %s", rel)
	}
	return abs, nil
}

// Read returns the raw bytes of the file at rel.
func (f *FS) Read(rel string) ([]byte, error) {
	abs, err := f.Abs(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, errors.Wrapf(err, "storage: read %s", rel)
	}
	return data, nil
}

// Exists reports whether a regular file exists at rel.
func (f *FS) Exists(rel string) bool {
	abs, err := f.Abs(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular()
}

// Write creates missing parent directories and atomically replaces the file
// at rel: temp file, fsync, rename. It returns the absolute path written.
func (f *FS) Write(rel string, content []byte) (string, error) {
	abs, err := f.Abs(rel)
	if err != nil {
		return "", err
	}
	if abs == f.root {
		return "", errors.Wrap(apperr.ErrInvalidPath, "storage: cannot write the root directory")
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "storage: mkdir")
	}

	tmp, err := os.CreateTemp(dir, TempPrefix+"*")
	if err != nil {
		return "", errors.Wrap(err, "storage: create temp")
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return "", errors.Wrap(err, "storage: write temp")
	}
	if err := tmp.Chmod(0o644); err != nil {
		return "", errors.Wrap(err, "storage: chmod temp")
	}
	if err := tmp.Sync(); err != nil {
		return "", errors.Wrap(err, "storage: fsync")
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(err, "storage: close temp")
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return "", errors.Wrap(err, "storage: rename")
	}
	success = true
	return abs, nil
}

// Delete removes the file at rel.
func (f *FS) Delete(rel string) error {
	abs, err := f.Abs(rel)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return errors.Wrapf(err, "storage: delete %s", rel)
	}
	if info.IsDir() {
		return errors.Wrapf(apperr.ErrInvalidPath, "storage: delete %s: is a directory", rel)
	}
	if err := os.Remove(abs); err != nil {
		return errors.Wrapf(err, "storage: delete %s", rel)
	}
	return nil
}

// Walk lazily yields the slash-separated path, relative to the root, of every
// file under dir whose name ends in ext. A missing dir yields nothing. Other
// walk errors are yielded with an empty path and the walk continues.
// Every call walks the tree again.
func (f *FS) Walk(dir, ext string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		base, err := f.Abs(dir)
		if err != nil {
			yield("", err)
			return
		}
		_ = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if p == base && errors.Is(walkErr, fs.ErrNotExist) {
					return filepath.SkipAll
				}
				if !yield("", errors.Wrapf(walkErr, "storage: walk %s", p)) {
					return filepath.SkipAll
				}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			name := d.Name()
			if d.IsDir() || strings.HasPrefix(name, TempPrefix) || !strings.HasSuffix(name, ext) {
				return nil
			}
			rel, err := filepath.Rel(f.root, p)
			if err != nil {
				return nil
			}
			if !yield(filepath.ToSlash(rel), nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}
