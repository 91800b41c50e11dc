package content

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/starford/folio/internal/apperr"
)

// Roots is the fixed category → root-directory table. It is built once at
// startup and passed by value; there is no way to mutate it afterwards.
type Roots struct {
	dirs map[Category]string // absolute
}

// NewRoots binds every category to base/dirs[category]. Every category must
// have an entry, relative entries are joined to base, and no two categories
// may share a root.
func NewRoots(base string, dirs map[Category]string) (Roots, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return Roots{}, errors.Wrap(err, "content: resolve base")
	}
	out := make(map[Category]string, len(categories))
	seen := make(map[string]Category, len(categories))
	for _, c := range categories {
		dir, ok := dirs[c]
		if !ok || dir == "" {
			return Roots{}, errors.Newf("content: no root directory for category %q", c)
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(absBase, dir)
		}
		dir = filepath.Clean(dir)
		if other, dup := seen[dir]; dup {
			return Roots{}, errors.Newf("content: categories %q and %q share root %s", other, c, dir)
		}
		seen[dir] = c
		out[c] = dir
	}
	for c := range dirs {
		if !c.Valid() {
			return Roots{}, errors.Wrapf(apperr.ErrInvalidCategory, "content: unknown category %q", c)
		}
	}
	return Roots{dirs: out}, nil
}

// RootFor returns the absolute root directory of c.
func (r Roots) RootFor(c Category) (string, error) {
	dir, ok := r.dirs[c]
	if !ok {
		return "", errors.Wrapf(apperr.ErrInvalidCategory, "content: unknown category %q", c)
	}
	return dir, nil
}

// Resolve returns root(c)[/subfolder]/relativePath. Existence is not
// checked. Absolute inputs and results outside the category root are
// rejected with apperr.ErrInvalidPath.
func (r Roots) Resolve(c Category, relativePath, subfolder string) (string, error) {
	root, err := r.RootFor(c)
	if err != nil {
		return "", err
	}
	for _, part := range []string{subfolder, relativePath} {
		if filepath.IsAbs(filepath.FromSlash(part)) {
			return "", errors.Wrapf(apperr.ErrInvalidPath, "content: absolute path %q", part)
		}
	}
	p := filepath.Join(root, filepath.FromSlash(subfolder), filepath.FromSlash(relativePath))
	if p != root && !strings.HasPrefix(p, root+string(os.PathSeparator)) {
		return "", errors.Wrapf(apperr.ErrInvalidPath, "content: %q escapes the %s root", filepath.Join(subfolder, relativePath), c)
	}
	return p, nil
}

// Locate maps an absolute path back to its category and slash-separated
// path relative to that category's root.
func (r Roots) Locate(abs string) (Category, string, bool) {
	abs = filepath.Clean(abs)
	for _, c := range categories {
		root := r.dirs[c]
		if rel, ok := strings.CutPrefix(abs, root+string(os.PathSeparator)); ok {
			return c, filepath.ToSlash(rel), true
		}
	}
	return "", "", false
}

// Dirs returns a copy of the table.
func (r Roots) Dirs() map[Category]string {
	out := make(map[Category]string, len(r.dirs))
	for c, d := range r.dirs {
		out[c] = d
	}
	return out
}
