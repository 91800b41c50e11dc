package content

import (
	"io/fs"
	"iter"
	"log/slog"
	"path"

	"github.com/cockroachdb/errors"

	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/storage"
)

// Repository reads, writes, deletes and lists content documents. Every call
// goes to the file system; nothing is cached. Concurrent writes to the same
// path are last-write-wins.
type Repository struct {
	roots  Roots
	stores map[Category]*storage.FS
	logger *slog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used for skipped walk entries.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = l
	}
}

// NewRepository creates a repository over roots.
func NewRepository(roots Roots, opts ...Option) (*Repository, error) {
	r := &Repository{
		roots:  roots,
		stores: make(map[Category]*storage.FS, len(categories)),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, c := range categories {
		root, err := roots.RootFor(c)
		if err != nil {
			return nil, err
		}
		s, err := storage.NewFS(root)
		if err != nil {
			return nil, errors.Wrapf(err, "content: %s root", c)
		}
		r.stores[c] = s
	}
	return r, nil
}

// Roots returns the category table the repository was built with.
func (r *Repository) Roots() Roots { return r.roots }

func (r *Repository) store(c Category) (*storage.FS, error) {
	s, ok := r.stores[c]
	if !ok {
		_, err := r.roots.RootFor(c)
		return nil, err
	}
	return s, nil
}

// Read loads and decodes the document at relativePath. A missing file is a
// *NotFoundError; malformed front matter is not an error.
func (r *Repository) Read(c Category, relativePath string) (frontmatter.Document, error) {
	data, err := r.ReadRaw(c, relativePath)
	if err != nil {
		return frontmatter.Document{}, err
	}
	return frontmatter.DecodeDocument(string(data)), nil
}

// ReadRaw returns the stored bytes of the document at relativePath.
func (r *Repository) ReadRaw(c Category, relativePath string) ([]byte, error) {
	s, err := r.store(c)
	if err != nil {
		return nil, err
	}
	data, err := s.Read(relativePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Category: c, Path: relativePath}
		}
		return nil, errors.Wrapf(err, "content: read %s/%s", c, relativePath)
	}
	return data, nil
}

// Exists reports whether a document is stored at relativePath.
func (r *Repository) Exists(c Category, relativePath string) bool {
	s, err := r.store(c)
	if err != nil {
		return false
	}
	return s.Exists(relativePath)
}

// Write encodes rec and body and replaces the document at relativePath,
// creating parent directories as needed. The replacement is atomic: readers
// see either the old or the new file, never a truncated one. It returns the
// absolute path written.
func (r *Repository) Write(c Category, relativePath string, rec *frontmatter.Record, body string) (string, error) {
	abs, err := r.roots.Resolve(c, relativePath, "")
	if err != nil {
		return "", err
	}
	s, err := r.store(c)
	if err != nil {
		return "", err
	}
	doc := frontmatter.Document{Record: rec, Body: body}
	if _, err := s.Write(relativePath, []byte(doc.Encode())); err != nil {
		return "", &WriteError{Path: abs, Err: err}
	}
	return abs, nil
}

// Delete removes the document at relativePath.
func (r *Repository) Delete(c Category, relativePath string) error {
	s, err := r.store(c)
	if err != nil {
		return err
	}
	if err := s.Delete(relativePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &NotFoundError{Category: c, Path: relativePath}
		}
		return errors.Wrapf(err, "content: delete %s/%s", c, relativePath)
	}
	return nil
}

// List lazily yields the path, relative to the category root, of every
// document under the category root or under subfolder within it. Each
// iteration walks the tree again. A missing root yields nothing; entries
// that cannot be read are logged and skipped.
func (r *Repository) List(c Category, subfolder string) iter.Seq[string] {
	return func(yield func(string) bool) {
		s, err := r.store(c)
		if err != nil {
			r.logger.Warn("content: list skipped", slog.String("category", string(c)), slog.String("error", err.Error()))
			return
		}
		for p, err := range s.Walk(path.Clean("/" + subfolder)[1:], Ext) {
			if err != nil {
				r.logger.Warn("content: list entry skipped",
					slog.String("category", string(c)),
					slog.String("error", err.Error()))
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}
