// Package contentservice coordinates the content repository and the search
// index for the HTTP and MCP layers.
package contentservice

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/slug"
)

// DocumentDetail is the full representation of a document.
type DocumentDetail struct {
	Category    content.Category      `json:"category"`
	Path        string                `json:"path"`
	Title       string                `json:"title"`
	Slug        string                `json:"slug"`
	Tags        []string              `json:"tags"`
	Draft       bool                  `json:"draft"`
	Frontmatter *frontmatter.Record   `json:"frontmatter"`
	Body        string                `json:"body"`
	Checksum    string                `json:"checksum"`
	Warnings    []frontmatter.Warning `json:"warnings,omitempty"`
}

// CreateInput describes a document to create from a title.
type CreateInput struct {
	Title       string
	Subfolder   string
	Frontmatter *frontmatter.Record
	Body        string
}

// Notifier receives document changes made through the service.
type Notifier func(kind string, c content.Category, path string)

// Service coordinates repository and index operations.
type Service struct {
	repo   *content.Repository
	db     index.DocumentIndex
	notify Notifier
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the callback invoked after each successful change.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notify = n
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a new content service.
func NewService(repo *content.Repository, db index.DocumentIndex, opts ...Option) *Service {
	s := &Service{repo: repo, db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository returns the underlying repository.
func (s *Service) Repository() *content.Repository { return s.repo }

// Get reads and decodes a document.
func (s *Service) Get(_ context.Context, c content.Category, relPath string) (*DocumentDetail, error) {
	relPath, err := s.canonical(c, relPath)
	if err != nil {
		return nil, err
	}
	data, err := s.repo.ReadRaw(c, relPath)
	if err != nil {
		return nil, err
	}
	return buildDetail(c, relPath, data), nil
}

// Create derives the document path from in.Title and writes a new document
// there. The title is added to the front matter unless already present.
func (s *Service) Create(ctx context.Context, c content.Category, in CreateInput) (*DocumentDetail, error) {
	name := slug.Slugify(in.Title)
	if name == "" {
		return nil, errors.Wrapf(apperr.ErrInvalidInput, "title %q has no slug characters", in.Title)
	}
	relPath := path.Join(strings.Trim(in.Subfolder, "/"), name+content.Ext)
	if _, err := s.repo.Roots().Resolve(c, relPath, ""); err != nil {
		return nil, err
	}
	if s.repo.Exists(c, relPath) {
		return nil, errors.Wrapf(apperr.ErrAlreadyExists, "%s/%s", c, relPath)
	}

	rec := in.Frontmatter.Clone()
	if !rec.Has("title") {
		rec.Set("title", frontmatter.Text(in.Title))
	}
	detail, _, err := s.Put(ctx, c, relPath, rec, in.Body)
	return detail, err
}

// Put writes (creating or replacing) the document at relPath and indexes it.
// created reports whether the document did not exist before. Writes are
// last-write-wins.
func (s *Service) Put(_ context.Context, c content.Category, relPath string, rec *frontmatter.Record, body string) (*DocumentDetail, bool, error) {
	relPath, err := s.canonical(c, relPath)
	if err != nil {
		return nil, false, err
	}
	if !strings.HasSuffix(relPath, content.Ext) {
		return nil, false, errors.Wrapf(apperr.ErrInvalidInput, "path %q must end in %s", relPath, content.Ext)
	}
	existed := s.repo.Exists(c, relPath)
	if rec == nil {
		rec = frontmatter.NewRecord()
	}
	if _, err := s.repo.Write(c, relPath, rec, body); err != nil {
		return nil, false, err
	}

	data := []byte(frontmatter.EncodeDocument(rec, body))
	if _, err := index.IndexBytes(s.db, c, relPath, data); err != nil {
		return nil, false, err
	}

	kind := index.KindUpdated
	if !existed {
		kind = index.KindCreated
	}
	s.emit(kind, c, relPath)
	return buildDetail(c, relPath, data), !existed, nil
}

// Delete removes a document from the repository and the index.
func (s *Service) Delete(_ context.Context, c content.Category, relPath string) error {
	relPath, err := s.canonical(c, relPath)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(c, relPath); err != nil {
		return err
	}
	if err := s.db.DeleteDocument(c, relPath); err != nil {
		return err
	}
	s.emit(index.KindDeleted, c, relPath)
	return nil
}

// Paths lists document paths of c, optionally under subfolder, sorted.
func (s *Service) Paths(_ context.Context, c content.Category, subfolder string) ([]string, error) {
	if _, err := s.repo.Roots().Resolve(c, "", subfolder); err != nil {
		return nil, err
	}
	out := slices.Sorted(s.repo.List(c, subfolder))
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// Browse returns one page of indexed documents matching f.
func (s *Service) Browse(_ context.Context, f index.ListFilter) ([]index.DocumentRow, int, error) {
	if f.Category != "" && !f.Category.Valid() {
		return nil, 0, errors.Wrapf(apperr.ErrInvalidCategory, "unknown category %q", f.Category)
	}
	return s.db.ListDocuments(f)
}

// Search delegates full-text search to the index. An empty category searches
// all categories.
func (s *Service) Search(_ context.Context, query string, c content.Category, limit int) ([]index.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.Wrap(apperr.ErrInvalidInput, "empty search query")
	}
	if c != "" && !c.Valid() {
		return nil, errors.Wrapf(apperr.ErrInvalidCategory, "unknown category %q", c)
	}
	return s.db.Search(query, c, limit)
}

// Reindex reconciles the index with every category on disk.
func (s *Service) Reindex(_ context.Context) (index.SyncStats, error) {
	return index.Sync(s.db, s.repo, s.logger)
}

// canonical checks relPath against the category root and returns it in the
// cleaned, slash-separated form that List and the index use.
func (s *Service) canonical(c content.Category, relPath string) (string, error) {
	if _, err := s.repo.Roots().Resolve(c, relPath, ""); err != nil {
		return "", err
	}
	clean := path.Clean(filepath.ToSlash(relPath))
	if clean == "." {
		return "", errors.Wrapf(apperr.ErrInvalidPath, "empty document path for %s", c)
	}
	return clean, nil
}

func (s *Service) emit(kind string, c content.Category, relPath string) {
	if s.notify != nil {
		s.notify(kind, c, relPath)
	}
}

// buildDetail constructs a DocumentDetail from raw data without re-reading the file.
func buildDetail(c content.Category, relPath string, data []byte) *DocumentDetail {
	res := frontmatter.Inspect(string(data))
	sum := index.Summarize(relPath, frontmatter.Document{Record: res.Record, Body: res.Body})
	return &DocumentDetail{
		Category:    c,
		Path:        relPath,
		Title:       sum.Title,
		Slug:        sum.Slug,
		Tags:        sum.Tags,
		Draft:       sum.Draft,
		Frontmatter: res.Record,
		Body:        res.Body,
		Checksum:    checksum.Sum(data),
		Warnings:    res.Warnings,
	}
}
