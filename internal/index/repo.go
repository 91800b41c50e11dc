package index

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/starford/folio/internal/content"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Category  content.Category `json:"category"`
	Path      string           `json:"path"`
	Title     string           `json:"title"`
	Slug      string           `json:"slug"`
	Tags      []string         `json:"tags"`
	Date      string           `json:"date,omitempty"`
	Draft     bool             `json:"draft"`
	Checksum  string           `json:"checksum"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Category content.Category `json:"category"`
	Path     string           `json:"path"`
	Title    string           `json:"title"`
	Snippet  string           `json:"snippet"`
}

// Sort orders for ListFilter.
const (
	SortDate  = "date"
	SortTitle = "title"
	SortPath  = "path"
)

// ListFilter selects and pages documents for ListDocuments.
type ListFilter struct {
	// Category restricts the listing when non-empty.
	Category content.Category
	// Tag keeps documents carrying this tag when non-empty.
	Tag string
	// Sort is one of SortDate (newest first, the default), SortTitle or SortPath.
	Sort          string
	Limit         int
	Offset        int
	IncludeDrafts bool
}

// UpsertDocument inserts or replaces a document and its FTS entry within a transaction.
func (db *DB) UpsertDocument(d DocumentRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return errors.Wrap(err, "index: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	_, err = tx.Exec(`
		INSERT INTO documents (category, path, title, slug, tags, date, draft, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(category, path) DO UPDATE SET
			title      = excluded.title,
			slug       = excluded.slug,
			tags       = excluded.tags,
			date       = excluded.date,
			draft      = excluded.draft,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, string(d.Category), d.Path, d.Title, d.Slug, string(tagsJSON), d.Date, d.Draft, d.Checksum, body, d.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "index: upsert document")
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, d, body); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteDocument removes a document and its FTS entry.
func (db *DB) DeleteDocument(c content.Category, path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return errors.Wrap(err, "index: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, c, path)
	if _, err := tx.Exec(`DELETE FROM documents WHERE category = ? AND path = ?`, string(c), path); err != nil {
		return errors.Wrap(err, "index: delete document")
	}

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if
// it is not indexed.
func (db *DB) GetChecksum(c content.Category, path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE category = ? AND path = ?`, string(c), path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "index: get checksum")
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed document of c.
func (db *DB) AllChecksums(c content.Category) (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents WHERE category = ?`, string(c))
	if err != nil {
		return nil, errors.Wrap(err, "index: all checksums")
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// GetDocument returns the indexed row for a document, or nil if it is not indexed.
func (db *DB) GetDocument(c content.Category, path string) (*DocumentRow, error) {
	row := db.conn.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE category = ? AND path = ?`, string(c), path)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "index: get document")
	}
	return &d, nil
}

// ListDocuments returns one page of documents matching f and the total
// number of matches.
func (db *DB) ListDocuments(f ListFilter) ([]DocumentRow, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.Tag != "" {
		// Tags are stored as a JSON array; match the encoded element.
		enc, _ := json.Marshal(f.Tag)
		where = append(where, "instr(tags, ?) > 0")
		args = append(args, string(enc))
	}
	if !f.IncludeDrafts {
		where = append(where, "draft = 0")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`+clause, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "index: count documents")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(f.Offset, 0)

	query := `SELECT ` + documentColumns + ` FROM documents` + clause +
		` ORDER BY ` + orderBy(f.Sort) + ` LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "index: list documents")
	}
	defer rows.Close()

	out := []DocumentRow{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "index: scan document")
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func orderBy(sort string) string {
	switch sort {
	case SortTitle:
		return "title COLLATE NOCASE, category, path"
	case SortPath:
		return "category, path"
	default:
		return "date DESC, category, path"
	}
}

const documentColumns = `category, path, title, slug, tags, date, draft, checksum, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (DocumentRow, error) {
	var (
		d        DocumentRow
		category string
		tagsJSON string
	)
	if err := s.Scan(&category, &d.Path, &d.Title, &d.Slug, &tagsJSON, &d.Date, &d.Draft, &d.Checksum, &d.UpdatedAt); err != nil {
		return DocumentRow{}, err
	}
	d.Category = content.Category(category)
	if err := json.Unmarshal([]byte(tagsJSON), &d.Tags); err != nil || d.Tags == nil {
		d.Tags = []string{}
	}
	return d, nil
}
