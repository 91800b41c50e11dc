//go:build !sqlite_fts5

package index

import (
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/starford/folio/internal/content"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; full-text search uses LIKE fallback on the documents.body column.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ DocumentRow, _ string) error {
	// Body is already stored in the documents table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ content.Category, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
// An empty category searches every category. Drafts are included.
func (db *DB) Search(query string, c content.Category, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT category, path, title, substr(body, 1, 200)
		FROM documents
		WHERE (title LIKE ? OR body LIKE ? OR tags LIKE ?)
		  AND (? = '' OR category = ?)
		ORDER BY category, path
		LIMIT ?
	`, like, like, like, string(c), string(c), limit)
	if err != nil {
		return nil, errors.Wrap(err, "index: search")
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var (
			r        SearchResult
			category string
		)
		if err := rows.Scan(&category, &r.Path, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		r.Category = content.Category(category)
		out = append(out, r)
	}
	return out, rows.Err()
}
