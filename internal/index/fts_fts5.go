//go:build sqlite_fts5

package index

import (
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/starford/folio/internal/content"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			category UNINDEXED,
			path UNINDEXED,
			title,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, d DocumentRow, body string) error {
	_, _ = tx.Exec(`DELETE FROM documents_fts WHERE category = ? AND path = ?`, string(d.Category), d.Path)
	_, err := tx.Exec(`INSERT INTO documents_fts (category, path, title, body, tags) VALUES (?, ?, ?, ?, ?)`,
		string(d.Category), d.Path, d.Title, body, strings.Join(d.Tags, " "))
	if err != nil {
		return errors.Wrap(err, "index: upsert fts")
	}
	return nil
}

func ftsDelete(tx *sql.Tx, c content.Category, path string) {
	_, _ = tx.Exec(`DELETE FROM documents_fts WHERE category = ? AND path = ?`, string(c), path)
}

// Search performs an FTS5 full-text search and returns matching results with
// snippets. An empty category searches every category.
func (db *DB) Search(query string, c content.Category, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT category,
		       path,
		       title,
		       snippet(documents_fts, 3, '<b>', '</b>', '...', 64)
		FROM documents_fts
		WHERE documents_fts MATCH ?
		  AND (? = '' OR category = ?)
		ORDER BY rank
		LIMIT ?
	`, query, string(c), string(c), limit)
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
