package index

import "github.com/starford/folio/internal/content"

// DocumentIndex defines the interface for document indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type DocumentIndex interface {
	UpsertDocument(d DocumentRow, body string) error
	DeleteDocument(c content.Category, path string) error
	GetChecksum(c content.Category, path string) (string, error)
	GetDocument(c content.Category, path string) (*DocumentRow, error)
	AllChecksums(c content.Category) (map[string]string, error)
	ListDocuments(f ListFilter) ([]DocumentRow, int, error)
	Search(query string, c content.Category, limit int) ([]SearchResult, error)
	Ping() error
	Close() error
}

// Verify *DB satisfies DocumentIndex at compile time.
var _ DocumentIndex = (*DB)(nil)
