package content

import (
	"fmt"

	"github.com/starford/folio/internal/apperr"
)

// NotFoundError reports a read or delete of a document that does not exist.
// It matches apperr.ErrNotFound under errors.Is.
type NotFoundError struct {
	Category Category
	Path     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("content: %s document %q not found", e.Category, e.Path)
}

func (e *NotFoundError) Unwrap() error { return apperr.ErrNotFound }

// WriteError reports a failed directory creation or file write.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("content: write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
