// Package apperr holds the sentinel errors shared by the service, API and
// MCP layers.
package apperr

import "github.com/cockroachdb/errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidPath     = errors.New("invalid path")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidInput    = errors.New("invalid input")
)
