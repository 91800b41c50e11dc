// Package content maps content categories to storage roots and provides the
// document repository used by the authoring endpoints.
package content

import (
	"github.com/cockroachdb/errors"

	"github.com/starford/folio/internal/apperr"
)

// Ext is the file extension of every content document.
const Ext = ".md"

// Category classifies a document and selects its storage root.
type Category string

const (
	Blog            Category = "blog"
	Project         Category = "project"
	ResearchArticle Category = "research"
	Mantra          Category = "mantra"
)

var categories = []Category{Blog, Project, ResearchArticle, Mantra}

// Categories returns every category in a fixed order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory returns the category named s.
func ParseCategory(s string) (Category, error) {
	for _, c := range categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", errors.Wrapf(apperr.ErrInvalidCategory, "unknown category %q", s)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

func (c Category) String() string { return string(c) }

// DefaultDirs returns the stock directory name for every category.
func DefaultDirs() map[Category]string {
	return map[Category]string{
		Blog:            "blog",
		Project:         "projects",
		ResearchArticle: "research",
		Mantra:          "mantras",
	}
}
