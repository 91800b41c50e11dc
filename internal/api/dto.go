package api

import (
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/contentservice"
	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/index"
)

const maxListLimit = 500

// CreateDocumentRequest is the request body for creating a document from a title.
type CreateDocumentRequest struct {
	Title       string              `json:"title" example:"Hello, World"`
	Subfolder   string              `json:"subfolder,omitempty" example:"2024"`
	Frontmatter *frontmatter.Record `json:"frontmatter,omitempty"`
	Body        string              `json:"body" example:"# Hello\nWorld"`
}

// Validate validates the create request.
func (r CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Subfolder, validation.Length(0, 255), validation.By(relativePath)),
		validation.Field(&r.Frontmatter, validation.By(recordKeys)),
	)
}

// PutDocumentRequest is the request body for writing a document.
type PutDocumentRequest struct {
	Frontmatter *frontmatter.Record `json:"frontmatter"`
	Body        string              `json:"body" example:"Updated body"`
}

// Validate validates the put request.
func (r PutDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Frontmatter, validation.By(recordKeys)),
	)
}

// ListDocumentsQuery holds the query parameters of GET /documents.
type ListDocumentsQuery struct {
	Category string
	Tag      string
	Sort     string
	Limit    int
	Offset   int
	Drafts   bool
}

// Validate validates the listing query.
func (q ListDocumentsQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Category, validation.In(categoryNames()...)),
		validation.Field(&q.Sort, validation.In(index.SortDate, index.SortTitle, index.SortPath)),
		validation.Field(&q.Limit, validation.Min(0), validation.Max(maxListLimit)),
		validation.Field(&q.Offset, validation.Min(0)),
	)
}

// Filter converts q into an index filter.
func (q ListDocumentsQuery) Filter() index.ListFilter {
	return index.ListFilter{
		Category:      content.Category(q.Category),
		Tag:           q.Tag,
		Sort:          q.Sort,
		Limit:         q.Limit,
		Offset:        q.Offset,
		IncludeDrafts: q.Drafts,
	}
}

// SearchQuery holds the query parameters of GET /search.
type SearchQuery struct {
	Q        string
	Category string
	Limit    int
}

// Validate validates the search query.
func (q SearchQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Q, validation.Required, validation.Length(1, 256)),
		validation.Field(&q.Category, validation.In(categoryNames()...)),
		validation.Field(&q.Limit, validation.Min(0), validation.Max(maxListLimit)),
	)
}

// CategoryInfo describes one category and its storage root.
type CategoryInfo struct {
	Name string `json:"name" example:"blog"`
	Root string `json:"root" example:"/srv/content/blog"`
}

// CategoriesResponse lists every category.
type CategoriesResponse struct {
	Categories []CategoryInfo `json:"categories"`
}

// PathListResponse lists document paths within a category.
type PathListResponse struct {
	Category  content.Category `json:"category" example:"blog"`
	Subfolder string           `json:"subfolder,omitempty" example:"2024"`
	Paths     []string         `json:"paths"`
}

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = contentservice.DocumentDetail

// DocumentListResponse wraps paginated index listings.
type DocumentListResponse struct {
	Documents []index.DocumentRow `json:"documents"`
	Total     int                 `json:"total" example:"42"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}

// SlugResponse is returned by GET /slug.
type SlugResponse struct {
	Title string `json:"title" example:"Hello, World"`
	Slug  string `json:"slug" example:"hello-world"`
}

func categoryNames() []any {
	cs := content.Categories()
	out := make([]any, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

func relativePath(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "/") || strings.HasPrefix(path.Clean(s), "..") {
		return errors.New("must be a relative path inside the category")
	}
	return nil
}

func recordKeys(value any) error {
	rec, _ := value.(*frontmatter.Record)
	for _, k := range rec.Keys() {
		if !frontmatter.ValidKey(k) {
			return errors.New("invalid front-matter key " + k)
		}
	}
	return nil
}
