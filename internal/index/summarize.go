package index

import (
	"path"
	"strings"

	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/slug"
)

// Summary holds the listing fields derived from a document.
type Summary struct {
	Title string
	Slug  string
	Tags  []string
	Date  string
	Draft bool
}

// Summarize derives listing fields from doc stored at relPath:
//   - title: the "title" field, else the first "# " heading of the body
//   - slug: the "slug" field, else the file name without extension
//   - tags: the "tags" list (a single text value counts as one tag)
//   - date: the "date" field as written
//   - draft: the "draft" boolean
func Summarize(relPath string, doc frontmatter.Document) Summary {
	s := Summary{Tags: []string{}}

	if v, ok := doc.Record.Get("title"); ok {
		s.Title = v.Scalar()
	}
	if s.Title == "" {
		s.Title = firstHeading(doc.Body)
	}

	if v, ok := doc.Record.Get("slug"); ok {
		s.Slug = slug.Slugify(v.Scalar())
	}
	if s.Slug == "" {
		base := path.Base(relPath)
		s.Slug = strings.TrimSuffix(base, path.Ext(base))
	}

	if v, ok := doc.Record.Get("tags"); ok {
		if items, isList := v.AsList(); isList {
			for _, t := range items {
				if t = strings.TrimSpace(t); t != "" {
					s.Tags = append(s.Tags, t)
				}
			}
		} else if t, isText := v.AsText(); isText && t != "" {
			s.Tags = append(s.Tags, t)
		}
	}

	if v, ok := doc.Record.Get("date"); ok {
		s.Date = v.Scalar()
	}
	if v, ok := doc.Record.Get("draft"); ok {
		s.Draft, _ = v.AsBoolean()
	}
	return s
}

func firstHeading(body string) string {
	for line := range strings.SplitSeq(body, "\n") {
		line = strings.TrimSpace(line)
		if h, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(h)
		}
	}
	return ""
}
