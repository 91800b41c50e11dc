package index

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/frontmatter"
)

// Change kinds passed to an EventCallback.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// SyncStats counts what a Sync pass did.
type SyncStats struct {
	Indexed   int `json:"indexed"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
	Failed    int `json:"failed"`
}

// Sync walks every category and brings the index up to date:
//   - new/changed documents are decoded and upserted
//   - documents removed from disk are deleted from the index
//
// Unreadable documents are logged and counted, not fatal.
func Sync(db DocumentIndex, repo *content.Repository, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats
	for _, c := range content.Categories() {
		checksums, err := db.AllChecksums(c)
		if err != nil {
			return stats, err
		}

		disk := make(map[string]struct{}, len(checksums))
		for p := range repo.List(c, "") {
			disk[p] = struct{}{}

			kind, err := IndexDocument(db, repo, c, p)
			switch {
			case err != nil:
				stats.Failed++
				logger.Warn("sync: index failed", slog.String("category", string(c)), slog.String("path", p), slog.String("error", err.Error()))
			case kind == "":
				stats.Unchanged++
			default:
				stats.Indexed++
				logger.Debug("sync: indexed", slog.String("category", string(c)), slog.String("path", p))
			}
		}

		// Remove stale entries.
		for p := range checksums {
			if _, ok := disk[p]; ok {
				continue
			}
			if err := db.DeleteDocument(c, p); err != nil {
				stats.Failed++
				logger.Warn("sync: delete failed", slog.String("category", string(c)), slog.String("path", p), slog.String("error", err.Error()))
				continue
			}
			stats.Removed++
			logger.Debug("sync: removed stale", slog.String("category", string(c)), slog.String("path", p))
		}
	}
	return stats, nil
}

// IndexDocument reads one document and upserts it when its checksum differs
// from the indexed one. It returns KindCreated or KindUpdated, or "" when the
// index was already current.
func IndexDocument(db DocumentIndex, repo *content.Repository, c content.Category, relPath string) (string, error) {
	data, err := repo.ReadRaw(c, relPath)
	if err != nil {
		return "", err
	}
	return IndexBytes(db, c, relPath, data)
}

// IndexBytes indexes data as the document stored at relPath. See IndexDocument.
func IndexBytes(db DocumentIndex, c content.Category, relPath string, data []byte) (string, error) {
	cs := checksum.Sum(data)
	prev, err := db.GetChecksum(c, relPath)
	if err != nil {
		return "", err
	}
	if prev == cs {
		return "", nil
	}

	doc := frontmatter.DecodeDocument(string(data))
	s := Summarize(relPath, doc)
	row := DocumentRow{
		Category:  c,
		Path:      relPath,
		Title:     s.Title,
		Slug:      s.Slug,
		Tags:      s.Tags,
		Date:      s.Date,
		Draft:     s.Draft,
		Checksum:  cs,
		UpdatedAt: time.Now().UTC(),
	}
	if err := db.UpsertDocument(row, doc.Body); err != nil {
		return "", errors.Wrapf(err, "index: %s/%s", c, relPath)
	}
	if prev == "" {
		return KindCreated, nil
	}
	return KindUpdated, nil
}
