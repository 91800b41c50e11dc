package index

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/frontmatter"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "folio-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testRepo(t *testing.T) *content.Repository {
	t.Helper()
	roots, err := content.NewRoots(t.TempDir(), content.DefaultDirs())
	require.NoError(t, err)
	repo, err := content.NewRepository(roots, content.WithLogger(quietLogger()))
	require.NoError(t, err)
	return repo
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func row(c content.Category, path, title, date string, draft bool, tags ...string) DocumentRow {
	if tags == nil {
		tags = []string{}
	}
	return DocumentRow{Category: c, Path: path, Title: title, Date: date, Draft: draft, Tags: tags, Checksum: path + title, UpdatedAt: time.Now()}
}

func upsert(t *testing.T, db *DB, d DocumentRow, body string) {
	t.Helper()
	require.NoError(t, db.UpsertDocument(d, body))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	require.NoError(t, db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count), "documents table missing")
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	upsert(t, db, DocumentRow{
		Category:  content.Blog,
		Path:      "hello.md",
		Title:     "Hello World",
		Checksum:  "abc123",
		Tags:      []string{"go", "test"},
		UpdatedAt: time.Now(),
	}, "This is a hello world post.")

	cs, err := db.GetChecksum(content.Blog, "hello.md")
	require.NoError(t, err)
	assert.Equal(t, "abc123", cs)

	// Same path in another category is a different document.
	cs, err = db.GetChecksum(content.Project, "hello.md")
	require.NoError(t, err)
	assert.Empty(t, cs)
}

func TestDeleteDocument(t *testing.T) {
	db := testDB(t)
	upsert(t, db, row(content.Blog, "del.md", "x", "", false), "body")
	upsert(t, db, row(content.Mantra, "del.md", "x", "", false), "body")

	require.NoError(t, db.DeleteDocument(content.Blog, "del.md"))
	cs, _ := db.GetChecksum(content.Blog, "del.md")
	assert.Empty(t, cs, "deleted document still has a checksum")
	cs, _ = db.GetChecksum(content.Mantra, "del.md")
	assert.NotEmpty(t, cs, "delete removed the wrong category")
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	upsert(t, db, row(content.Blog, "up.md", "Old", "", false, "old"), "old body")
	upsert(t, db, row(content.Blog, "up.md", "New", "", false, "new"), "new body")

	d, err := db.GetDocument(content.Blog, "up.md")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "New", d.Title)
	assert.Equal(t, []string{"new"}, d.Tags)
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum(content.Blog, "nonexistent.md")
	require.NoError(t, err)
	assert.Empty(t, cs)

	d, err := db.GetDocument(content.Blog, "nonexistent.md")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestAllChecksums(t *testing.T) {
	db := testDB(t)
	upsert(t, db, row(content.Blog, "a.md", "A", "", false), "")
	upsert(t, db, row(content.Blog, "b.md", "B", "", false), "")
	upsert(t, db, row(content.Project, "c.md", "C", "", false), "")

	got, err := db.AllChecksums(content.Blog)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.md": "a.mdA", "b.md": "b.mdB"}, got)
}

func TestListDocuments(t *testing.T) {
	db := testDB(t)
	upsert(t, db, row(content.Blog, "old.md", "Zebra", "2023-01-01", false, "go"), "")
	upsert(t, db, row(content.Blog, "new.md", "apple", "2024-06-01", false, "go", "web"), "")
	upsert(t, db, row(content.Blog, "wip.md", "Mango", "2025-01-01", true, "go"), "")
	upsert(t, db, row(content.Project, "p.md", "Project", "2024-01-01", false, "gopher"), "")

	docs, total, err := db.ListDocuments(ListFilter{Category: content.Blog})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, docs, 2)
	assert.Equal(t, "new.md", docs[0].Path)

	docs, total, err = db.ListDocuments(ListFilter{Category: content.Blog, IncludeDrafts: true, Sort: SortTitle})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, docs, 3)
	assert.Equal(t, "apple", docs[0].Title)
	assert.Equal(t, "Zebra", docs[2].Title)

	// "go" must not match "gopher".
	_, total, err = db.ListDocuments(ListFilter{Tag: "go"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	docs, total, err = db.ListDocuments(ListFilter{Sort: SortPath, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, docs, 1)
	assert.Equal(t, "old.md", docs[0].Path)
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	upsert(t, db, row(content.Blog, "s.md", "Search Me", "", false), "uniqueword appears here")
	upsert(t, db, row(content.Project, "s.md", "Other", "", false), "uniqueword again")

	results, err := db.Search("uniqueword", "", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = db.Search("uniqueword", content.Project, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, content.Project, results[0].Category)
}

func TestSummarize(t *testing.T) {
	doc := frontmatter.DecodeDocument("---\n" +
		"title: \"Hello\"\n" +
		"slug: \"Custom Slug\"\n" +
		"tags:\n- \"go\"\n- \" \"\n" +
		"date: 2024-05-01\n" +
		"draft: true\n" +
		"---\n# Heading\n")
	s := Summarize("2024/hello-world.md", doc)
	assert.Equal(t, Summary{Title: "Hello", Slug: "custom-slug", Tags: []string{"go"}, Date: "2024-05-01", Draft: true}, s)

	s = Summarize("a/first-post.md", frontmatter.DecodeDocument("intro\n#  Spaced Heading \nmore"))
	assert.Equal(t, "Spaced Heading", s.Title)
	assert.Equal(t, "first-post", s.Slug)
	assert.False(t, s.Draft)
	assert.Empty(t, s.Tags)

	s = Summarize("x.md", frontmatter.DecodeDocument("---\ntags: solo\n---\n# From Body\n"))
	assert.Equal(t, "From Body", s.Title)
	assert.Equal(t, []string{"solo"}, s.Tags)
}

func TestSync(t *testing.T) {
	db := testDB(t)
	repo := testRepo(t)
	logger := quietLogger()

	rec := frontmatter.NewRecord(frontmatter.Field{Key: "title", Value: frontmatter.Text("One")})
	_, err := repo.Write(content.Blog, "one.md", rec, "body")
	require.NoError(t, err)
	_, err = repo.Write(content.Mantra, "deep/two.md", frontmatter.NewRecord(), "# Two")
	require.NoError(t, err)

	stats, err := Sync(db, repo, logger)
	require.NoError(t, err)
	assert.Equal(t, SyncStats{Indexed: 2}, stats)

	stats, err = Sync(db, repo, logger)
	require.NoError(t, err)
	assert.Equal(t, SyncStats{Unchanged: 2}, stats)

	d, err := db.GetDocument(content.Mantra, "deep/two.md")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "Two", d.Title)
	assert.Equal(t, "two", d.Slug)

	root, _ := repo.Roots().RootFor(content.Blog)
	require.NoError(t, os.Remove(filepath.Join(root, "one.md")))
	stats, err = Sync(db, repo, logger)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Removed)
	cs, _ := db.GetChecksum(content.Blog, "one.md")
	assert.Empty(t, cs, "stale document still indexed")
}

func TestIndexBytes_Kinds(t *testing.T) {
	db := testDB(t)
	kind, err := IndexBytes(db, content.Project, "p.md", []byte("v1"))
	require.NoError(t, err)
	assert.Equal(t, KindCreated, kind)

	kind, err = IndexBytes(db, content.Project, "p.md", []byte("v1"))
	require.NoError(t, err)
	assert.Empty(t, kind, "unchanged content")

	kind, err = IndexBytes(db, content.Project, "p.md", []byte("v2"))
	require.NoError(t, err)
	assert.Equal(t, KindUpdated, kind)
}
