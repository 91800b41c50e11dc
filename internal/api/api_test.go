package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/contentservice"
	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/testutil"
)

// testEnv sets up temp content roots, a SQLite DB, the service, and the router.
func testEnv(t *testing.T) (*contentservice.Service, http.Handler) {
	t.Helper()
	svc := contentservice.NewService(testutil.TestRepository(t), testutil.TestDB(t),
		contentservice.WithLogger(testutil.QuietLogger()))
	return svc, NewRouter(svc, nil)
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body = %s", w.Body.String())
}

func TestCreateAndGetDocument(t *testing.T) {
	_, router := testEnv(t)

	w := do(t, router, http.MethodPost, "/content/blog", map[string]any{
		"title":       "Hello, World",
		"subfolder":   "2024",
		"frontmatter": map[string]any{"tags": []string{"go"}, "draft": false},
		"body":        "First post.",
	})
	require.Equal(t, http.StatusCreated, w.Code, "body = %s", w.Body.String())
	assert.Equal(t, "/content/blog/2024/hello-world.md", w.Header().Get("Location"))

	w = do(t, router, http.MethodGet, "/content/blog/2024/hello-world.md", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("ETag"))

	var doc DocumentDetail
	decode(t, w, &doc)
	assert.Equal(t, "2024/hello-world.md", doc.Path)
	assert.Equal(t, "Hello, World", doc.Title)
	assert.Equal(t, "First post.", doc.Body)
	// JSON objects decode with sorted keys.
	assert.Equal(t, []string{"draft", "tags", "title"}, doc.Frontmatter.Keys())

	// Encoded slashes are accepted.
	w = do(t, router, http.MethodGet, "/content/blog/2024%2Fhello-world.md", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetDocument_PercentInName(t *testing.T) {
	svc, router := testEnv(t)
	_, _, err := svc.Put(context.Background(), content.Blog, "a%41.md", nil, "literal percent")
	require.NoError(t, err)

	w := do(t, router, http.MethodGet, "/content/blog/a%2541.md", nil)
	require.Equal(t, http.StatusOK, w.Code, "body = %s", w.Body.String())
	var doc DocumentDetail
	decode(t, w, &doc)
	assert.Equal(t, "a%41.md", doc.Path)

	// The once-decoded name must not be decoded again.
	_, _, err = svc.Put(context.Background(), content.Blog, "aA.md", nil, "other")
	require.NoError(t, err)
	w = do(t, router, http.MethodGet, "/content/blog/a%2541.md", nil)
	decode(t, w, &doc)
	assert.Equal(t, "literal percent", doc.Body)
}

func TestGetDocument_Raw(t *testing.T) {
	_, router := testEnv(t)
	do(t, router, http.MethodPost, "/content/mantra", map[string]any{"title": "Calm", "body": "breathe"})

	w := do(t, router, http.MethodGet, "/content/mantra/calm.md?format=raw", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/markdown"))
	assert.Equal(t, "---\ntitle: \"Calm\"\n---\nbreathe", w.Body.String())
}

func TestCreateDuplicate(t *testing.T) {
	_, router := testEnv(t)
	body := map[string]any{"title": "Same"}

	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/content/project", body).Code)
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/content/project", body).Code)
}

func TestCreateValidation(t *testing.T) {
	_, router := testEnv(t)

	cases := []struct {
		name string
		path string
		body any
		want int
	}{
		{"missing title", "/content/blog", map[string]any{"body": "x"}, http.StatusBadRequest},
		{"bad key", "/content/blog", map[string]any{"title": "x", "frontmatter": map[string]any{"bad key": "v"}}, http.StatusBadRequest},
		{"nested value", "/content/blog", `{"title":"x","frontmatter":{"a":{"b":1}}}`, http.StatusBadRequest},
		{"escaping subfolder", "/content/blog", map[string]any{"title": "x", "subfolder": "../projects"}, http.StatusBadRequest},
		{"no slug", "/content/blog", map[string]any{"title": "???"}, http.StatusBadRequest},
		{"unknown category", "/content/podcast", map[string]any{"title": "x"}, http.StatusBadRequest},
		{"invalid json", "/content/blog", "{", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.want, w.Code, "body = %s", w.Body.String())
		})
	}
}

func TestPutDocument(t *testing.T) {
	_, router := testEnv(t)

	body := map[string]any{"frontmatter": map[string]any{"title": "V1"}, "body": "one"}
	w := do(t, router, http.MethodPut, "/content/research/papers/p.md", body)
	require.Equal(t, http.StatusCreated, w.Code, "body = %s", w.Body.String())

	// Last write wins; no If-Match required.
	body = map[string]any{"frontmatter": map[string]any{"title": "V2"}, "body": "two"}
	w = do(t, router, http.MethodPut, "/content/research/papers/p.md", body)
	require.Equal(t, http.StatusOK, w.Code)
	var doc DocumentDetail
	decode(t, w, &doc)
	assert.Equal(t, "V2", doc.Title)
	assert.Equal(t, "two", doc.Body)

	w = do(t, router, http.MethodPut, "/content/research/../../x.md", body)
	assert.NotContains(t, []int{http.StatusOK, http.StatusCreated}, w.Code, "traversal put")
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPut, "/content/research/p.txt", body).Code)
}

func TestPutDocument_Markdown(t *testing.T) {
	_, router := testEnv(t)

	raw := "---\ntitle: \"Raw\"\ntags:\n- \"a\"\n---\nraw body"
	req := httptest.NewRequest(http.MethodPut, "/content/blog/raw.md", strings.NewReader(raw))
	req.Header.Set("Content-Type", "text/markdown; charset=utf-8")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, "body = %s", w.Body.String())

	w = do(t, router, http.MethodGet, "/content/blog/raw.md?format=raw", nil)
	assert.Equal(t, raw, w.Body.String())
}

func TestDeleteDocument(t *testing.T) {
	_, router := testEnv(t)
	do(t, router, http.MethodPost, "/content/blog", map[string]any{"title": "Bye"})

	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/content/blog/bye.md", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/content/blog/bye.md", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, "/content/blog/bye.md", nil).Code)
}

func TestListPaths(t *testing.T) {
	svc, router := testEnv(t)
	ctx := context.Background()
	for _, p := range []string{"x.md", "sub/z.md"} {
		_, _, err := svc.Put(ctx, content.Project, p, frontmatter.NewRecord(), "")
		require.NoError(t, err)
	}

	w := do(t, router, http.MethodGet, "/content/project", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp PathListResponse
	decode(t, w, &resp)
	assert.Equal(t, []string{"sub/z.md", "x.md"}, resp.Paths)

	w = do(t, router, http.MethodGet, "/content/project?subfolder=sub", nil)
	decode(t, w, &resp)
	assert.Equal(t, []string{"sub/z.md"}, resp.Paths)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/content/project?subfolder=../blog", nil).Code)
}

func TestCategories(t *testing.T) {
	_, router := testEnv(t)
	w := do(t, router, http.MethodGet, "/categories", nil)
	var resp CategoriesResponse
	decode(t, w, &resp)
	require.Len(t, resp.Categories, 4)
	assert.Equal(t, "blog", resp.Categories[0].Name)
	assert.NotEmpty(t, resp.Categories[0].Root)
}

func TestListDocuments(t *testing.T) {
	_, router := testEnv(t)
	for _, title := range []string{"A", "B"} {
		do(t, router, http.MethodPost, "/content/blog", map[string]any{"title": title})
	}
	do(t, router, http.MethodPost, "/content/blog", map[string]any{"title": "Draft", "frontmatter": map[string]any{"draft": true}})

	w := do(t, router, http.MethodGet, "/documents?category=blog&sort=title&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code, "body = %s", w.Body.String())
	var resp DocumentListResponse
	decode(t, w, &resp)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Documents, 2)
	assert.Equal(t, "A", resp.Documents[0].Title)

	w = do(t, router, http.MethodGet, "/documents?drafts=true", nil)
	decode(t, w, &resp)
	assert.Equal(t, 3, resp.Total)

	for _, q := range []string{"sort=rank", "limit=9999", "category=podcast", "offset=-1"} {
		assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/documents?"+q, nil).Code, q)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t)
	do(t, router, http.MethodPost, "/content/research", map[string]any{"title": "Find", "body": "uniquetoken here"})

	w := do(t, router, http.MethodGet, "/search?q=uniquetoken&category=research", nil)
	require.Equal(t, http.StatusOK, w.Code, "body = %s", w.Body.String())
	var resp SearchResponse
	decode(t, w, &resp)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "find.md", resp.Results[0].Path)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/search", nil).Code)
}

func TestSlugEndpoint(t *testing.T) {
	_, router := testEnv(t)
	w := do(t, router, http.MethodGet, "/slug?title=Hello%2C+World%21", nil)
	var resp SlugResponse
	decode(t, w, &resp)
	assert.Equal(t, "hello-world", resp.Slug)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/slug", nil).Code)
}

func TestSSEEventsMounted(t *testing.T) {
	svc := contentservice.NewService(testutil.TestRepository(t), testutil.TestDB(t))

	// Minimal SSE handler stub: writes headers and blocks until context done.
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		<-r.Context().Done()
	})
	router := NewRouter(svc, sseHandler)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
}
