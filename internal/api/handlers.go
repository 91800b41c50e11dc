package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/contentservice"
	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/slug"
)

const (
	maxBodyBytes  = 10 << 20
	mediaMarkdown = "text/markdown"
)

// Handler holds API route handlers.
type Handler struct {
	svc *contentservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *contentservice.Service) *Handler {
	return &Handler{svc: svc}
}

func category(r *http.Request) (content.Category, error) {
	return content.ParseCategory(chi.URLParam(r, "category"))
}

// documentPath extracts the document path from the URL (everything after
// /content/{category}/). Supports encoded slashes (e.g. 2024%2Fpost.md).
// chi matches on RawPath when the request carries one, so the parameter is
// only unescaped in that case.
func documentPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" || r.URL.RawPath == "" {
		return raw
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func isMarkdown(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == mediaMarkdown
}

// Categories handles GET /categories.
//
//	@Summary		List content categories and their roots
//	@Tags			content
//	@Produce		json
//	@Success		200	{object}	CategoriesResponse
//	@Router			/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	roots := h.svc.Repository().Roots()
	out := make([]CategoryInfo, 0, len(content.Categories()))
	for _, c := range content.Categories() {
		root, _ := roots.RootFor(c)
		out = append(out, CategoryInfo{Name: string(c), Root: root})
	}
	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: out})
}

// ListPaths handles GET /content/{category}.
//
//	@Summary		List document paths in a category
//	@Tags			content
//	@Produce		json
//	@Param			category	path		string	true	"Category"	Enums(blog, project, research, mantra)
//	@Param			subfolder	query		string	false	"Restrict to a subfolder"
//	@Success		200			{object}	PathListResponse
//	@Failure		400			{object}	errResponse
//	@Router			/content/{category} [get]
func (h *Handler) ListPaths(w http.ResponseWriter, r *http.Request) {
	c, err := category(r)
	if err != nil {
		writeError(w, "list paths", err)
		return
	}
	sub := r.URL.Query().Get("subfolder")
	if err := relativePath(sub); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("subfolder "+err.Error()))
		return
	}
	paths, err := h.svc.Paths(r.Context(), c, sub)
	if err != nil {
		writeError(w, "list paths", err)
		return
	}
	writeJSON(w, http.StatusOK, PathListResponse{Category: c, Subfolder: sub, Paths: paths})
}

// GetDocument handles GET /content/{category}/*.
//
//	@Summary		Get a single document
//	@Description	Returns the decoded document, or the stored text with format=raw.
//	@Tags			content
//	@Produce		json
//	@Produce		text/markdown
//	@Param			category	path		string	true	"Category"
//	@Param			path		path		string	true	"Document path"
//	@Param			format		query		string	false	"Response format"	Enums(json, raw)
//	@Success		200			{object}	DocumentDetail
//	@Failure		404			{object}	errResponse
//	@Router			/content/{category}/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	c, err := category(r)
	if err != nil {
		writeError(w, "get document", err)
		return
	}
	p := documentPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	if r.URL.Query().Get("format") == "raw" {
		data, err := h.svc.Repository().ReadRaw(c, p)
		if err != nil {
			writeError(w, "get document", err)
			return
		}
		w.Header().Set("Content-Type", mediaMarkdown+"; charset=utf-8")
		w.Header().Set("ETag", checksum.ETag(data))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	doc, err := h.svc.Get(r.Context(), c, p)
	if err != nil {
		writeError(w, "get document", err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(doc.Checksum))
	writeJSON(w, http.StatusOK, doc)
}

// CreateDocument handles POST /content/{category}.
//
//	@Summary		Create a document whose path is derived from its title
//	@Tags			content
//	@Accept			json
//	@Produce		json
//	@Param			category	path		string					true	"Category"
//	@Param			body		body		CreateDocumentRequest	true	"Document to create"
//	@Success		201			{object}	DocumentDetail
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Router			/content/{category} [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	c, err := category(r)
	if err != nil {
		writeError(w, "create document", err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, "create document", err)
		return
	}

	doc, err := h.svc.Create(r.Context(), c, contentservice.CreateInput{
		Title:       req.Title,
		Subfolder:   req.Subfolder,
		Frontmatter: req.Frontmatter,
		Body:        req.Body,
	})
	if err != nil {
		writeError(w, "create document", err)
		return
	}
	w.Header().Set("Location", "/content/"+string(c)+"/"+doc.Path)
	writeJSON(w, http.StatusCreated, doc)
}

// PutDocument handles PUT /content/{category}/*.
//
//	@Summary		Create or replace a document (last write wins)
//	@Description	Accepts a JSON body, or the complete document text with Content-Type text/markdown.
//	@Tags			content
//	@Accept			json
//	@Accept			text/markdown
//	@Produce		json
//	@Param			category	path		string				true	"Category"
//	@Param			path		path		string				true	"Document path"
//	@Param			body		body		PutDocumentRequest	true	"Document"
//	@Success		200			{object}	DocumentDetail
//	@Success		201			{object}	DocumentDetail
//	@Failure		400			{object}	errResponse
//	@Router			/content/{category}/{path} [put]
func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	c, err := category(r)
	if err != nil {
		writeError(w, "put document", err)
		return
	}
	p := documentPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}

	var req PutDocumentRequest
	if isMarkdown(r) {
		doc := frontmatter.DecodeDocument(string(body))
		req = PutDocumentRequest{Frontmatter: doc.Record, Body: doc.Body}
	} else if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, "put document", err)
		return
	}

	doc, created, err := h.svc.Put(r.Context(), c, p, req.Frontmatter, req.Body)
	if err != nil {
		writeError(w, "put document", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	w.Header().Set("ETag", strconv.Quote(doc.Checksum))
	writeJSON(w, status, doc)
}

// DeleteDocument handles DELETE /content/{category}/*.
//
//	@Summary		Delete a document
//	@Tags			content
//	@Param			category	path	string	true	"Category"
//	@Param			path		path	string	true	"Document path"
//	@Success		204			"Document deleted"
//	@Failure		404			{object}	errResponse
//	@Router			/content/{category}/{path} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	c, err := category(r)
	if err != nil {
		writeError(w, "delete document", err)
		return
	}
	p := documentPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.Delete(r.Context(), c, p); err != nil {
		writeError(w, "delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDocuments handles GET /documents.
//
//	@Summary		List indexed documents with filtering and pagination
//	@Tags			documents
//	@Produce		json
//	@Param			category	query		string	false	"Filter by category"
//	@Param			tag			query		string	false	"Filter by tag"
//	@Param			sort		query		string	false	"Sort field"	Enums(date, title, path)
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Param			drafts		query		bool	false	"Include drafts"
//	@Success		200			{object}	DocumentListResponse
//	@Failure		400			{object}	errResponse
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := ListDocumentsQuery{
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
		Sort:     q.Get("sort"),
	}
	query.Limit, _ = strconv.Atoi(q.Get("limit"))
	query.Offset, _ = strconv.Atoi(q.Get("offset"))
	query.Drafts, _ = strconv.ParseBool(q.Get("drafts"))
	if err := query.Validate(); err != nil {
		writeError(w, "list documents", err)
		return
	}

	docs, total, err := h.svc.Browse(r.Context(), query.Filter())
	if err != nil {
		writeError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs, Total: total})
}

// Search handles GET /search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q			query		string	true	"Search query"
//	@Param			category	query		string	false	"Restrict to a category"
//	@Param			limit		query		int		false	"Max results"
//	@Success		200			{object}	SearchResponse
//	@Failure		400			{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := SearchQuery{Q: q.Get("q"), Category: q.Get("category")}
	query.Limit, _ = strconv.Atoi(q.Get("limit"))
	if err := query.Validate(); err != nil {
		writeError(w, "search", err)
		return
	}
	results, err := h.svc.Search(r.Context(), query.Q, content.Category(query.Category), query.Limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Slug handles GET /slug.
//
//	@Summary		Derive a URL slug from a title
//	@Tags			content
//	@Produce		json
//	@Param			title	query		string	true	"Title"
//	@Success		200		{object}	SlugResponse
//	@Failure		400		{object}	errResponse
//	@Router			/slug [get]
func (h *Handler) Slug(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'title' is required"))
		return
	}
	writeJSON(w, http.StatusOK, SlugResponse{Title: title, Slug: slug.Slugify(title)})
}
