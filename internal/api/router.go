// Package api implements the Folio authoring REST API using chi.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/contentservice"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *contentservice.Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	r.Get("/categories", h.Categories)

	// Documents by category, straight from disk.
	r.Route("/content/{category}", func(r chi.Router) {
		r.Get("/", h.ListPaths)
		r.Post("/", h.CreateDocument)
		r.Get("/*", h.GetDocument)
		r.Put("/*", h.PutDocument)
		r.Delete("/*", h.DeleteDocument)
	})

	// Index-backed listing and search.
	r.Get("/documents", h.ListDocuments)
	r.Get("/search", h.Search)

	r.Get("/slug", h.Slug)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
