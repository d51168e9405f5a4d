package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/docsite/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Manifest and documents.
	r.Get("/manifest.json", h.Manifest)
	r.Get("/docs", h.ListDocs)
	r.Post("/docs", h.CreateDoc)
	r.Get("/docs/{slug}", h.GetDoc)
	r.Get("/docs/{slug}/raw", h.RawDoc)
	r.Get("/docs/{slug}/outline", h.Outline)

	// Navigation.
	r.Get("/categories", h.Categories)
	r.Get("/recent", h.Recent)

	// Search.
	r.Get("/search", h.Search)
	r.Get("/search/fulltext", h.FullText)

	// Presentation.
	r.Get("/preferences", h.GetPreferences)
	r.Put("/preferences", h.UpdatePreferences)
	r.Post("/preferences/color-scheme", h.CycleColorScheme)
	r.Get("/themes", h.Themes)
	r.Get("/themes/highlight/{name}.css", h.HighlightCSS)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
