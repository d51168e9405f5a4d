package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/docsite/internal/apperr"
	"github.com/starford/docsite/internal/docservice"
	"github.com/starford/docsite/internal/prefs"
	"github.com/starford/docsite/internal/render"
)

const docNotFound = "document not found"

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

func intParam(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

// Manifest handles GET /api/manifest.json.
//
//	@Summary		The raw manifest, newest first
//	@Tags			docs
//	@Produce		json
//	@Success		200	{array}	models.Document
//	@Security		BearerAuth
//	@Router			/manifest.json [get]
func (h *Handler) Manifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Manifest(r.Context()))
}

// ListDocs handles GET /api/docs.
//
//	@Summary		List documents, optionally of one category
//	@Tags			docs
//	@Produce		json
//	@Param			category	query		string	false	"Filter by category"
//	@Success		200			{object}	DocListResponse
//	@Security		BearerAuth
//	@Router			/docs [get]
func (h *Handler) ListDocs(w http.ResponseWriter, r *http.Request) {
	docs := h.svc.List(r.Context(), r.URL.Query().Get("category"))
	writeJSON(w, http.StatusOK, DocListResponse{Docs: docs, Total: len(docs)})
}

// CreateDoc handles POST /api/docs.
//
//	@Summary		Scaffold a new document
//	@Tags			docs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocRequest	true	"Document to create"
//	@Success		201		{object}	models.Document
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/docs [post]
func (h *Handler) CreateDoc(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	doc, err := h.svc.Create(r.Context(), req.Title, req.Category)
	if err != nil {
		writeError(w, err, docNotFound, "create doc")
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// GetDoc handles GET /api/docs/{slug}.
//
//	@Summary		Get a rendered document with its outline
//	@Tags			docs
//	@Produce		json
//	@Param			slug		path		string	true	"Document slug"
//	@Param			md_theme	query		string	false	"Prose theme override"
//	@Param			hl_theme	query		string	false	"Code theme override"
//	@Success		200			{object}	DocDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/docs/{slug} [get]
func (h *Handler) GetDoc(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	q := r.URL.Query()
	theme, err := h.svc.ResolveTheme(q.Get("md_theme"), q.Get("hl_theme"))
	if err != nil {
		writeError(w, err, docNotFound, "resolve theme")
		return
	}
	doc, err := h.svc.Get(r.Context(), slug, theme)
	if err != nil {
		writeError(w, err, docNotFound, "get doc")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// RawDoc handles GET /api/docs/{slug}/raw.
//
//	@Summary		Get the markdown source of a document
//	@Tags			docs
//	@Produce		plain
//	@Param			slug	path		string	true	"Document slug"
//	@Success		200		{string}	string
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/docs/{slug}/raw [get]
func (h *Handler) RawDoc(w http.ResponseWriter, r *http.Request) {
	raw, err := h.svc.Raw(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err, docNotFound, "raw doc")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(raw))
}

// Outline handles GET /api/docs/{slug}/outline.
//
//	@Summary		Get the heading outline of a document
//	@Tags			docs
//	@Produce		json
//	@Param			slug	path		string	true	"Document slug"
//	@Success		200		{object}	OutlineResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/docs/{slug}/outline [get]
func (h *Handler) Outline(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	outline, err := h.svc.Outline(r.Context(), slug)
	if err != nil {
		writeError(w, err, docNotFound, "outline")
		return
	}
	writeJSON(w, http.StatusOK, OutlineResponse{Slug: slug, Outline: outline})
}

// Categories handles GET /api/categories.
//
//	@Summary		Documents grouped by category
//	@Tags			navigation
//	@Produce		json
//	@Success		200	{object}	CategoriesResponse
//	@Security		BearerAuth
//	@Router			/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: h.svc.Categories(r.Context())})
}

// Recent handles GET /api/recent.
//
//	@Summary		Most recent documents
//	@Tags			navigation
//	@Produce		json
//	@Param			limit	query	int	false	"Number of documents (default 6)"
//	@Success		200		{array}	models.Document
//	@Security		BearerAuth
//	@Router			/recent [get]
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Recent(r.Context(), intParam(r, "limit")))
}

// Search handles GET /api/search.
//
//	@Summary		Search titles, descriptions, categories and tags
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	false	"Search query; blank matches nothing"
//	@Param			limit	query		int		false	"Max results (default 10)"
//	@Success		200		{object}	SearchResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	results := h.svc.Search(r.Context(), r.URL.Query().Get("q"), intParam(r, "limit"))
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// FullText handles GET /api/search/fulltext.
//
//	@Summary		Full-text search across document bodies
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	FullTextResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search/fulltext [get]
func (h *Handler) FullText(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results, err := h.svc.FullText(r.Context(), q, intParam(r, "limit"))
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, FullTextResponse{Results: results})
}

// GetPreferences handles GET /api/preferences.
//
//	@Summary		Current presentation preferences
//	@Tags			preferences
//	@Produce		json
//	@Success		200	{object}	prefs.Preferences
//	@Security		BearerAuth
//	@Router			/preferences [get]
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Preferences(r.Context()))
}

// UpdatePreferences handles PUT /api/preferences.
//
//	@Summary		Update presentation preferences
//	@Tags			preferences
//	@Accept			json
//	@Produce		json
//	@Param			body	body		prefs.Patch	true	"Fields to change"
//	@Success		200		{object}	prefs.Preferences
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/preferences [put]
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	var patch prefs.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	p, err := h.svc.UpdatePreferences(r.Context(), patch)
	if err != nil {
		writeError(w, err, "not found", "update preferences")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CycleColorScheme handles POST /api/preferences/color-scheme.
//
//	@Summary		Advance the color scheme (light, dark, system)
//	@Tags			preferences
//	@Produce		json
//	@Success		200	{object}	prefs.Preferences
//	@Security		BearerAuth
//	@Router			/preferences/color-scheme [post]
func (h *Handler) CycleColorScheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.CycleColorScheme(r.Context()))
}

// Themes handles GET /api/themes.
//
//	@Summary		Selectable prose and code themes
//	@Tags			preferences
//	@Produce		json
//	@Success		200	{object}	ThemesResponse
//	@Security		BearerAuth
//	@Router			/themes [get]
func (h *Handler) Themes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ThemesResponse{
		Markdown:  render.MarkdownThemes,
		Highlight: render.HighlightThemes,
	})
}

// HighlightCSS handles GET /api/themes/highlight/{name}.css.
//
//	@Summary		Stylesheet for a code theme
//	@Tags			preferences
//	@Produce		text/css
//	@Param			name	path		string	true	"Highlight theme"
//	@Success		200		{string}	string
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/themes/highlight/{name}.css [get]
func (h *Handler) HighlightCSS(w http.ResponseWriter, r *http.Request) {
	css, err := render.HighlightCSS(chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidTheme) {
			writeJSON(w, http.StatusNotFound, errorBody("theme not found"))
			return
		}
		writeError(w, err, "theme not found", "highlight css")
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(css))
}
