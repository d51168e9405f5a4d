package api

import (
	"github.com/starford/docsite/internal/catalog"
	"github.com/starford/docsite/internal/docservice"
	"github.com/starford/docsite/internal/index"
	"github.com/starford/docsite/internal/models"
	"github.com/starford/docsite/internal/render"
)

// CreateDocRequest is the request body for scaffolding a document.
type CreateDocRequest struct {
	Title    string `json:"title" example:"React Hooks Guide" validate:"required"`
	Category string `json:"category,omitempty" example:"React"`
}

// DocDetail is the rendered document response (aliased from the domain layer).
type DocDetail = docservice.DocDetail

// DocListResponse wraps document listings.
type DocListResponse struct {
	Docs  models.Manifest `json:"docs" validate:"required"`
	Total int             `json:"total" example:"42" validate:"required"`
}

// CategoriesResponse wraps the grouped manifest.
type CategoriesResponse struct {
	Categories []catalog.Category `json:"categories" validate:"required"`
}

// SearchResponse wraps metadata search hits.
type SearchResponse struct {
	Results models.Manifest `json:"results" validate:"required"`
}

// FullTextResponse wraps full-text hits.
type FullTextResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// OutlineResponse wraps a document outline.
type OutlineResponse struct {
	Slug    string                `json:"slug" example:"getting-started" validate:"required"`
	Outline []render.OutlineEntry `json:"outline" validate:"required"`
}

// ThemesResponse lists the selectable themes.
type ThemesResponse struct {
	Markdown  []render.ThemeOption `json:"markdown" validate:"required"`
	Highlight []render.ThemeOption `json:"highlight" validate:"required"`
}
