// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the documentation set to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/docsite/internal/apperr"
	"github.com/starford/docsite/internal/docservice"
	"github.com/starford/docsite/internal/render"
)

// DocFormatURI identifies the document format resource.
const DocFormatURI = "docsite://doc-format"

// Server wraps the MCP server with documentation tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all documentation tools registered.
func New(svc *docservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"docsite",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_docs",
		mcp.WithDescription("Search documents. Matches titles, descriptions, categories and tags; "+
			"set fulltext to search document bodies instead."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithBoolean("fulltext", mcp.Description("Search document bodies (default false)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results")),
	), s.searchDocs)

	s.mcp.AddTool(mcp.NewTool("list_docs",
		mcp.WithDescription("List documents, newest first, optionally restricted to one category."),
		mcp.WithString("category", mcp.Description("Optional category name (empty for all)")),
	), s.listDocs)

	s.mcp.AddTool(mcp.NewTool("read_doc",
		mcp.WithDescription("Read the Markdown source of a document."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Document slug (file name without .md)")),
	), s.readDoc)

	s.mcp.AddTool(mcp.NewTool("render_doc",
		mcp.WithDescription("Render a document to HTML with heading anchors and highlighted code."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Document slug")),
		mcp.WithString("highlight_theme", mcp.Description("Code theme (github-dark, monokai, nord, dracula, tokyo-night)")),
	), s.renderDoc)

	s.mcp.AddTool(mcp.NewTool("get_outline",
		mcp.WithDescription("Return the level 2-4 headings of a document with their anchor ids."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Document slug")),
	), s.getOutline)

	s.mcp.AddTool(mcp.NewTool("create_doc",
		mcp.WithDescription("Scaffold a new document from the standard template. "+
			"Read the format via get_doc_contract or the "+DocFormatURI+" resource before editing it."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Document title; the file name is derived from it")),
		mcp.WithString("category", mcp.Description("Category (default General)")),
	), s.createDoc)

	s.mcp.AddTool(mcp.NewTool("get_doc_contract",
		mcp.WithDescription("Returns the document format contract: header fields, outline headings and code blocks."),
	), s.getDocContract)

	s.mcp.AddResource(
		mcp.NewResource(DocFormatURI, "Document Format Contract",
			mcp.WithResourceDescription("Markdown document format understood by the manifest builder and renderer."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(slug string, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) searchDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 0)
	if req.GetBool("fulltext", false) {
		results, err := s.svc.FullText(ctx, query, limit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(results)
	}
	return jsonResult(s.svc.Search(ctx, query, limit))
}

func (s *Server) listDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs := s.svc.List(ctx, req.GetString("category", ""))
	lines := make([]string, 0, len(docs))
	for _, d := range docs {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s", d.Slug, d.Category, d.Title))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no documents found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := s.svc.Raw(ctx, slug)
	if err != nil {
		return toolError(slug, err), nil
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) renderDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	theme, err := s.svc.ResolveTheme("", req.GetString("highlight_theme", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.Get(ctx, slug, theme)
	if err != nil {
		return toolError(slug, err), nil
	}
	return mcp.NewToolResultText(detail.HTML), nil
}

func (s *Server) getOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outline, err := s.svc.Outline(ctx, slug)
	if err != nil {
		return toolError(slug, err), nil
	}
	if len(outline) == 0 {
		return mcp.NewToolResultText("no headings found"), nil
	}
	var b strings.Builder
	for _, e := range outline {
		fmt.Fprintf(&b, "%s- %s (#%s)\n", strings.Repeat("  ", e.Level-render.MinOutlineLevel), e.Text, e.Slug)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) createDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Create(ctx, title, req.GetString("category", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (slug %s)", doc.FilePath, doc.Slug)), nil
}

func (s *Server) getDocContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocFormatContract), nil
}

func (s *Server) readDocFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      DocFormatURI,
			MIMEType: "text/markdown",
			Text:     DocFormatContract,
		},
	}, nil
}
