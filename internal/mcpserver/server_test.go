package mcpserver

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/docsite/internal/catalog"
	"github.com/starford/docsite/internal/docservice"
	"github.com/starford/docsite/internal/manifest"
	"github.com/starford/docsite/internal/prefs"
	"github.com/starford/docsite/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	root, store := testutil.TestContent(t)
	testutil.WriteFile(t, root, "guides/setup.md", "---\ntitle: Setup\ncategory: Guides\ntags: [install]\ndate: \"2024-03-01\"\n---\n\n## Requirements\n\nA kettle and some dirigibles.\n\n### Optional\n\nMore.\n\n```python\nprint(1)\n```\n")
	testutil.WriteFile(t, root, "faq.md", "# FAQ\n\nQuestions.\n")

	logger := testutil.Logger()
	builder := manifest.NewBuilder(root, logger)
	builder.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	svc := docservice.NewService(docservice.Deps{
		Store:   store,
		DB:      testutil.TestDB(t),
		Catalog: catalog.NewStore(builder.Path(), logger),
		Prefs:   prefs.Open(filepath.Join(t.TempDir(), "prefs.json"), prefs.Defaults(), logger),
		Builder: builder,
		Logger:  logger,
	})
	if _, err := svc.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	return New(svc)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper, so dispatch to the handlers directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_docs":
		result, err = srv.searchDocs(ctx, req)
	case "list_docs":
		result, err = srv.listDocs(ctx, req)
	case "read_doc":
		result, err = srv.readDoc(ctx, req)
	case "render_doc":
		result, err = srv.renderDoc(ctx, req)
	case "get_outline":
		result, err = srv.getOutline(ctx, req)
	case "create_doc":
		result, err = srv.createDoc(ctx, req)
	case "get_doc_contract":
		result, err = srv.getDocContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListDocs(t *testing.T) {
	srv := testServer(t)

	text := resultText(callTool(t, srv, "list_docs", map[string]any{}))
	if !strings.HasPrefix(text, "setup\tGuides\tSetup\n") || !strings.Contains(text, "faq\tGeneral\tFAQ") {
		t.Errorf("list = %q", text)
	}

	text = resultText(callTool(t, srv, "list_docs", map[string]any{"category": "Nothing"}))
	if text != "no documents found" {
		t.Errorf("empty category = %q", text)
	}
}

func TestSearchDocs(t *testing.T) {
	srv := testServer(t)

	text := resultText(callTool(t, srv, "search_docs", map[string]any{"query": "install"}))
	if !strings.Contains(text, `"slug": "setup"`) {
		t.Errorf("metadata search = %s", text)
	}

	text = resultText(callTool(t, srv, "search_docs", map[string]any{"query": "dirigibles", "fulltext": true}))
	if !strings.Contains(text, `"slug": "setup"`) {
		t.Errorf("fulltext search = %s", text)
	}

	r := callTool(t, srv, "search_docs", map[string]any{})
	if !r.IsError {
		t.Error("expected error without query")
	}
}

func TestReadDoc(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "read_doc", map[string]any{"slug": "faq"}))
	if text != "# FAQ\n\nQuestions.\n" {
		t.Errorf("read = %q", text)
	}

	r := callTool(t, srv, "read_doc", map[string]any{"slug": "nope"})
	if !r.IsError || resultText(r) != "not found: nope" {
		t.Errorf("missing doc = %+v", r)
	}
}

func TestRenderDoc(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "render_doc", map[string]any{"slug": "setup", "highlight_theme": "monokai"}))
	for _, want := range []string{`<h2 id="requirements"`, "language-python", "highlight-theme-monokai"} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered html missing %q:\n%s", want, text)
		}
	}

	r := callTool(t, srv, "render_doc", map[string]any{"slug": "setup", "highlight_theme": "neon"})
	if !r.IsError {
		t.Error("expected error for unknown theme")
	}
}

func TestGetOutline(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "get_outline", map[string]any{"slug": "setup"}))
	want := "- Requirements (#requirements)\n  - Optional (#optional)\n"
	if text != want {
		t.Errorf("outline = %q, want %q", text, want)
	}

	text = resultText(callTool(t, srv, "get_outline", map[string]any{"slug": "faq"}))
	if text != "no headings found" {
		t.Errorf("empty outline = %q", text)
	}
}

func TestCreateDoc(t *testing.T) {
	srv := testServer(t)

	text := resultText(callTool(t, srv, "create_doc", map[string]any{"title": "Upgrade Notes", "category": "Ops"}))
	if text != "created: upgrade-notes.md (slug upgrade-notes)" {
		t.Errorf("create = %q", text)
	}

	raw := resultText(callTool(t, srv, "read_doc", map[string]any{"slug": "upgrade-notes"}))
	if !strings.Contains(raw, "category: Ops") || !strings.Contains(raw, "# Upgrade Notes") {
		t.Errorf("scaffolded doc = %q", raw)
	}

	r := callTool(t, srv, "create_doc", map[string]any{"title": "Upgrade Notes"})
	if !r.IsError {
		t.Error("expected error for duplicate document")
	}
}

func TestDocContract(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "get_doc_contract", map[string]any{}))
	if text != DocFormatContract || !strings.Contains(text, "category:") {
		t.Error("contract text mismatch")
	}

	contents, err := srv.readDocFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != DocFormatURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}
