// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Folio content tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/contentservice"
	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/slug"
)

// FormatResourceURI identifies the front-matter format resource.
const FormatResourceURI = "folio://front-matter-format"

// Server wraps the MCP server with Folio tools.
type Server struct {
	mcp *server.MCPServer
	svc *contentservice.Service
}

// New creates a new MCP server with all Folio tools registered.
func New(svc *contentservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Folio",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	categoryArg := mcp.WithString("category", mcp.Required(),
		mcp.Description("Content category"),
		mcp.Enum(categoryNames()...))

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List document paths in a category, optionally under a subfolder."),
		categoryArg,
		mcp.WithString("subfolder", mcp.Description("Optional subfolder inside the category")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the stored text (front matter and body) of a document."),
		categoryArg,
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the category root (e.g. 2024/post.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("write_document",
		mcp.WithDescription("Create or replace a document. The front matter is a flat JSON object "+
			"whose values are strings, numbers, booleans, null or arrays of strings. Read the "+
			"format first via get_format_contract or the "+FormatResourceURI+" resource."),
		categoryArg,
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the category root (must end with .md)")),
		mcp.WithString("frontmatter", mcp.Description(`Front matter as a JSON object, e.g. {"title":"Hello","tags":["go"]}`)),
		mcp.WithString("body", mcp.Description("Document body (Markdown or HTML)")),
	), s.writeDocument)

	s.mcp.AddTool(mcp.NewTool("delete_document",
		mcp.WithDescription("Delete a document."),
		categoryArg,
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the category root")),
	), s.deleteDocument)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document titles, bodies and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("category", mcp.Description("Optional category to search in"), mcp.Enum(categoryNames()...)),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("slugify",
		mcp.WithDescription("Derive the URL slug (and file name stem) for a title."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title to slugify")),
	), s.slugify)

	s.mcp.AddTool(mcp.NewTool("get_format_contract",
		mcp.WithDescription("Returns the Folio front-matter format contract. "+
			"Call this before writing documents to ensure correct structure."),
	), s.getFormatContract)

	// Resource: front-matter format contract.
	s.mcp.AddResource(
		mcp.NewResource(FormatResourceURI, "Front-Matter Format Contract",
			mcp.WithResourceDescription("Front-matter header format that all documents follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
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

func categoryNames() []string {
	cs := content.Categories()
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

func requireCategory(req mcp.CallToolRequest) (content.Category, error) {
	name, err := req.RequireString("category")
	if err != nil {
		return "", err
	}
	return content.ParseCategory(name)
}

// toolError renders err for the model. Unexpected failures keep their detail
// since the only reader is the local client.
func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found: " + err.Error())
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := requireCategory(req)
	if err != nil {
		return toolError(err), nil
	}
	paths, err := s.svc.Paths(ctx, c, req.GetString("subfolder", ""))
	if err != nil {
		return toolError(err), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no documents found"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := requireCategory(req)
	if err != nil {
		return toolError(err), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return toolError(err), nil
	}
	data, err := s.svc.Repository().ReadRaw(c, path)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) writeDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := requireCategory(req)
	if err != nil {
		return toolError(err), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return toolError(err), nil
	}

	rec := frontmatter.NewRecord()
	if raw := strings.TrimSpace(req.GetString("frontmatter", "")); raw != "" {
		if err := json.Unmarshal([]byte(raw), rec); err != nil {
			return mcp.NewToolResultError("invalid frontmatter: " + err.Error()), nil
		}
	}
	for _, k := range rec.Keys() {
		if !frontmatter.ValidKey(k) {
			return mcp.NewToolResultError(fmt.Sprintf("invalid frontmatter key %q", k)), nil
		}
	}

	_, created, err := s.svc.Put(ctx, c, path, rec, req.GetString("body", ""))
	if err != nil {
		return toolError(err), nil
	}
	verb := "updated"
	if created {
		verb = "created"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s/%s", verb, c, path)), nil
}

func (s *Server) deleteDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := requireCategory(req)
	if err != nil {
		return toolError(err), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return toolError(err), nil
	}
	if err := s.svc.Delete(ctx, c, path); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s/%s", c, path)), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return toolError(err), nil
	}
	c := content.Category(req.GetString("category", ""))
	results, err := s.svc.Search(ctx, query, c, req.GetInt("limit", 20))
	if err != nil {
		return toolError(err), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) slugify(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(slug.Slugify(title)), nil
}

func (s *Server) getFormatContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FormatContract), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormatResourceURI,
			MIMEType: "text/markdown",
			Text:     FormatContract,
		},
	}, nil
}
