// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes zettel notes for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/zettel/internal/apperr"
	"github.com/starford/zettel/internal/imagestore"
	"github.com/starford/zettel/internal/markup"
	"github.com/starford/zettel/internal/noteservice"
	"github.com/starford/zettel/internal/render"
)

const grammarURI = "zettel://note-grammar"

// Server wraps the MCP server with zettel tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *noteservice.Service
	logger *slog.Logger
}

// New creates a new MCP server with all zettel tools registered.
func New(svc *noteservice.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, logger: logger}

	s.mcp = server.NewMCPServer(
		"zettel",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List note titles in display order, optionally filtered by a case-insensitive substring."),
		mcp.WithString("query", mcp.Description("Optional filter matched against titles and bodies")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the raw body of a note."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("save_note",
		mcp.WithDescription("Create or overwrite a note. The body MUST follow the note grammar; "+
			"read it first via the get_note_grammar tool or the "+grammarURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title (no slashes)")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Note body following the zettel grammar")),
		mcp.WithBoolean("create_only", mcp.Description("Fail instead of overwriting an existing note")),
	), s.saveNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive substring search through note titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("render_note",
		mcp.WithDescription("Render a note the way the preview shows it: styles applied, images resolved."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
	), s.renderNote)

	s.mcp.AddTool(mcp.NewTool("import_image",
		mcp.WithDescription("Import an image into the archive from a data URI, an http(s) URL or a local path. "+
			"Returns a token to paste on its own line in a note body."),
		mcp.WithString("source", mcp.Required(), mcp.Description("data: URI, http(s) URL or file path")),
		mcp.WithString("filename", mcp.Description("Optional file name to store the image under")),
	), s.importImage)

	s.mcp.AddTool(mcp.NewTool("find_image_referrers",
		mcp.WithDescription("List the notes whose saved body references an image file. Returns a JSON array of titles."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Image file name, e.g. cat.png")),
	), s.findImageReferrers)

	s.mcp.AddTool(mcp.NewTool("get_note_grammar",
		mcp.WithDescription("Returns the zettel note grammar. "+
			"Call this before writing notes to ensure correct markup."),
	), s.getNoteGrammar)

	// Resource: note grammar.
	s.mcp.AddResource(
		mcp.NewResource(grammarURI, "Note Grammar",
			mcp.WithResourceDescription("Markup understood by the zettel renderer."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteGrammarResource,
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

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	titles := s.svc.Titles()
	if q := req.GetString("query", ""); strings.TrimSpace(q) != "" {
		var err error
		if titles, err = s.svc.Search(q); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if len(titles) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	return mcp.NewToolResultText(strings.Join(titles, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := s.svc.Get(title)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", title)), nil
	}
	return mcp.NewToolResultText(body), nil
}

func (s *Server) saveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	title, err := noteservice.ValidateTitle(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid title: %q", raw)), nil
	}
	if req.GetBool("create_only", false) {
		if _, err := s.svc.Create(title); err != nil {
			if errors.Is(err, apperr.ErrAlreadyExists) {
				return mcp.NewToolResultError(fmt.Sprintf("note already exists: %s", title)), nil
			}
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if _, err := s.svc.Put(title, body); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Info("mcp: note saved", slog.String("title", title))
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", title)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	titles, err := s.svc.Search(query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if titles == nil {
		titles = []string{}
	}
	out, _ := json.MarshalIndent(titles, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) renderNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := s.svc.Get(title)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", title)), nil
	}
	return mcp.NewToolResultText(describe(s.svc.Render(body))), nil
}

// describe flattens a document to text, marking headings and images.
func describe(doc *render.Document) string {
	var lines []string
	for _, l := range doc.Lines {
		switch l.Kind {
		case render.LineHidden:
			continue
		case render.LineImage:
			lines = append(lines, fmt.Sprintf("[image: %s %dx%d]", l.Image.Name, l.Image.Width, l.Image.Height))
		case render.LineHeading1, render.LineHeading2, render.LineHeading3:
			lines = append(lines, fmt.Sprintf("[%s] %s", l.Kind, l.Text()))
		default:
			lines = append(lines, l.Text())
		}
	}
	return strings.Join(lines, "\n")
}

type importResult struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

func (s *Server) importImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src, err := imagestore.Fetch(source)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if name := req.GetString("filename", ""); name != "" {
		name = imagestore.SanitizeName(name)
		if !imagestore.IsImageFile(name) {
			return mcp.NewToolResultError(fmt.Sprintf("unsupported file extension: %s", filepath.Ext(name))), nil
		}
		if err := imagestore.ValidateContent(src.Data, filepath.Ext(name)); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		src.Name = name
	}
	name, err := s.svc.Images().Add(src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Info("mcp: image imported", slog.String("name", name))

	out, _ := json.MarshalIndent(importResult{Name: name, Token: markup.ImageToken(name)}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) findImageReferrers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.Images().Resolve(name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	titles, err := s.svc.ImageReferrers(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if titles == nil {
		titles = []string{}
	}
	out, _ := json.MarshalIndent(titles, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNoteGrammar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteGrammar), nil
}

func (s *Server) readNoteGrammarResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      grammarURI,
			MIMEType: "text/markdown",
			Text:     NoteGrammar,
		},
	}, nil
}
