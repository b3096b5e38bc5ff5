// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Inscribe tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/inscribe/internal/apperr"
	"github.com/starford/inscribe/internal/blobstore"
	"github.com/starford/inscribe/internal/identity"
	"github.com/starford/inscribe/internal/models"
	"github.com/starford/inscribe/internal/noteservice"
)

// Server wraps the MCP server with Inscribe tools. Every tool acts as a
// single configured identity.
type Server struct {
	mcp   *server.MCPServer
	svc   *noteservice.Service
	blobs *blobstore.FS
	self  models.Identity
}

// New creates a new MCP server with all Inscribe tools registered.
func New(svc *noteservice.Service, blobs *blobstore.FS, self models.Identity) *Server {
	s := &Server{svc: svc, blobs: blobs, self: self}

	s.mcp = server.NewMCPServer(
		"Inscribe",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note owned by you. Pass either the Markdown body as content "+
			"(it is stored and its pointer recorded) or a content_pointer from store_content. "+
			"Each creation is charged the current fee. Read inscribe://guide first."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Description("Markdown body to store")),
		mcp.WithString("content_pointer", mcp.Description("Pointer to an already stored body")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read one of your active notes, including its body when stored locally."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List the active notes of an owner in creation order."),
		mcp.WithString("owner", mcp.Description("Owner identity (defaults to you)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace the title and body of one of your active notes. Charged the current fee."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
		mcp.WithString("content", mcp.Description("New Markdown body to store")),
		mcp.WithString("content_pointer", mcp.Description("Pointer to an already stored body")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Soft-delete one of your notes. Its id is never reused."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("note_stats",
		mcp.WithDescription("Count an owner's notes: total created and still active."),
		mcp.WithString("owner", mcp.Description("Owner identity (defaults to you)")),
	), s.noteStats)

	s.mcp.AddTool(mcp.NewTool("contract_info",
		mcp.WithDescription("Show the operator, current fee and global note count."),
	), s.contractInfo)

	s.mcp.AddTool(mcp.NewTool("store_content",
		mcp.WithDescription("Store a note body and return its content pointer without creating a note. existed reports whether the body was already stored."),
		mcp.WithString("content", mcp.Description("Text body")),
		mcp.WithString("data_uri", mcp.Description("Binary body as a base64 data: URI")),
	), s.storeContent)

	s.mcp.AddResource(
		mcp.NewResource(GuideURI, "Inscribe Guide",
			mcp.WithResourceDescription("How notes, owners, fees and content pointers work."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGuideResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// act attaches the server identity as the calling principal.
func (s *Server) act(ctx context.Context) context.Context {
	return identity.WithPrincipal(ctx, s.self)
}

func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		return mcp.NewToolResultError("unauthorized: " + err.Error())
	case errors.Is(err, apperr.ErrNotInitialized):
		return mcp.NewToolResultError("contract is not initialized")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func requireID(req mcp.CallToolRequest) (uint64, error) {
	f, err := req.RequireFloat("id")
	if err != nil {
		return 0, err
	}
	if f < 0 || f != math.Trunc(f) || f >= math.MaxUint64 {
		return 0, fmt.Errorf("id must be a non-negative integer")
	}
	return uint64(f), nil
}

func (s *Server) owner(req mcp.CallToolRequest) models.Identity {
	if o := strings.TrimSpace(req.GetString("owner", "")); o != "" {
		return models.Identity(o)
	}
	return s.self
}

// pointer resolves the body arguments of create_note and update_note.
func (s *Server) pointer(req mcp.CallToolRequest) (string, error) {
	if content := req.GetString("content", ""); content != "" {
		p, _, err := s.blobs.Put(strings.NewReader(content))
		return p, err
	}
	return req.GetString("content_pointer", ""), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ptr, err := s.pointer(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := s.svc.Create(s.act(ctx), s.self, title, ptr)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"id": id, "content_pointer": ptr}), nil
}

type noteWithBody struct {
	models.Note
	Content string `json:"content,omitempty"`
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Get(s.act(ctx), id, s.self)
	if err != nil {
		return toolError(err), nil
	}
	if n == nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %d", id)), nil
	}
	out := noteWithBody{Note: *n}
	if data, err := s.blobs.Read(n.ContentPointer); err == nil {
		out.Content = string(data)
	}
	return jsonResult(out), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.svc.List(ctx, s.owner(req))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(notes), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ptr, err := s.pointer(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ok, err := s.svc.Update(s.act(ctx), id, s.self, title, ptr)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]bool{"updated": ok}), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ok, err := s.svc.Delete(s.act(ctx), id, s.self)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]bool{"deleted": ok}), nil
}

func (s *Server) noteStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.svc.Stats(ctx, s.owner(req))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(st), nil
}

func (s *Server) contractInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.svc.Contract(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(info), nil
}

func (s *Server) readGuideResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GuideURI,
			MIMEType: "text/markdown",
			Text:     Guide,
		},
	}, nil
}
