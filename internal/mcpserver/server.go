// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes taskflow storage tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/taskflow/internal/exchange"
	"github.com/starford/taskflow/internal/persist"
)

const exportFormatURI = "taskflow://export-format"

// Server wraps the MCP server with taskflow tools.
type Server struct {
	mcp   *server.MCPServer
	store *persist.Store
	now   func() time.Time
}

// New creates a new MCP server with all taskflow tools registered.
func New(store *persist.Store, version string) *Server {
	s := &Server{store: store, now: time.Now}

	s.mcp = server.NewMCPServer(
		"taskflow",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("storage_stats",
		mcp.WithDescription("Report the stored size of each document and total medium usage in bytes."),
	), s.storageStats)

	s.mcp.AddTool(mcp.NewTool("validate_documents",
		mcp.WithDescription("Structurally validate lists, templates, settings and calendar events."),
	), s.validateDocuments)

	s.mcp.AddTool(mcp.NewTool("list_snapshots",
		mcp.WithDescription("List retained snapshots, newest first."),
	), s.listSnapshots)

	s.mcp.AddTool(mcp.NewTool("create_snapshot",
		mcp.WithDescription("Take a snapshot of all documents. Older snapshots beyond the retention limit are pruned."),
	), s.createSnapshot)

	s.mcp.AddTool(mcp.NewTool("restore_snapshot",
		mcp.WithDescription("Overwrite every document with the contents of a snapshot. "+
			"The replaced values become the one-generation backups."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Snapshot id as returned by list_snapshots")),
	), s.restoreSnapshot)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read one document as JSON, with backup and default fallback applied."),
		mcp.WithString("name", mcp.Required(), mcp.Description("lists, templates, settings or calendar-events")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("export_data",
		mcp.WithDescription("Return a full export file. See the "+exportFormatURI+" resource for its format."),
	), s.exportData)

	s.mcp.AddResource(
		mcp.NewResource(exportFormatURI, "Export Format",
			mcp.WithResourceDescription("Format of taskflow export and import files."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readExportFormatResource,
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

func (s *Server) storageStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.store.Stats()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(st)
}

func (s *Server) validateDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.store.ValidateAll())
}

func (s *Server) listSnapshots(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := s.store.ListSnapshots()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(infos) == 0 {
		return mcp.NewToolResultText("no snapshots"), nil
	}
	return jsonResult(infos)
}

func (s *Server) createSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.store.CreateSnapshot()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", id)), nil
}

func (s *Server) restoreSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.store.RestoreSnapshot(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("restored: %s", id)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, ok := persist.ParseDocument(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown document: %s", name)), nil
	}
	st := s.store.LoadState()
	switch doc {
	case persist.DocLists:
		return jsonResult(st.Lists)
	case persist.DocTemplates:
		return jsonResult(st.Templates)
	case persist.DocSettings:
		return jsonResult(st.Settings)
	default:
		return jsonResult(st.Events)
	}
}

func (s *Server) exportData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(exchange.Export(s.store.LoadState(), s.now()))
}

func (s *Server) readExportFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      exportFormatURI,
			MIMEType: "text/markdown",
			Text:     ExportFormatContract,
		},
	}, nil
}
