package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/thunderderder/echo/internal/db"
	"github.com/thunderderder/echo/internal/echoes"
	"github.com/thunderderder/echo/internal/models"
)

// Insighter produces the day's guiding question from its notes.
type Insighter interface {
	Insight(ctx context.Context, notes []models.Note, selectedDate string) (*models.InsightResult, error)
}

// Server implements the MCP server for the journal
type Server struct {
	store       *db.Store
	coordinator *echoes.Coordinator
	insighter   Insighter
	mcpServer   *server.MCPServer
}

// NewServer creates a new MCP server
func NewServer(store *db.Store, coordinator *echoes.Coordinator, insighter Insighter) *Server {
	s := &Server{
		store:       store,
		coordinator: coordinator,
		insighter:   insighter,
	}

	// Create MCP server with tools
	s.mcpServer = server.NewMCPServer(
		"Echo Journal",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	// Register tools
	s.registerTools()

	return s
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	// add_note tool
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "add_note",
		Description: "Record a new journal note for today",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"content": map[string]interface{}{
					"type":        "string",
					"description": "The note content to store",
				},
			},
			Required: []string{"content"},
		},
	}, s.handleAddNote)

	// list_notes tool
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_notes",
		Description: "List journal notes. With no arguments, returns every note newest first; pass a date to get one day's notes in the order they were written.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"date": map[string]interface{}{
					"type":        "string",
					"description": "Calendar date (YYYY-MM-DD). Optional.",
				},
			},
			Required: []string{},
		},
	}, s.handleListNotes)

	// daily_question tool
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "daily_question",
		Description: "Generate a reflective question from one day's notes. Defaults to today when no date is given.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"date": map[string]interface{}{
					"type":        "string",
					"description": "Calendar date (YYYY-MM-DD). Optional.",
				},
			},
			Required: []string{},
		},
	}, s.handleDailyQuestion)

	// find_echoes tool
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "find_echoes",
		Description: "Surface past notes that resonate with one day's notes. Defaults to today when no date is given.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"date": map[string]interface{}{
					"type":        "string",
					"description": "Calendar date (YYYY-MM-DD). Optional.",
				},
			},
			Required: []string{},
		},
	}, s.handleFindEchoes)

	// get_status tool
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_status",
		Description: "Health check for the journal",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
			Required:   []string{},
		},
	}, s.handleGetStatus)
}

// Tool handlers

// parseParams converts MCP request arguments to a struct
func parseParams(args interface{}, target interface{}) error {
	data, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// resolveDate defaults an empty date to today.
func resolveDate(date string) (string, error) {
	if date == "" {
		return time.Now().Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", fmt.Errorf("invalid date %q, use YYYY-MM-DD", date)
	}
	return date, nil
}

func (s *Server) handleAddNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Content string `json:"content"`
	}

	if err := parseParams(request.Params.Arguments, &params); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if params.Content == "" {
		return mcp.NewToolResultError("content is required"), nil
	}

	note := &models.Note{Content: params.Content}
	if err := s.store.InsertNote(ctx, note); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store note: %v", err)), nil
	}

	result, _ := json.Marshal(map[string]interface{}{
		"success": true,
		"id":      note.ID,
		"message": "Note recorded",
	})

	return mcp.NewToolResultText(string(result)), nil
}

func (s *Server) handleListNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Date string `json:"date"`
	}

	if err := parseParams(request.Params.Arguments, &params); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	var (
		notes []models.Note
		err   error
	)
	if params.Date != "" {
		notes, err = s.store.ListNotesByDate(ctx, params.Date)
	} else {
		notes, err = s.store.ListNotes(ctx)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list notes: %v", err)), nil
	}

	result, _ := json.Marshal(notes)
	return mcp.NewToolResultText(string(result)), nil
}

func (s *Server) handleDailyQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Date string `json:"date"`
	}

	if err := parseParams(request.Params.Arguments, &params); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	date, err := resolveDate(params.Date)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	notes, err := s.store.ListNotesByDate(ctx, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load notes: %v", err)), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultError("no notes recorded for " + date), nil
	}

	insight, err := s.insighter.Insight(ctx, notes, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("insight failed: %v", err)), nil
	}

	result, _ := json.Marshal(insight)
	return mcp.NewToolResultText(string(result)), nil
}

func (s *Server) handleFindEchoes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Date string `json:"date"`
	}

	if err := parseParams(request.Params.Arguments, &params); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	date, err := resolveDate(params.Date)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	todayNotes, err := s.store.ListNotesByDate(ctx, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load notes: %v", err)), nil
	}
	if len(todayNotes) == 0 {
		return mcp.NewToolResultError("no notes recorded for " + date), nil
	}

	all, err := s.store.ListNotes(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load history: %v", err)), nil
	}

	todayIDs := make(map[string]bool, len(todayNotes))
	for _, n := range todayNotes {
		todayIDs[n.ID] = true
	}
	var history []models.Note
	for _, n := range all {
		if !todayIDs[n.ID] {
			history = append(history, n)
		}
	}

	res, err := s.coordinator.FindEchoes(ctx, todayNotes, history)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("echo lookup failed: %v", err)), nil
	}

	result, _ := json.Marshal(res)
	return mcp.NewToolResultText(string(result)), nil
}

func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count, err := s.store.CountNotes(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status check failed: %v", err)), nil
	}

	result, _ := json.Marshal(map[string]interface{}{
		"status":     "healthy",
		"version":    "1.0.0",
		"note_count": count,
	})

	return mcp.NewToolResultText(string(result)), nil
}

// Serve starts the MCP server with stdio transport
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// GetMCPServer returns the underlying MCP server for use with other transports (e.g., SSE)
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
