package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-template-forms/internal/config"
	"github.com/a3tai/mcp-template-forms/internal/descriptions"
	"github.com/a3tai/mcp-template-forms/internal/forms"
	"github.com/a3tai/mcp-template-forms/internal/organizer"
)

const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config       *config.Config
	formsService *forms.Service
	mcpServer    *server.MCPServer
	logger       *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, formsService *forms.Service, logger *zap.Logger) (*Server, error) {
	if formsService == nil {
		return nil, fmt.Errorf("formsService cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:       cfg,
		formsService: formsService,
		mcpServer:    mcpServer,
		logger:       logger,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractTool := mcp.NewTool(
		descriptions.ToolExtractPlaceholders,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolExtractPlaceholders)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the .docx or .pdf template, absolute or relative to the template directory"),
		),
	)
	s.mcpServer.AddTool(extractTool, s.handleExtractPlaceholders)

	openTool := mcp.NewTool(
		descriptions.ToolSessionOpen,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolSessionOpen)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the .docx or .pdf template"),
		),
		mcp.WithString("document_id",
			mcp.Description("Id of the document the form belongs to (generated when empty)"),
		),
		mcp.WithBoolean("reset",
			mcp.Description("Discard an existing session of the same document"),
		),
	)
	s.mcpServer.AddTool(openTool, s.handleSessionOpen)

	actionTool := mcp.NewTool(
		descriptions.ToolSessionAction,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolSessionAction)),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id returned by form_session_open"),
		),
		mcp.WithObject("action",
			mcp.Required(),
			mcp.Description(`Organizer action, e.g. {"type": "toggle_select", "tag": "Company.Name", "as_group": true}`),
		),
	)
	s.mcpServer.AddTool(actionTool, s.handleSessionAction)

	snapshotTool := mcp.NewTool(
		descriptions.ToolSessionSnapshot,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolSessionSnapshot)),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id returned by form_session_open"),
		),
	)
	s.mcpServer.AddTool(snapshotTool, s.handleSessionSnapshot)

	compileTool := mcp.NewTool(
		descriptions.ToolSessionCompile,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolSessionCompile)),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id returned by form_session_open"),
		),
		mcp.WithBoolean("preview",
			mcp.Description("Fill every field with an example value"),
		),
	)
	s.mcpServer.AddTool(compileTool, s.handleSessionCompile)

	closeTool := mcp.NewTool(
		descriptions.ToolSessionClose,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolSessionClose)),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id returned by form_session_open"),
		),
	)
	s.mcpServer.AddTool(closeTool, s.handleSessionClose)

	catalogTool := mcp.NewTool(
		descriptions.ToolCatalogInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolCatalogInfo)),
	)
	s.mcpServer.AddTool(catalogTool, s.handleCatalogInfo)

	serverInfoTool := mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolServerInfo)),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleExtractPlaceholders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.formsService.ExtractPlaceholders(ctx, forms.ExtractRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatExtractResult(result)), nil
}

func (s *Server) handleSessionOpen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := forms.OpenSessionRequest{
		Path:       path,
		DocumentID: request.GetString("document_id", ""),
		Reset:      request.GetBool("reset", false),
	}
	result, err := s.formsService.OpenSession(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.jsonResult(s.formatOpenResult(result), result)
}

func (s *Server) handleSessionAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	action, err := decodeActionArgument(request.GetArguments()["action"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.formsService.Dispatch(ctx, forms.DispatchRequest{SessionID: sessionID, Action: action})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	header := fmt.Sprintf("Applied %s to session %s (%d actions)\n", action.Type(), result.SessionID, result.Actions)
	return s.jsonResult(header+formatState(result.State), result.State)
}

func (s *Server) handleSessionSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.formsService.Snapshot(ctx, forms.SnapshotRequest{SessionID: sessionID})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	header := fmt.Sprintf("Session %s for document %s (%d actions)\n", result.SessionID, result.DocumentID, result.Actions)
	return s.jsonResult(header+formatState(result.State), result.State)
}

func (s *Server) handleSessionCompile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := forms.CompileRequest{
		SessionID: sessionID,
		Preview:   request.GetBool("preview", false),
	}
	result, err := s.formsService.Compile(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	mode := "entered values"
	if result.Preview {
		mode = "preview"
	}
	header := fmt.Sprintf("Compiled form schema for document %s (%d steps, %s)\n",
		result.Schema.DocumentID, len(result.Schema.Data), mode)
	return s.jsonResult(header, result.Schema)
}

func (s *Server) handleSessionClose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.formsService.CloseSession(ctx, forms.CloseSessionRequest{SessionID: sessionID})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Closed session %s for document %s after %d actions",
		result.SessionID, result.DocumentID, result.Actions)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleCatalogInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.formsService.CatalogInfo(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatCatalogInfoResult(result)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.formsService.ServerInfo(ctx, s.config.ServerName, s.config.Version,
		availableTools(), s.usageGuidance())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// decodeActionArgument accepts the action either as a JSON object or as a
// string holding one
func decodeActionArgument(raw any) (organizer.Action, error) {
	var data []byte
	switch v := raw.(type) {
	case nil:
		return nil, errors.New("required argument \"action\" not found")
	case string:
		data = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("invalid action argument: %w", err)
		}
		data = encoded
	}
	return organizer.DecodeAction(data)
}

// jsonResult appends the indented JSON of payload to a text summary
func (s *Server) jsonResult(summary string, payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(summary + "\n" + string(data)), nil
}

func availableTools() []forms.ToolInfo {
	return []forms.ToolInfo{
		{
			Name:        descriptions.ToolExtractPlaceholders,
			Description: "List the placeholder tokens of a .docx or .pdf template",
			Parameters:  "path (required): template path",
		},
		{
			Name:        descriptions.ToolSessionOpen,
			Description: "Classify a template's placeholders and start organizing its input fields",
			Parameters:  "path (required), document_id (optional), reset (optional)",
		},
		{
			Name:        descriptions.ToolSessionAction,
			Description: "Apply one organizer action to a session",
			Parameters:  "session_id (required), action (required): {\"type\": ..., ...}",
		},
		{
			Name:        descriptions.ToolSessionSnapshot,
			Description: "Read the organizer state of a session",
			Parameters:  "session_id (required)",
		},
		{
			Name:        descriptions.ToolSessionCompile,
			Description: "Compile a session into the mobile form schema",
			Parameters:  "session_id (required), preview (optional)",
		},
		{
			Name:        descriptions.ToolSessionClose,
			Description: "End a session",
			Parameters:  "session_id (required)",
		},
		{
			Name:        descriptions.ToolCatalogInfo,
			Description: "Describe the placeholder catalog and field types",
			Parameters:  "none",
		},
		{
			Name:        descriptions.ToolServerInfo,
			Description: "Server status, tools and templates",
			Parameters:  "none",
		},
	}
}

func (s *Server) usageGuidance() string {
	return `Template Forms MCP Server Usage Guide:

1. DISCOVER TEMPLATES:
   - Use 'form_server_info' to list the templates in the template directory
   - Use 'template_extract_placeholders' to see the {{placeholders}} of a template

2. OPEN A SESSION:
   - Use 'form_session_open' with the template path
   - Generic data (such as the company logo) is listed separately and never enters the form
   - The pool holds the document specific input fields

3. ORGANIZE STEPS:
   - Select fields with 'form_session_action' {"type": "toggle_select", "tag": ...}
   - Dotted tags such as Company.Name form a group; select them together with "as_group": true
   - Move the selection into a new step with {"type": "move_right"}
   - Return fields with {"type": "move_left"}, reorder with "reorder_field"

4. COMPILE:
   - Use 'form_session_compile' with preview=true to see example values
   - Compile without preview to publish the entered values
   - Close the session with 'form_session_close' when done

IMPORTANT NOTES:
- Paths are resolved inside ` + s.config.TemplateDirectory + `
- The server can handle templates up to ` + fmt.Sprintf("%d", s.formsService.GetMaxFileSize()/(1024*1024)) + `MB
- Each step compiles standalone fields first, then one Repeatable field per group`
}

// Formatting methods
func (s *Server) formatExtractResult(result *forms.ExtractResult) string {
	text := fmt.Sprintf("Placeholders in: %s\n", result.Path)
	text += fmt.Sprintf("Format: %s\n", result.Format)
	text += fmt.Sprintf("Size: %d bytes\n", result.Size)
	if result.Revision != "" {
		text += fmt.Sprintf("Revision: %s\n", result.Revision)
	}
	text += fmt.Sprintf("Parts scanned: %d\n", result.PartsScanned)
	text += fmt.Sprintf("Tokens found: %d\n", len(result.Tokens))

	if len(result.Placeholders) == 0 {
		text += "\nNo placeholders found.\n"
	} else {
		text += fmt.Sprintf("\nPlaceholders (%d):\n", len(result.Placeholders))
		for i, p := range result.Placeholders {
			text += fmt.Sprintf("%d. %s (%s)", i+1, p.FullTagName, p.Name)
			if p.Required {
				text += " required"
			}
			if len(p.Options) > 0 {
				text += fmt.Sprintf(" options: %s", strings.Join(p.Options, ", "))
			}
			text += "\n"
		}
	}

	text += formatWarnings(result.Warnings)
	return text
}

func (s *Server) formatOpenResult(result *forms.OpenSessionResult) string {
	text := fmt.Sprintf("Session: %s\n", result.SessionID)
	text += fmt.Sprintf("Document: %s\n", result.DocumentID)
	text += fmt.Sprintf("Template: %s\n", result.Path)
	if result.Resumed {
		text += "Resumed existing session\n"
	}
	text += fmt.Sprintf("Input fields: %d\n", len(result.State.Pool)+countStepFields(result.State))
	text += fmt.Sprintf("Generic data: %d\n", len(result.Generic))
	if len(result.Dropped) > 0 {
		text += fmt.Sprintf("Master folder only (hidden): %s\n", strings.Join(result.Dropped, ", "))
	}
	if len(result.Suppressed) > 0 {
		text += fmt.Sprintf("Shadowed by generic data: %s\n", strings.Join(result.Suppressed, ", "))
	}
	if result.CatalogError != "" {
		text += fmt.Sprintf("⚠️  Catalog unavailable, fields are untyped: %s\n", result.CatalogError)
	}
	text += formatWarnings(result.Warnings)
	return text
}

func formatState(state organizer.State) string {
	text := fmt.Sprintf("Pool: %d field(s), %d selected\n", len(state.Pool), state.SelectedPoolCount)
	text += fmt.Sprintf("Steps: %d, %d fully selected\n", len(state.Steps), state.SelectedStepCount)
	text += fmt.Sprintf("Can move right: %t, can move left: %t\n", state.CanMoveRight, state.CanMoveLeft)
	return text
}

func countStepFields(state organizer.State) int {
	n := 0
	for _, step := range state.Steps {
		n += len(step.Fields)
	}
	return n
}

func formatWarnings(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	text := "\nWarnings:\n"
	for _, w := range warnings {
		text += fmt.Sprintf("  • %s\n", w)
	}
	return text
}

func (s *Server) formatCatalogInfoResult(result *forms.CatalogInfoResult) string {
	text := "Placeholder Catalog\n"
	text += fmt.Sprintf("Source: %s\n", result.Source)
	if result.Error != "" {
		text += fmt.Sprintf("⚠️  Error: %s\n", result.Error)
	}
	text += fmt.Sprintf("Placeholders: %d\n", result.Placeholders)
	text += fmt.Sprintf("Generic data: %d\n", result.Generic)
	text += fmt.Sprintf("Generic data type id: %s\n", result.Categories.GenericDataID)
	text += fmt.Sprintf("Master folder type id: %s\n", result.Categories.MasterFolderOnlyID)

	if len(result.FieldTypes) > 0 {
		text += "\nField types:\n"
		for _, ft := range result.FieldTypes {
			text += fmt.Sprintf("  • %s: %s\n", ft.ID, ft.Name)
		}
	}
	return text
}

func (s *Server) formatServerInfoResult(result *forms.ServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Template Directory: %s\n", result.TemplateDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🗂️  Open Sessions: %d\n\n", result.OpenSessions)

	if len(result.Templates) > 0 {
		text += fmt.Sprintf("📂 Templates (%d found):\n", len(result.Templates))
		for i, file := range result.Templates {
			if i >= 10 { // Limit to first 10 files for readability
				text += fmt.Sprintf("   ... and %d more files\n", len(result.Templates)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Templates: No .docx or .pdf templates found in the template directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += fmt.Sprintf("\n🔀 Organizer Actions: %s\n", strings.Join(result.ActionTypes, ", "))

	text += "\n" + result.UsageGuidance
	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	defer s.formsService.Shutdown()

	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode serves MCP over stdin/stdout until the context is done
func (s *Server) runStdioMode(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Debug("starting template forms MCP server in stdio mode",
		zap.String("template_directory", s.config.TemplateDirectory))

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over HTTP with server-sent events
func (s *Server) runServerMode(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer)

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting template forms MCP server", zap.String("address", addr))
		errChan <- sse.Start(addr)
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		return nil
	}
}
