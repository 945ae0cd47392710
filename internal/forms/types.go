package forms

import (
	"github.com/a3tai/mcp-template-forms/internal/organizer"
	"github.com/a3tai/mcp-template-forms/internal/placeholder"
	"github.com/a3tai/mcp-template-forms/internal/schema"
	"github.com/a3tai/mcp-template-forms/internal/template"
)

// FileInfo describes a template found in the template directory
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// ToolInfo describes one MCP tool for the server info result
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  string `json:"parameters"`
}

// Request Types

// ExtractRequest represents a request to list the placeholders of a template
type ExtractRequest struct {
	Path string `json:"path"`
}

// OpenSessionRequest starts organizing the fields of a template. Reset
// discards an existing session of the same document.
type OpenSessionRequest struct {
	Path       string `json:"path"`
	DocumentID string `json:"document_id,omitempty"`
	Reset      bool   `json:"reset,omitempty"`
}

// DispatchRequest applies one organizer action to a session
type DispatchRequest struct {
	SessionID string           `json:"session_id"`
	Action    organizer.Action `json:"-"`
}

// SnapshotRequest reads the state of a session
type SnapshotRequest struct {
	SessionID string `json:"session_id"`
}

// CompileRequest compiles the steps of a session into a form schema
type CompileRequest struct {
	SessionID string `json:"session_id"`
	Preview   bool   `json:"preview"`
}

// CloseSessionRequest ends a session
type CloseSessionRequest struct {
	SessionID string `json:"session_id"`
}

// Response Types

// ExtractResult lists the tokens and placeholders found in a template
type ExtractResult struct {
	Path         string                    `json:"path"`
	Format       template.Format           `json:"format"`
	Size         int64                     `json:"size"`
	Revision     string                    `json:"revision,omitempty"`
	PartsScanned int                       `json:"parts_scanned"`
	Tokens       []template.Token          `json:"tokens"`
	FormFields   []template.FormField      `json:"form_fields,omitempty"`
	Placeholders []placeholder.Placeholder `json:"placeholders"`
	Warnings     []string                  `json:"warnings,omitempty"`
}

// SessionResult is the state of a session after an operation
type SessionResult struct {
	SessionID  string          `json:"session_id"`
	DocumentID string          `json:"document_id"`
	Actions    int             `json:"actions"`
	State      organizer.State `json:"state"`
}

// OpenSessionResult is the outcome of opening a session
type OpenSessionResult struct {
	SessionResult
	Path       string                    `json:"path"`
	Resumed    bool                      `json:"resumed"`
	Revision   string                    `json:"revision,omitempty"`
	Generic    []placeholder.Placeholder `json:"generic"`
	Dropped    []string                  `json:"dropped,omitempty"`
	Suppressed []string                  `json:"suppressed,omitempty"`
	Warnings   []string                  `json:"warnings,omitempty"`
	// CatalogError is set when the catalog could not be loaded; every
	// placeholder is then treated as input
	CatalogError string `json:"catalog_error,omitempty"`
}

// CompileResult holds a validated form schema
type CompileResult struct {
	SessionID string        `json:"session_id"`
	Preview   bool          `json:"preview"`
	Schema    schema.Schema `json:"schema"`
}

// CloseSessionResult reports a closed session
type CloseSessionResult struct {
	SessionID  string `json:"session_id"`
	DocumentID string `json:"document_id"`
	Actions    int    `json:"actions"`
}

// CatalogInfoResult summarizes the configured catalog
type CatalogInfoResult struct {
	Source       string                  `json:"source"`
	Placeholders int                     `json:"placeholders"`
	Generic      int                     `json:"generic"`
	FieldTypes   []placeholder.FieldType `json:"field_types"`
	Categories   placeholder.Categories  `json:"categories"`
	Error        string                  `json:"error,omitempty"`
}

// ServerInfoResult describes the server, its tools and the templates it can see
type ServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	TemplateDirectory string     `json:"template_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	OpenSessions      int        `json:"open_sessions"`
	Templates         []FileInfo `json:"templates"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	ActionTypes       []string   `json:"action_types"`
	UsageGuidance     string     `json:"usage_guidance"`
}
