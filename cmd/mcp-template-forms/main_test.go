package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/a3tai/mcp-template-forms/internal/config"
	"github.com/a3tai/mcp-template-forms/internal/mcp"
)

const testVersion = "1.2.3"

// captureStdout runs fn and returns what it printed
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	originalStdout := os.Stdout

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = originalStdout }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
		w.Close()
	}()

	var buf bytes.Buffer
	io.Copy(&buf, r)
	<-done
	return buf.String()
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	version = testVersion
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"

	output := captureStdout(t, printVersion)

	expectedStrings := []string{
		"MCP Template Forms",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestSetupLogging(t *testing.T) {
	tests := []struct {
		name    string
		config  *config.Config
		wantErr bool
	}{
		{"stdio mode", &config.Config{Mode: "stdio", LogLevel: "info"}, false},
		{"stdio debug", &config.Config{Mode: "stdio", LogLevel: "debug"}, false},
		{"server mode", &config.Config{Mode: "server", LogLevel: "warn"}, false},
		{"empty mode", &config.Config{Mode: ""}, false},
		{"invalid level", &config.Config{Mode: "stdio", LogLevel: "loud"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := setupLogging(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if logger == nil {
				t.Fatal("logger should not be nil")
			}
		})
	}
}

func TestOpenCatalog(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "catalog.yaml")
	content := "field_types:\n  - id: \"1\"\n    name: Text\nplaceholders:\n  - full_tag_name: Name\n    placeholder_type_id: input\n    field_type_id: \"1\"\n"
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	tests := []struct {
		name     string
		path     string
		describe string
		wantErr  bool
	}{
		{"no catalog", "", "static", false},
		{"yaml catalog", yamlPath, "file:" + yamlPath, false},
		{"sqlite catalog", filepath.Join(dir, "catalog.db"), "sqlite:" + filepath.Join(dir, "catalog.db"), false},
		{"unsupported", filepath.Join(dir, "catalog.csv"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, closeCatalog, err := openCatalog(context.Background(), &config.Config{CatalogPath: tt.path})
			defer closeCatalog()
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src.Describe() != tt.describe {
				t.Errorf("Describe() = %q, want %q", src.Describe(), tt.describe)
			}
		})
	}
}

func TestNewFormsService(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TemplateDirectory = t.TempDir()

	src, closeCatalog, err := openCatalog(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	defer closeCatalog()

	formsService, err := newFormsService(cfg, src, nil)
	if err != nil {
		t.Fatalf("failed to create forms service: %v", err)
	}
	if formsService.TemplateDirectory() != cfg.TemplateDirectory {
		t.Errorf("TemplateDirectory() = %q, want %q", formsService.TemplateDirectory(), cfg.TemplateDirectory)
	}
	if formsService.GetMaxFileSize() != cfg.MaxFileSize {
		t.Errorf("GetMaxFileSize() = %d, want %d", formsService.GetMaxFileSize(), cfg.MaxFileSize)
	}

	info, err := formsService.CatalogInfo(context.Background())
	if err != nil {
		t.Fatalf("CatalogInfo() error = %v", err)
	}
	if info.Categories != cfg.Categories() {
		t.Errorf("categories not passed through: %+v", info.Categories)
	}
}

func TestRunStdioMode_StopsWithContext(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TemplateDirectory = t.TempDir()

	formsService, err := newFormsService(cfg, nil, nil)
	if err != nil {
		t.Fatalf("failed to create forms service: %v", err)
	}
	server, err := mcp.NewServer(cfg, formsService, nil)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- runStdioMode(ctx, cancel, server)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("runStdioMode did not return for a canceled context")
	}
}
