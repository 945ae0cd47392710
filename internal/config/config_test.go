package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(dir string) *Config {
	return &Config{
		Mode:              "stdio",
		Host:              "127.0.0.1",
		Port:              8080,
		TemplateDirectory: dir,
		CatalogTimeout:    time.Second,
		LogLevel:          "info",
		MaxFileSize:       1024,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}
	if cfg.ServerName != "mcp-template-forms" {
		t.Errorf("Expected default server name to be 'mcp-template-forms', got '%s'", cfg.ServerName)
	}
	if cfg.MaxFileSize != 50*1024*1024 {
		t.Errorf("Expected default max file size to be 50MB, got %d", cfg.MaxFileSize)
	}
	if cfg.CatalogTimeout != DefaultCatalogTimeout {
		t.Errorf("Expected default catalog timeout %s, got %s", DefaultCatalogTimeout, cfg.CatalogTimeout)
	}
	if cfg.LogoURL == "" || cfg.SignatureURL == "" {
		t.Error("Expected default preview image urls")
	}

	currentDir, _ := os.Getwd()
	if cfg.TemplateDirectory != currentDir {
		t.Errorf("Expected default template directory to be '%s', got '%s'", currentDir, cfg.TemplateDirectory)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid stdio", mutate: func(c *Config) {}},
		{name: "valid server", mutate: func(c *Config) { c.Mode = "server" }},
		{name: "invalid mode", mutate: func(c *Config) { c.Mode = "invalid" }, wantErr: "mode must be"},
		{name: "port too low", mutate: func(c *Config) { c.Mode = "server"; c.Port = 0 }, wantErr: "port must be"},
		{name: "port too high", mutate: func(c *Config) { c.Mode = "server"; c.Port = 70000 }, wantErr: "port must be"},
		{name: "port ignored in stdio", mutate: func(c *Config) { c.Port = 0 }},
		{name: "empty directory", mutate: func(c *Config) { c.TemplateDirectory = "" }, wantErr: "template directory"},
		{name: "zero max file size", mutate: func(c *Config) { c.MaxFileSize = 0 }, wantErr: "maximum file size"},
		{name: "zero catalog timeout", mutate: func(c *Config) { c.CatalogTimeout = 0 }, wantErr: "catalog timeout"},
		{name: "invalid log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "invalid log level"},
		{
			name:    "same reserved ids",
			mutate:  func(c *Config) { c.GenericDataTypeID = "x"; c.MasterFolderTypeID = "x" },
			wantErr: "must differ",
		},
		{
			name:   "distinct reserved ids",
			mutate: func(c *Config) { c.GenericDataTypeID = "g"; c.MasterFolderTypeID = "m" },
		},
		{name: "bad logo url", mutate: func(c *Config) { c.LogoURL = "ftp://x/logo.png" }, wantErr: "logo url"},
		{name: "https signature url", mutate: func(c *Config) { c.SignatureURL = "https://cdn.example.com/s.png" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t.TempDir())
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Config.Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Config.Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateDoesNotCreateDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "non-existent", "templates")

	if err := validConfig(dir).Validate(); err != nil {
		t.Errorf("Config.Validate() should not fail for non-existent directory, got error: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("Directory should NOT have been created: %s", dir)
	}
}

func TestConfigCategories(t *testing.T) {
	cfg := &Config{GenericDataTypeID: "gen", MasterFolderTypeID: "mfo"}
	cats := cfg.Categories()

	if cats.GenericDataID != "gen" || cats.MasterFolderOnlyID != "mfo" {
		t.Errorf("Config.Categories() = %+v", cats)
	}
	if !cats.Of("mfo").IsGeneric() {
		t.Error("master folder id should resolve to a generic category")
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "192.168.1.1", Port: 9090}

	if got := cfg.Address(); got != "192.168.1.1:9090" {
		t.Errorf("Config.Address() = %v, want %v", got, "192.168.1.1:9090")
	}
}

func TestConfigIsDebug(t *testing.T) {
	for level, want := range map[string]bool{"debug": true, "info": false, "warn": false, "error": false} {
		t.Run(level, func(t *testing.T) {
			cfg := &Config{LogLevel: level}
			if got := cfg.IsDebug(); got != want {
				t.Errorf("Config.IsDebug() = %v, want %v", got, want)
			}
		})
	}
}

func TestConfigModes(t *testing.T) {
	server := &Config{Mode: "server"}
	stdio := &Config{Mode: "stdio"}

	if !server.IsServerMode() || server.IsStdioMode() {
		t.Error("server config reports wrong mode")
	}
	if !stdio.IsStdioMode() || stdio.IsServerMode() {
		t.Error("stdio config reports wrong mode")
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:              "server",
		Host:              "localhost",
		Port:              8080,
		TemplateDirectory: "/srv/templates",
		CatalogPath:       "/srv/catalog.xlsx",
		LogLevel:          "debug",
		MaxFileSize:       1024,
	}

	result := cfg.String()
	for _, substr := range []string{
		"Mode: server",
		"Host: localhost",
		"Port: 8080",
		"TemplateDirectory: /srv/templates",
		"CatalogPath: /srv/catalog.xlsx",
		"LogLevel: debug",
		"MaxFileSize: 1024",
	} {
		if !strings.Contains(result, substr) {
			t.Errorf("Config.String() result doesn't contain expected substring: %s\nGot: %s", substr, result)
		}
	}
}
