package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-template-forms/internal/placeholder"
	"github.com/a3tai/mcp-template-forms/internal/schema"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort           = 8080
	DefaultHost           = "127.0.0.1"
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 50 * 1024 * 1024 // 50MB
	DefaultCatalogTimeout = 10 * time.Second

	// EnvPrefix prefixes every environment variable, e.g. MCP_FORMS_LOG_LEVEL
	EnvPrefix = "MCP_FORMS"
)

// ErrVersionRequested is returned by LoadFromFlags when --version is passed
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the template forms MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Template configuration
	TemplateDirectory string
	CatalogPath       string // YAML, JSON, XLSX or SQLite catalog; empty for none
	CatalogTimeout    time.Duration

	// Reserved placeholder categories of the deployment
	GenericDataTypeID  string
	MasterFolderTypeID string

	// Preview images
	LogoURL      string
	SignatureURL string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum template size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:              ModeStdio, // Default to stdio mode for MCP compatibility
		Host:              DefaultHost,
		Port:              DefaultPort,
		TemplateDirectory: currentDir,
		CatalogTimeout:    DefaultCatalogTimeout,
		LogoURL:           schema.DefaultLogoURL,
		SignatureURL:      schema.DefaultSignatureURL,
		Version:           "1.0.0",
		ServerName:        "mcp-template-forms",
		LogLevel:          DefaultLogLevel,
		MaxFileSize:       DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.TemplateDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.TemplateDirectory); err == nil {
			cfg.TemplateDirectory = expandedPath
		}
	}
	if cfg.CatalogPath != "" {
		if expandedPath, err := filepath.Abs(cfg.CatalogPath); err == nil {
			cfg.CatalogPath = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// flagKeys lists every flag; each is also readable from the environment
var flagKeys = []string{
	"mode",
	"host",
	"port",
	"dir",
	"catalog",
	"catalog-timeout",
	"generic-type-id",
	"master-folder-type-id",
	"logo-url",
	"signature-url",
	"log-level",
	"max-file-size",
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.TemplateDirectory)
	viper.SetDefault("catalog", cfg.CatalogPath)
	viper.SetDefault("catalog-timeout", cfg.CatalogTimeout)
	viper.SetDefault("generic-type-id", cfg.GenericDataTypeID)
	viper.SetDefault("master-folder-type-id", cfg.MasterFolderTypeID)
	viper.SetDefault("logo-url", cfg.LogoURL)
	viper.SetDefault("signature-url", cfg.SignatureURL)
	viper.SetDefault("log-level", cfg.LogLevel)
	viper.SetDefault("max-file-size", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.TemplateDirectory, "Directory containing document templates")
	pflag.String("catalog", cfg.CatalogPath, "Placeholder catalog (.yaml, .json, .xlsx, .db)")
	pflag.Duration("catalog-timeout", cfg.CatalogTimeout, "Maximum time to load the catalog")
	pflag.String("generic-type-id", cfg.GenericDataTypeID, "Placeholder type id of organization-wide generic data")
	pflag.String("master-folder-type-id", cfg.MasterFolderTypeID, "Placeholder type id of master-folder-only data")
	pflag.String("logo-url", cfg.LogoURL, "Preview image for logo fields")
	pflag.String("signature-url", cfg.SignatureURL, "Preview image for other image fields")
	pflag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("max-file-size", cfg.MaxFileSize, "Maximum template file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, key := range flagKeys {
		_ = viper.BindPFlag(key, pflag.Lookup(key))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP Template Forms - extracts template placeholders and compiles form schemas\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/srv/templates --catalog=cat.xlsx  "+
			"# with a spreadsheet catalog\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		for _, key := range flagKeys {
			env := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
			fmt.Fprintf(os.Stderr, "  %s\n", env)
		}
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.TemplateDirectory = viper.GetString("dir")
	cfg.CatalogPath = viper.GetString("catalog")
	cfg.CatalogTimeout = viper.GetDuration("catalog-timeout")
	cfg.GenericDataTypeID = viper.GetString("generic-type-id")
	cfg.MasterFolderTypeID = viper.GetString("master-folder-type-id")
	cfg.LogoURL = viper.GetString("logo-url")
	cfg.SignatureURL = viper.GetString("signature-url")
	cfg.LogLevel = viper.GetString("log-level")
	cfg.MaxFileSize = viper.GetInt64("max-file-size")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// The directory may not exist yet; placeholder paths like ${workspaceRoot}
	// are resolved by the client
	if c.TemplateDirectory == "" {
		return errors.New("template directory cannot be empty")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.CatalogTimeout <= 0 {
		return errors.New("catalog timeout must be positive")
	}

	if c.GenericDataTypeID != "" && c.GenericDataTypeID == c.MasterFolderTypeID {
		return errors.New("generic and master folder type ids must differ")
	}

	for name, raw := range map[string]string{"logo url": c.LogoURL, "signature url": c.SignatureURL} {
		if err := validateURL(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q is not an http(s) url", raw)
	}
	return nil
}

// Categories returns the reserved placeholder categories for the classifier
func (c *Config) Categories() placeholder.Categories {
	return placeholder.Categories{
		GenericDataID:      c.GenericDataTypeID,
		MasterFolderOnlyID: c.MasterFolderTypeID,
	}
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, TemplateDirectory: %s, CatalogPath: %s, "+
		"LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.TemplateDirectory, c.CatalogPath, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
