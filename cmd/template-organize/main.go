// Command template-organize organizes the input fields of a template into
// form steps from the terminal and prints the compiled form schema as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-template-forms/internal/catalog"
	"github.com/a3tai/mcp-template-forms/internal/config"
	"github.com/a3tai/mcp-template-forms/internal/forms"
	"github.com/a3tai/mcp-template-forms/internal/logging"
	"github.com/a3tai/mcp-template-forms/internal/schema"
)

// options are the command line settings
type options struct {
	Template           string
	CatalogPath        string
	DocumentID         string
	Output             string
	GenericDataTypeID  string
	MasterFolderTypeID string
	MaxFileSize        int64
	LogLevel           string
}

func parseOptions(args []string) (*options, error) {
	defaults := config.DefaultConfig()
	opts := &options{}

	fs := pflag.NewFlagSet("template-organize", pflag.ContinueOnError)
	fs.StringVar(&opts.CatalogPath, "catalog", "", "Placeholder catalog (YAML, JSON, XLSX or SQLite)")
	fs.StringVar(&opts.DocumentID, "document-id", "", "Document id written into the schema (generated when empty)")
	fs.StringVarP(&opts.Output, "output", "o", "", "Write the schema to this file instead of stdout")
	fs.StringVar(&opts.GenericDataTypeID, "generic-type-id", defaults.GenericDataTypeID, "Placeholder type id of organization-wide generic data")
	fs.StringVar(&opts.MasterFolderTypeID, "master-folder-type-id", defaults.MasterFolderTypeID, "Placeholder type id of master-folder-only data")
	fs.Int64Var(&opts.MaxFileSize, "max-file-size", defaults.MaxFileSize, "Maximum template size in bytes")
	fs.StringVar(&opts.LogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: template-organize [flags] <template.docx|template.pdf>\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("exactly one template path is required")
	}
	template, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve template path: %w", err)
	}
	opts.Template = template
	return opts, nil
}

func newService(ctx context.Context, opts *options, logger *zap.Logger) (*forms.Service, func(), error) {
	src, err := catalog.Open(ctx, opts.CatalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	closer := func() {}
	if c, ok := src.(io.Closer); ok {
		closer = func() { _ = c.Close() }
	}

	svc, err := forms.NewService(forms.Options{
		TemplateDirectory: filepath.Dir(opts.Template),
		MaxFileSize:       opts.MaxFileSize,
		Catalog:           src,
		Categories: (&config.Config{
			GenericDataTypeID:  opts.GenericDataTypeID,
			MasterFolderTypeID: opts.MasterFolderTypeID,
		}).Categories(),
		Logger: logger,
	})
	if err != nil {
		closer()
		return nil, nil, err
	}
	return svc, closer, nil
}

// organize opens a session for the template and runs the interactive flow.
// It returns a nil schema when the operator quits.
func organize(ctx context.Context, svc *forms.Service, opts *options, driver PromptDriver) (*schema.Schema, error) {
	opened, err := svc.OpenSession(ctx, forms.OpenSessionRequest{
		Path:       opts.Template,
		DocumentID: opts.DocumentID,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = svc.CloseSession(context.Background(), forms.CloseSessionRequest{SessionID: opened.SessionID})
	}()

	intro := fmt.Sprintf("Organizing %s (document %s)", filepath.Base(opened.Path), opened.DocumentID)
	if len(opened.Generic) > 0 {
		intro += fmt.Sprintf("\n%d generic field(s) are filled from organization data", len(opened.Generic))
	}
	if opened.CatalogError != "" {
		intro += "\nCatalog unavailable, fields are untyped: " + opened.CatalogError
	}
	if err := driver.Info(ctx, intro); err != nil {
		return nil, err
	}

	ui := &organizerUI{service: svc, sessionID: opened.SessionID, driver: driver}
	return ui.Run(ctx)
}

func writeSchema(s *schema.Schema, path string, stdout io.Writer) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func run(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	logger, err := logging.New(opts.LogLevel, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, closeCatalog, err := newService(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer closeCatalog()
	defer svc.Shutdown()

	// Prompts go to stderr so stdout carries only the schema
	compiled, err := organize(ctx, svc, opts, newSurveyDriver(os.Stderr))
	if err != nil || compiled == nil {
		return err
	}
	return writeSchema(compiled, opts.Output, os.Stdout)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		if errors.Is(err, ErrAborted) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
