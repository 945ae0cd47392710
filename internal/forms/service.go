// Package forms ties template extraction, the placeholder catalog, the
// organizer and the schema compiler together behind one service that the
// MCP server and the terminal organizer call.
package forms

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-template-forms/internal/catalog"
	"github.com/a3tai/mcp-template-forms/internal/organizer"
	"github.com/a3tai/mcp-template-forms/internal/placeholder"
	"github.com/a3tai/mcp-template-forms/internal/schema"
	"github.com/a3tai/mcp-template-forms/internal/template"
)

const (
	// DefaultCatalogTimeout bounds a single catalog load
	DefaultCatalogTimeout = 10 * time.Second

	templateListLimit   = 100
	templateListTimeout = 5 * time.Second
)

// Options configures a Service
type Options struct {
	TemplateDirectory string
	MaxFileSize       int64
	Catalog           catalog.Source // nil means no catalog
	CatalogTimeout    time.Duration
	Categories        placeholder.Categories
	LogoURL           string
	SignatureURL      string
	Clock             func() time.Time
	Logger            *zap.Logger
}

// Service handles template forms operations
type Service struct {
	maxFileSize    int64
	catalog        catalog.Source
	catalogTimeout time.Duration
	categories     placeholder.Categories
	logoURL        string
	signatureURL   string
	clock          func() time.Time
	logger         *zap.Logger

	pathValidator *PathValidator
	extractor     *template.Extractor
	classifier    *placeholder.Classifier

	mu         sync.Mutex
	closed     bool
	sessions   map[string]*formSession
	byDocument map[string]string
}

type formSession struct {
	id         string
	documentID string
	key        string
	path       string
	revision   string
	result     placeholder.Classification
	warnings   []string
	catalogErr string
	organizer  *organizer.Session
	compiler   *schema.Compiler
}

// NewService creates a new template forms service
func NewService(opts Options) (*Service, error) {
	pathValidator, err := NewPathValidator(opts.TemplateDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.CatalogTimeout <= 0 {
		opts.CatalogTimeout = DefaultCatalogTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Service{
		maxFileSize:    opts.MaxFileSize,
		catalog:        opts.Catalog,
		catalogTimeout: opts.CatalogTimeout,
		categories:     opts.Categories,
		logoURL:        opts.LogoURL,
		signatureURL:   opts.SignatureURL,
		clock:          opts.Clock,
		logger:         opts.Logger,
		pathValidator:  pathValidator,
		extractor:      template.NewExtractor(opts.Logger),
		classifier:     placeholder.NewClassifier(opts.Categories),
		sessions:       make(map[string]*formSession),
		byDocument:     make(map[string]string),
	}, nil
}

// GetMaxFileSize returns the maximum template size in bytes
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// TemplateDirectory returns the directory templates are read from
func (s *Service) TemplateDirectory() string {
	return s.pathValidator.ConfiguredDirectory()
}

// ExtractPlaceholders reads a template and lists its tokens and the
// placeholders they normalize to
func (s *Service) ExtractPlaceholders(ctx context.Context, req ExtractRequest) (*ExtractResult, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	absPath, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	doc, extraction, err := s.readTemplate(ctx, absPath)
	if err != nil {
		return nil, err
	}

	return &ExtractResult{
		Path:         absPath,
		Format:       doc.Format,
		Size:         doc.Size,
		Revision:     doc.Revision,
		PartsScanned: extraction.Scanned,
		Tokens:       extraction.Tokens,
		FormFields:   extraction.FormFields,
		Placeholders: extractedPlaceholders(extraction),
		Warnings:     extraction.Problems.Messages(),
	}, nil
}

// OpenSession extracts a template, loads the catalog alongside it and starts
// an organizer session over the document specific input fields. An existing
// session of the same document is returned unless Reset is set.
func (s *Service) OpenSession(ctx context.Context, req OpenSessionRequest) (*OpenSessionResult, error) {
	absPath, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	key := documentKey(req.DocumentID, absPath)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if id, ok := s.byDocument[key]; ok && !req.Reset {
		existing := s.sessions[id]
		s.mu.Unlock()
		result := existing.openResult()
		result.Resumed = true
		return result, nil
	}
	s.mu.Unlock()

	var (
		doc        *template.Document
		extraction *template.Extraction
		cat        *catalog.Catalog
		catErr     error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		doc, extraction, err = s.readTemplate(gctx, absPath)
		return err
	})
	g.Go(func() error {
		cat, catErr = s.loadCatalog(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The caller may have gone away while the template and catalog were
	// loading; nothing is registered in that case
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	catalogErr := ""
	if catErr != nil {
		catalogErr = catErr.Error()
		s.logger.Warn("placeholder catalog unavailable, treating every field as input",
			zap.String("catalog", s.describeCatalog()),
			zap.Error(catErr))
		cat = &catalog.Catalog{}
	}

	classified := s.classifier.Classify(extractedPlaceholders(extraction), cat.Placeholders, cat.Generic)
	if catErr == nil {
		s.recordGeneric(ctx, classified.Generic)
	}

	documentID := req.DocumentID
	if documentID == "" {
		documentID = uuid.NewString()
	}
	fs := &formSession{
		id:         uuid.NewString(),
		documentID: documentID,
		key:        key,
		path:       absPath,
		revision:   doc.Revision,
		result:     classified,
		warnings:   extraction.Problems.Messages(),
		catalogErr: catalogErr,
		organizer:  organizer.NewSession(classified.Input, s.logger.With(zap.String("document_id", documentID))),
		compiler: schema.NewCompiler(schema.Options{
			FieldTypes:   cat.Types(),
			LogoURL:      s.logoURL,
			SignatureURL: s.signatureURL,
			Clock:        s.clock,
		}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if old, ok := s.byDocument[key]; ok {
		delete(s.sessions, old)
	}
	s.sessions[fs.id] = fs
	s.byDocument[key] = fs.id
	s.mu.Unlock()

	s.logger.Info("form session opened",
		zap.String("session_id", fs.id),
		zap.String("document_id", documentID),
		zap.String("path", absPath),
		zap.Int("input", len(classified.Input)),
		zap.Int("generic", len(classified.Generic)),
		zap.Int("dropped", len(classified.Dropped)))

	return fs.openResult(), nil
}

// Dispatch applies one organizer action to a session
func (s *Service) Dispatch(ctx context.Context, req DispatchRequest) (*SessionResult, error) {
	if req.Action == nil {
		return nil, errors.New("action is required")
	}
	fs, err := s.session(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	state := fs.organizer.Dispatch(req.Action)
	return &SessionResult{
		SessionID:  fs.id,
		DocumentID: fs.documentID,
		Actions:    fs.organizer.Actions(),
		State:      state,
	}, nil
}

// Snapshot returns the current state of a session
func (s *Service) Snapshot(ctx context.Context, req SnapshotRequest) (*SessionResult, error) {
	fs, err := s.session(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	return fs.sessionResult(), nil
}

// Compile builds and validates the form schema of a session
func (s *Service) Compile(ctx context.Context, req CompileRequest) (*CompileResult, error) {
	fs, err := s.session(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	state := fs.organizer.Snapshot()
	compiled := fs.compiler.Compile(fs.documentID, state.Steps, req.Preview)
	if err := schema.Validate(compiled); err != nil {
		return nil, fmt.Errorf("compiled schema is invalid: %w", err)
	}
	s.logger.Debug("form schema compiled",
		zap.String("session_id", fs.id),
		zap.Bool("preview", req.Preview),
		zap.Int("steps", len(compiled.Data)))
	return &CompileResult{
		SessionID: fs.id,
		Preview:   req.Preview,
		Schema:    compiled,
	}, nil
}

// CloseSession removes a session
func (s *Service) CloseSession(ctx context.Context, req CloseSessionRequest) (*CloseSessionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	fs, ok := s.sessions[req.SessionID]
	if ok {
		delete(s.sessions, fs.id)
		if s.byDocument[fs.key] == fs.id {
			delete(s.byDocument, fs.key)
		}
	}
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, req.SessionID)
	}

	s.logger.Info("form session closed", zap.String("session_id", fs.id))
	return &CloseSessionResult{
		SessionID:  fs.id,
		DocumentID: fs.documentID,
		Actions:    fs.organizer.Actions(),
	}, nil
}

// CatalogInfo loads the catalog and summarizes it. A load failure is
// reported in the result rather than as an error.
func (s *Service) CatalogInfo(ctx context.Context) (*CatalogInfoResult, error) {
	cat, err := s.loadCatalog(ctx)
	result := &CatalogInfoResult{
		Source:     s.describeCatalog(),
		FieldTypes: []placeholder.FieldType{},
		Categories: s.categories,
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		result.Error = err.Error()
		return result, nil
	}
	result.Placeholders = len(cat.Placeholders)
	result.Generic = len(cat.Generic)
	result.FieldTypes = cat.Types().List()
	return result, nil
}

// ServerInfo returns server information, the available tools and the
// templates found in the template directory
func (s *Service) ServerInfo(ctx context.Context, serverName, version string, tools []ToolInfo, guidance string) (*ServerInfoResult, error) {
	s.mu.Lock()
	open := len(s.sessions)
	s.mu.Unlock()

	return &ServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		TemplateDirectory: s.TemplateDirectory(),
		MaxFileSize:       s.maxFileSize,
		OpenSessions:      open,
		Templates:         s.listTemplates(ctx),
		AvailableTools:    tools,
		ActionTypes:       organizer.ActionTypes(),
		UsageGuidance:     guidance,
	}, nil
}

// Shutdown closes every session; operations still in flight discard their
// results and later calls fail with ErrSessionClosed
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.logger.Info("form service shutting down", zap.Int("open_sessions", len(s.sessions)))
	s.sessions = make(map[string]*formSession)
	s.byDocument = make(map[string]string)
}

func (s *Service) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

func (s *Service) session(ctx context.Context, id string) (*formSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	fs, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return fs, nil
}

// readTemplate loads and scans the template at an already validated path
func (s *Service) readTemplate(ctx context.Context, absPath string) (*template.Document, *template.Extraction, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access template: %w", err)
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("path is a directory, not a template: %s", absPath)
	}
	if s.maxFileSize > 0 && info.Size() > s.maxFileSize {
		return nil, nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, info.Size(), s.maxFileSize)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read template: %w", err)
	}
	doc, err := template.Load(data, filepath.Base(absPath), s.maxFileSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load template: %w", err)
	}
	extraction, err := s.extractor.Extract(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract placeholders: %w", err)
	}
	return doc, extraction, nil
}

func (s *Service) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if s.catalog == nil {
		return &catalog.Catalog{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.catalogTimeout)
	defer cancel()
	cat, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog from %s: %w", s.catalog.Describe(), err)
	}
	return cat, nil
}

func (s *Service) describeCatalog() string {
	if s.catalog == nil {
		return "none"
	}
	return s.catalog.Describe()
}

// recordGeneric stores the resolved generic list when the catalog supports it
func (s *Service) recordGeneric(ctx context.Context, generic []placeholder.Placeholder) {
	recorder, ok := s.catalog.(catalog.GenericRecorder)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.catalogTimeout)
	defer cancel()
	if err := recorder.RecordGeneric(ctx, generic); err != nil {
		s.logger.Warn("failed to record generic placeholders",
			zap.String("catalog", s.describeCatalog()),
			zap.Error(err))
	}
}

// listTemplates scans the template directory with a time limit; a failed or
// slow scan yields an empty list
func (s *Service) listTemplates(ctx context.Context) []FileInfo {
	ctx, cancel := context.WithTimeout(ctx, templateListTimeout)
	defer cancel()

	resultChan := make(chan []FileInfo, 1)
	go func() {
		resultChan <- findTemplates(ctx, s.TemplateDirectory(), templateListLimit)
	}()

	select {
	case files := <-resultChan:
		return files
	case <-ctx.Done():
		return []FileInfo{}
	}
}

func findTemplates(ctx context.Context, dir string, limit int) []FileInfo {
	files := []FileInfo{}
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil || len(files) >= limit {
			return filepath.SkipAll
		}
		if d.IsDir() || !isTemplateFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{
			Path:         path,
			Name:         d.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format(time.RFC3339),
		})
		return nil
	})
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

func isTemplateFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx", ".pdf":
		return !strings.HasPrefix(name, "~$")
	default:
		return false
	}
}

// extractedPlaceholders turns the tokens and declared form fields of an
// extraction into one deduplicated placeholder list. Form fields come first
// so their required flag and options survive deduplication.
func extractedPlaceholders(extraction *template.Extraction) []placeholder.Placeholder {
	fields := make([]placeholder.Placeholder, 0, len(extraction.FormFields))
	for _, f := range extraction.FormFields {
		tag := strings.TrimSpace(f.Name)
		if tag == "" {
			continue
		}
		options := make([]string, len(f.Options))
		copy(options, f.Options)
		fields = append(fields, placeholder.Placeholder{
			FullTagName: tag,
			Name:        placeholder.Label(tag),
			Required:    f.Required,
			Options:     options,
		})
	}
	return placeholder.Merge(fields, placeholder.FromTokens(extraction.Values()))
}

func documentKey(documentID, absPath string) string {
	if documentID != "" {
		return "id:" + documentID
	}
	return "path:" + absPath
}

func (fs *formSession) sessionResult() *SessionResult {
	return &SessionResult{
		SessionID:  fs.id,
		DocumentID: fs.documentID,
		Actions:    fs.organizer.Actions(),
		State:      fs.organizer.Snapshot(),
	}
}

func (fs *formSession) openResult() *OpenSessionResult {
	return &OpenSessionResult{
		SessionResult: *fs.sessionResult(),
		Path:          fs.path,
		Revision:      fs.revision,
		Generic:       placeholder.CloneAll(fs.result.Generic),
		Dropped:       fs.result.Dropped,
		Suppressed:    fs.result.Suppressed,
		Warnings:      fs.warnings,
		CatalogError:  fs.catalogErr,
	}
}
