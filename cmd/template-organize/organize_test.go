package main

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-template-forms/internal/forms"
	"github.com/a3tai/mcp-template-forms/internal/schema"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// answer is one scripted reply; pick chooses an option by its text
type answer struct {
	pick    string
	picks   []string
	text    string
	confirm bool
}

// scriptedDriver replays answers in order and records what it showed
type scriptedDriver struct {
	t       *testing.T
	answers []answer
	info    []string
}

func (d *scriptedDriver) next(message string) answer {
	d.t.Helper()
	if len(d.answers) == 0 {
		d.t.Fatalf("unexpected prompt %q", message)
	}
	a := d.answers[0]
	d.answers = d.answers[1:]
	return a
}

func (d *scriptedDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	a := d.next(cfg.Message)
	if cfg.Validator != nil {
		if err := cfg.Validator(a.text); err != nil {
			return "", err
		}
	}
	return a.text, nil
}

func (d *scriptedDriver) Confirm(_ context.Context, message string, _ bool) (bool, error) {
	return d.next(message).confirm, nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	a := d.next(cfg.Message)
	i := indexOf(cfg.Options, a.pick)
	if i < 0 {
		d.t.Fatalf("option %q not offered for %q: %v", a.pick, cfg.Message, cfg.Options)
	}
	return i, nil
}

func (d *scriptedDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	a := d.next(cfg.Message)
	return indicesOf(cfg.Options, a.picks), nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.info = append(d.info, msg)
	return nil
}

func writeTemplate(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, "contract.docx")
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><w:document ` + wordNS +
		`><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func setup(t *testing.T, text string) (*forms.Service, *options) {
	t.Helper()
	path := writeTemplate(t, t.TempDir(), text)
	opts, err := parseOptions([]string{"--document-id", "doc-9", path})
	require.NoError(t, err)
	svc, closeCatalog, err := newService(context.Background(), opts, nil)
	require.NoError(t, err)
	t.Cleanup(closeCatalog)
	return svc, opts
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"--catalog", "c.yaml", "-o", "out.json", "lease.docx"})
	require.NoError(t, err)
	assert.Equal(t, "c.yaml", opts.CatalogPath)
	assert.Equal(t, "out.json", opts.Output)
	assert.True(t, filepath.IsAbs(opts.Template))
	assert.Equal(t, "lease.docx", filepath.Base(opts.Template))
	assert.Equal(t, "warn", opts.LogLevel)

	_, err = parseOptions([]string{})
	assert.Error(t, err)
	_, err = parseOptions([]string{"a.docx", "b.docx"})
	assert.Error(t, err)
}

func TestOrganize_BuildStepsAndCompile(t *testing.T) {
	svc, opts := setup(t, "{{Company.Name}} {{Company.City}} {{SignDate}} {{Notes}}")
	driver := &scriptedDriver{t: t, answers: []answer{
		{pick: menuGroup},
		{pick: "Company"},
		{pick: menuMove},
		{picks: []string{"SignDate"}},
		{pick: menuRename},
		{pick: "Step 1 (2 fields)"},
		{text: "Company"},
		{pick: menuReorder},
		{pick: "Company (2 fields)"},
		{pick: "Company.City"},
		{text: "1"},
		{pick: menuValue},
		{pick: "SignDate"},
		{text: "2024-01-31"},
		{pick: menuCompile},
		{confirm: false},
	}}

	compiled, err := organize(context.Background(), svc, opts, driver)
	require.NoError(t, err)
	require.NotNil(t, compiled)
	assert.Empty(t, driver.answers)

	assert.Equal(t, "doc-9", compiled.DocumentID)
	require.Len(t, compiled.Data, 2)
	assert.Equal(t, "Company", compiled.Data[0].Title)
	assert.Equal(t, "Step 2", compiled.Data[1].Title)

	company, ok := compiled.Data[0].Field("Company")
	require.True(t, ok)
	require.Equal(t, schema.KindRepeatable, company.Kind)
	require.Len(t, company.Repeatable.Fields, 2)
	assert.Equal(t, "City", company.Repeatable.Fields[0].Key)
	assert.Equal(t, "Name", company.Repeatable.Fields[1].Key)

	sign, ok := compiled.Data[1].Field("SignDate")
	require.True(t, ok)
	assert.Equal(t, "2024-01-31", sign.Standalone.Value)

	assert.Contains(t, driver.info[0], "contract.docx")
	assert.Contains(t, driver.info[len(driver.info)-1], "Notes")
}

func TestOrganize_ReturnFieldsAndOptions(t *testing.T) {
	svc, opts := setup(t, "{{Color}} {{Size}}")
	driver := &scriptedDriver{t: t, answers: []answer{
		{pick: menuMove},
		{picks: []string{"Color", "Size"}},
		{pick: menuOption},
		{pick: "Color"},
		{text: "<b>Red</b>"},
		{pick: menuReturn},
		{picks: []string{"Step 1: Size"}},
		{pick: menuCompile},
		{confirm: true},
	}}

	compiled, err := organize(context.Background(), svc, opts, driver)
	require.NoError(t, err)
	require.Len(t, compiled.Data, 1)
	require.Len(t, compiled.Data[0].Fields, 1)

	color := compiled.Data[0].Fields[0].Standalone
	assert.Equal(t, []string{"Red"}, color.Options)
	// preview picks the first option of an untyped field
	assert.Equal(t, "Red", color.Value)
}

func TestOrganize_ResetAndQuit(t *testing.T) {
	svc, opts := setup(t, "{{Name}}")
	driver := &scriptedDriver{t: t, answers: []answer{
		{pick: menuMove},
		{picks: []string{"Name"}},
		{pick: menuReset},
		{confirm: true},
		{pick: menuQuit},
	}}

	compiled, err := organize(context.Background(), svc, opts, driver)
	require.NoError(t, err)
	assert.Nil(t, compiled)
	assert.Contains(t, driver.info[len(driver.info)-1], "Pool (1)")

	info, err := svc.ServerInfo(context.Background(), "", "", nil, "")
	require.NoError(t, err)
	assert.Equal(t, 0, info.OpenSessions, "the session is closed when organizing ends")
}

func TestOrganize_EmptyMoveIsIgnored(t *testing.T) {
	svc, opts := setup(t, "{{Name}}")
	driver := &scriptedDriver{t: t, answers: []answer{
		{pick: menuMove},
		{picks: nil},
		{pick: menuQuit},
	}}

	_, err := organize(context.Background(), svc, opts, driver)
	require.NoError(t, err)
	for _, msg := range driver.info[1:] {
		assert.NotContains(t, msg, "Step 1")
	}
}

func TestOrganize_InvalidPosition(t *testing.T) {
	svc, opts := setup(t, "{{A}} {{B}}")
	driver := &scriptedDriver{t: t, answers: []answer{
		{pick: menuMove},
		{picks: []string{"A", "B"}},
		{pick: menuReorder},
		{pick: "Step 1 (2 fields)"},
		{pick: "B"},
		{text: "7"},
	}}

	_, err := organize(context.Background(), svc, opts, driver)
	assert.Error(t, err)
}

func TestOrganize_AbortPropagates(t *testing.T) {
	svc, opts := setup(t, "{{Name}}")
	_, err := organize(context.Background(), svc, opts, abortingDriver{})
	assert.True(t, errors.Is(err, ErrAborted))
}

type abortingDriver struct{}

func (abortingDriver) Input(context.Context, InputConfig) (string, error) { return "", ErrAborted }
func (abortingDriver) Confirm(context.Context, string, bool) (bool, error) {
	return false, ErrAborted
}
func (abortingDriver) Select(context.Context, SelectConfig) (int, error) { return 0, ErrAborted }
func (abortingDriver) MultiSelect(context.Context, SelectConfig) ([]int, error) {
	return nil, ErrAborted
}
func (abortingDriver) Info(context.Context, string) error { return nil }

func TestMenuFor(t *testing.T) {
	svc, opts := setup(t, "{{Company.Name}} {{Notes}}")
	opened, err := svc.OpenSession(context.Background(), forms.OpenSessionRequest{Path: opts.Template})
	require.NoError(t, err)

	menu := menuFor(opened.State)
	assert.Equal(t, []string{menuMove, menuGroup, menuReset, menuCompile, menuQuit}, menu)
}

func TestParsePosition(t *testing.T) {
	idx, err := parsePosition(" 2 ", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	for _, raw := range []string{"0", "4", "x", ""} {
		_, err := parsePosition(raw, 3)
		assert.Error(t, err, raw)
	}
}

func TestWriteSchema(t *testing.T) {
	s := &schema.Schema{DocumentID: "doc-1", Data: []schema.CompiledStep{}}

	var buf bytes.Buffer
	require.NoError(t, writeSchema(s, "", &buf))
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))
	require.NoError(t, schema.ValidateJSON(buf.Bytes()))

	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, writeSchema(s, path, &buf))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"documentId": "doc-1"`)
}
