// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders an AggregateRecord as a self-contained HTML
// document. Output is a pure function of the record, the template and the
// generation timestamp.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/variant-research/pkg/types"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

const templateName = "report.html.tmpl"

var funcs = template.FuncMap{
	"placeholder": func() string { return Placeholder },
	"join":        strings.Join,
	"score":       formatScore,
	"optScore": func(f *float64) string {
		if f == nil {
			return ""
		}
		return formatScore(*f)
	},
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

// Renderer renders reports from one parsed template.
type Renderer struct {
	tmpl *template.Template
}

// New returns a renderer using the embedded template.
func New() (*Renderer, error) {
	tmpl, err := template.New(templateName).Funcs(funcs).ParseFS(templateFS, "templates/"+templateName)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// NewFromFile returns a renderer using the template at path. The template
// sees the same data and functions as the embedded one.
func NewFromFile(path string) (*Renderer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	tmpl, err := template.New(filepath.Base(path)).Funcs(funcs).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", path, err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the report for rec to w. Nothing is written when the
// template fails.
func (r *Renderer) Render(w io.Writer, rec types.AggregateRecord, generatedAt time.Time) error {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, buildDocument(rec, generatedAt)); err != nil {
		return &types.RenderError{Err: err}
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return &types.RenderError{Err: err}
	}
	return nil
}

// WriteFile renders rec to path, creating parent directories. The file is
// written to a temp file and renamed, so a failed render leaves any previous
// report in place. Errors are *types.RenderError.
func (r *Renderer) WriteFile(path string, rec types.AggregateRecord, generatedAt time.Time) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, rec, generatedAt); err != nil {
		return &types.RenderError{Path: path, Err: unwrapRender(err)}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &types.RenderError{Path: path, Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return &types.RenderError{Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(buf.Bytes())
	closeErr := tmp.Close()
	if writeErr == nil && closeErr == nil {
		writeErr = os.Chmod(tmpPath, 0o644)
	}
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		if writeErr == nil {
			writeErr = closeErr
		}
		return &types.RenderError{Path: path, Err: writeErr}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &types.RenderError{Path: path, Err: err}
	}
	return nil
}

func unwrapRender(err error) error {
	if re, ok := err.(*types.RenderError); ok {
		return re.Err
	}
	return err
}
