// Package output materializes rendered-page records and raw files into the
// deployable output tree.
package output

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/pagebuild/internal/metrics"
	"git.home.luguber.info/inful/pagebuild/internal/protocol"
)

// Materializer writes page documents, JSON sidecars, raw files and the site
// manifest under the output directory.
type Materializer struct {
	distDir  string
	recorder metrics.Recorder
}

// NewMaterializer creates a materializer rooted at distDir.
func NewMaterializer(distDir string) *Materializer {
	return &Materializer{distDir: filepath.Clean(distDir), recorder: metrics.NoopRecorder{}}
}

// WithRecorder injects a metrics recorder. Returns the materializer for chaining.
func (m *Materializer) WithRecorder(r metrics.Recorder) *Materializer {
	if r != nil {
		m.recorder = r
	}
	return m
}

// contentSidecar is the content.json shape consumers depend on.
type contentSidecar struct {
	Body       string          `json:"body"`
	StaticData json.RawMessage `json:"staticData"`
}

// WriteRawFile writes content verbatim to dist/<path>, creating the parent
// directory first.
func (m *Materializer) WriteRawFile(path, content string) error {
	target := filepath.Join(m.distDir, path)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", target, err)
	}
	if err := os.WriteFile(target, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	m.recorder.IncRawFilesWritten()
	slog.Debug("Wrote raw file", "path", target)
	return nil
}

// WriteManifest materializes the opaque manifest config verbatim to
// dist/manifest.json.
func (m *Materializer) WriteManifest(manifest json.RawMessage) error {
	target := filepath.Join(m.distDir, "manifest.json")
	if err := os.MkdirAll(m.distDir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", m.distDir, err)
	}
	if err := os.WriteFile(target, manifest, 0644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	slog.Debug("Wrote site manifest", "path", target)
	return nil
}

// WritePage materializes one rendered page: dist/<route>/index.html with the
// full document and dist/<route>/content.json with the body fragment plus
// static data. Write ordering between the two files is not significant.
func (m *Materializer) WritePage(page protocol.RenderedPage) error {
	route := NormalizeRoute(page.Route)
	dir := filepath.Join(m.distDir, filepath.FromSlash(route))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create page directory %s: %w", dir, err)
	}

	document, err := RenderDocument(page, BaseHref(route))
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(document), 0644); err != nil {
		return fmt.Errorf("write page document for route %q: %w", route, err)
	}

	sidecar, err := json.Marshal(contentSidecar{Body: page.HTML, StaticData: page.ContentJSON})
	if err != nil {
		return fmt.Errorf("encode content sidecar for route %q: %w", route, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "content.json"), sidecar, 0644); err != nil {
		return fmt.Errorf("write content sidecar for route %q: %w", route, err)
	}

	m.recorder.IncPagesWritten()
	slog.Debug("Materialized page", "route", route, "title", page.Title)
	return nil
}
