package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagebuild/internal/protocol"
)

func page(route, html string) protocol.RenderedPage {
	return protocol.RenderedPage{
		Route:       route,
		HTML:        html,
		ContentJSON: json.RawMessage(`{"a":1}`),
		Title:       "Test Page",
	}
}

func TestWritePage_ContentSidecarShape(t *testing.T) {
	dist := t.TempDir()
	m := NewMaterializer(dist)

	require.NoError(t, m.WritePage(page("blog/post-1", "<p>hi</p>")))

	data, err := os.ReadFile(filepath.Join(dist, "blog", "post-1", "content.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"body":"<p>hi</p>","staticData":{"a":1}}`, string(data))

	// field names and nesting are a consumer contract, check them literally
	assert.Contains(t, string(data), `"body"`)
	assert.Contains(t, string(data), `"staticData"`)
}

// Routes "", "blog/post-1" and "blog/post-1/index" must produce exactly
// dist/index.html and dist/blog/post-1/index.html, the third page colliding
// with (and overwriting) the second. The collision is part of the contract.
func TestWritePage_IndexRouteCollision(t *testing.T) {
	dist := t.TempDir()
	m := NewMaterializer(dist)

	require.NoError(t, m.WritePage(page("", "<p>root</p>")))
	require.NoError(t, m.WritePage(page("blog/post-1", "<p>first</p>")))
	require.NoError(t, m.WritePage(page("blog/post-1/index", "<p>second</p>")))

	if _, err := os.Stat(filepath.Join(dist, "index.html")); err != nil {
		t.Fatalf("root index.html missing: %v", err)
	}
	postDir := filepath.Join(dist, "blog", "post-1")
	doc, err := os.ReadFile(filepath.Join(postDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "<p>second</p>", "later colliding route must overwrite the earlier one")
	assert.NotContains(t, string(doc), "<p>first</p>")

	// no dist/blog/post-1/index/ directory may exist
	if _, err := os.Stat(filepath.Join(postDir, "index")); !os.IsNotExist(err) {
		t.Fatalf("normalized route created a stray index directory")
	}
}

func TestWritePage_DocumentShape(t *testing.T) {
	dist := t.TempDir()
	m := NewMaterializer(dist)

	p := page("docs/guide", "<main>content</main>")
	p.Head = protocol.HeadTags{
		protocol.ElementTag{Name: "meta", Attributes: []protocol.Attribute{
			{Key: "name", Value: "description"},
			{Key: "content", Value: `say "hello"`},
		}},
		protocol.JSONLDTag{Contents: json.RawMessage(`{"@type":"Article"}`)},
	}
	require.NoError(t, m.WritePage(p))

	data, err := os.ReadFile(filepath.Join(dist, "docs", "guide", "index.html"))
	require.NoError(t, err)
	doc := string(data)

	assert.Contains(t, doc, `<base href="../../">`)
	assert.Contains(t, doc, "<title>Test Page</title>")
	assert.Contains(t, doc, `<meta name="generator" content="pagebuild`)
	assert.Contains(t, doc, `<meta name="description" content="say &#34;hello&#34;">`)
	assert.Contains(t, doc, `<script type="application/ld+json">{"@type":"Article"}</script>`)
	assert.Contains(t, doc, `<link rel="preload" href="elm-pages.js" as="script">`)
	assert.Contains(t, doc, `<div data-url="" display="none"></div>`)

	// the mount element precedes the pre-rendered fragment
	mount := strings.Index(doc, `<div data-url=""`)
	body := strings.Index(doc, "<main>content</main>")
	if mount < 0 || body < 0 || mount > body {
		t.Fatalf("mount element must precede the rendered fragment (mount=%d body=%d)", mount, body)
	}
}

func TestWriteRawFile_CreatesParents(t *testing.T) {
	dist := t.TempDir()
	m := NewMaterializer(dist)

	require.NoError(t, m.WriteRawFile("feed/atom.xml", "<feed/>"))
	data, err := os.ReadFile(filepath.Join(dist, "feed", "atom.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<feed/>", string(data))
}

func TestWriteManifest_PassThrough(t *testing.T) {
	dist := t.TempDir()
	m := NewMaterializer(dist)

	manifest := json.RawMessage(`{"name":"site","icons":[],"background_color":"#fff"}`)
	require.NoError(t, m.WriteManifest(manifest))

	data, err := os.ReadFile(filepath.Join(dist, "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, string(manifest), string(data), "manifest must be written verbatim")
}
