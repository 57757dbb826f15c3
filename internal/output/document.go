package output

import (
	"fmt"
	"html"
	"strings"
	"text/template"

	pberrors "git.home.luguber.info/inful/pagebuild/internal/errors"
	"git.home.luguber.info/inful/pagebuild/internal/protocol"
	"git.home.luguber.info/inful/pagebuild/internal/version"
)

// documentTemplate is the fixed document shape around a rendered page: head
// preloads for the client bundle and runtime shim, the computed relative
// base, the injected title and SEO tags, a generator meta tag, and a body
// containing the mount element followed by the pre-rendered fragment. The
// fragment and head tags arrive pre-rendered, so this is a text template.
var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <link rel="preload" href="elm-pages.js" as="script">
    <link rel="modulepreload" href="elm.js">
    <base href="{{.BaseHref}}">
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta name="generator" content="{{.Generator}}">
    <title>{{.Title}}</title>
{{.HeadTags}}    <link rel="stylesheet" href="style.css">
    <script defer src="elm.js" type="module"></script>
    <script defer src="elm-pages.js" type="module"></script>
    <script src="index.js" type="module"></script>
  </head>
  <body>
    <div data-url="" display="none"></div>
{{.Body}}
  </body>
</html>
`))

// RenderDocument produces the full HTML document for a rendered page.
func RenderDocument(page protocol.RenderedPage, baseHref string) (string, error) {
	headTags, err := renderHeadTags(page.Head)
	if err != nil {
		return "", err
	}

	var doc strings.Builder
	err = documentTemplate.Execute(&doc, struct {
		BaseHref  string
		Generator string
		Title     string
		HeadTags  string
		Body      string
	}{
		BaseHref:  baseHref,
		Generator: html.EscapeString(version.Generator()),
		Title:     html.EscapeString(page.Title),
		HeadTags:  headTags,
		Body:      page.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("render document for route %q: %w", page.Route, err)
	}
	return doc.String(), nil
}

// renderHeadTags serializes the page's head tags to markup, one per line.
func renderHeadTags(tags protocol.HeadTags) (string, error) {
	var b strings.Builder
	for _, tag := range tags {
		switch t := tag.(type) {
		case protocol.ElementTag:
			b.WriteString("    <")
			b.WriteString(t.Name)
			for _, attr := range t.Attributes {
				fmt.Fprintf(&b, " %s=%q", attr.Key, html.EscapeString(attr.Value))
			}
			b.WriteString(">\n")
		case protocol.JSONLDTag:
			fmt.Fprintf(&b, "    <script type=\"application/ld+json\">%s</script>\n", t.Contents)
		default:
			// The head tag union is closed; reaching this means the protocol
			// decoder admitted a variant it should not have.
			return "", pberrors.ProtocolViolation(fmt.Sprintf("unhandled head tag variant %T", tag))
		}
	}
	return b.String(), nil
}
