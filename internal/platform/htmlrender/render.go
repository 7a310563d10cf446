// Package htmlrender turns stored page content into HTML that is safe to embed in the storefront.
package htmlrender

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown with goldmark and sanitises all HTML with a bluemonday UGC policy.
// It is safe for concurrent use.
type Renderer struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// New builds a Renderer. Raw HTML inside markdown is passed through goldmark and removed or
// cleaned by the sanitiser afterwards.
func New() *Renderer {
	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		policy: newContentPolicy(),
	}
}

// Sanitize strips scripts, event handlers and unsafe URLs from an HTML fragment.
func (r *Renderer) Sanitize(fragment string) string {
	return strings.TrimSpace(r.policy.Sanitize(fragment))
}

// Markdown renders markdown to sanitised HTML.
func (r *Renderer) Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("htmlrender: convert markdown: %w", err)
	}
	return r.Sanitize(buf.String()), nil
}

// Render dispatches on the content format. Anything other than markdown is treated as HTML.
func (r *Renderer) Render(format, content string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(format), "markdown") {
		return r.Markdown(content)
	}
	return r.Sanitize(content), nil
}

func newContentPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption", "section", "picture", "source")
	policy.AllowAttrs("class").OnElements("figure", "figcaption", "p", "span", "div", "section")
	policy.AllowAttrs("loading").Matching(bluemonday.SpaceSeparatedTokens).OnElements("img")
	policy.AllowAttrs("srcset", "media", "type").OnElements("source")
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}
