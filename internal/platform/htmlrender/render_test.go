package htmlrender

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, fragment string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	require.NoError(t, err)
	return doc
}

func TestSanitizeRemovesScriptsAndHandlers(t *testing.T) {
	r := New()
	out := r.Sanitize(`<div class="promo" onclick="steal()"><script>alert(1)</script><a href="javascript:alert(1)">x</a><img src="/a.png" loading="lazy"></div>`)

	doc := parse(t, out)
	assert.Equal(t, 0, doc.Find("script").Length())
	_, hasHandler := doc.Find("div").Attr("onclick")
	assert.False(t, hasHandler)
	_, hasHref := doc.Find("a").Attr("href")
	assert.False(t, hasHref)
	loading, _ := doc.Find("img").Attr("loading")
	assert.Equal(t, "lazy", loading)
}

func TestMarkdownRendersAndSanitises(t *testing.T) {
	r := New()
	out, err := r.Markdown("# Returns\n\nSee [policy](https://example.com/p).\n\n<script>x()</script>\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)

	doc := parse(t, out)
	assert.Equal(t, "Returns", doc.Find("h1").Text())
	id, _ := doc.Find("h1").Attr("id")
	assert.Equal(t, "returns", id)
	assert.Equal(t, 0, doc.Find("script").Length())
	assert.Equal(t, 1, doc.Find("table").Length())

	rel, _ := doc.Find("a").Attr("rel")
	assert.Contains(t, rel, "nofollow")
	target, _ := doc.Find("a").Attr("target")
	assert.Equal(t, "_blank", target)
}

func TestRenderDispatchesOnFormat(t *testing.T) {
	r := New()
	md, err := r.Render("Markdown", "*hi*")
	require.NoError(t, err)
	assert.Contains(t, md, "<em>hi</em>")

	html, err := r.Render("html", "*hi*")
	require.NoError(t, err)
	assert.Equal(t, "*hi*", html)
}
