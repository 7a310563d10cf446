package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// PlainText extracts the visible text of an HTML fragment with whitespace collapsed.
// Script and style contents are skipped.
func PlainText(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var (
		b    strings.Builder
		skip int
	)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			if name, _ := tokenizer.TagName(); isRawTextTag(string(name)) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			if name, _ := tokenizer.TagName(); isRawTextTag(string(name)) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

// Excerpt returns at most limit runes of the fragment's plain text, cut on a word boundary
// when one is available.
func Excerpt(fragment string, limit int) string {
	text := PlainText(fragment)
	return TruncateRunes(text, limit)
}

// TruncateRunes shortens s to limit runes, preferring to cut at the last space.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)[:limit]
	cut := string(runes)
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

func isRawTextTag(name string) bool {
	return name == "script" || name == "style"
}
