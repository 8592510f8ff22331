// Package clean sanitizes feed item descriptions down to an allow-listed
// subset of HTML suitable for re-embedding in the cleaned feed.
package clean

import (
	"html"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EmptyFallback is returned when sanitization leaves no renderable content.
const EmptyFallback = "<p>No content available</p>"

// allowedTags is the set of element names kept in cleaned descriptions.
// Every other element is replaced by its flattened text content.
var allowedTags = map[string]bool{
	"p":          true,
	"br":         true,
	"a":          true,
	"ul":         true,
	"ol":         true,
	"li":         true,
	"strong":     true,
	"em":         true,
	"b":          true,
	"i":          true,
	"span":       true,
	"div":        true,
	"blockquote": true,
}

// Description sanitizes a raw HTML description. It unwraps CDATA, unescapes
// HTML entities once when present, removes img elements and empty paragraphs,
// flattens every non-allow-listed element to its text content, and trims the
// result. Sanitization is fail-open: it never returns an error, and on any
// internal failure the original input is returned unchanged so a bad
// description cannot block the run.
func Description(raw string) (cleaned string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("description cleaning panicked, keeping original", slog.Any("panic", r))
			cleaned = raw
		}
	}()

	s := raw
	if strings.HasPrefix(s, "<![CDATA[") && strings.HasSuffix(s, "]]>") {
		s = s[len("<![CDATA[") : len(s)-len("]]>")]
	}
	if strings.Contains(s, "&lt;") {
		s = html.UnescapeString(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		slog.Warn("description parse failed, keeping original", slog.Any("error", err))
		return raw
	}

	doc.Find("img").Remove()

	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if strings.TrimSpace(p.Text()) == "" {
			p.Remove()
		}
	})

	// Document order puts outer elements first, so a disallowed wrapper is
	// flattened before its children are visited; the children are detached
	// by then and their ReplaceWithHtml is a no-op.
	doc.Find("body *").Each(func(_ int, sel *goquery.Selection) {
		if !allowedTags[goquery.NodeName(sel)] {
			sel.ReplaceWithHtml(html.EscapeString(sel.Text()))
		}
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		slog.Warn("description serialization failed, keeping original", slog.Any("error", err))
		return raw
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return EmptyFallback
	}
	return out
}
