package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText strips markup from an HTML fragment. Input that is not HTML comes
// back with whitespace normalized.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return normalizeSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return normalizeSpace(fragment)
	}
	doc.Find("script, style, noscript").Remove()
	// keep block boundaries as line breaks
	doc.Find("p, br, li, h1, h2, h3, h4, div").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return normalizeSpace(doc.Text())
}
