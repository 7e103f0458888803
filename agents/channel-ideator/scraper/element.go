package scraper

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Element is the slice of a rendered DOM node the extractor needs. Lookups never
// fail: a missing node or attribute reads as empty.
type Element interface {
	// Find returns descendants matching a CSS selector, in document order.
	Find(selector string) []Element
	// Attr returns the attribute value, or "" when unset.
	Attr(name string) string
	// Text returns the trimmed text content.
	Text() string
}

// first returns the first match of selector under el.
func first(el Element, selector string) (Element, bool) {
	found := el.Find(selector)
	if len(found) == 0 {
		return nil, false
	}
	return found[0], true
}

// htmlElement adapts a goquery selection, used for saved pages and fixtures.
type htmlElement struct {
	sel *goquery.Selection
}

func (h htmlElement) Find(selector string) []Element {
	var out []Element
	h.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, htmlElement{sel: s})
	})
	return out
}

func (h htmlElement) Attr(name string) string {
	return h.sel.AttrOr(name, "")
}

func (h htmlElement) Text() string {
	return strings.TrimSpace(h.sel.Text())
}

// CardsFromHTML parses a saved channel page and returns its video cards.
func CardsFromHTML(r io.Reader) ([]Element, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return htmlElement{sel: doc.Selection}.Find(cardSelector), nil
}
