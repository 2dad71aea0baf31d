// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Document is a Page backed by the serialized HTML of a rendered page.
// Marker tests run against the raw source; selector lookups run against the
// parsed tree.
type Document struct {
	source string
	doc    *goquery.Document
}

// NewDocument parses rawHTML into a Document.
func NewDocument(rawHTML string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parsing page html: %w", err)
	}
	return &Document{
		source: rawHTML,
		doc:    goquery.NewDocumentFromNode(root),
	}, nil
}

// Source returns the HTML the document was built from.
func (d *Document) Source() string { return d.source }

// Contains reports whether the page source contains marker.
func (d *Document) Contains(marker string) bool {
	return strings.Contains(d.source, marker)
}

// FirstText returns the text of the first selector match inside the first
// scope match. Invalid selectors never match.
func (d *Document) FirstText(scope, selector string) (string, bool) {
	sel := d.doc.Selection
	if scope != "" {
		m, err := cascadia.Compile(scope)
		if err != nil {
			return "", false
		}
		sel = sel.FindMatcher(m).First()
		if sel.Length() == 0 {
			return "", false
		}
	}

	m, err := cascadia.Compile(selector)
	if err != nil {
		return "", false
	}
	found := sel.FindMatcher(m).First()
	if found.Length() == 0 {
		return "", false
	}
	return found.Text(), true
}
