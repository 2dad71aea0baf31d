// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify decides which layout a loaded PubMed search page shows
// and extracts the article identifier from it.
//
// Classification is an ordered list of checks where the first match wins:
// no-results marker, article-page marker, search-results marker, then
// Unrecognized. The no-results check runs first because the markers can
// co-occur on one page.
package classify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"

	"github.com/pdiddy/pmid-resolver/pkg/types"
)

// Page is the read-only view of a loaded page that Classify inspects.
type Page interface {
	// Contains reports whether the page source contains marker.
	Contains(marker string) bool

	// FirstText returns the text of the first element matching selector
	// inside the first element matching scope. An empty scope searches the
	// whole document. The boolean is false when either match is missing.
	FirstText(scope, selector string) (string, bool)
}

// Layout names the markers and selectors that describe the remote site.
type Layout struct {
	// NoResultsMarker is present in the source of a page reporting no matches.
	NoResultsMarker string `json:"no_results_marker" yaml:"no_results_marker" mapstructure:"no_results_marker"`

	// ArticlePageMarker is present when the search opened one article directly.
	ArticlePageMarker string `json:"article_page_marker" yaml:"article_page_marker" mapstructure:"article_page_marker"`

	// ArticleIDSelector locates the identifier on an article page.
	ArticleIDSelector string `json:"article_id_selector" yaml:"article_id_selector" mapstructure:"article_id_selector"`

	// SearchResultsMarker is present when a result listing is shown.
	SearchResultsMarker string `json:"search_results_marker" yaml:"search_results_marker" mapstructure:"search_results_marker"`

	// ResultEntrySelector locates one entry of the listing; the first is used.
	ResultEntrySelector string `json:"result_entry_selector" yaml:"result_entry_selector" mapstructure:"result_entry_selector"`

	// ResultIDSelector locates the identifier inside a result entry.
	ResultIDSelector string `json:"result_id_selector" yaml:"result_id_selector" mapstructure:"result_id_selector"`

	// ResultTitleSelector locates the displayed title inside a result entry.
	ResultTitleSelector string `json:"result_title_selector" yaml:"result_title_selector" mapstructure:"result_title_selector"`
}

// DefaultLayout returns the layout of pubmed.ncbi.nlm.nih.gov.
func DefaultLayout() Layout {
	return Layout{
		NoResultsMarker:     "No results were found",
		ArticlePageMarker:   "article-page",
		ArticleIDSelector:   `strong[title="PubMed ID"]`,
		SearchResultsMarker: "search-results",
		ResultEntrySelector: "article",
		ResultIDSelector:    "span.docsum-pmid",
		ResultTitleSelector: "a.docsum-title",
	}
}

// Merge returns l with every empty field taken from fallback.
func (l Layout) Merge(fallback Layout) Layout {
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return Layout{
		NoResultsMarker:     pick(l.NoResultsMarker, fallback.NoResultsMarker),
		ArticlePageMarker:   pick(l.ArticlePageMarker, fallback.ArticlePageMarker),
		ArticleIDSelector:   pick(l.ArticleIDSelector, fallback.ArticleIDSelector),
		SearchResultsMarker: pick(l.SearchResultsMarker, fallback.SearchResultsMarker),
		ResultEntrySelector: pick(l.ResultEntrySelector, fallback.ResultEntrySelector),
		ResultIDSelector:    pick(l.ResultIDSelector, fallback.ResultIDSelector),
		ResultTitleSelector: pick(l.ResultTitleSelector, fallback.ResultTitleSelector),
	}
}

// Validate checks that every marker is non-empty and every selector compiles.
func (l Layout) Validate() error {
	type field struct{ name, value string }
	markers := []field{
		{"no_results_marker", l.NoResultsMarker},
		{"article_page_marker", l.ArticlePageMarker},
		{"search_results_marker", l.SearchResultsMarker},
	}
	selectors := []field{
		{"article_id_selector", l.ArticleIDSelector},
		{"result_entry_selector", l.ResultEntrySelector},
		{"result_id_selector", l.ResultIDSelector},
		{"result_title_selector", l.ResultTitleSelector},
	}

	var errs []error
	for _, f := range markers {
		if f.value == "" {
			errs = append(errs, fmt.Errorf("layout %s is empty", f.name))
		}
	}
	for _, f := range selectors {
		if f.value == "" {
			errs = append(errs, fmt.Errorf("layout %s is empty", f.name))
			continue
		}
		if _, err := cascadia.Compile(f.value); err != nil {
			errs = append(errs, fmt.Errorf("layout %s %q: %w", f.name, f.value, err))
		}
	}
	return errors.Join(errs...)
}

// Layout names reported by ExtractionError.
const (
	LayoutArticlePage   = "article-page"
	LayoutSearchResults = "search-results"
)

// ExtractionError reports a page whose layout marker matched but whose
// identifier or title element was missing or empty.
type ExtractionError struct {
	Title    string
	Layout   string
	Selector string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting from %s page for %q: no text at %q", e.Layout, e.Title, e.Selector)
}

// Recognizes reports whether page shows any of the layout markers, i.e.
// whether it has reached a state Classify can decide on.
func Recognizes(page Page, layout Layout) bool {
	return page.Contains(layout.NoResultsMarker) ||
		page.Contains(layout.ArticlePageMarker) ||
		page.Contains(layout.SearchResultsMarker)
}

// Classify inspects page and returns the outcome for queryTitle. It has no
// side effects and returns the same result for the same page.
//
// When a layout marker matches but the expected element is missing, Classify
// returns an Unrecognized outcome together with an *ExtractionError.
func Classify(queryTitle string, page Page, layout Layout) (types.Outcome, error) {
	out := types.Outcome{QueryTitle: queryTitle}

	switch {
	case page.Contains(layout.NoResultsMarker):
		out.Kind = types.NoResults
		return out, nil

	case page.Contains(layout.ArticlePageMarker):
		id, ok := firstText(page, "", layout.ArticleIDSelector)
		if !ok {
			out.Kind = types.Unrecognized
			return out, &ExtractionError{Title: queryTitle, Layout: LayoutArticlePage, Selector: layout.ArticleIDSelector}
		}
		out.Kind = types.DirectArticle
		out.Identifier = id
		return out, nil

	case page.Contains(layout.SearchResultsMarker):
		id, ok := firstText(page, layout.ResultEntrySelector, layout.ResultIDSelector)
		if !ok {
			out.Kind = types.Unrecognized
			return out, &ExtractionError{Title: queryTitle, Layout: LayoutSearchResults, Selector: layout.ResultIDSelector}
		}
		title, ok := firstText(page, layout.ResultEntrySelector, layout.ResultTitleSelector)
		if !ok {
			out.Kind = types.Unrecognized
			return out, &ExtractionError{Title: queryTitle, Layout: LayoutSearchResults, Selector: layout.ResultTitleSelector}
		}
		out.Kind = types.SearchResults
		out.Identifier = id
		out.MatchedTitle = title
		return out, nil
	}

	out.Kind = types.Unrecognized
	return out, nil
}

// firstText returns the element text with whitespace runs collapsed, the
// way a browser renders it. Empty text counts as missing.
func firstText(page Page, scope, selector string) (string, bool) {
	text, ok := page.FirstText(scope, selector)
	if !ok {
		return "", false
	}
	text = strings.Join(strings.Fields(text), " ")
	return text, text != ""
}
