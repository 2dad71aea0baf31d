// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pmid-resolver/pkg/types"
)

func loadFixture(t *testing.T, name string) *Document {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	doc, err := NewDocument(string(data))
	require.NoError(t, err)
	return doc
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		fixture string
		title   string
		want    types.Outcome
	}{
		{
			name:    "no results",
			fixture: "no_results.html",
			title:   "Zzyx Nonexistent Article Title 12345",
			want: types.Outcome{
				Kind:       types.NoResults,
				QueryTitle: "Zzyx Nonexistent Article Title 12345",
			},
		},
		{
			name:    "direct article",
			fixture: "article.html",
			title:   "Title B",
			want: types.Outcome{
				Kind:       types.DirectArticle,
				QueryTitle: "Title B",
				Identifier: "12345678",
			},
		},
		{
			name:    "search results uses first entry",
			fixture: "search_results.html",
			title:   "exact match title",
			want: types.Outcome{
				Kind:         types.SearchResults,
				QueryTitle:   "exact match title",
				Identifier:   "87654321",
				MatchedTitle: "Exact Match Title",
			},
		},
		{
			name:    "unrecognized layout",
			fixture: "unrecognized.html",
			title:   "Anything",
			want: types.Outcome{
				Kind:       types.Unrecognized,
				QueryTitle: "Anything",
			},
		},
		{
			name:    "no results wins over search results",
			fixture: "conflicting.html",
			title:   "Title C",
			want: types.Outcome{
				Kind:       types.NoResults,
				QueryTitle: "Title C",
			},
		},
		{
			name:    "empty title does not change classification",
			fixture: "article.html",
			title:   "",
			want: types.Outcome{
				Kind:       types.DirectArticle,
				Identifier: "12345678",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := loadFixture(t, tt.fixture)
			got, err := Classify(tt.title, doc, DefaultLayout())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	for _, fixture := range []string{"article.html", "search_results.html", "no_results.html", "unrecognized.html"} {
		t.Run(fixture, func(t *testing.T) {
			doc := loadFixture(t, fixture)
			first, err1 := Classify("Some Title", doc, DefaultLayout())
			second, err2 := Classify("Some Title", doc, DefaultLayout())
			assert.Equal(t, first, second)
			assert.Equal(t, err1, err2)
		})
	}
}

func TestClassifyExtractionError(t *testing.T) {
	tests := []struct {
		name         string
		fixture      string
		wantLayout   string
		wantSelector string
	}{
		{
			name:         "article page without identifier",
			fixture:      "article_missing_id.html",
			wantLayout:   LayoutArticlePage,
			wantSelector: `strong[title="PubMed ID"]`,
		},
		{
			name:         "result entry without title link",
			fixture:      "results_missing_title.html",
			wantLayout:   LayoutSearchResults,
			wantSelector: "a.docsum-title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := loadFixture(t, tt.fixture)
			got, err := Classify("Broken", doc, DefaultLayout())
			require.Error(t, err)

			var extractErr *ExtractionError
			require.True(t, errors.As(err, &extractErr))
			assert.Equal(t, "Broken", extractErr.Title)
			assert.Equal(t, tt.wantLayout, extractErr.Layout)
			assert.Equal(t, tt.wantSelector, extractErr.Selector)

			assert.Equal(t, types.Unrecognized, got.Kind)
			assert.Equal(t, "Broken", got.QueryTitle)
			assert.Empty(t, got.Identifier)
		})
	}
}

// stubPage answers from fixed maps so ordering can be checked without HTML.
type stubPage struct {
	markers []string
	texts   map[string]string
	lookups []string
}

func (p *stubPage) Contains(marker string) bool {
	for _, m := range p.markers {
		if m == marker {
			return true
		}
	}
	return false
}

func (p *stubPage) FirstText(scope, selector string) (string, bool) {
	p.lookups = append(p.lookups, scope+" "+selector)
	text, ok := p.texts[selector]
	return text, ok
}

func TestClassifyArticleBeforeSearchResults(t *testing.T) {
	layout := DefaultLayout()
	page := &stubPage{
		markers: []string{layout.ArticlePageMarker, layout.SearchResultsMarker},
		texts:   map[string]string{layout.ArticleIDSelector: " 42 "},
	}

	got, err := Classify("T", page, layout)
	require.NoError(t, err)
	assert.Equal(t, types.DirectArticle, got.Kind)
	assert.Equal(t, "42", got.Identifier)
	assert.Equal(t, []string{" " + layout.ArticleIDSelector}, page.lookups)
}

func TestClassifyWhitespaceOnlyTextIsMissing(t *testing.T) {
	layout := DefaultLayout()
	page := &stubPage{
		markers: []string{layout.ArticlePageMarker},
		texts:   map[string]string{layout.ArticleIDSelector: " \n\t "},
	}

	_, err := Classify("T", page, layout)
	var extractErr *ExtractionError
	assert.True(t, errors.As(err, &extractErr))
}

func TestRecognizes(t *testing.T) {
	layout := DefaultLayout()
	assert.True(t, Recognizes(loadFixture(t, "article.html"), layout))
	assert.True(t, Recognizes(loadFixture(t, "search_results.html"), layout))
	assert.True(t, Recognizes(loadFixture(t, "no_results.html"), layout))
	assert.False(t, Recognizes(loadFixture(t, "unrecognized.html"), layout))
}

func TestLayoutValidate(t *testing.T) {
	assert.NoError(t, DefaultLayout().Validate())

	bad := DefaultLayout()
	bad.ResultIDSelector = "span[["
	bad.NoResultsMarker = ""
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_results_marker is empty")
	assert.Contains(t, err.Error(), "result_id_selector")
}

func TestLayoutMerge(t *testing.T) {
	custom := Layout{NoResultsMarker: "Nothing here"}
	merged := custom.Merge(DefaultLayout())

	assert.Equal(t, "Nothing here", merged.NoResultsMarker)
	assert.Equal(t, DefaultLayout().ArticleIDSelector, merged.ArticleIDSelector)
	assert.NoError(t, merged.Validate())
}

func TestDocumentFirstText(t *testing.T) {
	doc := loadFixture(t, "search_results.html")

	text, ok := doc.FirstText("article", "span.docsum-pmid")
	require.True(t, ok)
	assert.Equal(t, "87654321", strings.TrimSpace(text))

	_, ok = doc.FirstText("table", "span.docsum-pmid")
	assert.False(t, ok, "missing scope")

	_, ok = doc.FirstText("", "span.no-such-class")
	assert.False(t, ok, "missing element")

	_, ok = doc.FirstText("", "span[[")
	assert.False(t, ok, "invalid selector")
}
