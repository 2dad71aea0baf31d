// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for pmid-resolver: the page
// outcome produced for each searched title and the configuration structs
// read by the CLI.
package types

import "fmt"

// OutcomeKind identifies which page layout a search landed on.
type OutcomeKind int

const (
	// NoResults means the remote search explicitly reported no matches.
	NoResults OutcomeKind = iota

	// DirectArticle means the search navigated straight to one article page.
	DirectArticle

	// SearchResults means a result listing was shown; the first entry is used.
	SearchResults

	// Unrecognized means the page matched none of the known layouts.
	Unrecognized

	// TimedOut means no layout marker appeared before the wait deadline.
	TimedOut
)

var outcomeKindNames = map[OutcomeKind]string{
	NoResults:     "no_results",
	DirectArticle: "direct_article",
	SearchResults: "search_results",
	Unrecognized:  "unrecognized",
	TimedOut:      "timed_out",
}

// String returns the snake_case name used in logs and JSON output.
func (k OutcomeKind) String() string {
	if name, ok := outcomeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Outcome is the classification of one loaded search page. Only the fields
// relevant to Kind are set: Identifier for DirectArticle and SearchResults,
// MatchedTitle for SearchResults.
type Outcome struct {
	// Kind is the detected layout.
	Kind OutcomeKind `json:"kind" yaml:"kind"`

	// QueryTitle is the title that was searched.
	QueryTitle string `json:"query_title" yaml:"query_title"`

	// Identifier is the PubMed ID (PMID) shown on the page.
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`

	// MatchedTitle is the displayed title of the first listed result, which
	// may differ from QueryTitle after normalization by the remote site.
	MatchedTitle string `json:"matched_title,omitempty" yaml:"matched_title,omitempty"`
}

// Found reports whether the outcome carries an identifier.
func (o Outcome) Found() bool {
	return o.Kind == DirectArticle || o.Kind == SearchResults
}

// NotFoundValue returns the sentinel recorded in place of an identifier.
func NotFoundValue(title string) string {
	return `no results for "` + title + `"`
}
