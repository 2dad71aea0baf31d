// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch runs PubMed searches over plain HTTP. The search page is
// rendered on the server, so a GET with the query in the term parameter
// returns the same markup the search form produces in a browser, and a
// unique match redirects to the article page.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pdiddy/pmid-resolver/internal/classify"
	"github.com/pdiddy/pmid-resolver/pkg/types"
)

// maxBody caps the size of a search page; a longer response is an error.
var maxBody int64 = 8 << 20

// Session issues one GET per query and keeps the last response body.
// It is not safe for concurrent use.
type Session struct {
	client  *http.Client
	cfg     types.HTTPConfig
	baseURL string
	last    *classify.Document
}

// New returns a Session with its own http.Client.
func New(cfg types.HTTPConfig) *Session {
	cfg.Defaults()
	return &Session{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
}

// Static reports that a fetched page never changes after it is read.
func (s *Session) Static() bool { return true }

// Navigate records the search page URL; no request is made.
func (s *Session) Navigate(_ context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("fetch: parse search url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("fetch: search url %q: scheme must be http or https", rawURL)
	}
	s.baseURL = rawURL
	s.last = nil
	return nil
}

// SearchURL returns the GET URL that searches for text.
func SearchURL(base, text string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("fetch: parse search url: %w", err)
	}
	q := u.Query()
	q.Set("term", text)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SubmitQuery fetches the search page for text. Non-2xx responses are errors.
func (s *Session) SubmitQuery(ctx context.Context, text string) error {
	if s.baseURL == "" {
		return fmt.Errorf("fetch: submit before navigate")
	}
	s.last = nil
	target, err := SearchURL(s.baseURL, text)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetch: GET %s: HTTP %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return fmt.Errorf("fetch: read body: %w", err)
	}
	if int64(len(body)) > maxBody {
		return fmt.Errorf("fetch: GET %s: response larger than %d bytes", target, maxBody)
	}
	doc, err := classify.NewDocument(string(body))
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	s.last = doc
	return nil
}

// Content returns the page fetched by the last SubmitQuery.
func (s *Session) Content(_ context.Context) (*classify.Document, error) {
	if s.last == nil {
		return nil, fmt.Errorf("fetch: no page loaded")
	}
	return s.last, nil
}

// Close releases idle connections.
func (s *Session) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
