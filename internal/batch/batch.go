// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch resolves a list of article titles to PubMed identifiers,
// one title at a time, through a single search session.
//
// Each title is navigated, submitted, waited on until the page shows a known
// layout, classified, and folded into an insertion-ordered mapping. A title
// whose page cannot be classified is recorded with the not-found sentinel and
// the batch continues; a failing session stops the batch and the results
// gathered so far are returned with the error.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pdiddy/pmid-resolver/internal/classify"
	"github.com/pdiddy/pmid-resolver/pkg/types"
)

// Session drives the remote search site. Implementations are not safe for
// concurrent use; Runner calls them sequentially.
type Session interface {
	Navigate(ctx context.Context, url string) error
	SubmitQuery(ctx context.Context, text string) error
	Content(ctx context.Context) (*classify.Document, error)
	Close() error
}

// Static is implemented by sessions whose page cannot change after a query is
// submitted, such as a plain HTTP response. Runner classifies their first page
// without polling.
type Static interface {
	Static() bool
}

// SessionError reports a session failure that ended the batch.
type SessionError struct {
	Title string
	Op    string
	Err   error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session failed while processing %q (%s): %v", e.Title, e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// FailureKind classifies a per-title failure.
type FailureKind string

const (
	FailureExtraction   FailureKind = "extraction"
	FailureUnrecognized FailureKind = "unrecognized"
	FailureTimeout      FailureKind = "timeout"
)

// Failure records a title that was folded as not found because its page
// could not be classified.
type Failure struct {
	Title string
	Kind  FailureKind
	Err   error
}

// Result holds everything a batch produced, including partial results when
// the batch stopped early.
type Result struct {
	// Mapping is keyed by display title; values are identifiers or the
	// not-found sentinel.
	Mapping *orderedmap.OrderedMap[string, string]

	// Outcomes lists one outcome per processed title, in input order.
	Outcomes []types.Outcome

	// Failures lists titles that were recorded as not found because of a
	// layout problem rather than an explicit no-results page.
	Failures []Failure
}

func newResult() *Result {
	return &Result{Mapping: orderedmap.New[string, string]()}
}

// Found returns the number of processed titles that resolved to an identifier.
func (r *Result) Found() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Found() {
			n++
		}
	}
	return n
}

// Fold returns the mapping key and value for an outcome. Search results are
// keyed by the displayed title; every other outcome by the query title.
func Fold(o types.Outcome) (key, value string) {
	switch o.Kind {
	case types.DirectArticle:
		return o.QueryTitle, o.Identifier
	case types.SearchResults:
		return o.MatchedTitle, o.Identifier
	default:
		return o.QueryTitle, types.NotFoundValue(o.QueryTitle)
	}
}

// Runner resolves titles through one Session. Run leaves the session open;
// RunAndClose releases it when the batch ends.
type Runner struct {
	Session Session
	Config  types.ResolveConfig
	Layout  classify.Layout
	Logger  *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Run processes titles in order. It returns a *SessionError, together with the
// partial result, when the session fails or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, titles []string) (*Result, error) {
	cfg := r.Config
	cfg.Defaults()
	r.Config = cfg

	log := r.logger()
	res := newResult()

	for i, title := range titles {
		if err := ctx.Err(); err != nil {
			return res, &SessionError{Title: title, Op: "start", Err: err}
		}

		log.Info("resolving title", "index", i+1, "total", len(titles), "title", title)

		out, doc, err := r.resolve(ctx, title)
		if err != nil {
			return res, err
		}

		r.record(res, i, out, doc)
	}

	return res, nil
}

// RunAndClose runs the batch and then closes the session exactly once,
// whether the batch finished, failed, or was cancelled. A close failure is
// logged; it does not discard the result.
func (r *Runner) RunAndClose(ctx context.Context, titles []string) (*Result, error) {
	defer func() {
		if err := r.Session.Close(); err != nil {
			r.logger().Warn("closing session", "error", err)
		}
	}()
	return r.Run(ctx, titles)
}

// resolve runs the navigate, submit, wait, classify sequence for one title.
// The returned error is always a *SessionError; classification problems are
// reported through the outcome and recorded by record.
func (r *Runner) resolve(ctx context.Context, title string) (resolved, *classify.Document, error) {
	if err := r.Session.Navigate(ctx, r.Config.SearchURL); err != nil {
		return resolved{}, nil, &SessionError{Title: title, Op: "navigate", Err: err}
	}
	if err := r.Session.SubmitQuery(ctx, title); err != nil {
		return resolved{}, nil, &SessionError{Title: title, Op: "submit", Err: err}
	}

	doc, ready, err := r.waitClassifiable(ctx)
	if err != nil {
		return resolved{}, nil, &SessionError{Title: title, Op: "content", Err: err}
	}

	out, classifyErr := classify.Classify(title, doc, r.Layout)
	if !ready && out.Kind == types.Unrecognized && classifyErr == nil {
		out.Kind = types.TimedOut
	}
	return resolved{Outcome: out, Err: classifyErr}, doc, nil
}

// resolved pairs an outcome with the extraction error Classify returned.
type resolved struct {
	types.Outcome
	Err error
}

// waitClassifiable polls the session until the page shows a layout marker or
// the wait timeout passes. The last page read is returned either way; ready
// is false on timeout. Static sessions are read once.
func (r *Runner) waitClassifiable(ctx context.Context) (*classify.Document, bool, error) {
	deadline := time.Now().Add(r.Config.WaitTimeout)
	for {
		doc, err := r.Session.Content(ctx)
		if err != nil {
			return nil, false, err
		}
		if classify.Recognizes(doc, r.Layout) {
			return doc, true, nil
		}
		if s, ok := r.Session.(Static); ok && s.Static() {
			return doc, true, nil
		}
		if !time.Now().Before(deadline) {
			return doc, false, nil
		}

		wait := r.Config.PollInterval
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, false, ctx.Err()
		case <-timer.C:
		}
	}
}

// record folds one outcome into res and logs anything an operator should see.
func (r *Runner) record(res *Result, index int, out resolved, doc *classify.Document) {
	log := r.logger()
	res.Outcomes = append(res.Outcomes, out.Outcome)

	var failure *Failure
	switch {
	case out.Err != nil:
		log.Error("could not extract identifier", "title", out.QueryTitle, "error", out.Err)
		failure = &Failure{Title: out.QueryTitle, Kind: FailureExtraction, Err: out.Err}
	case out.Kind == types.TimedOut:
		log.Warn("page did not reach a known layout before timeout",
			"title", out.QueryTitle, "timeout", r.Config.WaitTimeout)
		failure = &Failure{Title: out.QueryTitle, Kind: FailureTimeout}
	case out.Kind == types.Unrecognized:
		log.Warn("unrecognized page layout, the site markup may have changed", "title", out.QueryTitle)
		failure = &Failure{Title: out.QueryTitle, Kind: FailureUnrecognized}
	case out.Kind == types.NoResults:
		log.Info("no results", "title", out.QueryTitle)
	default:
		log.Info("resolved", "title", out.QueryTitle, "pmid", out.Identifier, "layout", out.Kind)
	}

	if failure != nil {
		res.Failures = append(res.Failures, *failure)
		r.snapshot(index, out.QueryTitle, doc)
	}

	key, value := Fold(out.Outcome)
	if prev, present := res.Mapping.Set(key, value); present {
		log.Warn("duplicate key, keeping the latest value", "key", key, "previous", prev, "value", value)
	}
}

// snapshot writes the page source of a failed title to SnapshotDir.
// Snapshot failures are logged and never fail the batch.
func (r *Runner) snapshot(index int, title string, doc *classify.Document) {
	if r.Config.SnapshotDir == "" || doc == nil {
		return
	}
	if err := os.MkdirAll(r.Config.SnapshotDir, 0o755); err != nil {
		r.logger().Warn("creating snapshot directory", "dir", r.Config.SnapshotDir, "error", err)
		return
	}
	path := filepath.Join(r.Config.SnapshotDir, fmt.Sprintf("%03d-%s.html", index+1, slug(title)))
	if err := os.WriteFile(path, []byte(doc.Source()), 0o644); err != nil {
		r.logger().Warn("writing page snapshot", "path", path, "error", err)
		return
	}
	r.logger().Debug("wrote page snapshot", "path", path)
}

// slug returns a short filesystem-safe form of title.
func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, c := range strings.ToLower(title) {
		if c < unicode.MaxASCII && (unicode.IsLetter(c) || unicode.IsDigit(c)) {
			b.WriteRune(c)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimRight(b.String(), "-")
	if len(s) > 60 {
		s = strings.TrimRight(s[:60], "-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}
