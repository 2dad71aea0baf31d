// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package browser drives the PubMed search form in headless Chrome through
// go-rod. One Session owns one browser and one tab for a whole batch.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/pdiddy/pmid-resolver/internal/classify"
	"github.com/pdiddy/pmid-resolver/pkg/types"
)

// Session is a single Chrome tab used for every query of a batch.
// It is not safe for concurrent use.
type Session struct {
	cfg     types.BrowserConfig
	log     *slog.Logger
	lnch    *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page

	closeOnce sync.Once
	closeErr  error
}

// Launch starts Chrome (or connects to cfg.ControlURL) and opens the tab the
// session drives. On error nothing is left running.
func Launch(ctx context.Context, cfg types.BrowserConfig, logger *slog.Logger) (*Session, error) {
	cfg.Defaults()
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{cfg: cfg, log: logger}

	controlURL := cfg.ControlURL
	if controlURL == "" {
		l := newLauncher(cfg).Context(ctx)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		s.lnch = l
		controlURL = u
		logger.Info("browser launched", "controlURL", controlURL, "headless", cfg.Headless)
	} else {
		logger.Info("browser: connecting to remote", "controlURL", controlURL)
	}

	s.browser = rod.New().ControlURL(controlURL)
	if err := s.browser.Connect(); err != nil {
		s.kill()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	page, err := s.openPage()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	s.page = page
	return s, nil
}

// newLauncher builds the Chrome launcher for cfg.
func newLauncher(cfg types.BrowserConfig) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("no-first-run")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	return l
}

func (s *Session) openPage() (*rod.Page, error) {
	if s.cfg.Stealth {
		return stealth.Page(s.browser)
	}
	return s.browser.Page(proto.TargetCreateTarget{})
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ActionTimeout)
	defer cancel()

	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("browser: wait load %s: %w", url, err)
	}
	return nil
}

// SubmitQuery types text into the search box and clicks the search button.
// The page is not awaited; the batch runner polls for a known layout.
func (s *Session) SubmitQuery(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ActionTimeout)
	defer cancel()

	p := s.page.Context(ctx)

	box, err := p.Element(s.cfg.SearchBoxSelector)
	if err != nil {
		return fmt.Errorf("browser: search box %q: %w", s.cfg.SearchBoxSelector, err)
	}
	if err := box.SelectAllText(); err != nil {
		return fmt.Errorf("browser: clear search box: %w", err)
	}
	if err := box.Input(text); err != nil {
		return fmt.Errorf("browser: type query: %w", err)
	}

	btn, err := p.Element(s.cfg.SearchButtonSelector)
	if err != nil {
		// Some layouts drop the button; Enter submits the same form.
		s.log.Debug("search button not found, submitting with Enter",
			"selector", s.cfg.SearchButtonSelector, "error", err)
		if kerr := box.Type(input.Enter); kerr != nil {
			return fmt.Errorf("browser: submit query: %w", errors.Join(err, kerr))
		}
		return nil
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("browser: click search: %w", err)
	}
	return nil
}

// Content returns the current DOM of the tab as a classify.Document.
func (s *Session) Content(ctx context.Context) (*classify.Document, error) {
	rawHTML, err := s.page.Context(ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("browser: read page html: %w", err)
	}
	return classify.NewDocument(rawHTML)
}

// Close closes the tab, and for a locally launched Chrome also the browser
// and its process. Only the first call does any work.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.page != nil {
			if err := s.page.Close(); err != nil {
				errs = append(errs, fmt.Errorf("browser: close tab: %w", err))
			}
		}
		// A remote Chrome belongs to someone else; only our tab is closed.
		if s.browser != nil && s.lnch != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("browser: close: %w", err))
			}
		}
		s.kill()
		s.closeErr = errors.Join(errs...)
		s.log.Info("browser closed")
	})
	return s.closeErr
}

// kill stops a locally launched Chrome and removes its user data dir.
func (s *Session) kill() {
	if s.lnch == nil {
		return
	}
	s.lnch.Kill()
	s.lnch.Cleanup()
}
