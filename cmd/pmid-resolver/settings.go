// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/pdiddy/pmid-resolver/internal/batch"
	"github.com/pdiddy/pmid-resolver/internal/browser"
	"github.com/pdiddy/pmid-resolver/internal/classify"
	"github.com/pdiddy/pmid-resolver/internal/fetch"
	"github.com/pdiddy/pmid-resolver/pkg/types"
)

func init() {
	viper.SetDefault("engine", string(types.EngineBrowser))
	viper.SetDefault("search_url", types.DefaultSearchURL)
	viper.SetDefault("browser.headless", true)
	viper.SetDefault("browser.stealth", true)
}

// resolveConfig reads the batch settings from viper.
func resolveConfig() types.ResolveConfig {
	cfg := types.ResolveConfig{
		SearchURL:    viper.GetString("search_url"),
		WaitTimeout:  viper.GetDuration("wait_timeout"),
		PollInterval: viper.GetDuration("poll_interval"),
		SnapshotDir:  viper.GetString("snapshot_dir"),
	}
	cfg.Defaults()
	return cfg
}

// browserConfig reads the browser session settings from viper.
func browserConfig() types.BrowserConfig {
	cfg := types.BrowserConfig{
		Headless:             viper.GetBool("browser.headless"),
		NoSandbox:            viper.GetBool("browser.no_sandbox"),
		Bin:                  viper.GetString("browser.bin"),
		ControlURL:           viper.GetString("browser.control_url"),
		Stealth:              viper.GetBool("browser.stealth"),
		SearchBoxSelector:    viper.GetString("browser.search_box_selector"),
		SearchButtonSelector: viper.GetString("browser.search_button_selector"),
		ActionTimeout:        viper.GetDuration("browser.action_timeout"),
	}
	cfg.Defaults()
	return cfg
}

// httpConfig reads the http session settings from viper.
func httpConfig() types.HTTPConfig {
	cfg := types.HTTPConfig{
		Timeout:   viper.GetDuration("http.timeout"),
		UserAgent: viper.GetString("http.user_agent"),
	}
	cfg.Defaults()
	return cfg
}

// layoutConfig reads layout overrides from the config file, fills the rest
// from the PubMed defaults, and validates the result.
func layoutConfig() (classify.Layout, error) {
	var layout classify.Layout
	if err := viper.UnmarshalKey("layout", &layout); err != nil {
		return classify.Layout{}, fmt.Errorf("reading layout config: %w", err)
	}
	layout = layout.Merge(classify.DefaultLayout())
	if err := layout.Validate(); err != nil {
		return classify.Layout{}, fmt.Errorf("invalid layout config: %w", err)
	}
	return layout, nil
}

// openSession starts the session for the configured engine.
func openSession(ctx context.Context, engine types.Engine, logger *slog.Logger) (batch.Session, error) {
	switch engine {
	case types.EngineBrowser:
		sess, err := browser.Launch(ctx, browserConfig(), logger)
		if err != nil {
			return nil, err
		}
		return sess, nil
	case types.EngineHTTP:
		return fetch.New(httpConfig()), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (want %s or %s)", engine, types.EngineBrowser, types.EngineHTTP)
	}
}
