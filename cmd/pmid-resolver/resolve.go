// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pmid-resolver/internal/batch"
	"github.com/pdiddy/pmid-resolver/internal/output"
	"github.com/pdiddy/pmid-resolver/pkg/types"
)

const (
	defaultInput  = "titles.txt"
	defaultOutput = "pmid_dict.json"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Search PubMed for every title in a file and save the PMIDs",
	Long: `Resolve reads one article title per line, searches PubMed for each in
turn, and writes a title to PMID mapping. Titles that land on a result list
are keyed by the title PubMed displays for the first result.

Titles with no match, or whose page could not be read, are recorded as
no results for "<title>" and listed in the summary. If the browser fails
part way, the results gathered so far are still written and the command
exits with an error naming the title being processed.`,
	RunE: runResolve,
}

func init() {
	f := resolveCmd.Flags()
	f.StringP("input", "i", defaultInput, "file with one article title per line")
	f.StringP("output", "o", defaultOutput, "file to write the title to PMID mapping to")
	f.String("format", "", "output format: json or yaml (default: from the output extension)")
	f.String("engine", string(types.EngineBrowser), "session engine: browser or http")
	f.String("search-url", types.DefaultSearchURL, "PubMed search page")
	f.Duration("wait-timeout", 0, "how long to wait for a results page after each query (default 10s)")
	f.Duration("poll-interval", 0, "delay between page checks while waiting (default 250ms)")
	f.String("snapshot-dir", "", "save the HTML of pages that could not be classified here")
	f.Bool("headless", true, "run Chrome without a window")
	f.Bool("no-sandbox", false, "disable the Chrome sandbox (needed in most containers)")
	f.String("browser-bin", "", "Chrome binary to launch")
	f.String("control-url", "", "DevTools URL of a running Chrome to use instead of launching one")
	f.Bool("stealth", true, "mask automation fingerprints in the browser")
	f.Duration("http-timeout", 0, "per-request timeout for the http engine (default 30s)")

	for key, flag := range map[string]string{
		"input":               "input",
		"output":              "output",
		"output_format":       "format",
		"engine":              "engine",
		"search_url":          "search-url",
		"wait_timeout":        "wait-timeout",
		"poll_interval":       "poll-interval",
		"snapshot_dir":        "snapshot-dir",
		"browser.headless":    "headless",
		"browser.no_sandbox":  "no-sandbox",
		"browser.bin":         "browser-bin",
		"browser.control_url": "control-url",
		"browser.stealth":     "stealth",
		"http.timeout":        "http-timeout",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	inputPath := viper.GetString("input")
	outputPath := viper.GetString("output")

	format, err := output.FormatFor(outputPath, viper.GetString("output_format"))
	if err != nil {
		return err
	}
	layout, err := layoutConfig()
	if err != nil {
		return err
	}

	titles, err := batch.ReadTitles(inputPath)
	if err != nil {
		return err
	}
	if len(titles) == 0 {
		return fmt.Errorf("no titles in %s", inputPath)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	engine := types.Engine(viper.GetString("engine"))
	logger.Info("starting batch", "titles", len(titles), "engine", engine, "input", inputPath)

	sess, err := openSession(ctx, engine, logger)
	if err != nil {
		return err
	}

	runner := &batch.Runner{
		Session: sess,
		Config:  resolveConfig(),
		Layout:  layout,
		Logger:  logger,
	}
	res, runErr := runner.RunAndClose(ctx, titles)

	batch.FormatSummary(res, cmd.OutOrStdout())

	logger.Info("saving results", "path", outputPath, "format", format, "entries", res.Mapping.Len())
	if err := output.Write(outputPath, res.Mapping, format); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}
