// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pmid-resolver/internal/batch"
	"github.com/pdiddy/pmid-resolver/internal/classify"
	"github.com/pdiddy/pmid-resolver/pkg/types"
)

var classifyCmd = &cobra.Command{
	Use:   "classify FILE.html",
	Short: "Classify a saved PubMed page",
	Long: `Classify reads a saved search or article page, reports which layout it
shows, and prints the mapping entry resolve would record for it. Use it on
snapshots from resolve --snapshot-dir to debug layout selectors.

The query title defaults to the file name without its extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().String("title", "", "query title the page was loaded for")
	classifyCmd.Flags().Bool("json", false, "output the outcome as JSON")
	rootCmd.AddCommand(classifyCmd)
}

// classifyReport is the JSON form of the classify command output.
type classifyReport struct {
	Outcome types.Outcome `json:"outcome"`
	Key     string        `json:"key"`
	Value   string        `json:"value"`
	Error   string        `json:"error,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	path := args[0]
	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")

	layout, err := layoutConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := classify.NewDocument(string(data))
	if err != nil {
		return err
	}

	out, classifyErr := classify.Classify(title, doc, layout)
	key, value := batch.Fold(out)
	report := classifyReport{Outcome: out, Key: key, Value: value}
	if classifyErr != nil {
		report.Error = classifyErr.Error()
	}

	if err := printClassify(cmd.OutOrStdout(), report, jsonOutput); err != nil {
		return err
	}
	return classifyErr
}

func printClassify(w io.Writer, r classifyReport, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintf(w, "Layout:  %s\n", r.Outcome.Kind)
	fmt.Fprintf(w, "Query:   %s\n", r.Outcome.QueryTitle)
	if r.Outcome.Found() {
		fmt.Fprintf(w, "PMID:    %s\n", r.Outcome.Identifier)
	}
	if r.Outcome.MatchedTitle != "" {
		fmt.Fprintf(w, "Matched: %s\n", r.Outcome.MatchedTitle)
	}
	fmt.Fprintf(w, "Entry:   %q: %q\n", r.Key, r.Value)
	return nil
}
