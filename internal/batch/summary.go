// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"fmt"
	"io"
	"strings"
)

// FormatSummary writes a per-title table and totals to w.
func FormatSummary(res *Result, w io.Writer) {
	if res == nil || len(res.Outcomes) == 0 {
		fmt.Fprintln(w, "No titles processed.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-15s  %s\n", "#", "Title", "Outcome", "PMID")
	fmt.Fprintln(w, strings.Repeat("-", 95))

	for i, o := range res.Outcomes {
		fmt.Fprintf(w, "%-4d  %-60s  %-15s  %s\n", i+1, truncate(o.QueryTitle, 60), o.Kind, o.Identifier)
	}

	fmt.Fprintf(w, "\n%d titles, %d found", len(res.Outcomes), res.Found())
	if len(res.Failures) > 0 {
		fmt.Fprintf(w, ", %d failed", len(res.Failures))
	}
	fmt.Fprintln(w)

	for _, f := range res.Failures {
		if f.Err != nil {
			fmt.Fprintf(w, "  %s: %s: %v\n", f.Kind, f.Title, f.Err)
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", f.Kind, f.Title)
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
