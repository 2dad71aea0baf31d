// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxTitleLine bounds a single input line; titles are far shorter.
const maxTitleLine = 1 << 20

// ReadTitles loads one title per line from path.
func ReadTitles(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening titles file: %w", err)
	}
	defer f.Close()

	titles, err := ParseTitles(f)
	if err != nil {
		return nil, fmt.Errorf("reading titles file %s: %w", path, err)
	}
	return titles, nil
}

// ParseTitles returns the trimmed, non-blank lines of r in order.
// Duplicates are kept; each is resolved separately.
func ParseTitles(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxTitleLine)

	var titles []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		titles = append(titles, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return titles, nil
}
