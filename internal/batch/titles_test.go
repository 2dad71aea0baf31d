// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTitles(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"trims and skips blanks", "  Title A  \n\n\t\nTitle B\r\n", []string{"Title A", "Title B"}},
		{"keeps duplicates", "Same\nSame\n", []string{"Same", "Same"}},
		{"no trailing newline", "Only", []string{"Only"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTitles(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTitlesLineTooLong(t *testing.T) {
	_, err := ParseTitles(strings.NewReader(strings.Repeat("x", maxTitleLine+1)))
	assert.Error(t, err)
}

func TestReadTitlesMissingFile(t *testing.T) {
	_, err := ReadTitles(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening titles file")
}
