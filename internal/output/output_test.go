// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pmid-resolver/pkg/types"
)

func sampleMapping() *orderedmap.OrderedMap[string, string] {
	m := orderedmap.New[string, string]()
	m.Set("Zeta Study", "87654321")
	m.Set("Alpha Study", "12345678")
	m.Set("Title C", types.NotFoundValue("Title C"))
	return m
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		explicit string
		want     types.OutputFormat
		wantErr  bool
	}{
		{"json extension", "pmid_dict.json", "", types.OutputJSON, false},
		{"yaml extension", "out/pmids.yaml", "", types.OutputYAML, false},
		{"yml extension", "pmids.YML", "", types.OutputYAML, false},
		{"no extension defaults to json", "pmids", "", types.OutputJSON, false},
		{"explicit wins", "pmids.json", "yaml", types.OutputYAML, false},
		{"explicit is case-insensitive", "pmids.yaml", "JSON", types.OutputJSON, false},
		{"unknown explicit", "pmids.json", "xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatFor(tt.path, tt.explicit)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeJSONKeepsOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleMapping(), types.OutputJSON))

	want := `{
    "Zeta Study": "87654321",
    "Alpha Study": "12345678",
    "Title C": "no results for \"Title C\""
}
`
	assert.Equal(t, want, buf.String())
}

func TestEncodeJSONLeavesHTMLCharactersUnescaped(t *testing.T) {
	m := orderedmap.New[string, string]()
	m.Set("Cats & Dogs <review>", types.NotFoundValue("Cats & Dogs <review>"))
	m.Set("Tom & Jerry", "12345678")

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, m, types.OutputJSON))

	want := `{
    "Cats & Dogs <review>": "no results for \"Cats & Dogs <review>\"",
    "Tom & Jerry": "12345678"
}
`
	assert.Equal(t, want, buf.String())
	assert.NotContains(t, buf.String(), `\u0026`)

	decoded := map[string]string{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "12345678", decoded["Tom & Jerry"])
}

func TestEncodeJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, orderedmap.New[string, string](), types.OutputJSON))
	assert.Equal(t, "{}\n", buf.String())
}

func TestEncodeYAMLKeepsOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleMapping(), types.OutputYAML))

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Content, 1)
	mapping := doc.Content[0]
	require.Equal(t, yaml.MappingNode, mapping.Kind)

	var keys, values []string
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keys = append(keys, mapping.Content[i].Value)
		values = append(values, mapping.Content[i+1].Value)
	}
	assert.Equal(t, []string{"Zeta Study", "Alpha Study", "Title C"}, keys)
	assert.Equal(t, []string{"87654321", "12345678", `no results for "Title C"`}, values)
}

func TestEncodeYAMLQuotesNumericLookingValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleMapping(), types.OutputYAML))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "87654321", decoded["Zeta Study"], "identifiers stay strings")
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pmid_dict.json")

	require.NoError(t, Write(path, sampleMapping(), types.OutputJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Alpha Study": "12345678"`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestWriteReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pmid_dict.json")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	m := orderedmap.New[string, string]()
	m.Set("Only", "1")
	require.NoError(t, Write(path, m, types.OutputJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"Only\": \"1\"\n}\n", string(data))
}

func TestWriteUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	err := Write(path, sampleMapping(), types.OutputFormat("csv"))
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
