// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output serializes the title→identifier mapping produced by a batch.
// Entries are written in insertion order so the file follows the input.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pmid-resolver/pkg/types"
)

// FormatFor returns the explicit format when set, otherwise the format
// implied by the extension of path (.yaml and .yml select YAML).
func FormatFor(path string, explicit string) (types.OutputFormat, error) {
	switch types.OutputFormat(strings.ToLower(explicit)) {
	case types.OutputJSON:
		return types.OutputJSON, nil
	case types.OutputYAML:
		return types.OutputYAML, nil
	case "":
	default:
		return "", fmt.Errorf("unknown output format %q (want json or yaml)", explicit)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return types.OutputYAML, nil
	default:
		return types.OutputJSON, nil
	}
}

// Encode writes m to w in the given format.
func Encode(w io.Writer, m *orderedmap.OrderedMap[string, string], format types.OutputFormat) error {
	switch format {
	case types.OutputJSON, "":
		return encodeJSON(w, m)
	case types.OutputYAML:
		return encodeYAML(w, m)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Write serializes m to path. The file is written to a temporary sibling and
// renamed into place, so an existing file is never left half-written.
func Write(path string, m *orderedmap.OrderedMap[string, string], format types.OutputFormat) error {
	var buf bytes.Buffer
	if err := Encode(&buf, m, format); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

// encodeJSON writes four-space indented JSON without HTML escaping. The
// object is assembled here because OrderedMap.MarshalJSON always escapes
// &, < and >.
func encodeJSON(w io.Writer, m *orderedmap.OrderedMap[string, string]) error {
	if m == nil || m.Len() == 0 {
		_, err := io.WriteString(w, "{}\n")
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		key, err := quoteJSON(pair.Key)
		if err != nil {
			return err
		}
		value, err := quoteJSON(pair.Value)
		if err != nil {
			return err
		}
		buf.WriteString("    ")
		buf.WriteString(key)
		buf.WriteString(": ")
		buf.WriteString(value)
		if pair.Next() != nil {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")

	_, err := w.Write(buf.Bytes())
	return err
}

// quoteJSON returns s as a JSON string literal with &, < and > left as is.
func quoteJSON(s string) (string, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// encodeYAML builds the mapping node by hand so key order is preserved.
func encodeYAML(w io.Writer, m *orderedmap.OrderedMap[string, string]) error {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Value},
		)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return err
	}
	return enc.Close()
}
