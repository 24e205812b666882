package frontmatter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	adrg "github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document opened a frontmatter block
// but never closed it.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

// formats lists the supported frontmatter blocks. YAML is decoded with yaml.v3 so
// nested maps come back as map[string]any.
var formats = []*adrg.Format{
	adrg.NewFormat("---", "---", yaml.Unmarshal),
	adrg.NewFormat("---yaml", "---", yaml.Unmarshal),
	adrg.NewFormat("+++", "+++", toml.Unmarshal),
	adrg.NewFormat("---toml", "---", toml.Unmarshal),
	adrg.NewFormat(";;;", ";;;", json.Unmarshal),
	adrg.NewFormat("---json", "---", json.Unmarshal),
	// A bare JSON object: the braces are part of the document.
	{Start: "{", End: "}", Unmarshal: json.Unmarshal, UnmarshalDelims: true},
}

// openingDelimiters are the first lines that commit a document to having frontmatter.
var openingDelimiters = map[string]bool{
	"---": true, "---yaml": true, "+++": true, "---toml": true, ";;;": true, "---json": true, "{": true,
}

// Parse splits content into its frontmatter fields and body. Documents without
// frontmatter are valid and yield an empty map with the full content as body.
func Parse(content []byte) (map[string]any, []byte, error) {
	fields := map[string]any{}
	body, err := adrg.Parse(bytes.NewReader(content), &fields, formats...)
	if err != nil {
		return nil, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if len(body) == len(content) && opensBlock(content) {
		return nil, nil, ErrMissingClosingDelimiter
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return normalizeMap(fields), body, nil
}

// HasFrontmatter reports whether content starts with a frontmatter block.
func HasFrontmatter(content []byte) bool { return opensBlock(content) }

// opensBlock reports whether the first non-blank line is a frontmatter delimiter.
func opensBlock(content []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		return openingDelimiters[line]
	}
	return false
}

// normalizeMap rewrites nested map[any]any values as map[string]any so
// templates can index them by string key.
func normalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

func normalizeValue(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		return normalizeMap(vv)
	case map[any]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[fmt.Sprint(k)] = normalizeValue(val)
		}
		return out
	case []any:
		for i := range vv {
			vv[i] = normalizeValue(vv[i])
		}
		return vv
	case []map[string]any:
		out := make([]any, len(vv))
		for i := range vv {
			out[i] = normalizeMap(vv[i])
		}
		return out
	default:
		return v
	}
}

// Compose reassembles a Markdown document from fields and body using a YAML block.
func Compose(fields map[string]any, body []byte) ([]byte, error) {
	fm, err := SerializeYAML(fields)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(fm) + len(body) + 8)
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n")
	buf.Write(body)
	return buf.Bytes(), nil
}
