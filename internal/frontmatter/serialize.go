package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// SerializeYAML serializes a frontmatter map into YAML bytes (without delimiters).
//
// Keys are sorted (recursively for nested maps) to keep output stable. An empty
// map serializes to an empty slice.
func SerializeYAML(fields map[string]any) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}
	node, err := nodeFromStringMap(fields)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func nodeFromStringMap(m map[string]any) (*yaml.Node, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		val, err := nodeFromAny(m[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		n.Content = append(n.Content, scalar("!!str", k), val)
	}
	return n, nil
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func nodeFromAny(v any) (*yaml.Node, error) {
	switch vv := v.(type) {
	case nil:
		return scalar("!!null", "null"), nil
	case string:
		return scalar("!!str", vv), nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(vv)), nil
	case int:
		return scalar("!!int", strconv.Itoa(vv)), nil
	case int64:
		return scalar("!!int", strconv.FormatInt(vv, 10)), nil
	case float64:
		return scalar("!!float", strconv.FormatFloat(vv, 'g', -1, 64)), nil
	case time.Time:
		return scalar("!!timestamp", vv.Format(time.RFC3339)), nil
	case map[string]any:
		return nodeFromStringMap(vv)
	case []string:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, item := range vv {
			seq.Content = append(seq.Content, scalar("!!str", item))
		}
		return seq, nil
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range vv {
			node, err := nodeFromAny(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, node)
		}
		return seq, nil
	default:
		var node yaml.Node
		if err := node.Encode(v); err != nil {
			return nil, err
		}
		return &node, nil
	}
}
