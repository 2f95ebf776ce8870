package docscan

import (
	"fmt"
	"strconv"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DecodeYAML decodes a YAML document into the same shapes as DecodeJSON:
// *Map / []any / string / json.Number / bool / nil. Mapping key order is
// taken from the node tree, which yaml.v3 keeps in source order. Scalar keys
// keep their textual form (a `200:` key becomes "200"); complex keys are
// dropped, matching JSON object semantics.
func DecodeYAML(data []byte) (any, error) {
	v, _, err := decodeYAMLDoc(data, false)
	return v, err
}

func decodeYAMLDoc(data []byte, trackDups bool) (any, []string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, err
	}
	n := &root
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil, nil, nil
		}
		n = n.Content[0]
	}
	if n.Kind == 0 {
		return nil, nil, nil
	}
	var dups *dupList
	if trackDups {
		dups = &dupList{}
	}
	v, err := yamlValue(n, "", dups, map[*yaml.Node]bool{})
	if err != nil {
		return nil, nil, err
	}
	if dups == nil {
		return v, nil, nil
	}
	return v, []string(*dups), nil
}

func yamlValue(n *yaml.Node, path string, dups *dupList, busy map[*yaml.Node]bool) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				continue
			}
			if _, seen := m.Get(k.Value); seen {
				dups.note(path, k.Value)
			}
			vv, err := yamlValue(v, childPath(path, k.Value), dups, busy)
			if err != nil {
				return nil, err
			}
			m.Set(k.Value, vv)
		}
		return m, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for i, c := range n.Content {
			vv, err := yamlValue(c, indexPath(path, i), dups, busy)
			if err != nil {
				return nil, err
			}
			arr = append(arr, vv)
		}
		return arr, nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, nil
		}
		if busy[n.Alias] {
			return nil, fmt.Errorf("docscan: cyclic YAML alias %q", n.Value)
		}
		busy[n.Alias] = true
		v, err := yamlValue(n.Alias, path, dups, busy)
		delete(busy, n.Alias)
		return v, err
	default:
		return nil, fmt.Errorf("docscan: unsupported YAML node kind %d", n.Kind)
	}
}

func yamlScalar(n *yaml.Node) (any, error) {
	switch n.Tag {
	case "!!null":
		return nil, nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, fmt.Errorf("docscan: bad YAML bool %q", n.Value)
		}
		return b, nil
	case "!!int", "!!float":
		return j.Number(n.Value), nil
	default:
		// Strings, timestamps and anything custom stay textual.
		return n.Value, nil
	}
}
