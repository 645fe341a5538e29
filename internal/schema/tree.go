package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Tree is an insertion-ordered document used for mappings and settings.
// Values are string, bool, int, []string or *Tree. Trees handed out by this
// package are never mutated after construction.
type Tree struct {
	entries []entry
}

type entry struct {
	key   string
	value any
}

func newTree() *Tree {
	return &Tree{}
}

// set adds or replaces key, keeping the original position on replace
func (t *Tree) set(key string, value any) *Tree {
	for i := range t.entries {
		if t.entries[i].key == key {
			t.entries[i].value = value
			return t
		}
	}
	t.entries = append(t.entries, entry{key: key, value: value})
	return t
}

// Len returns the number of keys
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Keys returns the keys in insertion order
func (t *Tree) Keys() []string {
	if t == nil {
		return nil
	}
	keys := make([]string, len(t.entries))
	for i, e := range t.entries {
		keys[i] = e.key
	}
	return keys
}

// Get returns the value stored under key
func (t *Tree) Get(key string) (any, bool) {
	if t == nil {
		return nil, false
	}
	for _, e := range t.entries {
		if e.key == key {
			return e.value, true
		}
	}
	return nil, false
}

// Has reports whether key is present
func (t *Tree) Has(key string) bool {
	_, ok := t.Get(key)
	return ok
}

// Sub returns the sub-tree under key, or nil
func (t *Tree) Sub(key string) *Tree {
	v, ok := t.Get(key)
	if !ok {
		return nil
	}
	sub, _ := v.(*Tree)
	return sub
}

// Lookup walks path through nested trees. Keys may contain dots.
func (t *Tree) Lookup(path ...string) (any, bool) {
	cur := t
	for i, key := range path {
		v, ok := cur.Get(key)
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return v, true
		}
		next, ok := v.(*Tree)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// Map converts the tree into plain maps, deep-copying every level
func (t *Tree) Map() map[string]any {
	if t == nil {
		return nil
	}
	out := make(map[string]any, len(t.entries))
	for _, e := range t.entries {
		out[e.key] = plainValue(e.value)
	}
	return out
}

func plainValue(v any) any {
	switch val := v.(type) {
	case *Tree:
		return val.Map()
	case []string:
		return append([]string(nil), val...)
	default:
		return val
	}
}

// Clone returns a deep copy
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	c := &Tree{entries: make([]entry, len(t.entries))}
	for i, e := range t.entries {
		switch val := e.value.(type) {
		case *Tree:
			c.entries[i] = entry{key: e.key, value: val.Clone()}
		case []string:
			c.entries[i] = entry{key: e.key, value: append([]string(nil), val...)}
		default:
			c.entries[i] = e
		}
	}
	return c
}

// MarshalJSON writes keys in insertion order
func (t *Tree) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range t.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(e.value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", e.key, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML renders the tree as an ordered YAML mapping
func (t *Tree) MarshalYAML() (any, error) {
	return t.yamlNode()
}

func (t *Tree) yamlNode() (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range t.entries {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.key}
		var value *yaml.Node
		switch val := e.value.(type) {
		case *Tree:
			sub, err := val.yamlNode()
			if err != nil {
				return nil, err
			}
			value = sub
		default:
			value = &yaml.Node{}
			if err := value.Encode(val); err != nil {
				return nil, fmt.Errorf("failed to encode %q: %w", e.key, err)
			}
		}
		node.Content = append(node.Content, key, value)
	}
	return node, nil
}
