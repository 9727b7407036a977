package directory

import (
	"encoding/json"
	"sort"
)

// Tree is a string-keyed mapping of nested values.
type Tree map[string]Value

// Value is a tagged union: either a scalar string leaf or a nested Tree
// branch. The zero Value is an empty leaf.
type Value struct {
	leaf   string
	branch Tree
}

// String returns a leaf value.
func String(s string) Value {
	return Value{leaf: s}
}

// Branch returns a branch value wrapping t.
func Branch(t Tree) Value {
	return Value{branch: t}
}

// Fields builds a branch of string leaves from a flat field map. Change
// records carry their payload this way.
func Fields(fields map[string]string) Value {
	t := make(Tree, len(fields))
	for k, v := range fields {
		t[k] = String(v)
	}
	return Branch(t)
}

// IsBranch reports whether the value holds a nested tree.
func (v Value) IsBranch() bool {
	return v.branch != nil
}

// Leaf returns the scalar content. Empty for branches.
func (v Value) Leaf() string {
	return v.leaf
}

// Child resolves one path segment inside a branch. It returns false for
// leaves and for missing keys.
func (v Value) Child(key string) (Value, bool) {
	if v.branch == nil {
		return Value{}, false
	}
	c, ok := v.branch[key]
	return c, ok
}

// Keys returns the sorted keys of a branch, nil for leaves.
func (v Value) Keys() []string {
	if v.branch == nil {
		return nil
	}
	keys := make([]string, 0, len(v.branch))
	for k := range v.branch {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON renders leaves as strings and branches as objects, for the
// debug endpoint.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.branch != nil {
		return json.Marshal(v.branch)
	}
	return json.Marshal(v.leaf)
}

func (v Value) clone() Value {
	if v.branch == nil {
		return v
	}
	return Branch(v.branch.clone())
}

func (t Tree) clone() Tree {
	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = v.clone()
	}
	return out
}
