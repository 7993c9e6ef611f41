/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package paramtree

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind identifies the shape of a Value.
type Kind int

const (
	// KindScalar is a leaf value: string, bool, int64, float64, or nil.
	KindScalar Kind = iota
	// KindSequence is an ordered list of values.
	KindSequence
	// KindMapping is a key-ordered map from string keys to values.
	KindMapping
)

// String returns the kind name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is one node of a parameter tree. The zero value is a nil scalar.
type Value struct {
	kind     Kind
	scalar   any
	seq      []*Value
	keys     []string
	children map[string]*Value
}

// Scalar creates a scalar leaf. The value should be a string, bool, int64,
// float64, or nil; other integer widths are normalized to int64.
func Scalar(v any) *Value {
	switch n := v.(type) {
	case int:
		v = int64(n)
	case int32:
		v = int64(n)
	case uint:
		v = int64(n)
	case uint32:
		v = int64(n)
	case float32:
		v = float64(n)
	}
	return &Value{kind: KindScalar, scalar: v}
}

// Sequence creates a sequence from the given items.
func Sequence(items ...*Value) *Value {
	return &Value{kind: KindSequence, seq: items}
}

// Mapping creates an empty key-ordered mapping.
func Mapping() *Value {
	return &Value{kind: KindMapping, children: map[string]*Value{}}
}

// Kind returns the shape of the value.
func (v *Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is a nil scalar.
func (v *Value) IsNull() bool {
	return v.kind == KindScalar && v.scalar == nil
}

// ScalarValue returns the scalar payload. It is nil for non-scalar values.
func (v *Value) ScalarValue() any {
	if v.kind != KindScalar {
		return nil
	}
	return v.scalar
}

// Items returns the sequence items. It is nil for non-sequence values.
func (v *Value) Items() []*Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq
}

// Append adds items to a sequence value.
func (v *Value) Append(items ...*Value) {
	v.seq = append(v.seq, items...)
}

// Keys returns the mapping keys in insertion order.
func (v *Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	return v.keys
}

// Len returns the number of entries (mapping), items (sequence), or 1 for a
// non-nil scalar and 0 for a null scalar.
func (v *Value) Len() int {
	switch v.kind {
	case KindMapping:
		return len(v.keys)
	case KindSequence:
		return len(v.seq)
	default:
		if v.scalar == nil {
			return 0
		}
		return 1
	}
}

// Get returns the child stored under key.
func (v *Value) Get(key string) (*Value, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	c, ok := v.children[key]
	return c, ok
}

// Set stores child under key, preserving first-insertion key order.
func (v *Value) Set(key string, child *Value) {
	if v.kind != KindMapping {
		return
	}
	if _, exists := v.children[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.children[key] = child
}

// Delete removes key from a mapping.
func (v *Value) Delete(key string) {
	if v.kind != KindMapping {
		return
	}
	if _, exists := v.children[key]; !exists {
		return
	}
	delete(v.children, key)
	for i, k := range v.keys {
		if k == key {
			v.keys = append(v.keys[:i], v.keys[i+1:]...)
			break
		}
	}
}

// Lookup traverses nested mappings along a dot-separated path.
func (v *Value) Lookup(path string) (*Value, bool) {
	cur := v
	for _, part := range strings.Split(path, ".") {
		if cur == nil || cur.kind != KindMapping {
			return nil, false
		}
		next, ok := cur.children[part]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Clone returns a deep copy of the value.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	switch v.kind {
	case KindScalar:
		return &Value{kind: KindScalar, scalar: v.scalar}
	case KindSequence:
		items := make([]*Value, len(v.seq))
		for i, it := range v.seq {
			items[i] = it.Clone()
		}
		return &Value{kind: KindSequence, seq: items}
	case KindMapping:
		m := Mapping()
		for _, k := range v.keys {
			m.Set(k, v.children[k].Clone())
		}
		return m
	default:
		return nil
	}
}

// Equal reports whether two values are structurally identical, including
// mapping key order.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindScalar:
		return reflect.DeepEqual(v.scalar, other.scalar)
	case KindSequence:
		if len(v.seq) != len(other.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(other.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.keys) != len(other.keys) {
			return false
		}
		for i, k := range v.keys {
			if other.keys[i] != k {
				return false
			}
			if !v.children[k].Equal(other.children[k]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Interface converts the tree into plain Go values (any, []any,
// map[string]any). Mapping key order is lost; use the YAML codec when
// deterministic output is required.
func (v *Value) Interface() any {
	if v == nil {
		return nil
	}
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, it := range v.seq {
			out[i] = it.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]any, len(v.keys))
		for _, k := range v.keys {
			out[k] = v.children[k].Interface()
		}
		return out
	default:
		return nil
	}
}
