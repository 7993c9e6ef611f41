/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package paramtree

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	apperrors "github.com/mweibel/commodore/pkg/errors"
)

// FromYAML parses a YAML document into a Value tree. An empty document
// yields an empty mapping.
func FromYAML(data []byte) (*Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeConfig, "invalid YAML document", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return Mapping(), nil
	}
	return FromYAMLNode(root.Content[0])
}

// FromYAMLNode converts a decoded yaml.Node into a Value tree, preserving
// mapping key order. Duplicate mapping keys are a configuration error.
func FromYAMLNode(node *yaml.Node) (*Value, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return FromYAMLNode(node.Alias)
	case yaml.ScalarNode:
		return scalarFromNode(node)
	case yaml.SequenceNode:
		items := make([]*Value, 0, len(node.Content))
		for _, c := range node.Content {
			item, err := FromYAMLNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return Sequence(items...), nil
	case yaml.MappingNode:
		m := Mapping()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, apperrors.NewWithContext(apperrors.ErrCodeConfig,
					"non-scalar mapping key", map[string]any{"line": keyNode.Line})
			}
			key := keyNode.Value
			if _, exists := m.Get(key); exists {
				return nil, apperrors.NewWithContext(apperrors.ErrCodeConfig,
					"duplicate mapping key", map[string]any{"key": key, "line": keyNode.Line})
			}
			child, err := FromYAMLNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(key, child)
		}
		return m, nil
	default:
		return nil, apperrors.NewWithContext(apperrors.ErrCodeConfig,
			"unsupported YAML node", map[string]any{"kind": int(node.Kind), "line": node.Line})
	}
}

func scalarFromNode(node *yaml.Node) (*Value, error) {
	switch node.Tag {
	case "!!null":
		return Scalar(nil), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeConfig, "invalid boolean scalar", err)
		}
		return Scalar(b), nil
	case "!!int":
		var n int64
		if err := node.Decode(&n); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeConfig, "invalid integer scalar", err)
		}
		return Scalar(n), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeConfig, "invalid float scalar", err)
		}
		return Scalar(f), nil
	default:
		return Scalar(node.Value), nil
	}
}

// ToYAMLNode converts the tree back into a yaml.Node, preserving mapping
// key order so repeated serializations are byte-identical.
func (v *Value) ToYAMLNode() (*yaml.Node, error) {
	if v == nil {
		return nullNode(), nil
	}
	switch v.kind {
	case KindScalar:
		if v.scalar == nil {
			return nullNode(), nil
		}
		n := &yaml.Node{}
		if err := n.Encode(v.scalar); err != nil {
			return nil, fmt.Errorf("encoding scalar: %w", err)
		}
		return n, nil
	case KindSequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.seq {
			c, err := item.ToYAMLNode()
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	case KindMapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range v.keys {
			c, err := v.children[key].ToYAMLNode()
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, c)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unknown parameter kind %d", int(v.kind))
	}
}

// ToYAML serializes the tree as a YAML document with two-space indentation.
func (v *Value) ToYAML() ([]byte, error) {
	node, err := v.ToYAMLNode()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("encoding parameter tree: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalYAML implements yaml.Marshaler.
func (v *Value) MarshalYAML() (any, error) {
	return v.ToYAMLNode()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := FromYAMLNode(node)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}

// MarshalJSON implements json.Marshaler with mapping keys emitted in
// insertion order.
func (v *Value) MarshalJSON() ([]byte, error) {
	return marshalJSON(v)
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}
