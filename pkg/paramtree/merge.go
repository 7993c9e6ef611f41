/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package paramtree

import (
	"strings"

	apperrors "github.com/mweibel/commodore/pkg/errors"
)

// AppendSuffix marks a mapping key whose sequence value is appended to the
// base sequence instead of replacing it.
const AppendSuffix = "~append"

// Merge deep-merges overlay into base and returns a new tree; neither input
// is mutated. Later (more specific) levels call Merge with their class as
// the overlay.
//
// Rules per kind pair:
//   - mapping + mapping: merged per key, recursively.
//   - sequence + sequence: overlay replaces base, unless the overlay key
//     carried AppendSuffix, in which case items are concatenated.
//   - scalar + scalar: overlay wins.
//   - a null overlay replaces any base, and any overlay replaces a null
//     base (explicit null override).
//   - any other pairing is a configuration error.
func Merge(base, overlay *Value) (*Value, error) {
	return merge(base, overlay, "")
}

func merge(base, overlay *Value, path string) (*Value, error) {
	if base == nil {
		return overlay.Clone(), nil
	}
	if overlay == nil {
		return base.Clone(), nil
	}

	// Explicit null override in either direction.
	if overlay.IsNull() || base.IsNull() {
		return overlay.Clone(), nil
	}

	if base.kind != overlay.kind {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeConfig,
			"parameter merge kind mismatch", map[string]any{
				"path":    displayPath(path),
				"base":    base.kind.String(),
				"overlay": overlay.kind.String(),
			})
	}

	switch base.kind {
	case KindScalar, KindSequence:
		return overlay.Clone(), nil
	case KindMapping:
		return mergeMapping(base, overlay, path)
	default:
		return nil, apperrors.New(apperrors.ErrCodeConfig, "unknown parameter kind")
	}
}

func mergeMapping(base, overlay *Value, path string) (*Value, error) {
	out := base.Clone()

	for _, key := range overlay.keys {
		oval := overlay.children[key]

		if appendKey, ok := strings.CutSuffix(key, AppendSuffix); ok {
			if err := mergeAppend(out, overlay, appendKey, path); err != nil {
				return nil, err
			}
			continue
		}

		bval, exists := out.children[key]
		if !exists {
			out.Set(key, oval.Clone())
			continue
		}
		merged, err := merge(bval, oval, childPath(path, key))
		if err != nil {
			return nil, err
		}
		out.Set(key, merged)
	}

	return out, nil
}

// mergeAppend handles an overlay key carrying AppendSuffix: the overlay
// sequence is appended to the base sequence stored under the plain key.
func mergeAppend(out, overlay *Value, key, path string) error {
	oval := overlay.children[key+AppendSuffix]
	p := childPath(path, key)

	if _, both := overlay.children[key]; both {
		return apperrors.NewWithContext(apperrors.ErrCodeConfig,
			"parameter defined both plain and additive", map[string]any{
				"path": displayPath(p),
			})
	}
	if oval.kind != KindSequence {
		return apperrors.NewWithContext(apperrors.ErrCodeConfig,
			"additive parameter must be a sequence", map[string]any{
				"path": displayPath(p),
				"kind": oval.kind.String(),
			})
	}

	bval, exists := out.children[key]
	if !exists {
		out.Set(key, oval.Clone())
		return nil
	}
	if bval.kind != KindSequence {
		return apperrors.NewWithContext(apperrors.ErrCodeConfig,
			"cannot append to non-sequence parameter", map[string]any{
				"path": displayPath(p),
				"base": bval.kind.String(),
			})
	}

	merged := bval.Clone()
	merged.Append(oval.Clone().Items()...)
	out.Set(key, merged)
	return nil
}

func childPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func displayPath(path string) string {
	if path == "" {
		return "."
	}
	return path
}
