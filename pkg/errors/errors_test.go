/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestStructuredError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *StructuredError
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeConfig, "class not found"),
			want: "[CONFIG_ERROR] class not found",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeFetch, "clone failed", stderrors.New("connection reset")),
			want: "[FETCH_ERROR] clone failed: connection reset",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStructuredError_Unwrap(t *testing.T) {
	cause := stderrors.New("remote hung up")
	err := Wrap(ErrCodeCatalog, "push failed", cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}

	wrapped := fmt.Errorf("compile run aborted: %w", err)
	var se *StructuredError
	if !stderrors.As(wrapped, &se) {
		t.Fatal("StructuredError not reachable via errors.As")
	}
	if se.Code != ErrCodeCatalog {
		t.Errorf("code = %s, want %s", se.Code, ErrCodeCatalog)
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(ErrCodeRender, "template error")); got != ErrCodeRender {
		t.Errorf("CodeOf = %s, want %s", got, ErrCodeRender)
	}
	if got := CodeOf(stderrors.New("plain")); got != ErrCodeInternal {
		t.Errorf("CodeOf(plain) = %s, want %s", got, ErrCodeInternal)
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(ErrCodeConfig, "bad merge"))
	if !IsCode(err, ErrCodeConfig) {
		t.Error("IsCode should match through wrapping")
	}
	if IsCode(err, ErrCodeFetch) {
		t.Error("IsCode matched wrong code")
	}
}

func TestNewWithContext(t *testing.T) {
	err := NewWithContext(ErrCodeFetch, "revision not found", map[string]any{
		"component": "argocd",
		"revision":  "v1.2.3",
	})
	if err.Context["component"] != "argocd" {
		t.Error("context not retained")
	}
}
