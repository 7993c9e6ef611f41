/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package server

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// contextKeyRequestID is the context key for request ID
	contextKeyRequestID contextKey = "requestID"
)
