/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package serializer

import "context"

// Serializer writes structured data to some destination.
//
// The context parameter is used for cancellation and timeouts, relevant for
// implementations that perform network or file I/O.
type Serializer interface {
	Serialize(ctx context.Context, data any) error
}

// Closer is an optional interface Serializers implement when they hold
// resources such as file handles.
type Closer interface {
	Close() error
}
