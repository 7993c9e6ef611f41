/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package oci

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"

	apperrors "github.com/mweibel/commodore/pkg/errors"
)

// URIScheme is the URI scheme for OCI registry targets
// (e.g., "oci://ghcr.io/org/catalog:tag").
const URIScheme = "oci://"

// Reference is a parsed catalog export target: either an OCI registry
// reference or a local directory path.
type Reference struct {
	// IsOCI indicates whether this is an OCI registry reference (true) or
	// a local path (false).
	IsOCI bool
	// Registry is the OCI registry host (e.g., "ghcr.io",
	// "localhost:5000"). Only populated when IsOCI is true.
	Registry string
	// Repository is the image repository path (e.g., "org/catalogs").
	// Only populated when IsOCI is true.
	Repository string
	// Tag is the image tag. Empty means no tag was specified; the caller
	// applies a default. Only populated when IsOCI is true.
	Tag string
	// LocalPath is the local directory path for non-OCI targets.
	LocalPath string
}

// ParseOutputTarget parses an export target string. OCI URIs
// (oci://registry/repository:tag) are split into their components; plain
// strings are treated as local directories.
func ParseOutputTarget(target string) (*Reference, error) {
	if !strings.HasPrefix(target, URIScheme) {
		return &Reference{
			IsOCI:     false,
			LocalPath: target,
		}, nil
	}

	ref, err := reference.ParseNormalizedNamed(strings.TrimPrefix(target, URIScheme))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid OCI reference", err)
	}

	var tag string
	if tagged, ok := ref.(reference.Tagged); ok {
		tag = tagged.Tag()
	}

	return &Reference{
		IsOCI:      true,
		Registry:   reference.Domain(ref),
		Repository: reference.Path(ref),
		Tag:        tag,
	}, nil
}

// String returns the full reference string: "oci://registry/repository:tag"
// for OCI references, the local path otherwise.
func (r *Reference) String() string {
	if !r.IsOCI {
		return r.LocalPath
	}
	if r.Tag == "" {
		return fmt.Sprintf("%s%s/%s", URIScheme, r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s%s/%s:%s", URIScheme, r.Registry, r.Repository, r.Tag)
}

// ImageReference returns the Docker-style image reference without the
// oci:// scheme. Returns empty string for non-OCI references.
func (r *Reference) ImageReference() string {
	if !r.IsOCI {
		return ""
	}
	if r.Tag == "" {
		return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// WithTag returns a copy of the reference with the given tag. Non-OCI
// references are returned unchanged.
func (r *Reference) WithTag(tag string) *Reference {
	if !r.IsOCI {
		return r
	}
	return &Reference{
		IsOCI:      true,
		Registry:   r.Registry,
		Repository: r.Repository,
		Tag:        tag,
	}
}
