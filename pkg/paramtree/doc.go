// Package paramtree implements the tagged parameter value tree used by
// inventory resolution.
//
// A Value is a scalar, an ordered sequence, or a key-ordered mapping. The
// Merge function is total over every kind pair: merging a mapping into a
// scalar (or vice versa) is a defined configuration error rather than
// undefined behavior. Sequences are replaced wholesale by a more specific
// hierarchy level unless the overlay key carries the "~append" marker.
//
// Mappings preserve key insertion order, so serializing a resolved tree is
// byte-deterministic for identical inputs.
package paramtree
