// Package schema maps Go structures onto TLV structures.
//
// Ownership boundary:
// - declares per-type field tables (tag, name, codec, optionality)
// - encodes members in ascending tag order, omitting absent optionals
// - decodes members in any order, skipping unknown tags and rejecting
//   duplicates or missing mandatory members
//
// It does not know any application semantics; see internal/clusters.
package schema
