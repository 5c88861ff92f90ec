// Package transcode renders decoded TLV element trees in other notations:
// an indented text dump, an order-preserving typed JSON form (which also
// parses back), YAML, and CBOR.
//
// Nothing here is needed to encode or decode TLV; it exists for tooling
// and debugging.
package transcode
