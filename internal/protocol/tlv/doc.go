// Package tlv owns the Matter-style tag-length-value wire primitives.
//
// Ownership boundary:
// - tag model (anonymous, context-specific, profile forms)
// - primitive element encode/decode
// - structure/array/list framing with a bounded container stack
// - one-pass Writer and Reader sessions
//
// Every element starts with a control byte: tag control in the upper three
// bits, element type in the lower five. Multi-byte quantities are
// little-endian. Sessions are single-threaded and single-use; a failed pass
// leaves nothing worth keeping.
package tlv
