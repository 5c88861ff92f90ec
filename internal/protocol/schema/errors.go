package schema

import (
	"fmt"
	"strings"
)

// ValidationError reports a structure definition that can never encode
// correctly, such as two fields sharing a tag.
type ValidationError struct {
	Struct string
	Tag    uint8
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("schema: struct=%s tag=%d: %s", e.Struct, e.Tag, e.Reason)
}

// FieldError attaches structure and field context to a codec failure.
// Err is usually a *tlv.Error, so errors.Is against tlv sentinels holds.
type FieldError struct {
	Struct string
	Field  string
	Tag    uint8
	Offset int
	Err    error
}

func (e *FieldError) Error() string {
	inner := strings.TrimPrefix(e.Err.Error(), "schema: ")
	return fmt.Sprintf("schema: %s.%s (tag %d): %s", e.Struct, e.Field, e.Tag, inner)
}

func (e *FieldError) Unwrap() error { return e.Err }
