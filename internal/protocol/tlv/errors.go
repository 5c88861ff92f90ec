package tlv

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes a codec failure.
type Kind string

const (
	KindTruncatedInput      Kind = "truncated_input"
	KindTagMismatch         Kind = "tag_mismatch"
	KindTypeMismatch        Kind = "type_mismatch"
	KindUnbalancedContainer Kind = "unbalanced_container"
	KindMissingField        Kind = "missing_field"
	KindInvalidLength       Kind = "invalid_length"
	KindDepthExceeded       Kind = "depth_exceeded"
	KindInvalidEncoding     Kind = "invalid_encoding"
	KindDuplicateField      Kind = "duplicate_field"
)

// Sentinels for errors.Is. Any *Error of the same Kind matches.
var (
	ErrTruncatedInput      = &Error{Kind: KindTruncatedInput}
	ErrTagMismatch         = &Error{Kind: KindTagMismatch}
	ErrTypeMismatch        = &Error{Kind: KindTypeMismatch}
	ErrUnbalancedContainer = &Error{Kind: KindUnbalancedContainer}
	ErrMissingField        = &Error{Kind: KindMissingField}
	ErrInvalidLength       = &Error{Kind: KindInvalidLength}
	ErrDepthExceeded       = &Error{Kind: KindDepthExceeded}
	ErrInvalidEncoding     = &Error{Kind: KindInvalidEncoding}
	ErrDuplicateField      = &Error{Kind: KindDuplicateField}
)

// Error is the structured failure returned by readers and writers.
type Error struct {
	Kind   Kind
	Op     string
	Tag    Tag
	Offset int
	Detail string

	tagged bool
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("tlv: ")
	b.WriteString(string(e.Kind))
	if e.Op != "" {
		fmt.Fprintf(&b, " in %s", e.Op)
	}
	if e.tagged {
		fmt.Fprintf(&b, " tag=%s", e.Tag)
	}
	if e.Op != "" {
		fmt.Fprintf(&b, " offset=%d", e.Offset)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, op string, offset int, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Offset: offset, Detail: fmt.Sprintf(format, args...)}
}

func newTagError(kind Kind, op string, tag Tag, offset int, format string, args ...any) *Error {
	e := newError(kind, op, offset, format, args...)
	e.Tag = tag
	e.tagged = true
	return e
}
