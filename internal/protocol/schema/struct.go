package schema

import (
	"fmt"
	"sort"

	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
	"github.com/rs/zerolog/log"
)

// Field binds one context tag of a structure to a member of T.
type Field[T any] struct {
	Tag      uint8
	Name     string
	Optional bool

	encode func(w *tlv.Writer, v *T) error
	decode func(r *tlv.Reader, v *T) error
	value  func(v *T) (any, bool)
}

// Required declares a mandatory field. get returns the member's address.
func Required[T, V any](tag uint8, name string, codec Codec[V], get func(*T) *V) Field[T] {
	ctx := tlv.ContextTag(tag)
	return Field[T]{
		Tag:  tag,
		Name: name,
		encode: func(w *tlv.Writer, v *T) error {
			return codec.Encode(w, ctx, *get(v))
		},
		decode: func(r *tlv.Reader, v *T) error {
			x, err := codec.Decode(r, ctx)
			if err != nil {
				return err
			}
			*get(v) = x
			return nil
		},
		value: func(v *T) (any, bool) { return *get(v), true },
	}
}

// Optional declares a field that may be absent. The member is a pointer;
// nil means absent and is not written.
func Optional[T, V any](tag uint8, name string, codec Codec[V], get func(*T) **V) Field[T] {
	ctx := tlv.ContextTag(tag)
	return Field[T]{
		Tag:      tag,
		Name:     name,
		Optional: true,
		encode: func(w *tlv.Writer, v *T) error {
			p := *get(v)
			if p == nil {
				return nil
			}
			return codec.Encode(w, ctx, *p)
		},
		decode: func(r *tlv.Reader, v *T) error {
			x, err := codec.Decode(r, ctx)
			if err != nil {
				return err
			}
			*get(v) = &x
			return nil
		},
		value: func(v *T) (any, bool) {
			p := *get(v)
			if p == nil {
				return nil, false
			}
			return *p, true
		},
	}
}

// Struct is the structure codec for T: fields are written in ascending tag
// order and read in any order.
type Struct[T any] struct {
	name   string
	fields []Field[T]
	byTag  map[uint8]int
}

// NewStruct validates the field set and returns its codec.
func NewStruct[T any](name string, fields ...Field[T]) (*Struct[T], error) {
	sorted := make([]Field[T], len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Tag < sorted[j].Tag })

	byTag := make(map[uint8]int, len(sorted))
	names := make(map[string]struct{}, len(sorted))
	for i, f := range sorted {
		if f.encode == nil || f.decode == nil {
			return nil, ValidationError{Struct: name, Tag: f.Tag, Reason: "field not declared with Required or Optional"}
		}
		if _, dup := byTag[f.Tag]; dup {
			return nil, ValidationError{Struct: name, Tag: f.Tag, Reason: "tag collision"}
		}
		if _, dup := names[f.Name]; dup || f.Name == "" {
			return nil, ValidationError{Struct: name, Tag: f.Tag, Reason: fmt.Sprintf("invalid or repeated field name %q", f.Name)}
		}
		byTag[f.Tag] = i
		names[f.Name] = struct{}{}
	}
	return &Struct[T]{name: name, fields: sorted, byTag: byTag}, nil
}

// MustStruct is NewStruct for package-level declarations.
func MustStruct[T any](name string, fields ...Field[T]) *Struct[T] {
	s, err := NewStruct(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Struct[T]) Name() string           { return s.name }
func (s *Struct[T]) ElementKind() tlv.Class { return tlv.ClassStructure }

// Fields returns the fields in encode order.
func (s *Struct[T]) Fields() []Field[T] {
	out := make([]Field[T], len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *Struct[T]) fieldError(f *Field[T], offset int, err error) error {
	return &FieldError{Struct: s.name, Field: f.Name, Tag: f.Tag, Offset: offset, Err: err}
}

// Encode writes v as a structure tagged tag.
func (s *Struct[T]) Encode(w *tlv.Writer, tag tlv.Tag, v T) error {
	if err := w.StartStructure(tag); err != nil {
		return err
	}
	for i := range s.fields {
		f := &s.fields[i]
		off := w.Len()
		if err := f.encode(w, &v); err != nil {
			return s.fieldError(f, off, err)
		}
	}
	return w.EndContainer()
}

// Decode reads a structure tagged tag. Unknown members are skipped, a
// repeated member is rejected, and every mandatory member must appear.
// On failure the zero T is returned.
func (s *Struct[T]) Decode(r *tlv.Reader, tag tlv.Tag) (T, error) {
	var zero, out T
	if err := r.EnterStructure(tag); err != nil {
		return zero, err
	}
	seen := make([]bool, len(s.fields))
	for {
		h, err := r.Peek()
		if err != nil {
			return zero, err
		}
		if h.Type == tlv.TypeEndOfContainer {
			break
		}
		idx, known := -1, false
		if h.Tag.IsContext() {
			idx, known = s.byTag[uint8(h.Tag.Number())]
		}
		if !known {
			log.Debug().
				Str("struct", s.name).
				Str("tag", h.Tag.String()).
				Int("offset", h.Offset).
				Msg("schema: skipping unknown member")
			if err := r.Skip(); err != nil {
				return zero, err
			}
			continue
		}
		f := &s.fields[idx]
		if seen[idx] {
			return zero, s.fieldError(f, h.Offset, tlv.ErrDuplicateField)
		}
		if err := f.decode(r, &out); err != nil {
			return zero, s.fieldError(f, h.Offset, err)
		}
		seen[idx] = true
	}
	for i := range s.fields {
		f := &s.fields[i]
		if !f.Optional && !seen[i] {
			log.Debug().
				Str("struct", s.name).
				Str("field", f.Name).
				Int("offset", r.Offset()).
				Msg("schema: mandatory member missing")
			return zero, s.fieldError(f, r.Offset(), tlv.ErrMissingField)
		}
	}
	if err := r.ExitContainer(); err != nil {
		return zero, err
	}
	return out, nil
}
