package schema

import "github.com/danmuck/tlvcodec/internal/protocol/tlv"

// Codec encodes and decodes one value kind under a caller-chosen tag.
type Codec[V any] interface {
	Encode(w *tlv.Writer, tag tlv.Tag, v V) error
	Decode(r *tlv.Reader, tag tlv.Tag) (V, error)
	// ElementKind is the wire class this codec produces.
	ElementKind() tlv.Class
}

type funcCodec[V any] struct {
	kind tlv.Class
	enc  func(*tlv.Writer, tlv.Tag, V) error
	dec  func(*tlv.Reader, tlv.Tag) (V, error)
}

func (c funcCodec[V]) Encode(w *tlv.Writer, tag tlv.Tag, v V) error { return c.enc(w, tag, v) }
func (c funcCodec[V]) Decode(r *tlv.Reader, tag tlv.Tag) (V, error) { return c.dec(r, tag) }
func (c funcCodec[V]) ElementKind() tlv.Class                       { return c.kind }

func signed[V ~int8 | ~int16 | ~int32 | ~int64](get func(*tlv.Reader, tlv.Tag) (V, error)) Codec[V] {
	return funcCodec[V]{
		kind: tlv.ClassSignedInt,
		enc:  func(w *tlv.Writer, tag tlv.Tag, v V) error { return w.PutInt(tag, int64(v)) },
		dec:  get,
	}
}

func unsigned[V ~uint8 | ~uint16 | ~uint32 | ~uint64](get func(*tlv.Reader, tlv.Tag) (V, error)) Codec[V] {
	return funcCodec[V]{
		kind: tlv.ClassUnsignedInt,
		enc:  func(w *tlv.Writer, tag tlv.Tag, v V) error { return w.PutUint(tag, uint64(v)) },
		dec:  get,
	}
}

// Built-in primitive codecs.
var (
	Bool Codec[bool] = funcCodec[bool]{
		kind: tlv.ClassBool,
		enc:  (*tlv.Writer).PutBool,
		dec:  (*tlv.Reader).GetBool,
	}

	Int8  = signed((*tlv.Reader).GetInt8)
	Int16 = signed((*tlv.Reader).GetInt16)
	Int32 = signed((*tlv.Reader).GetInt32)
	Int64 = signed((*tlv.Reader).GetInt64)

	Uint8  = unsigned((*tlv.Reader).GetUint8)
	Uint16 = unsigned((*tlv.Reader).GetUint16)
	Uint32 = unsigned((*tlv.Reader).GetUint32)
	Uint64 = unsigned((*tlv.Reader).GetUint64)

	Float32 Codec[float32] = funcCodec[float32]{
		kind: tlv.ClassFloat,
		enc:  (*tlv.Writer).PutFloat32,
		dec:  (*tlv.Reader).GetFloat32,
	}
	Float64 Codec[float64] = funcCodec[float64]{
		kind: tlv.ClassFloat,
		enc:  (*tlv.Writer).PutFloat64,
		dec:  (*tlv.Reader).GetFloat64,
	}

	String Codec[string] = funcCodec[string]{
		kind: tlv.ClassString,
		enc:  (*tlv.Writer).PutString,
		dec:  (*tlv.Reader).GetString,
	}
	Bytes Codec[[]byte] = funcCodec[[]byte]{
		kind: tlv.ClassBytes,
		enc:  (*tlv.Writer).PutBytes,
		dec:  (*tlv.Reader).GetBytes,
	}
)

// Enum8 carries an 8-bit enumeration or bitmap as an unsigned integer.
func Enum8[E ~uint8]() Codec[E] {
	return unsigned(func(r *tlv.Reader, tag tlv.Tag) (E, error) {
		v, err := r.GetUint8(tag)
		return E(v), err
	})
}

// Enum16 carries a 16-bit enumeration or bitmap as an unsigned integer.
func Enum16[E ~uint16]() Codec[E] {
	return unsigned(func(r *tlv.Reader, tag tlv.Tag) (E, error) {
		v, err := r.GetUint16(tag)
		return E(v), err
	})
}

type nullable[V any] struct {
	inner Codec[V]
}

// Nullable maps nil to a TLV null and any other pointer to inner's encoding.
func Nullable[V any](inner Codec[V]) Codec[*V] {
	return nullable[V]{inner: inner}
}

func (c nullable[V]) Encode(w *tlv.Writer, tag tlv.Tag, v *V) error {
	if v == nil {
		return w.PutNull(tag)
	}
	return c.inner.Encode(w, tag, *v)
}

func (c nullable[V]) Decode(r *tlv.Reader, tag tlv.Tag) (*V, error) {
	isNull, err := r.IsNull()
	if err != nil {
		return nil, err
	}
	if isNull {
		return nil, r.GetNull(tag)
	}
	v, err := c.inner.Decode(r, tag)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (c nullable[V]) ElementKind() tlv.Class { return c.inner.ElementKind() }

type arrayOf[V any] struct {
	elem Codec[V]
}

// ArrayOf encodes a slice as a TLV array of anonymous elements, preserving
// order. Decoding always yields a non-nil slice: a nil slice encodes as an
// empty array and comes back as an empty, non-nil one, so reflect.DeepEqual
// against the original fails. Compare lengths and elements instead.
func ArrayOf[V any](elem Codec[V]) Codec[[]V] {
	return arrayOf[V]{elem: elem}
}

func (c arrayOf[V]) Encode(w *tlv.Writer, tag tlv.Tag, vs []V) error {
	if err := w.StartArray(tag); err != nil {
		return err
	}
	for _, v := range vs {
		if err := c.elem.Encode(w, tlv.Anonymous(), v); err != nil {
			return err
		}
	}
	return w.EndContainer()
}

func (c arrayOf[V]) Decode(r *tlv.Reader, tag tlv.Tag) ([]V, error) {
	if err := r.EnterArray(tag); err != nil {
		return nil, err
	}
	out := make([]V, 0)
	for {
		end, err := r.IsEndOfContainer()
		if err != nil {
			return nil, err
		}
		if end {
			break
		}
		v, err := c.elem.Decode(r, tlv.Anonymous())
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := r.ExitContainer(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c arrayOf[V]) ElementKind() tlv.Class { return tlv.ClassArray }

// ListOf carries a heterogeneous TLV list as generic elements.
var ListOf Codec[[]tlv.Element] = funcCodec[[]tlv.Element]{
	kind: tlv.ClassList,
	enc: func(w *tlv.Writer, tag tlv.Tag, es []tlv.Element) error {
		if err := w.StartList(tag); err != nil {
			return err
		}
		for _, e := range es {
			if err := tlv.WriteElement(w, e); err != nil {
				return err
			}
		}
		return w.EndContainer()
	},
	dec: func(r *tlv.Reader, tag tlv.Tag) ([]tlv.Element, error) {
		if err := r.EnterList(tag); err != nil {
			return nil, err
		}
		out := make([]tlv.Element, 0)
		for {
			end, err := r.IsEndOfContainer()
			if err != nil {
				return nil, err
			}
			if end {
				break
			}
			e, err := tlv.ReadElement(r)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		if err := r.ExitContainer(); err != nil {
			return nil, err
		}
		return out, nil
	},
}
