package tlv

import (
	"math"
	"unicode/utf8"
)

// container tracks one open container during a pass.
type container struct {
	typ       ElementType
	elemClass Class
	count     int
}

// Writer encodes elements into a growable buffer. A Writer serves one encode
// pass and is not safe for concurrent use.
type Writer struct {
	buf    []byte
	stack  []container
	limits Limits
}

// NewWriter returns an empty writer.
func NewWriter(limits Limits) *Writer {
	return &Writer{limits: limits.normalize()}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Depth returns the number of open containers.
func (w *Writer) Depth() int { return len(w.stack) }

// Bytes returns the buffer as written so far, balanced or not.
func (w *Writer) Bytes() []byte { return w.buf }

// Reset discards all output and open containers.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.stack = w.stack[:0]
}

// Finish returns the encoded bytes once every container has been closed.
func (w *Writer) Finish() ([]byte, error) {
	if n := len(w.stack); n != 0 {
		return nil, newError(KindUnbalancedContainer, "Finish", len(w.buf), "%d container(s) left open", n)
	}
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out, nil
}

// header validates tag placement and appends the control byte and tag.
// A pass holds exactly one top-level element.
func (w *Writer) header(op string, tag Tag, typ ElementType) error {
	n := len(w.stack)
	if n == 0 && len(w.buf) > 0 {
		return newTagError(KindInvalidLength, op, tag, len(w.buf), "top-level element already written")
	}
	if n > 0 {
		top := &w.stack[n-1]
		switch top.typ {
		case TypeStructure:
			if tag.IsAnonymous() {
				return newTagError(KindTagMismatch, op, tag, len(w.buf), "structure members must be tagged")
			}
		default:
			if !tag.IsAnonymous() {
				return newTagError(KindTagMismatch, op, tag, len(w.buf), "%s elements must be anonymous", top.typ)
			}
		}
		if top.typ == TypeArray {
			class := typ.Class()
			if top.count > 0 && class != ClassNull && top.elemClass != ClassNull && class != top.elemClass {
				return newTagError(KindTypeMismatch, op, tag, len(w.buf),
					"array holds %s, cannot append %s", top.elemClass, class)
			}
			if top.elemClass == ClassNull || top.count == 0 {
				top.elemClass = class
			}
		}
		top.count++
	}
	w.buf = append(w.buf, tag.control()|byte(typ))
	w.buf = tag.appendTo(w.buf)
	return nil
}

// PutBool writes a boolean.
func (w *Writer) PutBool(tag Tag, v bool) error {
	typ := TypeFalse
	if v {
		typ = TypeTrue
	}
	return w.header("PutBool", tag, typ)
}

// PutInt writes a signed integer in the narrowest width that holds v.
func (w *Writer) PutInt(tag Tag, v int64) error {
	typ := signedType(v)
	if err := w.header("PutInt", tag, typ); err != nil {
		return err
	}
	w.buf = putUintLE(w.buf, uint64(v), typ.fixedWidth())
	return nil
}

// PutUint writes an unsigned integer in the narrowest width that holds v.
func (w *Writer) PutUint(tag Tag, v uint64) error {
	typ := unsignedType(v)
	if err := w.header("PutUint", tag, typ); err != nil {
		return err
	}
	w.buf = putUintLE(w.buf, v, typ.fixedWidth())
	return nil
}

func (w *Writer) PutFloat32(tag Tag, v float32) error {
	if err := w.header("PutFloat32", tag, TypeFloat32); err != nil {
		return err
	}
	w.buf = putUintLE(w.buf, uint64(math.Float32bits(v)), 4)
	return nil
}

func (w *Writer) PutFloat64(tag Tag, v float64) error {
	if err := w.header("PutFloat64", tag, TypeFloat64); err != nil {
		return err
	}
	w.buf = putUintLE(w.buf, math.Float64bits(v), 8)
	return nil
}

// PutString writes a length-prefixed UTF-8 string.
func (w *Writer) PutString(tag Tag, v string) error {
	if !utf8.ValidString(v) {
		return newTagError(KindInvalidEncoding, "PutString", tag, len(w.buf), "string is not valid utf-8")
	}
	return w.putLengthPrefixed("PutString", tag, TypeUTF8L1, v)
}

// PutBytes writes a length-prefixed byte string.
func (w *Writer) PutBytes(tag Tag, v []byte) error {
	return w.putLengthPrefixed("PutBytes", tag, TypeBytesL1, string(v))
}

func (w *Writer) putLengthPrefixed(op string, tag Tag, base ElementType, v string) error {
	return w.putLength(op, tag, lengthType(base, uint64(len(v))), v)
}

func (w *Writer) putLength(op string, tag Tag, typ ElementType, v string) error {
	n := uint64(len(v))
	if n > w.limits.MaxStringLength {
		return newTagError(KindInvalidLength, op, tag, len(w.buf),
			"length %d exceeds limit %d", n, w.limits.MaxStringLength)
	}
	if lw := typ.lengthWidth(); lw < 8 && n>>(8*lw) != 0 {
		return newTagError(KindTypeMismatch, op, tag, len(w.buf), "length %d does not fit %s", n, typ)
	}
	if err := w.header(op, tag, typ); err != nil {
		return err
	}
	w.buf = putUintLE(w.buf, n, typ.lengthWidth())
	w.buf = append(w.buf, v...)
	return nil
}

// PutNull writes a null.
func (w *Writer) PutNull(tag Tag) error {
	return w.header("PutNull", tag, TypeNull)
}

// Put writes any primitive Value.
func (w *Writer) Put(tag Tag, v Value) error {
	switch v.class {
	case ClassBool:
		return w.PutBool(tag, v.b)
	case ClassSignedInt:
		return w.PutInt(tag, v.i)
	case ClassUnsignedInt:
		return w.PutUint(tag, v.u)
	case ClassFloat:
		if v.single {
			return w.PutFloat32(tag, float32(v.f))
		}
		return w.PutFloat64(tag, v.f)
	case ClassString:
		return w.PutString(tag, v.s)
	case ClassBytes:
		return w.PutBytes(tag, v.raw)
	case ClassNull:
		return w.PutNull(tag)
	default:
		return newTagError(KindTypeMismatch, "Put", tag, len(w.buf), "value is %s", v.class)
	}
}

// PutTyped writes v with exactly the element type typ, keeping a width a
// peer chose even when a narrower one would do. typ must be a primitive
// type of v's class wide enough for v; anything else is a TypeMismatch.
func (w *Writer) PutTyped(tag Tag, typ ElementType, v Value) error {
	const op = "PutTyped"
	if v.class == ClassInvalid || typ.Class() != v.class {
		return newTagError(KindTypeMismatch, op, tag, len(w.buf), "%s cannot carry a %s value", typ, v.class)
	}
	tooNarrow := func() error {
		return newTagError(KindTypeMismatch, op, tag, len(w.buf), "%s does not fit %s", v, typ)
	}
	switch v.class {
	case ClassBool:
		if typ != v.wireType() {
			return newTagError(KindTypeMismatch, op, tag, len(w.buf), "%s cannot carry %s", typ, v)
		}
		return w.header(op, tag, typ)
	case ClassSignedInt:
		if signedType(v.i).fixedWidth() > typ.fixedWidth() {
			return tooNarrow()
		}
		if err := w.header(op, tag, typ); err != nil {
			return err
		}
		w.buf = putUintLE(w.buf, uint64(v.i), typ.fixedWidth())
		return nil
	case ClassUnsignedInt:
		if unsignedType(v.u).fixedWidth() > typ.fixedWidth() {
			return tooNarrow()
		}
		if err := w.header(op, tag, typ); err != nil {
			return err
		}
		w.buf = putUintLE(w.buf, v.u, typ.fixedWidth())
		return nil
	case ClassFloat:
		if v.single != (typ == TypeFloat32) {
			return newTagError(KindTypeMismatch, op, tag, len(w.buf), "%s precision differs from %s", v, typ)
		}
		if v.single {
			return w.PutFloat32(tag, float32(v.f))
		}
		return w.PutFloat64(tag, v.f)
	case ClassString:
		if !utf8.ValidString(v.s) {
			return newTagError(KindInvalidEncoding, op, tag, len(w.buf), "string is not valid utf-8")
		}
		return w.putLength(op, tag, typ, v.s)
	case ClassBytes:
		return w.putLength(op, tag, typ, string(v.raw))
	default:
		return w.PutNull(tag)
	}
}

func (w *Writer) StartStructure(tag Tag) error {
	return w.start("StartStructure", tag, TypeStructure)
}

func (w *Writer) StartArray(tag Tag) error {
	return w.start("StartArray", tag, TypeArray)
}

func (w *Writer) StartList(tag Tag) error {
	return w.start("StartList", tag, TypeList)
}

func (w *Writer) start(op string, tag Tag, typ ElementType) error {
	if len(w.stack) >= w.limits.MaxDepth {
		return newTagError(KindDepthExceeded, op, tag, len(w.buf), "nesting deeper than %d", w.limits.MaxDepth)
	}
	if err := w.header(op, tag, typ); err != nil {
		return err
	}
	w.stack = append(w.stack, container{typ: typ})
	return nil
}

// EndContainer closes the most recently opened container.
func (w *Writer) EndContainer() error {
	if len(w.stack) == 0 {
		return newError(KindUnbalancedContainer, "EndContainer", len(w.buf), "no open container")
	}
	w.stack = w.stack[:len(w.stack)-1]
	w.buf = append(w.buf, byte(TypeEndOfContainer))
	return nil
}
