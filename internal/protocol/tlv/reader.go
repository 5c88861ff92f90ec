package tlv

import (
	"math"
	"unicode/utf8"
)

// Header is the parsed control byte and tag of the next element.
type Header struct {
	Tag    Tag
	Type   ElementType
	Offset int

	size int
}

// Reader decodes elements from a caller-owned buffer. A Reader serves one
// decode pass; after any error it must be discarded.
type Reader struct {
	data   []byte
	pos    int
	stack  []container
	limits Limits
}

// NewReader returns a reader positioned at the start of data.
func NewReader(data []byte, limits Limits) *Reader {
	return &Reader{data: data, limits: limits.normalize()}
}

func (r *Reader) Offset() int    { return r.pos }
func (r *Reader) Remaining() int { return len(r.data) - r.pos }
func (r *Reader) Depth() int     { return len(r.stack) }

// AtEnd reports whether every input byte has been consumed.
func (r *Reader) AtEnd() bool { return r.pos >= len(r.data) }

// Finish fails if containers entered during the pass were never exited.
func (r *Reader) Finish() error {
	if n := len(r.stack); n != 0 {
		return newError(KindUnbalancedContainer, "Finish", r.pos, "%d container(s) left open", n)
	}
	return nil
}

// Complete is Finish plus a check that every input byte was consumed.
func (r *Reader) Complete() error {
	if err := r.Finish(); err != nil {
		return err
	}
	if !r.AtEnd() {
		return newError(KindInvalidLength, "Complete", r.pos, "%d trailing byte(s)", r.Remaining())
	}
	return nil
}

// peekAt parses the header at off without consuming it.
func (r *Reader) peekAt(op string, off int) (Header, error) {
	if off >= len(r.data) {
		return Header{}, newError(KindTruncatedInput, op, off, "expected element, input exhausted")
	}
	c := r.data[off]
	typ := ElementType(c & typeMask)
	control := c & tagControlMask
	if !typ.Valid() {
		return Header{}, newError(KindInvalidEncoding, op, off, "reserved element type 0x%02x", byte(typ))
	}
	if typ == TypeEndOfContainer && control != tagControlAnonymous {
		return Header{}, newError(KindInvalidEncoding, op, off, "end of container carries a tag")
	}
	n := tagLen(control)
	if off+1+n > len(r.data) {
		return Header{}, newError(KindTruncatedInput, op, off, "tag needs %d bytes", n)
	}
	return Header{
		Tag:    decodeTag(control, r.data[off+1:off+1+n]),
		Type:   typ,
		Offset: off,
		size:   1 + n,
	}, nil
}

// Peek returns the next element header without consuming it. It checks the
// element's tag against the enclosing container.
func (r *Reader) Peek() (Header, error) {
	h, err := r.peekAt("Peek", r.pos)
	if err != nil {
		return Header{}, err
	}
	if err := r.checkPlacement("Peek", h); err != nil {
		return Header{}, err
	}
	return h, nil
}

// IsEndOfContainer reports whether the next byte closes the current container.
func (r *Reader) IsEndOfContainer() (bool, error) {
	h, err := r.peekAt("IsEndOfContainer", r.pos)
	if err != nil {
		return false, err
	}
	return h.Type == TypeEndOfContainer, nil
}

// IsNull reports whether the next element is a null.
func (r *Reader) IsNull() (bool, error) {
	h, err := r.peekAt("IsNull", r.pos)
	if err != nil {
		return false, err
	}
	return h.Type == TypeNull, nil
}

func (r *Reader) checkPlacement(op string, h Header) error {
	n := len(r.stack)
	if n == 0 || h.Type == TypeEndOfContainer {
		return nil
	}
	top := r.stack[n-1]
	if top.typ == TypeStructure && h.Tag.IsAnonymous() {
		return newTagError(KindTagMismatch, op, h.Tag, h.Offset, "anonymous element inside structure")
	}
	if top.typ != TypeStructure && !h.Tag.IsAnonymous() {
		return newTagError(KindTagMismatch, op, h.Tag, h.Offset, "tagged element inside %s", top.typ)
	}
	return nil
}

// next returns the header of the next element, which must carry tag.
func (r *Reader) next(op string, tag Tag) (Header, error) {
	h, err := r.peekAt(op, r.pos)
	if err != nil {
		return Header{}, err
	}
	if h.Type == TypeEndOfContainer {
		return Header{}, newTagError(KindTagMismatch, op, tag, h.Offset, "found end of container")
	}
	if err := r.checkPlacement(op, h); err != nil {
		return Header{}, err
	}
	if h.Tag != tag {
		return Header{}, newTagError(KindTagMismatch, op, tag, h.Offset, "found tag %s", h.Tag)
	}
	return h, nil
}

// span locates the payload of a primitive element.
func (r *Reader) span(op string, h Header) (start, end int, err error) {
	start = h.Offset + h.size
	if w := h.Type.fixedWidth(); w > 0 {
		end = start + w
		if end > len(r.data) {
			return 0, 0, newTagError(KindTruncatedInput, op, h.Tag, h.Offset, "%s needs %d bytes", h.Type, w)
		}
		return start, end, nil
	}
	lw := h.Type.lengthWidth()
	if lw == 0 {
		return start, start, nil
	}
	if start+lw > len(r.data) {
		return 0, 0, newTagError(KindTruncatedInput, op, h.Tag, h.Offset, "length prefix needs %d bytes", lw)
	}
	n := uintLE(r.data[start : start+lw])
	start += lw
	if n > r.limits.MaxStringLength {
		return 0, 0, newTagError(KindInvalidLength, op, h.Tag, h.Offset,
			"length %d exceeds limit %d", n, r.limits.MaxStringLength)
	}
	if n > uint64(len(r.data)-start) {
		return 0, 0, newTagError(KindInvalidLength, op, h.Tag, h.Offset,
			"length %d exceeds remaining %d bytes", n, len(r.data)-start)
	}
	return start, start + int(n), nil
}

// commit consumes an element ending at end and records it in its container.
func (r *Reader) commit(op string, h Header, end int) error {
	if n := len(r.stack); n > 0 {
		top := &r.stack[n-1]
		if top.typ == TypeArray {
			class := h.Type.Class()
			if top.count > 0 && class != ClassNull && top.elemClass != ClassNull && class != top.elemClass {
				return newTagError(KindTypeMismatch, op, h.Tag, h.Offset,
					"array holds %s, found %s", top.elemClass, class)
			}
			if top.elemClass == ClassNull || top.count == 0 {
				top.elemClass = class
			}
		}
		top.count++
	}
	r.pos = end
	return nil
}

func (r *Reader) mismatch(op string, h Header, want string) error {
	return newTagError(KindTypeMismatch, op, h.Tag, h.Offset, "found %s, want %s", h.Type, want)
}

// GetBool reads a boolean tagged tag.
func (r *Reader) GetBool(tag Tag) (bool, error) {
	const op = "GetBool"
	h, err := r.next(op, tag)
	if err != nil {
		return false, err
	}
	if h.Type.Class() != ClassBool {
		return false, r.mismatch(op, h, "boolean")
	}
	if err := r.commit(op, h, h.Offset+h.size); err != nil {
		return false, err
	}
	return h.Type == TypeTrue, nil
}

func (r *Reader) getUint(op string, tag Tag, max uint64) (uint64, error) {
	h, err := r.next(op, tag)
	if err != nil {
		return 0, err
	}
	if h.Type.Class() != ClassUnsignedInt {
		return 0, r.mismatch(op, h, "unsigned integer")
	}
	start, end, err := r.span(op, h)
	if err != nil {
		return 0, err
	}
	v := uintLE(r.data[start:end])
	if v > max {
		return 0, newTagError(KindTypeMismatch, op, tag, h.Offset, "value %d overflows %d", v, max)
	}
	if err := r.commit(op, h, end); err != nil {
		return 0, err
	}
	return v, nil
}

func (r *Reader) getInt(op string, tag Tag, min, max int64) (int64, error) {
	h, err := r.next(op, tag)
	if err != nil {
		return 0, err
	}
	if h.Type.Class() != ClassSignedInt {
		return 0, r.mismatch(op, h, "signed integer")
	}
	start, end, err := r.span(op, h)
	if err != nil {
		return 0, err
	}
	v := signExtend(uintLE(r.data[start:end]), end-start)
	if v < min || v > max {
		return 0, newTagError(KindTypeMismatch, op, tag, h.Offset, "value %d outside [%d, %d]", v, min, max)
	}
	if err := r.commit(op, h, end); err != nil {
		return 0, err
	}
	return v, nil
}

func (r *Reader) GetUint8(tag Tag) (uint8, error) {
	v, err := r.getUint("GetUint8", tag, math.MaxUint8)
	return uint8(v), err
}

func (r *Reader) GetUint16(tag Tag) (uint16, error) {
	v, err := r.getUint("GetUint16", tag, math.MaxUint16)
	return uint16(v), err
}

func (r *Reader) GetUint32(tag Tag) (uint32, error) {
	v, err := r.getUint("GetUint32", tag, math.MaxUint32)
	return uint32(v), err
}

func (r *Reader) GetUint64(tag Tag) (uint64, error) {
	return r.getUint("GetUint64", tag, math.MaxUint64)
}

func (r *Reader) GetInt8(tag Tag) (int8, error) {
	v, err := r.getInt("GetInt8", tag, math.MinInt8, math.MaxInt8)
	return int8(v), err
}

func (r *Reader) GetInt16(tag Tag) (int16, error) {
	v, err := r.getInt("GetInt16", tag, math.MinInt16, math.MaxInt16)
	return int16(v), err
}

func (r *Reader) GetInt32(tag Tag) (int32, error) {
	v, err := r.getInt("GetInt32", tag, math.MinInt32, math.MaxInt32)
	return int32(v), err
}

func (r *Reader) GetInt64(tag Tag) (int64, error) {
	return r.getInt("GetInt64", tag, math.MinInt64, math.MaxInt64)
}

// GetFloat32 reads a single precision float. Double precision is rejected.
func (r *Reader) GetFloat32(tag Tag) (float32, error) {
	const op = "GetFloat32"
	h, err := r.next(op, tag)
	if err != nil {
		return 0, err
	}
	if h.Type != TypeFloat32 {
		return 0, r.mismatch(op, h, "float32")
	}
	start, end, err := r.span(op, h)
	if err != nil {
		return 0, err
	}
	if err := r.commit(op, h, end); err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(uintLE(r.data[start:end]))), nil
}

// GetFloat64 reads a float of either precision.
func (r *Reader) GetFloat64(tag Tag) (float64, error) {
	const op = "GetFloat64"
	h, err := r.next(op, tag)
	if err != nil {
		return 0, err
	}
	if h.Type.Class() != ClassFloat {
		return 0, r.mismatch(op, h, "float")
	}
	start, end, err := r.span(op, h)
	if err != nil {
		return 0, err
	}
	if err := r.commit(op, h, end); err != nil {
		return 0, err
	}
	bits := uintLE(r.data[start:end])
	if h.Type == TypeFloat32 {
		return float64(math.Float32frombits(uint32(bits))), nil
	}
	return math.Float64frombits(bits), nil
}

// GetString reads a UTF-8 string.
func (r *Reader) GetString(tag Tag) (string, error) {
	const op = "GetString"
	h, err := r.next(op, tag)
	if err != nil {
		return "", err
	}
	if h.Type.Class() != ClassString {
		return "", r.mismatch(op, h, "utf-8 string")
	}
	start, end, err := r.span(op, h)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(r.data[start:end]) {
		return "", newTagError(KindInvalidEncoding, op, tag, h.Offset, "string is not valid utf-8")
	}
	if err := r.commit(op, h, end); err != nil {
		return "", err
	}
	return string(r.data[start:end]), nil
}

// GetBytes reads a byte string into a fresh slice.
func (r *Reader) GetBytes(tag Tag) ([]byte, error) {
	const op = "GetBytes"
	h, err := r.next(op, tag)
	if err != nil {
		return nil, err
	}
	if h.Type.Class() != ClassBytes {
		return nil, r.mismatch(op, h, "byte string")
	}
	start, end, err := r.span(op, h)
	if err != nil {
		return nil, err
	}
	if err := r.commit(op, h, end); err != nil {
		return nil, err
	}
	buf := make([]byte, end-start)
	copy(buf, r.data[start:end])
	return buf, nil
}

// GetNull consumes a null.
func (r *Reader) GetNull(tag Tag) error {
	const op = "GetNull"
	h, err := r.next(op, tag)
	if err != nil {
		return err
	}
	if h.Type != TypeNull {
		return r.mismatch(op, h, "null")
	}
	return r.commit(op, h, h.Offset+h.size)
}

// GetValue reads any primitive element tagged tag.
func (r *Reader) GetValue(tag Tag) (Value, error) {
	const op = "GetValue"
	h, err := r.next(op, tag)
	if err != nil {
		return Value{}, err
	}
	switch h.Type.Class() {
	case ClassBool:
		v, err := r.GetBool(tag)
		return BoolValue(v), err
	case ClassSignedInt:
		v, err := r.GetInt64(tag)
		return IntValue(v), err
	case ClassUnsignedInt:
		v, err := r.GetUint64(tag)
		return UintValue(v), err
	case ClassFloat:
		if h.Type == TypeFloat32 {
			v, err := r.GetFloat32(tag)
			return Float32Value(v), err
		}
		v, err := r.GetFloat64(tag)
		return Float64Value(v), err
	case ClassString:
		v, err := r.GetString(tag)
		return StringValue(v), err
	case ClassBytes:
		v, err := r.GetBytes(tag)
		return Value{class: ClassBytes, raw: v}, err
	case ClassNull:
		return NullValue(), r.GetNull(tag)
	default:
		return Value{}, r.mismatch(op, h, "primitive")
	}
}

func (r *Reader) EnterStructure(tag Tag) error {
	return r.enter("EnterStructure", tag, TypeStructure)
}

func (r *Reader) EnterArray(tag Tag) error {
	return r.enter("EnterArray", tag, TypeArray)
}

func (r *Reader) EnterList(tag Tag) error {
	return r.enter("EnterList", tag, TypeList)
}

func (r *Reader) enter(op string, tag Tag, typ ElementType) error {
	h, err := r.next(op, tag)
	if err != nil {
		return err
	}
	if h.Type != typ {
		return r.mismatch(op, h, typ.String())
	}
	if len(r.stack) >= r.limits.MaxDepth {
		return newTagError(KindDepthExceeded, op, tag, h.Offset, "nesting deeper than %d", r.limits.MaxDepth)
	}
	if err := r.commit(op, h, h.Offset+h.size); err != nil {
		return err
	}
	r.stack = append(r.stack, container{typ: typ})
	return nil
}

// ExitContainer consumes the end marker of the current container. Unread
// elements are an error; use SkipToEndOfContainer to discard them first.
func (r *Reader) ExitContainer() error {
	const op = "ExitContainer"
	if len(r.stack) == 0 {
		return newError(KindUnbalancedContainer, op, r.pos, "no open container")
	}
	h, err := r.peekAt(op, r.pos)
	if err != nil {
		return err
	}
	if h.Type != TypeEndOfContainer {
		return newError(KindUnbalancedContainer, op, r.pos, "found %s before end of %s",
			h.Type, r.stack[len(r.stack)-1].typ)
	}
	r.pos++
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

// Skip consumes the next element, including everything nested inside it.
func (r *Reader) Skip() error {
	const op = "Skip"
	first, err := r.peekAt(op, r.pos)
	if err != nil {
		return err
	}
	if first.Type == TypeEndOfContainer {
		return newError(KindUnbalancedContainer, op, r.pos, "nothing to skip before end of container")
	}
	if err := r.checkPlacement(op, first); err != nil {
		return err
	}
	off := r.pos
	depth := 0
	for {
		h, err := r.peekAt(op, off)
		if err != nil {
			return err
		}
		switch {
		case h.Type == TypeEndOfContainer:
			off++
			depth--
		case h.Type.IsContainer():
			if len(r.stack)+depth+1 > r.limits.MaxDepth {
				return newTagError(KindDepthExceeded, op, h.Tag, h.Offset, "nesting deeper than %d", r.limits.MaxDepth)
			}
			off += h.size
			depth++
		default:
			_, end, err := r.span(op, h)
			if err != nil {
				return err
			}
			off = end
		}
		if depth == 0 {
			break
		}
	}
	return r.commit(op, first, off)
}

// SkipToEndOfContainer discards the remaining elements of the current
// container, leaving the end marker for ExitContainer.
func (r *Reader) SkipToEndOfContainer() error {
	for {
		end, err := r.IsEndOfContainer()
		if err != nil {
			return err
		}
		if end {
			return nil
		}
		if err := r.Skip(); err != nil {
			return err
		}
	}
}
