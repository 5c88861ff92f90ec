package tlv

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Value is a decoded primitive: boolean, signed or unsigned integer, float,
// UTF-8 string, byte string or null. The zero Value is invalid.
type Value struct {
	class  Class
	b      bool
	i      int64
	u      uint64
	f      float64
	single bool
	s      string
	raw    []byte
}

func BoolValue(v bool) Value       { return Value{class: ClassBool, b: v} }
func IntValue(v int64) Value       { return Value{class: ClassSignedInt, i: v} }
func UintValue(v uint64) Value     { return Value{class: ClassUnsignedInt, u: v} }
func Float64Value(v float64) Value { return Value{class: ClassFloat, f: v} }
func StringValue(v string) Value   { return Value{class: ClassString, s: v} }
func NullValue() Value             { return Value{class: ClassNull} }

// Float32Value keeps single precision on re-encode.
func Float32Value(v float32) Value {
	return Value{class: ClassFloat, f: float64(v), single: true}
}

// BytesValue copies v.
func BytesValue(v []byte) Value {
	buf := make([]byte, len(v))
	copy(buf, v)
	return Value{class: ClassBytes, raw: buf}
}

// Class returns the kind of primitive held.
func (v Value) Class() Class { return v.class }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.class == ClassNull }

// IsSingle reports whether a float value was single precision.
func (v Value) IsSingle() bool { return v.class == ClassFloat && v.single }

func (v Value) mismatch(want Class) error {
	return &Error{Kind: KindTypeMismatch, Detail: fmt.Sprintf("value is %s, not %s", v.class, want)}
}

// Bool returns the value as bool.
func (v Value) Bool() (bool, error) {
	if v.class != ClassBool {
		return false, v.mismatch(ClassBool)
	}
	return v.b, nil
}

// Int returns the value as int64.
func (v Value) Int() (int64, error) {
	if v.class != ClassSignedInt {
		return 0, v.mismatch(ClassSignedInt)
	}
	return v.i, nil
}

// Uint returns the value as uint64.
func (v Value) Uint() (uint64, error) {
	if v.class != ClassUnsignedInt {
		return 0, v.mismatch(ClassUnsignedInt)
	}
	return v.u, nil
}

// Float returns the value as float64.
func (v Value) Float() (float64, error) {
	if v.class != ClassFloat {
		return 0, v.mismatch(ClassFloat)
	}
	return v.f, nil
}

// Text returns the value as string.
func (v Value) Text() (string, error) {
	if v.class != ClassString {
		return "", v.mismatch(ClassString)
	}
	return v.s, nil
}

// Bytes returns a copy of the value as bytes.
func (v Value) Bytes() ([]byte, error) {
	if v.class != ClassBytes {
		return nil, v.mismatch(ClassBytes)
	}
	buf := make([]byte, len(v.raw))
	copy(buf, v.raw)
	return buf, nil
}

// Equal compares class and payload. Floats compare bitwise so NaN equals NaN.
func (v Value) Equal(o Value) bool {
	if v.class != o.class {
		return false
	}
	switch v.class {
	case ClassBool:
		return v.b == o.b
	case ClassSignedInt:
		return v.i == o.i
	case ClassUnsignedInt:
		return v.u == o.u
	case ClassFloat:
		return v.single == o.single && math.Float64bits(v.f) == math.Float64bits(o.f)
	case ClassString:
		return v.s == o.s
	case ClassBytes:
		return bytes.Equal(v.raw, o.raw)
	default:
		return true
	}
}

// Interface returns the payload as a plain Go value (nil for null).
func (v Value) Interface() any {
	switch v.class {
	case ClassBool:
		return v.b
	case ClassSignedInt:
		return v.i
	case ClassUnsignedInt:
		return v.u
	case ClassFloat:
		if v.single {
			return float32(v.f)
		}
		return v.f
	case ClassString:
		return v.s
	case ClassBytes:
		buf := make([]byte, len(v.raw))
		copy(buf, v.raw)
		return buf
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.class {
	case ClassBool:
		return strconv.FormatBool(v.b)
	case ClassSignedInt:
		return strconv.FormatInt(v.i, 10)
	case ClassUnsignedInt:
		return strconv.FormatUint(v.u, 10)
	case ClassFloat:
		bits := 64
		if v.single {
			bits = 32
		}
		return strconv.FormatFloat(v.f, 'g', -1, bits)
	case ClassString:
		return strconv.Quote(v.s)
	case ClassBytes:
		return fmt.Sprintf("hex:%x", v.raw)
	case ClassNull:
		return "null"
	default:
		return "invalid"
	}
}

// wireType is the narrowest element type that carries v.
func (v Value) wireType() ElementType {
	switch v.class {
	case ClassBool:
		if v.b {
			return TypeTrue
		}
		return TypeFalse
	case ClassSignedInt:
		return signedType(v.i)
	case ClassUnsignedInt:
		return unsignedType(v.u)
	case ClassFloat:
		if v.single {
			return TypeFloat32
		}
		return TypeFloat64
	case ClassString:
		return lengthType(TypeUTF8L1, uint64(len(v.s)))
	case ClassBytes:
		return lengthType(TypeBytesL1, uint64(len(v.raw)))
	default:
		return TypeNull
	}
}
