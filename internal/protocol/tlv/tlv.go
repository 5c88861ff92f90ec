package tlv

import "fmt"

// ElementType is the low five bits of a control byte.
type ElementType uint8

// Element type IDs from the TLV wire contract.
const (
	TypeInt8           ElementType = 0x00
	TypeInt16          ElementType = 0x01
	TypeInt32          ElementType = 0x02
	TypeInt64          ElementType = 0x03
	TypeUint8          ElementType = 0x04
	TypeUint16         ElementType = 0x05
	TypeUint32         ElementType = 0x06
	TypeUint64         ElementType = 0x07
	TypeFalse          ElementType = 0x08
	TypeTrue           ElementType = 0x09
	TypeFloat32        ElementType = 0x0A
	TypeFloat64        ElementType = 0x0B
	TypeUTF8L1         ElementType = 0x0C
	TypeUTF8L2         ElementType = 0x0D
	TypeUTF8L4         ElementType = 0x0E
	TypeUTF8L8         ElementType = 0x0F
	TypeBytesL1        ElementType = 0x10
	TypeBytesL2        ElementType = 0x11
	TypeBytesL4        ElementType = 0x12
	TypeBytesL8        ElementType = 0x13
	TypeNull           ElementType = 0x14
	TypeStructure      ElementType = 0x15
	TypeArray          ElementType = 0x16
	TypeList           ElementType = 0x17
	TypeEndOfContainer ElementType = 0x18
)

const (
	typeMask       byte = 0x1F
	tagControlMask byte = 0xE0
)

// Class groups element types that decode to the same kind of value.
type Class uint8

const (
	ClassInvalid Class = iota
	ClassSignedInt
	ClassUnsignedInt
	ClassBool
	ClassFloat
	ClassString
	ClassBytes
	ClassNull
	ClassStructure
	ClassArray
	ClassList
	ClassEndOfContainer
)

var classNames = [...]string{
	ClassInvalid:        "invalid",
	ClassSignedInt:      "signed integer",
	ClassUnsignedInt:    "unsigned integer",
	ClassBool:           "boolean",
	ClassFloat:          "floating point",
	ClassString:         "utf-8 string",
	ClassBytes:          "byte string",
	ClassNull:           "null",
	ClassStructure:      "structure",
	ClassArray:          "array",
	ClassList:           "list",
	ClassEndOfContainer: "end of container",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// Valid reports whether t is a defined element type.
func (t ElementType) Valid() bool {
	return t <= TypeEndOfContainer
}

// Class returns the value class of t.
func (t ElementType) Class() Class {
	switch {
	case t <= TypeInt64:
		return ClassSignedInt
	case t <= TypeUint64:
		return ClassUnsignedInt
	case t == TypeFalse || t == TypeTrue:
		return ClassBool
	case t == TypeFloat32 || t == TypeFloat64:
		return ClassFloat
	case t >= TypeUTF8L1 && t <= TypeUTF8L8:
		return ClassString
	case t >= TypeBytesL1 && t <= TypeBytesL8:
		return ClassBytes
	case t == TypeNull:
		return ClassNull
	case t == TypeStructure:
		return ClassStructure
	case t == TypeArray:
		return ClassArray
	case t == TypeList:
		return ClassList
	case t == TypeEndOfContainer:
		return ClassEndOfContainer
	default:
		return ClassInvalid
	}
}

// IsContainer reports whether t opens a structure, array or list.
func (t ElementType) IsContainer() bool {
	return t == TypeStructure || t == TypeArray || t == TypeList
}

// fixedWidth is the payload size of integer and float types.
func (t ElementType) fixedWidth() int {
	switch t {
	case TypeInt8, TypeUint8:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat32:
		return 4
	case TypeInt64, TypeUint64, TypeFloat64:
		return 8
	default:
		return 0
	}
}

// lengthWidth is the size of the length prefix of string types.
func (t ElementType) lengthWidth() int {
	switch t {
	case TypeUTF8L1, TypeBytesL1:
		return 1
	case TypeUTF8L2, TypeBytesL2:
		return 2
	case TypeUTF8L4, TypeBytesL4:
		return 4
	case TypeUTF8L8, TypeBytesL8:
		return 8
	default:
		return 0
	}
}

var typeNames = map[ElementType]string{
	TypeInt8:           "int8",
	TypeInt16:          "int16",
	TypeInt32:          "int32",
	TypeInt64:          "int64",
	TypeUint8:          "uint8",
	TypeUint16:         "uint16",
	TypeUint32:         "uint32",
	TypeUint64:         "uint64",
	TypeFalse:          "false",
	TypeTrue:           "true",
	TypeFloat32:        "float32",
	TypeFloat64:        "float64",
	TypeUTF8L1:         "utf8/1",
	TypeUTF8L2:         "utf8/2",
	TypeUTF8L4:         "utf8/4",
	TypeUTF8L8:         "utf8/8",
	TypeBytesL1:        "bytes/1",
	TypeBytesL2:        "bytes/2",
	TypeBytesL4:        "bytes/4",
	TypeBytesL8:        "bytes/8",
	TypeNull:           "null",
	TypeStructure:      "structure",
	TypeArray:          "array",
	TypeList:           "list",
	TypeEndOfContainer: "end",
}

func (t ElementType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(0x%02x)", uint8(t))
}

// signedType picks the narrowest signed type holding v.
func signedType(v int64) ElementType {
	switch {
	case v >= -1<<7 && v < 1<<7:
		return TypeInt8
	case v >= -1<<15 && v < 1<<15:
		return TypeInt16
	case v >= -1<<31 && v < 1<<31:
		return TypeInt32
	default:
		return TypeInt64
	}
}

// unsignedType picks the narrowest unsigned type holding v.
func unsignedType(v uint64) ElementType {
	switch {
	case v <= 0xFF:
		return TypeUint8
	case v <= 0xFFFF:
		return TypeUint16
	case v <= 0xFFFFFFFF:
		return TypeUint32
	default:
		return TypeUint64
	}
}

// lengthType returns the string or byte-string type for a payload of n bytes.
func lengthType(base ElementType, n uint64) ElementType {
	switch {
	case n <= 0xFF:
		return base
	case n <= 0xFFFF:
		return base + 1
	case n <= 0xFFFFFFFF:
		return base + 2
	default:
		return base + 3
	}
}

func putUintLE(b []byte, v uint64, width int) []byte {
	for i := 0; i < width; i++ {
		b = append(b, byte(v>>(8*i)))
	}
	return b
}

func uintLE(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// signExtend interprets the low width bytes of v as two's complement.
func signExtend(v uint64, width int) int64 {
	shift := uint(64 - 8*width)
	return int64(v<<shift) >> shift
}
