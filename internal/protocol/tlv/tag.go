package tlv

import (
	"fmt"
)

// Tag control values (upper three bits of a control byte).
const (
	tagControlAnonymous        byte = 0x00
	tagControlContext          byte = 0x20
	tagControlCommonProfile2   byte = 0x40
	tagControlCommonProfile4   byte = 0x60
	tagControlImplicitProfile2 byte = 0x80
	tagControlImplicitProfile4 byte = 0xA0
	tagControlFullyQualified6  byte = 0xC0
	tagControlFullyQualified8  byte = 0xE0
)

// TagForm says how a tag is scoped.
type TagForm uint8

const (
	FormAnonymous TagForm = iota
	FormContext
	FormCommonProfile
	FormImplicitProfile
	FormFullyQualified
)

// Tag labels an element inside its enclosing container. The zero value is
// the anonymous tag. Tags are comparable with ==.
type Tag struct {
	form    TagForm
	vendor  uint16
	profile uint16
	number  uint32
}

// Anonymous returns the tag used for array and list elements and for a
// single top-level value.
func Anonymous() Tag {
	return Tag{}
}

// ContextTag returns a context-specific tag, unique only within its
// immediate structure.
func ContextTag(n uint8) Tag {
	return Tag{form: FormContext, number: uint32(n)}
}

// CommonProfileTag returns a tag in the Matter common profile.
func CommonProfileTag(n uint32) Tag {
	return Tag{form: FormCommonProfile, number: n}
}

// ImplicitProfileTag returns a tag whose profile is implied by the message.
func ImplicitProfileTag(n uint32) Tag {
	return Tag{form: FormImplicitProfile, number: n}
}

// FullyQualifiedTag returns a vendor/profile scoped tag.
func FullyQualifiedTag(vendor, profile uint16, n uint32) Tag {
	return Tag{form: FormFullyQualified, vendor: vendor, profile: profile, number: n}
}

func (t Tag) Form() TagForm     { return t.form }
func (t Tag) IsAnonymous() bool { return t.form == FormAnonymous }
func (t Tag) IsContext() bool   { return t.form == FormContext }
func (t Tag) Number() uint32    { return t.number }
func (t Tag) Vendor() uint16    { return t.vendor }
func (t Tag) Profile() uint16   { return t.profile }

func (t Tag) String() string {
	switch t.form {
	case FormAnonymous:
		return "anonymous"
	case FormContext:
		return fmt.Sprintf("%d", t.number)
	case FormCommonProfile:
		return fmt.Sprintf("common:%d", t.number)
	case FormImplicitProfile:
		return fmt.Sprintf("implicit:%d", t.number)
	default:
		return fmt.Sprintf("0x%04x:0x%04x:%d", t.vendor, t.profile, t.number)
	}
}

// control returns the tag control bits for t, using the shortest form that
// holds the tag number.
func (t Tag) control() byte {
	wide := t.number > 0xFFFF
	switch t.form {
	case FormContext:
		return tagControlContext
	case FormCommonProfile:
		if wide {
			return tagControlCommonProfile4
		}
		return tagControlCommonProfile2
	case FormImplicitProfile:
		if wide {
			return tagControlImplicitProfile4
		}
		return tagControlImplicitProfile2
	case FormFullyQualified:
		if wide {
			return tagControlFullyQualified8
		}
		return tagControlFullyQualified6
	default:
		return tagControlAnonymous
	}
}

func (t Tag) appendTo(b []byte) []byte {
	switch control := t.control(); control {
	case tagControlContext:
		return append(b, byte(t.number))
	case tagControlCommonProfile2, tagControlImplicitProfile2:
		return putUintLE(b, uint64(t.number), 2)
	case tagControlCommonProfile4, tagControlImplicitProfile4:
		return putUintLE(b, uint64(t.number), 4)
	case tagControlFullyQualified6:
		b = putUintLE(b, uint64(t.vendor), 2)
		b = putUintLE(b, uint64(t.profile), 2)
		return putUintLE(b, uint64(t.number), 2)
	case tagControlFullyQualified8:
		b = putUintLE(b, uint64(t.vendor), 2)
		b = putUintLE(b, uint64(t.profile), 2)
		return putUintLE(b, uint64(t.number), 4)
	default:
		return b
	}
}

// tagLen returns the number of tag bytes that follow a control byte.
func tagLen(control byte) int {
	switch control {
	case tagControlContext:
		return 1
	case tagControlCommonProfile2, tagControlImplicitProfile2:
		return 2
	case tagControlCommonProfile4, tagControlImplicitProfile4:
		return 4
	case tagControlFullyQualified6:
		return 6
	case tagControlFullyQualified8:
		return 8
	default:
		return 0
	}
}

// decodeTag parses tag bytes; len(b) must equal tagLen(control).
func decodeTag(control byte, b []byte) Tag {
	switch control {
	case tagControlContext:
		return ContextTag(b[0])
	case tagControlCommonProfile2, tagControlCommonProfile4:
		return CommonProfileTag(uint32(uintLE(b)))
	case tagControlImplicitProfile2, tagControlImplicitProfile4:
		return ImplicitProfileTag(uint32(uintLE(b)))
	case tagControlFullyQualified6, tagControlFullyQualified8:
		return FullyQualifiedTag(uint16(uintLE(b[0:2])), uint16(uintLE(b[2:4])), uint32(uintLE(b[4:])))
	default:
		return Anonymous()
	}
}
