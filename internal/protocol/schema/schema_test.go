package schema

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
	"github.com/danmuck/tlvcodec/internal/testutil/testlog"
)

type point struct {
	X     int32
	Y     int32
	Label *string
	Tags  []uint16
}

var pointCodec = MustStruct("Point",
	Required(1, "y", Int32, func(p *point) *int32 { return &p.Y }),
	Required(0, "x", Int32, func(p *point) *int32 { return &p.X }),
	Optional(2, "label", String, func(p *point) **string { return &p.Label }),
	Required(3, "tags", ArrayOf(Uint16), func(p *point) *[]uint16 { return &p.Tags }),
)

type segment struct {
	From point
	To   *point
}

var segmentCodec = MustStruct("Segment",
	Required(0, "from", Codec[point](pointCodec), func(s *segment) *point { return &s.From }),
	Optional(1, "to", Codec[point](pointCodec), func(s *segment) **point { return &s.To }),
)

func strPtr(s string) *string { return &s }

func TestStructEncodesInAscendingTagOrder(t *testing.T) {
	testlog.Start(t)
	got, err := Marshal[point](pointCodec, point{X: 1, Y: -1, Tags: []uint16{}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := []byte{0x15, 0x20, 0x00, 0x01, 0x20, 0x01, 0xFF, 0x36, 0x03, 0x18, 0x18}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
	fields := pointCodec.Fields()
	for i := 1; i < len(fields); i++ {
		if fields[i-1].Tag >= fields[i].Tag {
			t.Fatalf("fields not sorted by tag: %d before %d", fields[i-1].Tag, fields[i].Tag)
		}
	}
}

func TestStructRoundTripWithAndWithoutOptional(t *testing.T) {
	testlog.Start(t)
	cases := []point{
		{X: -2147483648, Y: 2147483647, Tags: []uint16{}},
		{X: 0, Y: 0, Label: strPtr(""), Tags: []uint16{0, 1, 65535}},
		{X: 300, Y: -300, Label: strPtr("origin"), Tags: []uint16{42}},
	}
	for _, in := range cases {
		data, err := Marshal[point](pointCodec, in)
		if err != nil {
			t.Fatalf("marshal %+v: %v", in, err)
		}
		out, err := Unmarshal[point](pointCodec, data, tlv.DefaultLimits())
		if err != nil {
			t.Fatalf("unmarshal %+v: %v", in, err)
		}
		if out.X != in.X || out.Y != in.Y || len(out.Tags) != len(in.Tags) {
			t.Fatalf("round trip mismatch: in=%+v out=%+v", in, out)
		}
		for i := range in.Tags {
			if out.Tags[i] != in.Tags[i] {
				t.Fatalf("tag[%d] = %d want %d", i, out.Tags[i], in.Tags[i])
			}
		}
		if (in.Label == nil) != (out.Label == nil) {
			t.Fatalf("optional presence changed: in=%v out=%v", in.Label, out.Label)
		}
		if in.Label != nil && *in.Label != *out.Label {
			t.Fatalf("label = %q want %q", *out.Label, *in.Label)
		}
	}
}

func TestStructDecodeSkipsUnknownAndAcceptsAnyOrder(t *testing.T) {
	testlog.Start(t)
	data := []byte{
		0x15,
		0x35, 0x07, 0x24, 0x00, 0x05, 0x18, // unknown nested structure, tag 7
		0x20, 0x01, 0xFF, // y = -1
		0xC4, 0xF1, 0xFF, 0x01, 0x00, 0x02, 0x00, 0x09, // fully qualified tag
		0x20, 0x00, 0x01, // x = 1
		0x36, 0x03, 0x04, 0x07, 0x18, // tags = [7]
		0x2C, 0x09, 0x03, 'z', 'z', 'z', // unknown string, tag 9
		0x18,
	}
	p, err := Unmarshal[point](pointCodec, data, tlv.DefaultLimits())
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.X != 1 || p.Y != -1 || p.Label != nil || len(p.Tags) != 1 || p.Tags[0] != 7 {
		t.Fatalf("unexpected decode: %+v", p)
	}
}

func TestStructMissingMandatoryField(t *testing.T) {
	testlog.Start(t)
	// x and tags only; y absent.
	data := []byte{0x15, 0x20, 0x00, 0x01, 0x36, 0x03, 0x18, 0x18}
	p, err := Unmarshal[point](pointCodec, data, tlv.DefaultLimits())
	if !errors.Is(err, tlv.ErrMissingField) {
		t.Fatalf("expected missing field, got %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "y" || fe.Tag != 1 || fe.Struct != "Point" {
		t.Fatalf("expected field context for y, got %#v", err)
	}
	if p.X != 0 || p.Tags != nil {
		t.Fatalf("failed decode must return the zero value, got %+v", p)
	}
}

func TestStructDuplicateMemberRejected(t *testing.T) {
	testlog.Start(t)
	data := []byte{0x15, 0x20, 0x00, 0x01, 0x20, 0x00, 0x02, 0x20, 0x01, 0x01, 0x36, 0x03, 0x18, 0x18}
	_, err := Unmarshal[point](pointCodec, data, tlv.DefaultLimits())
	if !errors.Is(err, tlv.ErrDuplicateField) {
		t.Fatalf("expected duplicate field, got %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "x" || fe.Offset != 4 {
		t.Fatalf("expected duplicate x at offset 4, got %#v", err)
	}
}

func TestStructMemberTypeMismatchCarriesFieldContext(t *testing.T) {
	testlog.Start(t)
	// x encoded as an unsigned integer.
	data := []byte{0x15, 0x24, 0x00, 0x01, 0x20, 0x01, 0x01, 0x36, 0x03, 0x18, 0x18}
	_, err := Unmarshal[point](pointCodec, data, tlv.DefaultLimits())
	if !errors.Is(err, tlv.ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "Point.x") {
		t.Fatalf("error lacks field context: %v", err)
	}
}

func TestNestedStructErrorsChain(t *testing.T) {
	testlog.Start(t)
	data := []byte{
		0x15,
		0x35, 0x00, 0x20, 0x00, 0x01, 0x36, 0x03, 0x18, 0x18, // from without y
		0x18,
	}
	_, err := Unmarshal[segment](segmentCodec, data, tlv.DefaultLimits())
	if !errors.Is(err, tlv.ErrMissingField) {
		t.Fatalf("expected missing field, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "Segment.from") || !strings.Contains(msg, "Point.y") {
		t.Fatalf("expected nested context, got %q", msg)
	}
	if strings.Count(msg, "schema:") != 1 {
		t.Fatalf("prefix repeated: %q", msg)
	}
}

func TestNestedStructRoundTrip(t *testing.T) {
	testlog.Start(t)
	in := segment{
		From: point{X: 1, Y: 2, Tags: []uint16{}},
		To:   &point{X: 3, Y: 4, Label: strPtr("end"), Tags: []uint16{9}},
	}
	data, err := Marshal[segment](segmentCodec, in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := Unmarshal[segment](segmentCodec, data, tlv.DefaultLimits())
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.From.X != 1 || out.To == nil || out.To.Y != 4 || *out.To.Label != "end" {
		t.Fatalf("unexpected nested decode: %+v to=%+v", out, out.To)
	}
}

func TestNewStructRejectsTagCollision(t *testing.T) {
	testlog.Start(t)
	_, err := NewStruct("Clash",
		Required(0, "a", Int32, func(p *point) *int32 { return &p.X }),
		Required(0, "b", Int32, func(p *point) *int32 { return &p.Y }),
	)
	var ve ValidationError
	if !errors.As(err, &ve) || ve.Tag != 0 || ve.Struct != "Clash" {
		t.Fatalf("expected tag collision, got %v", err)
	}
}

func TestNewStructRejectsUndeclaredField(t *testing.T) {
	testlog.Start(t)
	_, err := NewStruct("Bare", Field[point]{Tag: 1, Name: "bare"})
	var ve ValidationError
	if !errors.As(err, &ve) || ve.Tag != 1 {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMustStructPanicsOnCollision(t *testing.T) {
	testlog.Start(t)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustStruct("Clash",
		Required(4, "a", Int32, func(p *point) *int32 { return &p.X }),
		Required(4, "a2", Int32, func(p *point) *int32 { return &p.Y }),
	)
}

func TestUnmarshalRejectsTrailingBytes(t *testing.T) {
	testlog.Start(t)
	data := []byte{0x15, 0x20, 0x00, 0x01, 0x20, 0x01, 0x01, 0x36, 0x03, 0x18, 0x18, 0x00}
	if _, err := Unmarshal[point](pointCodec, data, tlv.DefaultLimits()); !errors.Is(err, tlv.ErrInvalidLength) {
		t.Fatalf("expected invalid length for trailing byte, got %v", err)
	}
}

func TestNullableCodec(t *testing.T) {
	testlog.Start(t)
	codec := Nullable(Uint64)
	data, err := Marshal[*uint64](codec, nil)
	if err != nil {
		t.Fatalf("marshal nil: %v", err)
	}
	if !bytes.Equal(data, []byte{0x14}) {
		t.Fatalf("nil should encode as null, got % x", data)
	}
	v, err := Unmarshal(codec, data, tlv.DefaultLimits())
	if err != nil || v != nil {
		t.Fatalf("null should decode to nil, got %v, %v", v, err)
	}
	n := uint64(1 << 40)
	data, err = Marshal(codec, &n)
	if err != nil {
		t.Fatalf("marshal value: %v", err)
	}
	v, err = Unmarshal(codec, data, tlv.DefaultLimits())
	if err != nil || v == nil || *v != n {
		t.Fatalf("value round trip: %v, %v", v, err)
	}
}

type mode uint8

func TestEnumAndListCodecs(t *testing.T) {
	testlog.Start(t)
	data, err := Marshal(Enum8[mode](), mode(3))
	if err != nil || !bytes.Equal(data, []byte{0x04, 0x03}) {
		t.Fatalf("enum encode: % x, %v", data, err)
	}
	if _, err := Unmarshal(Enum8[mode](), []byte{0x05, 0x00, 0x01}, tlv.DefaultLimits()); !errors.Is(err, tlv.ErrTypeMismatch) {
		t.Fatalf("256 must not fit an 8-bit enum, got %v", err)
	}

	list := []tlv.Element{
		{Tag: tlv.Anonymous(), Type: tlv.TypeUint8, Value: tlv.UintValue(1)},
		{Tag: tlv.Anonymous(), Type: tlv.TypeUTF8L1, Value: tlv.StringValue("two")},
		{Tag: tlv.Anonymous(), Type: tlv.TypeTrue, Value: tlv.BoolValue(true)},
	}
	data, err = Marshal(ListOf, list)
	if err != nil {
		t.Fatalf("list encode: %v", err)
	}
	back, err := Unmarshal(ListOf, data, tlv.DefaultLimits())
	if err != nil || len(back) != 3 {
		t.Fatalf("list decode: %v, %v", back, err)
	}
	for i := range list {
		if !back[i].Value.Equal(list[i].Value) {
			t.Fatalf("list[%d] = %v want %v", i, back[i].Value, list[i].Value)
		}
	}
}

func TestArrayOfRejectsTaggedElement(t *testing.T) {
	testlog.Start(t)
	data := []byte{0x16, 0x24, 0x00, 0x01, 0x18}
	if _, err := Unmarshal(ArrayOf(Uint8), data, tlv.DefaultLimits()); !errors.Is(err, tlv.ErrTagMismatch) {
		t.Fatalf("expected tag mismatch, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	testlog.Start(t)
	got := pointCodec.Format(point{X: 1, Y: 2, Tags: []uint16{3}})
	want := "Point {\n\tx : 1\n\ty : 2\n\ttags : [3]\n}"
	if got != want {
		t.Fatalf("format:\n%s\nwant:\n%s", got, want)
	}
	got = pointCodec.Format(point{Label: strPtr("l"), Tags: []uint16{}})
	if !strings.Contains(got, "\tlabel : l\n") {
		t.Fatalf("present optional should be printed: %s", got)
	}
}

func TestArrayOfNilDecodesEmptyNonNil(t *testing.T) {
	testlog.Start(t)
	data, err := Marshal(ArrayOf(Uint8), nil)
	if err != nil || !bytes.Equal(data, []byte{0x16, 0x18}) {
		t.Fatalf("encode nil: % x, %v", data, err)
	}
	back, err := Unmarshal(ArrayOf(Uint8), data, tlv.DefaultLimits())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back == nil || len(back) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", back)
	}
}
