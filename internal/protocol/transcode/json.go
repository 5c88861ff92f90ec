package transcode

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
	"github.com/tidwall/jsonc"
)

var ErrInvalidJSON = errors.New("transcode: invalid typed json")

// Typed JSON keys are "<tag>:<TYPE>". The tag part is empty for anonymous
// elements, a decimal number for context tags, and the tlv.Tag string form
// otherwise. Arrays and lists hold single-pair objects so every element
// keeps its type. Integers, strings and byte strings encoded wider than
// needed carry their width ("UINT16", "STRING/2") so re-encoding is exact.
const (
	jsonInt    = "INT"
	jsonUint   = "UINT"
	jsonBool   = "BOOL"
	jsonFloat  = "FLOAT"
	jsonDouble = "DOUBLE"
	jsonString = "STRING"
	jsonBytes  = "BYTES"
	jsonNull   = "NULL"
	jsonStruct = "STRUCT"
	jsonArray  = "ARRAY"
	jsonList   = "LIST"
)

var sizedNames = map[tlv.ElementType]string{
	tlv.TypeInt8:    "INT8",
	tlv.TypeInt16:   "INT16",
	tlv.TypeInt32:   "INT32",
	tlv.TypeInt64:   "INT64",
	tlv.TypeUint8:   "UINT8",
	tlv.TypeUint16:  "UINT16",
	tlv.TypeUint32:  "UINT32",
	tlv.TypeUint64:  "UINT64",
	tlv.TypeUTF8L1:  "STRING/1",
	tlv.TypeUTF8L2:  "STRING/2",
	tlv.TypeUTF8L4:  "STRING/4",
	tlv.TypeUTF8L8:  "STRING/8",
	tlv.TypeBytesL1: "BYTES/1",
	tlv.TypeBytesL2: "BYTES/2",
	tlv.TypeBytesL4: "BYTES/4",
	tlv.TypeBytesL8: "BYTES/8",
}

var sizedTypes = func() map[string]tlv.ElementType {
	m := make(map[string]tlv.ElementType, len(sizedNames))
	for t, name := range sizedNames {
		m[name] = t
	}
	return m
}()

func typeName(e tlv.Element) string {
	if name, ok := sizedNames[e.Type]; ok && e.Type != tlv.Primitive(e.Tag, e.Value).Type {
		return name
	}
	switch e.Type.Class() {
	case tlv.ClassSignedInt:
		return jsonInt
	case tlv.ClassUnsignedInt:
		return jsonUint
	case tlv.ClassBool:
		return jsonBool
	case tlv.ClassFloat:
		if e.Value.IsSingle() {
			return jsonFloat
		}
		return jsonDouble
	case tlv.ClassString:
		return jsonString
	case tlv.ClassBytes:
		return jsonBytes
	case tlv.ClassStructure:
		return jsonStruct
	case tlv.ClassArray:
		return jsonArray
	case tlv.ClassList:
		return jsonList
	default:
		return jsonNull
	}
}

func tagKey(t tlv.Tag) string {
	if t.IsAnonymous() {
		return ""
	}
	return t.String()
}

func elementKey(e tlv.Element) string {
	return tagKey(e.Tag) + ":" + typeName(e)
}

// ToJSON renders e as a single-pair JSON object in wire order.
func ToJSON(e tlv.Element) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writePair(&buf, e); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writePair(buf *bytes.Buffer, e tlv.Element) error {
	key, _ := json.Marshal(elementKey(e))
	buf.Write(key)
	buf.WriteByte(':')
	return writeValue(buf, e)
}

func writeValue(buf *bytes.Buffer, e tlv.Element) error {
	switch e.Type {
	case tlv.TypeStructure:
		buf.WriteByte('{')
		for i, c := range e.Children {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writePair(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case tlv.TypeArray, tlv.TypeList:
		buf.WriteByte('[')
		for i, c := range e.Children {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('{')
			if err := writePair(buf, c); err != nil {
				return err
			}
			buf.WriteByte('}')
		}
		buf.WriteByte(']')
		return nil
	}
	if f, err := e.Value.Float(); err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return fmt.Errorf("%w: %v has no json form", ErrInvalidJSON, f)
	}
	raw, err := json.Marshal(e.Value.Interface())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	buf.Write(raw)
	return nil
}

// FromJSON parses the typed JSON form back into an element tree. Comments
// and trailing commas are accepted.
func FromJSON(data []byte) (tlv.Element, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()
	p := &jsonParser{dec: dec, maxDepth: tlv.DefaultLimits().MaxDepth}

	if err := p.expect(json.Delim('{')); err != nil {
		return tlv.Element{}, err
	}
	e, err := p.pair(0)
	if err != nil {
		return tlv.Element{}, err
	}
	if err := p.expect(json.Delim('}')); err != nil {
		return tlv.Element{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return tlv.Element{}, fmt.Errorf("%w: trailing data after top-level object", ErrInvalidJSON)
	}
	return e, nil
}

type jsonParser struct {
	dec      *json.Decoder
	maxDepth int
}

func (p *jsonParser) expect(want json.Delim) error {
	tok, err := p.dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: got %v, want %v", ErrInvalidJSON, tok, want)
	}
	return nil
}

// pair reads one "<tag>:<TYPE>": value member.
func (p *jsonParser) pair(depth int) (tlv.Element, error) {
	tok, err := p.dec.Token()
	if err != nil {
		return tlv.Element{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	key, ok := tok.(string)
	if !ok {
		return tlv.Element{}, fmt.Errorf("%w: expected key, got %v", ErrInvalidJSON, tok)
	}
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return tlv.Element{}, fmt.Errorf("%w: key %q has no type", ErrInvalidJSON, key)
	}
	tag, err := ParseTag(key[:i])
	if err != nil {
		return tlv.Element{}, err
	}
	return p.value(tag, key[i+1:], depth)
}

func (p *jsonParser) value(tag tlv.Tag, typ string, depth int) (tlv.Element, error) {
	sized, hasWidth := sizedTypes[typ]
	if hasWidth {
		typ = baseName(sized)
	}
	switch typ {
	case jsonStruct, jsonArray, jsonList:
		if depth >= p.maxDepth {
			return tlv.Element{}, fmt.Errorf("%w: nesting deeper than %d", ErrInvalidJSON, p.maxDepth)
		}
		return p.container(tag, typ, depth+1)
	}

	tok, err := p.dec.Token()
	if err != nil {
		return tlv.Element{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	bad := func() (tlv.Element, error) {
		return tlv.Element{}, fmt.Errorf("%w: %v is not a valid %s", ErrInvalidJSON, tok, typ)
	}
	var v tlv.Value
	switch typ {
	case jsonNull:
		if tok != nil {
			return bad()
		}
		v = tlv.NullValue()
	case jsonBool:
		b, ok := tok.(bool)
		if !ok {
			return bad()
		}
		v = tlv.BoolValue(b)
	case jsonInt, jsonUint, jsonFloat, jsonDouble:
		n, ok := tok.(json.Number)
		if !ok {
			return bad()
		}
		switch typ {
		case jsonInt:
			x, err := strconv.ParseInt(n.String(), 10, 64)
			if err != nil {
				return bad()
			}
			v = tlv.IntValue(x)
		case jsonUint:
			x, err := strconv.ParseUint(n.String(), 10, 64)
			if err != nil {
				return bad()
			}
			v = tlv.UintValue(x)
		case jsonFloat:
			x, err := strconv.ParseFloat(n.String(), 32)
			if err != nil {
				return bad()
			}
			v = tlv.Float32Value(float32(x))
		default:
			x, err := strconv.ParseFloat(n.String(), 64)
			if err != nil {
				return bad()
			}
			v = tlv.Float64Value(x)
		}
	case jsonString:
		s, ok := tok.(string)
		if !ok {
			return bad()
		}
		v = tlv.StringValue(s)
	case jsonBytes:
		s, ok := tok.(string)
		if !ok {
			return bad()
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return bad()
		}
		v = tlv.BytesValue(raw)
	default:
		return tlv.Element{}, fmt.Errorf("%w: unknown type %q", ErrInvalidJSON, typ)
	}
	if hasWidth {
		return tlv.Element{Tag: tag, Type: sized, Value: v}, nil
	}
	return tlv.Primitive(tag, v), nil
}

func baseName(t tlv.ElementType) string {
	switch t.Class() {
	case tlv.ClassSignedInt:
		return jsonInt
	case tlv.ClassUnsignedInt:
		return jsonUint
	case tlv.ClassString:
		return jsonString
	default:
		return jsonBytes
	}
}

func (p *jsonParser) container(tag tlv.Tag, typ string, depth int) (tlv.Element, error) {
	var children []tlv.Element
	if typ == jsonStruct {
		if err := p.expect(json.Delim('{')); err != nil {
			return tlv.Element{}, err
		}
		for p.dec.More() {
			c, err := p.pair(depth)
			if err != nil {
				return tlv.Element{}, err
			}
			children = append(children, c)
		}
		if err := p.expect(json.Delim('}')); err != nil {
			return tlv.Element{}, err
		}
		return tlv.Container(tag, tlv.TypeStructure, children...), nil
	}

	if err := p.expect(json.Delim('[')); err != nil {
		return tlv.Element{}, err
	}
	for p.dec.More() {
		if err := p.expect(json.Delim('{')); err != nil {
			return tlv.Element{}, err
		}
		c, err := p.pair(depth)
		if err != nil {
			return tlv.Element{}, err
		}
		if err := p.expect(json.Delim('}')); err != nil {
			return tlv.Element{}, err
		}
		children = append(children, c)
	}
	if err := p.expect(json.Delim(']')); err != nil {
		return tlv.Element{}, err
	}
	ct := tlv.TypeArray
	if typ == jsonList {
		ct = tlv.TypeList
	}
	return tlv.Container(tag, ct, children...), nil
}

// ParseTag reads the tag part of a typed JSON key.
func ParseTag(s string) (tlv.Tag, error) {
	bad := fmt.Errorf("%w: bad tag %q", ErrInvalidJSON, s)
	switch {
	case s == "":
		return tlv.Anonymous(), nil
	case strings.HasPrefix(s, "common:"):
		n, err := strconv.ParseUint(strings.TrimPrefix(s, "common:"), 10, 32)
		if err != nil {
			return tlv.Tag{}, bad
		}
		return tlv.CommonProfileTag(uint32(n)), nil
	case strings.HasPrefix(s, "implicit:"):
		n, err := strconv.ParseUint(strings.TrimPrefix(s, "implicit:"), 10, 32)
		if err != nil {
			return tlv.Tag{}, bad
		}
		return tlv.ImplicitProfileTag(uint32(n)), nil
	case strings.HasPrefix(s, "0x"):
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return tlv.Tag{}, bad
		}
		vendor, err1 := strconv.ParseUint(parts[0], 0, 16)
		profile, err2 := strconv.ParseUint(parts[1], 0, 16)
		n, err3 := strconv.ParseUint(parts[2], 10, 32)
		if err1 != nil || err2 != nil || err3 != nil {
			return tlv.Tag{}, bad
		}
		return tlv.FullyQualifiedTag(uint16(vendor), uint16(profile), uint32(n)), nil
	default:
		n, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return tlv.Tag{}, bad
		}
		return tlv.ContextTag(uint8(n)), nil
	}
}
