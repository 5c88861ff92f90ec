package transcode

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
	"github.com/danmuck/tlvcodec/internal/testutil/testlog"
	"gopkg.in/yaml.v3"
)

var appWire = []byte{0x15, 0x24, 0x00, 0x7B, 0x2C, 0x01, 0x03, 0x61, 0x62, 0x63, 0x18}

func parse(t *testing.T, data []byte) tlv.Element {
	t.Helper()
	e, err := tlv.ParseElement(data, tlv.DefaultLimits())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return e
}

func encode(t *testing.T, e tlv.Element) []byte {
	t.Helper()
	w := tlv.NewWriter(tlv.DefaultLimits())
	if err := tlv.WriteElement(w, e); err != nil {
		t.Fatalf("write element: %v", err)
	}
	out, err := w.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	return out
}

// richTree covers every element class and every tag form.
func richTree(t *testing.T) []byte {
	t.Helper()
	w := tlv.NewWriter(tlv.DefaultLimits())
	steps := []func() error{
		func() error { return w.StartStructure(tlv.Anonymous()) },
		func() error { return w.PutInt(tlv.ContextTag(0), -40000) },
		func() error { return w.PutBool(tlv.ContextTag(1), true) },
		func() error { return w.PutFloat32(tlv.ContextTag(2), 1.5) },
		func() error { return w.PutFloat64(tlv.ContextTag(3), -0.25) },
		func() error { return w.PutBytes(tlv.ContextTag(4), []byte{0xde, 0xad}) },
		func() error { return w.PutNull(tlv.ContextTag(5)) },
		func() error { return w.PutUint(tlv.CommonProfileTag(7), 1<<40) },
		func() error { return w.PutString(tlv.FullyQualifiedTag(0xFFF1, 0x0001, 9), "fq") },
		func() error { return w.StartArray(tlv.ContextTag(6)) },
		func() error { return w.PutUint(tlv.Anonymous(), 1) },
		func() error { return w.PutNull(tlv.Anonymous()) },
		func() error { return w.PutUint(tlv.Anonymous(), 300) },
		func() error { return w.EndContainer() },
		func() error { return w.StartList(tlv.ContextTag(7)) },
		func() error { return w.PutString(tlv.Anonymous(), "x") },
		func() error { return w.StartStructure(tlv.Anonymous()) },
		func() error { return w.PutBool(tlv.ContextTag(0), false) },
		func() error { return w.EndContainer() },
		func() error { return w.EndContainer() },
		func() error { return w.EndContainer() },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	out, err := w.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	return out
}

func TestDump(t *testing.T) {
	testlog.Start(t)
	got := DumpString(parse(t, appWire))
	want := "anonymous structure\n  0 uint8 123\n  1 utf8/1 \"abc\"\nend\n"
	if got != want {
		t.Fatalf("dump:\n%s\nwant:\n%s", got, want)
	}
}

func TestToJSON(t *testing.T) {
	testlog.Start(t)
	got, err := ToJSON(parse(t, appWire))
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	want := `{":STRUCT":{"0:UINT":123,"1:STRING":"abc"}}`
	if string(got) != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestJSONRoundTripIsByteExact(t *testing.T) {
	testlog.Start(t)
	wire := richTree(t)
	js, err := ToJSON(parse(t, wire))
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	back, err := FromJSON(js)
	if err != nil {
		t.Fatalf("from json %s: %v", js, err)
	}
	if got := encode(t, back); !bytes.Equal(got, wire) {
		t.Fatalf("re-encoded bytes differ:\n got % x\nwant % x\njson %s", got, wire, js)
	}
}

func TestFromJSONAcceptsComments(t *testing.T) {
	testlog.Start(t)
	src := []byte(`{
		// an application
		":STRUCT": {
			"0:UINT": 123,
			"1:STRING": "abc", /* trailing comma below */
		},
	}`)
	e, err := FromJSON(src)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if got := encode(t, e); !bytes.Equal(got, appWire) {
		t.Fatalf("got % x want % x", got, appWire)
	}
}

func TestFromJSONRejectsBadInput(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"unknown type":     `{":WIDGET":1}`,
		"context too big":  `{":STRUCT":{"300:UINT":1}}`,
		"no type":          `{"0":1}`,
		"wrong value":      `{":UINT":"one"}`,
		"negative uint":    `{":UINT":-1}`,
		"bad base64":       `{":BYTES":"!!"}`,
		"trailing":         `{":NULL":null} {}`,
		"array not object": `{":ARRAY":[1]}`,
		"truncated":        `{":STRUCT":{"0:UINT":1`,
	}
	for name, src := range cases {
		if _, err := FromJSON([]byte(src)); !errors.Is(err, ErrInvalidJSON) {
			t.Fatalf("%s: expected ErrInvalidJSON, got %v", name, err)
		}
	}
}

func TestFromJSONDepthLimit(t *testing.T) {
	testlog.Start(t)
	depth := tlv.DefaultLimits().MaxDepth + 1
	src := strings.Repeat(`{":LIST":[`, depth) + strings.Repeat(`]}`, depth)
	if _, err := FromJSON([]byte(src)); !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("expected depth rejection, got %v", err)
	}
}

func TestToJSONRejectsNonFinite(t *testing.T) {
	testlog.Start(t)
	e := tlv.Primitive(tlv.Anonymous(), tlv.Float64Value(math.NaN()))
	if _, err := ToJSON(e); !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("expected ErrInvalidJSON for NaN, got %v", err)
	}
}

func TestToYAMLPreservesOrderAndTypes(t *testing.T) {
	testlog.Start(t)
	out, err := ToYAML(parse(t, appWire))
	if err != nil {
		t.Fatalf("to yaml: %v", err)
	}
	var n yaml.Node
	if err := yaml.Unmarshal(out, &n); err != nil {
		t.Fatalf("yaml does not parse back: %v\n%s", err, out)
	}
	doc := n.Content[0]
	if doc.Content[0].Value != ":STRUCT" {
		t.Fatalf("unexpected top key %q", doc.Content[0].Value)
	}
	inner := doc.Content[1]
	got := []string{inner.Content[0].Value, inner.Content[1].Value, inner.Content[2].Value, inner.Content[3].Value}
	want := []string{"0:UINT", "123", "1:STRING", "abc"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("yaml content %v want %v\n%s", got, want, out)
		}
	}
	if _, err := ToYAML(parse(t, richTree(t))); err != nil {
		t.Fatalf("rich tree to yaml: %v", err)
	}
}

func TestToCBOR(t *testing.T) {
	testlog.Start(t)
	data, err := ToCBOR(parse(t, appWire))
	if err != nil {
		t.Fatalf("to cbor: %v", err)
	}
	// {0: 123, 1: "abc"}
	want := []byte{0xA2, 0x00, 0x18, 0x7B, 0x01, 0x63, 'a', 'b', 'c'}
	if !bytes.Equal(data, want) {
		t.Fatalf("got % x want % x", data, want)
	}
	diag, err := Diagnose(data)
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	if diag != `{0: 123, 1: "abc"}` {
		t.Fatalf("unexpected diagnostic %q", diag)
	}
}

func TestToCBORIsDeterministic(t *testing.T) {
	testlog.Start(t)
	e := parse(t, richTree(t))
	a, err := ToCBOR(e)
	if err != nil {
		t.Fatalf("to cbor: %v", err)
	}
	for i := 0; i < 5; i++ {
		b, err := ToCBOR(e)
		if err != nil || !bytes.Equal(a, b) {
			t.Fatalf("cbor output not stable: %v", err)
		}
	}
}

func TestJSONKeepsNonMinimalWidths(t *testing.T) {
	testlog.Start(t)
	wire := []byte{0x15, 0x25, 0x00, 0x05, 0x00, 0x2D, 0x01, 0x02, 0x00, 0x61, 0x62, 0x18}
	js, err := ToJSON(parse(t, wire))
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	if want := `{":STRUCT":{"0:UINT16":5,"1:STRING/2":"ab"}}`; string(js) != want {
		t.Fatalf("got %s want %s", js, want)
	}
	back, err := FromJSON(js)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if got := encode(t, back); !bytes.Equal(got, wire) {
		t.Fatalf("re-encoded bytes differ:\n got % x\nwant % x", got, wire)
	}
}

func TestFromJSONWidthTooNarrowFailsOnEncode(t *testing.T) {
	testlog.Start(t)
	e, err := FromJSON([]byte(`{":UINT8": 300}`))
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if err := tlv.WriteElement(tlv.NewWriter(tlv.DefaultLimits()), e); !errors.Is(err, tlv.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}
