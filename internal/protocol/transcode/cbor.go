package transcode

import (
	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding: sorted map keys, shortest
// integer and float forms. The same tree always yields the same bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("transcode: CBOR encoder initialization failed: " + err.Error())
	}
}

// ToCBOR maps e onto CBOR: structures become maps keyed by context tag
// number (other tag forms use their string form), arrays and lists become
// arrays, null becomes CBOR null.
func ToCBOR(e tlv.Element) ([]byte, error) {
	return encMode.Marshal(cborValue(e))
}

// Diagnose returns RFC 8949 diagnostic notation for data.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}

func cborValue(e tlv.Element) any {
	switch e.Type {
	case tlv.TypeStructure:
		m := make(map[any]any, len(e.Children))
		for _, c := range e.Children {
			m[cborKey(c.Tag)] = cborValue(c)
		}
		return m
	case tlv.TypeArray, tlv.TypeList:
		items := make([]any, len(e.Children))
		for i, c := range e.Children {
			items[i] = cborValue(c)
		}
		return items
	}
	return e.Value.Interface()
}

func cborKey(t tlv.Tag) any {
	if t.IsContext() {
		return uint64(t.Number())
	}
	return t.String()
}
