package schema

import (
	"github.com/danmuck/tlvcodec/internal/observability"
	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
	"github.com/rs/zerolog/log"
)

type named interface {
	Name() string
}

func codecName[V any](codec Codec[V]) string {
	if n, ok := codec.(named); ok {
		return n.Name()
	}
	return codec.ElementKind().String()
}

// Marshal encodes v as a single anonymous top-level element.
func Marshal[V any](codec Codec[V], v V) ([]byte, error) {
	return MarshalLimits(codec, v, tlv.DefaultLimits())
}

// MarshalLimits is Marshal with explicit writer limits.
func MarshalLimits[V any](codec Codec[V], v V, limits tlv.Limits) ([]byte, error) {
	name := codecName(codec)
	w := tlv.NewWriter(limits)
	err := codec.Encode(w, tlv.Anonymous(), v)
	var out []byte
	if err == nil {
		out, err = w.Finish()
	}
	observability.RecordEncode(name, len(out), err)
	if err != nil {
		log.Debug().Err(err).Str("struct", name).Msg("schema: encode failed")
		return nil, err
	}
	return out, nil
}

// Unmarshal decodes exactly one anonymous top-level element from data.
// Trailing bytes are rejected.
func Unmarshal[V any](codec Codec[V], data []byte, limits tlv.Limits) (V, error) {
	name := codecName(codec)
	r := tlv.NewReader(data, limits)
	v, err := codec.Decode(r, tlv.Anonymous())
	if err == nil {
		err = r.Complete()
	}
	observability.RecordDecode(name, len(data), err)
	if err != nil {
		log.Debug().Err(err).Str("struct", name).Int("len", len(data)).Msg("schema: decode failed")
		var zero V
		return zero, err
	}
	return v, nil
}
