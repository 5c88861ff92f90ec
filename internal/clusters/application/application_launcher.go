package application

import (
	"github.com/danmuck/tlvcodec/internal/protocol/schema"
	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
)

const (
	tagApplication uint8 = 0
	tagEndpoint    uint8 = 1
)

// ApplicationEPStruct names an application and, optionally, the endpoint
// hosting it.
type ApplicationEPStruct struct {
	Application ApplicationStruct
	Endpoint    *uint16
}

var applicationEPCodec = schema.MustStruct("ApplicationLauncherClusterApplicationEPStruct",
	schema.Required(tagApplication, "application", schema.Codec[ApplicationStruct](applicationCodec),
		func(s *ApplicationEPStruct) *ApplicationStruct { return &s.Application }),
	schema.Optional(tagEndpoint, "endpoint", schema.Uint16,
		func(s *ApplicationEPStruct) **uint16 { return &s.Endpoint }),
)

func ApplicationEPCodec() *schema.Struct[ApplicationEPStruct] { return applicationEPCodec }

func (s ApplicationEPStruct) ToTLV(tag tlv.Tag, w *tlv.Writer) error {
	return applicationEPCodec.Encode(w, tag, s)
}

func ApplicationEPStructFromTLV(tag tlv.Tag, r *tlv.Reader) (ApplicationEPStruct, error) {
	return applicationEPCodec.Decode(r, tag)
}

func (s ApplicationEPStruct) String() string { return applicationEPCodec.Format(s) }
