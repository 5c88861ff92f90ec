package application

import (
	"github.com/danmuck/tlvcodec/internal/protocol/schema"
	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
)

const (
	tagCatalogVendorID uint8 = 0
	tagApplicationID   uint8 = 1
)

// ApplicationStruct identifies an application by catalog vendor and id.
type ApplicationStruct struct {
	CatalogVendorID uint16
	ApplicationID   string
}

var applicationCodec = schema.MustStruct("ApplicationBasicClusterApplicationStruct",
	schema.Required(tagCatalogVendorID, "catalogVendorID", schema.Uint16,
		func(s *ApplicationStruct) *uint16 { return &s.CatalogVendorID }),
	schema.Required(tagApplicationID, "applicationID", schema.String,
		func(s *ApplicationStruct) *string { return &s.ApplicationID }),
)

func ApplicationCodec() *schema.Struct[ApplicationStruct] { return applicationCodec }

func (s ApplicationStruct) ToTLV(tag tlv.Tag, w *tlv.Writer) error {
	return applicationCodec.Encode(w, tag, s)
}

func ApplicationStructFromTLV(tag tlv.Tag, r *tlv.Reader) (ApplicationStruct, error) {
	return applicationCodec.Decode(r, tag)
}

func (s ApplicationStruct) String() string { return applicationCodec.Format(s) }
