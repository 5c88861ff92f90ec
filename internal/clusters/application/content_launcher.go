package application

import (
	"github.com/danmuck/tlvcodec/internal/protocol/schema"
	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
)

// MetricTypeEnum says how a DimensionStruct is measured.
type MetricTypeEnum uint8

const (
	MetricPixels     MetricTypeEnum = 0
	MetricPercentage MetricTypeEnum = 1
)

// ParameterEnum is the kind of a content search parameter.
type ParameterEnum uint8

const (
	ParameterActor ParameterEnum = iota
	ParameterChannel
	ParameterCharacter
	ParameterDirector
	ParameterEvent
	ParameterFranchise
	ParameterGenre
	ParameterLeague
	ParameterPopularity
	ParameterProvider
	ParameterSport
	ParameterSportsTeam
	ParameterType
	ParameterVideo
	ParameterSeason
	ParameterEpisode
	ParameterAny
)

type DimensionStruct struct {
	Width  float64
	Height float64
	Metric MetricTypeEnum
}

var dimensionCodec = schema.MustStruct("ContentLauncherClusterDimensionStruct",
	schema.Required(0, "width", schema.Float64, func(s *DimensionStruct) *float64 { return &s.Width }),
	schema.Required(1, "height", schema.Float64, func(s *DimensionStruct) *float64 { return &s.Height }),
	schema.Required(2, "metric", schema.Enum8[MetricTypeEnum](),
		func(s *DimensionStruct) *MetricTypeEnum { return &s.Metric }),
)

func DimensionCodec() *schema.Struct[DimensionStruct] { return dimensionCodec }

func (s DimensionStruct) ToTLV(tag tlv.Tag, w *tlv.Writer) error {
	return dimensionCodec.Encode(w, tag, s)
}

func DimensionStructFromTLV(tag tlv.Tag, r *tlv.Reader) (DimensionStruct, error) {
	return dimensionCodec.Decode(r, tag)
}

func (s DimensionStruct) String() string { return dimensionCodec.Format(s) }

type AdditionalInfoStruct struct {
	Name  string
	Value string
}

var additionalInfoCodec = schema.MustStruct("ContentLauncherClusterAdditionalInfoStruct",
	schema.Required(0, "name", schema.String, func(s *AdditionalInfoStruct) *string { return &s.Name }),
	schema.Required(1, "value", schema.String, func(s *AdditionalInfoStruct) *string { return &s.Value }),
)

func AdditionalInfoCodec() *schema.Struct[AdditionalInfoStruct] { return additionalInfoCodec }

func (s AdditionalInfoStruct) ToTLV(tag tlv.Tag, w *tlv.Writer) error {
	return additionalInfoCodec.Encode(w, tag, s)
}

func AdditionalInfoStructFromTLV(tag tlv.Tag, r *tlv.Reader) (AdditionalInfoStruct, error) {
	return additionalInfoCodec.Decode(r, tag)
}

func (s AdditionalInfoStruct) String() string { return additionalInfoCodec.Format(s) }

// ParameterStruct is one search term, optionally qualified by external ids.
type ParameterStruct struct {
	Type           ParameterEnum
	Value          string
	ExternalIDList *[]AdditionalInfoStruct
}

var parameterCodec = schema.MustStruct("ContentLauncherClusterParameterStruct",
	schema.Required(0, "type", schema.Enum8[ParameterEnum](),
		func(s *ParameterStruct) *ParameterEnum { return &s.Type }),
	schema.Required(1, "value", schema.String, func(s *ParameterStruct) *string { return &s.Value }),
	schema.Optional(2, "externalIDList",
		schema.ArrayOf(schema.Codec[AdditionalInfoStruct](additionalInfoCodec)),
		func(s *ParameterStruct) **[]AdditionalInfoStruct { return &s.ExternalIDList }),
)

func ParameterCodec() *schema.Struct[ParameterStruct] { return parameterCodec }

func (s ParameterStruct) ToTLV(tag tlv.Tag, w *tlv.Writer) error {
	return parameterCodec.Encode(w, tag, s)
}

func ParameterStructFromTLV(tag tlv.Tag, r *tlv.Reader) (ParameterStruct, error) {
	return parameterCodec.Decode(r, tag)
}

func (s ParameterStruct) String() string { return parameterCodec.Format(s) }

// ContentSearchStruct is the parameter list of a content launch request.
type ContentSearchStruct struct {
	ParameterList []ParameterStruct
}

var contentSearchCodec = schema.MustStruct("ContentLauncherClusterContentSearchStruct",
	schema.Required(0, "parameterList", schema.ArrayOf(schema.Codec[ParameterStruct](parameterCodec)),
		func(s *ContentSearchStruct) *[]ParameterStruct { return &s.ParameterList }),
)

func ContentSearchCodec() *schema.Struct[ContentSearchStruct] { return contentSearchCodec }

func (s ContentSearchStruct) ToTLV(tag tlv.Tag, w *tlv.Writer) error {
	return contentSearchCodec.Encode(w, tag, s)
}

func ContentSearchStructFromTLV(tag tlv.Tag, r *tlv.Reader) (ContentSearchStruct, error) {
	return contentSearchCodec.Decode(r, tag)
}

func (s ContentSearchStruct) String() string { return contentSearchCodec.Format(s) }
