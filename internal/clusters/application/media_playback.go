package application

import (
	"github.com/danmuck/tlvcodec/internal/protocol/schema"
	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
)

// PlaybackPositionStruct samples the playback position. Position is
// nullable: nil encodes as a TLV null, not as an absent member.
type PlaybackPositionStruct struct {
	UpdatedAt uint64
	Position  *uint64
}

var playbackPositionCodec = schema.MustStruct("MediaPlaybackClusterPlaybackPositionStruct",
	schema.Required(0, "updatedAt", schema.Uint64,
		func(s *PlaybackPositionStruct) *uint64 { return &s.UpdatedAt }),
	schema.Required(1, "position", schema.Nullable(schema.Uint64),
		func(s *PlaybackPositionStruct) **uint64 { return &s.Position }),
)

func PlaybackPositionCodec() *schema.Struct[PlaybackPositionStruct] { return playbackPositionCodec }

func (s PlaybackPositionStruct) ToTLV(tag tlv.Tag, w *tlv.Writer) error {
	return playbackPositionCodec.Encode(w, tag, s)
}

func PlaybackPositionStructFromTLV(tag tlv.Tag, r *tlv.Reader) (PlaybackPositionStruct, error) {
	return playbackPositionCodec.Decode(r, tag)
}

func (s PlaybackPositionStruct) String() string { return playbackPositionCodec.Format(s) }
