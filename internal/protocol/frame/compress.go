package frame

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// FlagCompressed marks a zstd-compressed payload.
const FlagCompressed uint16 = 0x04

var ErrCorruptPayload = errors.New("frame: corrupt compressed payload")

// zstd.Encoder is safe for concurrent EncodeAll.
var zstdEncoder *zstd.Encoder

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("frame: zstd encoder initialization failed: " + err.Error())
	}
}

// Compress returns f with a zstd payload and FlagCompressed set. Payloads
// that do not shrink are returned unchanged.
func Compress(f Frame) Frame {
	if f.Header.Flags&FlagCompressed != 0 || len(f.Payload) == 0 {
		return f
	}
	packed := zstdEncoder.EncodeAll(f.Payload, nil)
	if len(packed) >= len(f.Payload) {
		return f
	}
	f.Payload = packed
	f.Header.Flags |= FlagCompressed
	f.Header.PayloadLen = uint32(len(packed))
	return f
}

// decompress inflates a compressed payload, refusing output beyond max.
func decompress(payload []byte, max uint32) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(payload), zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	defer dec.Close()
	out, err := io.ReadAll(io.LimitReader(dec, int64(max)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	if uint64(len(out)) > uint64(max) {
		return nil, ErrPayloadTooLarge
	}
	return out, nil
}
