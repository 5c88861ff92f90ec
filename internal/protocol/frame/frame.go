package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
)

const (
	HeaderLen = 16

	// Magic is "TLVF" read as a little-endian uint32.
	Magic   uint32 = 0x46564C54
	Version uint16 = 1

	FlagIsResponse uint16 = 0x01
	FlagIsError    uint16 = 0x02
)

var (
	ErrShortHeader        = errors.New("frame: short fixed header")
	ErrBadMagic           = errors.New("frame: bad magic")
	ErrUnsupportedVersion = errors.New("frame: unsupported version")
	ErrPayloadTooLarge    = errors.New("frame: payload too large")
	ErrShortPayload       = errors.New("frame: short payload")
)

// Header is the fixed little-endian wire header that precedes a TLV payload.
type Header struct {
	Magic      uint32
	Version    uint16
	Flags      uint16
	MessageID  uint32
	PayloadLen uint32
}

// Frame is one complete wire message. Payload holds exactly one encoded
// TLV element; ReadFrame returns it already inflated.
type Frame struct {
	Header  Header
	Payload []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 8 * 1024 * 1024}
}

// New wraps an encoded payload with a current-version header.
func New(messageID uint32, flags uint16, payload []byte) Frame {
	return Frame{
		Header: Header{
			Magic:      Magic,
			Version:    Version,
			Flags:      flags,
			MessageID:  messageID,
			PayloadLen: uint32(len(payload)),
		},
		Payload: payload,
	}
}

// Reader starts a TLV decode pass over the payload.
func (f Frame) Reader(limits tlv.Limits) *tlv.Reader {
	return tlv.NewReader(f.Payload, limits)
}

func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [HeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}

	h, err := DecodeHeader(fixed[:])
	if err != nil {
		return Frame{}, err
	}
	if h.Magic != Magic {
		return Frame{}, fmt.Errorf("%w: 0x%08x", ErrBadMagic, h.Magic)
	}
	if h.Version != Version {
		return Frame{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.PayloadLen > limits.MaxPayloadBytes {
		return Frame{}, ErrPayloadTooLarge
	}

	payload := make([]byte, h.PayloadLen)
	if h.PayloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return Frame{}, ErrShortPayload
			}
			return Frame{}, err
		}
	}

	if h.Flags&FlagCompressed != 0 {
		payload, err = decompress(payload, limits.MaxPayloadBytes)
		if err != nil {
			return Frame{}, err
		}
		h.Flags &^= FlagCompressed
		h.PayloadLen = uint32(len(payload))
	}

	return Frame{Header: h, Payload: payload}, nil
}

func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	if uint64(len(f.Payload)) > uint64(limits.MaxPayloadBytes) {
		return ErrPayloadTooLarge
	}

	h := f.Header
	if h.Magic == 0 {
		h.Magic = Magic
	}
	if h.Version == 0 {
		h.Version = Version
	}
	h.PayloadLen = uint32(len(f.Payload))

	if _, err := w.Write(EncodeHeader(h)); err != nil {
		return err
	}
	if len(f.Payload) > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return err
		}
	}
	return nil
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderLen)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint32(buf[8:12], h.MessageID)
	binary.LittleEndian.PutUint32(buf[12:16], h.PayloadLen)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderLen {
		return Header{}, fmt.Errorf("frame: invalid fixed header length: %d", len(b))
	}
	return Header{
		Magic:      binary.LittleEndian.Uint32(b[0:4]),
		Version:    binary.LittleEndian.Uint16(b[4:6]),
		Flags:      binary.LittleEndian.Uint16(b[6:8]),
		MessageID:  binary.LittleEndian.Uint32(b[8:12]),
		PayloadLen: binary.LittleEndian.Uint32(b[12:16]),
	}, nil
}
