package packet

import (
	"bytes"
	"fmt"
)

// Format binds the size and type field widths of one protocol. It carries no
// state; its methods are the width-specific forms of the package functions.
type Format[S, T Unsigned] struct{}

// Named profiles, <size bits>x<type bits>.
var (
	Format8x8   Format[uint8, uint8]
	Format16x8  Format[uint16, uint8]
	Format16x16 Format[uint16, uint16]
	Format32x16 Format[uint32, uint16]
	Format32x32 Format[uint32, uint32]
	Format64x32 Format[uint64, uint32]
)

// Frame is a decoded packet with its widths erased.
type Frame struct {
	Type    uint64
	Payload []byte
}

// Codec is the width-erased view of a Format, for protocols whose widths are
// chosen at runtime (from configuration or flags).
type Codec interface {
	SizeBits() int
	TypeBits() int
	HeaderLen() int
	MaxSize() uint64
	MaxType() uint64
	HasCompleteHeader(data []byte) bool
	HasCompletePacket(data []byte) bool
	// PeekHeader decodes the header fields at the start of data.
	PeekHeader(data []byte) (size uint64, typ uint64, err error)
	Encode(typ uint64, payload []byte) ([]byte, error)
	DecodeFrame(data []byte) (Frame, error)
	ExtractFrame(buf *bytes.Buffer) (Frame, error)
}

var (
	_ Codec = Format8x8
	_ Codec = Format64x32
)

// NewCodec returns the Format for the given field widths in bits.
func NewCodec(sizeBits, typeBits int) (Codec, error) {
	switch sizeBits {
	case 8:
		return codecWithSize[uint8](typeBits)
	case 16:
		return codecWithSize[uint16](typeBits)
	case 32:
		return codecWithSize[uint32](typeBits)
	case 64:
		return codecWithSize[uint64](typeBits)
	default:
		return nil, fmt.Errorf("%w: size field %d bits", ErrUnsupportedWidth, sizeBits)
	}
}

func codecWithSize[S Unsigned](typeBits int) (Codec, error) {
	switch typeBits {
	case 8:
		return Format[S, uint8]{}, nil
	case 16:
		return Format[S, uint16]{}, nil
	case 32:
		return Format[S, uint32]{}, nil
	case 64:
		return Format[S, uint64]{}, nil
	default:
		return nil, fmt.Errorf("%w: type field %d bits", ErrUnsupportedWidth, typeBits)
	}
}

func (Format[S, T]) SizeBits() int {
	return widthOf[S]() * 8
}

func (Format[S, T]) TypeBits() int {
	return widthOf[T]() * 8
}

func (Format[S, T]) HeaderLen() int {
	return headerWidth[S, T]()
}

func (Format[S, T]) MaxSize() uint64 {
	return maxOf[S]()
}

func (Format[S, T]) MaxType() uint64 {
	return maxOf[T]()
}

func (Format[S, T]) HasCompleteHeader(data []byte) bool {
	return HasCompleteHeader[S, T](data)
}

func (Format[S, T]) HasCompletePacket(data []byte) bool {
	return HasCompletePacket[S, T](data)
}

func (Format[S, T]) New(typ T, payload []byte) (Packet[S, T], error) {
	return New[S](TypeTag(typ), payload)
}

func (Format[S, T]) HeaderFromData(data []byte) (Header[S, T], error) {
	return HeaderFromData[S, T](data)
}

func (Format[S, T]) ExtractHeader(buf *bytes.Buffer) (Header[S, T], error) {
	return ExtractHeader[S, T](buf)
}

func (Format[S, T]) FromData(data []byte) (Packet[S, T], error) {
	return FromData[S, T](data)
}

func (Format[S, T]) Extract(buf *bytes.Buffer) (Packet[S, T], error) {
	return Extract[S, T](buf)
}

func (Format[S, T]) PeekHeader(data []byte) (uint64, uint64, error) {
	h, err := HeaderFromData[S, T](data)
	if err != nil {
		return 0, 0, err
	}
	return uint64(h.size), uint64(h.typ), nil
}

func (f Format[S, T]) Encode(typ uint64, payload []byte) ([]byte, error) {
	if typ > maxOf[T]() {
		return nil, fmt.Errorf("%w: type tag %d exceeds type field maximum %d",
			ErrRange, typ, maxOf[T]())
	}
	p, err := f.New(T(typ), payload)
	if err != nil {
		return nil, err
	}
	return p.ToData(), nil
}

func (Format[S, T]) DecodeFrame(data []byte) (Frame, error) {
	p, err := FromData[S, T](data)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: uint64(p.header.typ), Payload: p.payload}, nil
}

func (Format[S, T]) ExtractFrame(buf *bytes.Buffer) (Frame, error) {
	p, err := Extract[S, T](buf)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: uint64(p.header.typ), Payload: p.payload}, nil
}

func (f Format[S, T]) String() string {
	return fmt.Sprintf("size=%d type=%d", f.SizeBits(), f.TypeBits())
}
