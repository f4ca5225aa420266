package packet

import (
	"encoding/binary"
	"math/bits"
)

// Unsigned is the set of integer types a header field can be declared with.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

func maxOf[U Unsigned]() uint64 {
	return uint64(^U(0))
}

func widthOf[U Unsigned]() int {
	return bits.Len64(maxOf[U]()) / 8
}

func headerWidth[S, T Unsigned]() int {
	return widthOf[S]() + widthOf[T]()
}

func appendUint[U Unsigned](b []byte, v U) []byte {
	switch widthOf[U]() {
	case 1:
		return append(b, byte(v))
	case 2:
		return binary.BigEndian.AppendUint16(b, uint16(v))
	case 4:
		return binary.BigEndian.AppendUint32(b, uint32(v))
	default:
		return binary.BigEndian.AppendUint64(b, uint64(v))
	}
}

func readUint[U Unsigned](b []byte) U {
	switch widthOf[U]() {
	case 1:
		return U(b[0])
	case 2:
		return U(binary.BigEndian.Uint16(b))
	case 4:
		return U(binary.BigEndian.Uint32(b))
	default:
		return U(binary.BigEndian.Uint64(b))
	}
}

// encodeHeader lays out size then type, big-endian, with no padding.
func encodeHeader[S, T Unsigned](size S, typ T) []byte {
	buf := make([]byte, 0, headerWidth[S, T]())
	buf = appendUint(buf, size)
	return appendUint(buf, typ)
}

// decodeHeader trusts its caller: b must hold at least headerWidth bytes.
func decodeHeader[S, T Unsigned](b []byte) (S, T) {
	ws := widthOf[S]()
	return readUint[S](b[:ws]), readUint[T](b[ws:])
}
