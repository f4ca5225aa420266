package packet

import (
	"bytes"
	"fmt"
)

// Packet pairs a Header with the payload it describes. The payload is the
// source of truth; the header size is re-derived whenever it changes.
type Packet[S, T Unsigned] struct {
	header  Header[S, T]
	payload []byte
}

// New builds a packet from a type tag and a copy of payload.
func New[S, T Unsigned](typ MessageType[T], payload []byte) (Packet[S, T], error) {
	if err := ensureFits[S](len(payload)); err != nil {
		return Packet[S, T]{}, err
	}
	return Packet[S, T]{
		header:  Header[S, T]{size: S(len(payload)), typ: typ.value},
		payload: clonePayload(payload),
	}, nil
}

// HasCompletePacket reports whether data starts with a full header and the
// whole payload that header announces.
func HasCompletePacket[S, T Unsigned](data []byte) bool {
	if !HasCompleteHeader[S, T](data) {
		return false
	}
	size, _ := decodeHeader[S, T](data)
	return uint64(len(data)-headerWidth[S, T]()) >= uint64(size)
}

// FromData copies the packet at the start of data without modifying it.
// Trailing bytes beyond the packet are ignored.
func FromData[S, T Unsigned](data []byte) (Packet[S, T], error) {
	if !HasCompletePacket[S, T](data) {
		return Packet[S, T]{}, fmt.Errorf("%w: incomplete packet in %d bytes", ErrLength, len(data))
	}
	size, typ := decodeHeader[S, T](data)
	start := headerWidth[S, T]()
	return Packet[S, T]{
		header:  Header[S, T]{size: size, typ: typ},
		payload: clonePayload(data[start : start+int(size)]),
	}, nil
}

// Extract removes exactly one packet from the front of buf. Bytes after it
// stay buffered for the next call; buf is untouched on error.
func Extract[S, T Unsigned](buf *bytes.Buffer) (Packet[S, T], error) {
	p, err := FromData[S, T](buf.Bytes())
	if err != nil {
		return Packet[S, T]{}, err
	}
	buf.Next(p.DataSize())
	return p, nil
}

func (p Packet[S, T]) Header() Header[S, T] {
	return p.header
}

func (p Packet[S, T]) Type() T {
	return p.header.typ
}

func (p Packet[S, T]) Size() S {
	return p.header.size
}

// Payload returns a copy of the payload bytes.
func (p Packet[S, T]) Payload() []byte {
	return clonePayload(p.payload)
}

// SetPayload replaces the payload and resynchronizes the header size. The
// packet is unchanged when the new payload does not fit the size field.
func (p *Packet[S, T]) SetPayload(payload []byte) error {
	if err := ensureFits[S](len(payload)); err != nil {
		return err
	}
	p.payload = clonePayload(payload)
	p.header.SetSize(Length(S(len(p.payload))))
	return nil
}

func (p *Packet[S, T]) SetType(typ MessageType[T]) *Packet[S, T] {
	p.header.SetType(typ)
	return p
}

// ToData serializes the header immediately followed by the payload.
func (p Packet[S, T]) ToData() []byte {
	out := make([]byte, 0, p.DataSize())
	out = append(out, p.header.ToData()...)
	return append(out, p.payload...)
}

// DataSize is the exact length ToData produces.
func (p Packet[S, T]) DataSize() int {
	return headerWidth[S, T]() + len(p.payload)
}

func (p Packet[S, T]) Equal(other Packet[S, T]) bool {
	return p.header == other.header && bytes.Equal(p.payload, other.payload)
}

func (p Packet[S, T]) String() string {
	return fmt.Sprintf("Packet{Type:%d, Size:%d}", p.header.typ, p.header.size)
}

func ensureFits[S Unsigned](n int) error {
	if uint64(n) > maxOf[S]() {
		return fmt.Errorf("%w: payload of %d bytes exceeds size field maximum %d",
			ErrRange, n, maxOf[S]())
	}
	return nil
}

func clonePayload(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
