package packet

import (
	"bytes"
	"fmt"
)

// PayloadLength is a size field value. It exists so that a length and a type
// tag of the same integer type cannot be swapped at a call site.
type PayloadLength[S Unsigned] struct {
	value S
}

// Length wraps n as a payload length.
func Length[S Unsigned](n S) PayloadLength[S] {
	return PayloadLength[S]{value: n}
}

func (l PayloadLength[S]) Value() S {
	return l.value
}

// MessageType is an application-defined type tag.
type MessageType[T Unsigned] struct {
	value T
}

// TypeTag wraps t as a message type.
func TypeTag[T Unsigned](t T) MessageType[T] {
	return MessageType[T]{value: t}
}

func (m MessageType[T]) Value() T {
	return m.value
}

// Header is the in-memory form of the fixed-width wire header.
type Header[S, T Unsigned] struct {
	size S
	typ  T
}

func NewHeader[S, T Unsigned](size PayloadLength[S], typ MessageType[T]) Header[S, T] {
	return Header[S, T]{size: size.value, typ: typ.value}
}

// HeaderLen is the number of wire bytes a header with these field types occupies.
func HeaderLen[S, T Unsigned]() int {
	return headerWidth[S, T]()
}

// MaxSize is the largest payload length the size field S can describe.
func MaxSize[S Unsigned]() uint64 {
	return maxOf[S]()
}

func HasCompleteHeader[S, T Unsigned](data []byte) bool {
	return len(data) >= headerWidth[S, T]()
}

// HeaderFromData parses the header at the start of data without modifying it.
func HeaderFromData[S, T Unsigned](data []byte) (Header[S, T], error) {
	if !HasCompleteHeader[S, T](data) {
		return Header[S, T]{}, fmt.Errorf("%w: header needs %d bytes, have %d",
			ErrLength, headerWidth[S, T](), len(data))
	}
	size, typ := decodeHeader[S, T](data)
	return Header[S, T]{size: size, typ: typ}, nil
}

// ExtractHeader parses the header at the front of buf and consumes its bytes.
// buf is left untouched on error.
func ExtractHeader[S, T Unsigned](buf *bytes.Buffer) (Header[S, T], error) {
	h, err := HeaderFromData[S, T](buf.Bytes())
	if err != nil {
		return Header[S, T]{}, err
	}
	buf.Next(headerWidth[S, T]())
	return h, nil
}

func (h Header[S, T]) Size() S {
	return h.size
}

func (h Header[S, T]) Type() T {
	return h.typ
}

func (h *Header[S, T]) SetSize(size PayloadLength[S]) *Header[S, T] {
	h.size = size.value
	return h
}

func (h *Header[S, T]) SetType(typ MessageType[T]) *Header[S, T] {
	h.typ = typ.value
	return h
}

func (h Header[S, T]) ToData() []byte {
	return encodeHeader(h.size, h.typ)
}

func (Header[S, T]) DataSize() int {
	return headerWidth[S, T]()
}

func (Header[S, T]) MaxSize() uint64 {
	return maxOf[S]()
}

func (h Header[S, T]) String() string {
	return fmt.Sprintf("Header{Size:%d, Type:%d}", h.size, h.typ)
}
