package packet

import (
	"bytes"
	"errors"
	"testing"
)

func TestHasCompleteHeader(t *testing.T) {
	if HasCompleteHeader[uint16, uint8]([]byte{0x00, 0x01}) {
		t.Fatalf("2 bytes must not hold a 3-byte header")
	}
	if !HasCompleteHeader[uint16, uint8]([]byte{0x00, 0x01, 0x02}) {
		t.Fatalf("3 bytes must hold a 3-byte header")
	}
	if !HasCompleteHeader[uint8, uint8]([]byte{0x00, 0x01, 0xFF}) {
		t.Fatalf("extra bytes must not matter")
	}
}

func TestHeaderFromDataDoesNotModifyInput(t *testing.T) {
	data := []byte{0x00, 0x05, 0x09, 0xAA}
	orig := bytes.Clone(data)

	h, err := HeaderFromData[uint16, uint8](data)
	if err != nil {
		t.Fatalf("header from data: %v", err)
	}
	if h.Size() != 5 || h.Type() != 9 {
		t.Fatalf("unexpected header: %v", h)
	}
	if !bytes.Equal(data, orig) {
		t.Fatalf("input modified: %x", data)
	}
}

func TestHeaderFromDataShortBuffer(t *testing.T) {
	_, err := HeaderFromData[uint32, uint32]([]byte{1, 2, 3})
	if !errors.Is(err, ErrLength) {
		t.Fatalf("expected ErrLength, got %v", err)
	}
}

func TestExtractHeaderConsumesHeaderBytes(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x03, 0x07, 0x41, 0x42, 0x43})
	h, err := ExtractHeader[uint8, uint8](buf)
	if err != nil {
		t.Fatalf("extract header: %v", err)
	}
	if h.Size() != 3 || h.Type() != 7 {
		t.Fatalf("unexpected header: %v", h)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0x41, 0x42, 0x43}) {
		t.Fatalf("unexpected remainder: %x", buf.Bytes())
	}
}

func TestExtractHeaderShortBufferLeavesBuffer(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00})
	_, err := ExtractHeader[uint16, uint16](buf)
	if !errors.Is(err, ErrLength) {
		t.Fatalf("expected ErrLength, got %v", err)
	}
	if buf.Len() != 1 {
		t.Fatalf("buffer modified: len=%d", buf.Len())
	}
}

func TestHeaderSettersChain(t *testing.T) {
	h := NewHeader(Length(uint16(1)), TypeTag(uint8(2)))
	h.SetSize(Length(uint16(300))).SetType(TypeTag(uint8(4)))
	if h.Size() != 300 || h.Type() != 4 {
		t.Fatalf("setters not applied: %v", h)
	}
	if !bytes.Equal(h.ToData(), []byte{0x01, 0x2C, 0x04}) {
		t.Fatalf("unexpected wire bytes: %x", h.ToData())
	}
}

func TestHeaderConstants(t *testing.T) {
	var h Header[uint16, uint32]
	if h.DataSize() != 6 || HeaderLen[uint16, uint32]() != 6 {
		t.Fatalf("unexpected data size: %d", h.DataSize())
	}
	if h.MaxSize() != 65535 || MaxSize[uint16]() != 65535 {
		t.Fatalf("unexpected max size: %d", h.MaxSize())
	}
	if MaxSize[uint8]() != 255 || MaxSize[uint32]() != 1<<32-1 {
		t.Fatalf("unexpected max sizes")
	}
}
