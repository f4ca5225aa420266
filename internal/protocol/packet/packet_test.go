package packet

import (
	"bytes"
	"errors"
	"testing"
)

func TestPacketToDataConcreteLayout(t *testing.T) {
	p, err := New[uint8](TypeTag(uint8(7)), []byte{0x41, 0x42, 0x43})
	if err != nil {
		t.Fatalf("new packet: %v", err)
	}
	want := []byte{0x03, 0x07, 0x41, 0x42, 0x43}
	if !bytes.Equal(p.ToData(), want) {
		t.Fatalf("wire mismatch: got=%x want=%x", p.ToData(), want)
	}
	if p.DataSize() != len(want) {
		t.Fatalf("data size mismatch: got=%d want=%d", p.DataSize(), len(want))
	}
}

func TestExtractLeavesTrailingBytes(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x03, 0x07, 0x41, 0x42, 0x43, 0xFF})
	p, err := Extract[uint8, uint8](buf)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if p.Type() != 7 || !bytes.Equal(p.Payload(), []byte{0x41, 0x42, 0x43}) {
		t.Fatalf("unexpected packet: %v payload=%x", p, p.Payload())
	}
	if !bytes.Equal(buf.Bytes(), []byte{0xFF}) {
		t.Fatalf("unexpected remainder: %x", buf.Bytes())
	}
}

func TestExtractMatchesFromData(t *testing.T) {
	src, err := New[uint16](TypeTag(uint16(0x1234)), []byte("hello"))
	if err != nil {
		t.Fatalf("new packet: %v", err)
	}
	extra := []byte{0xDE, 0xAD, 0xBE}
	data := append(src.ToData(), extra...)

	peeked, err := FromData[uint16, uint16](data)
	if err != nil {
		t.Fatalf("from data: %v", err)
	}
	buf := bytes.NewBuffer(bytes.Clone(data))
	extracted, err := Extract[uint16, uint16](buf)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !peeked.Equal(extracted) || !peeked.Equal(src) {
		t.Fatalf("packets differ: peeked=%v extracted=%v", peeked, extracted)
	}
	if !bytes.Equal(buf.Bytes(), extra) {
		t.Fatalf("expected %d trailing bytes, got %x", len(extra), buf.Bytes())
	}
}

func TestStreamingCompleteness(t *testing.T) {
	var buf bytes.Buffer
	steps := []struct {
		chunk    []byte
		complete bool
	}{
		{[]byte{0x03, 0x07}, false},
		{[]byte{0x41, 0x42}, false},
		{[]byte{0x43}, true},
	}
	for i, step := range steps {
		buf.Write(step.chunk)
		if got := HasCompletePacket[uint8, uint8](buf.Bytes()); got != step.complete {
			t.Fatalf("step %d: complete got=%v want=%v", i, got, step.complete)
		}
		if !step.complete {
			if _, err := Extract[uint8, uint8](&buf); !errors.Is(err, ErrLength) {
				t.Fatalf("step %d: expected ErrLength, got %v", i, err)
			}
		}
	}
	p, err := Extract[uint8, uint8](&buf)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if p.Type() != 7 || string(p.Payload()) != "ABC" {
		t.Fatalf("unexpected packet: %v", p)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected empty buffer, got %d bytes", buf.Len())
	}
}

func TestPredicatesAreIdempotent(t *testing.T) {
	data := []byte{0x00, 0x04, 0x01, 0x02}
	orig := bytes.Clone(data)
	for i := 0; i < 3; i++ {
		if !HasCompleteHeader[uint16, uint8](data) {
			t.Fatalf("call %d: header should be complete", i)
		}
		if HasCompletePacket[uint16, uint8](data) {
			t.Fatalf("call %d: packet should be incomplete", i)
		}
	}
	if !bytes.Equal(data, orig) {
		t.Fatalf("input modified: %x", data)
	}
}

func TestShortBufferRejected(t *testing.T) {
	for n := 0; n < HeaderLen[uint32, uint16](); n++ {
		data := bytes.Repeat([]byte{0x00}, n)
		if _, err := FromData[uint32, uint16](data); !errors.Is(err, ErrLength) {
			t.Fatalf("len=%d: expected ErrLength from FromData, got %v", n, err)
		}
		buf := bytes.NewBuffer(bytes.Clone(data))
		if _, err := Extract[uint32, uint16](buf); !errors.Is(err, ErrLength) {
			t.Fatalf("len=%d: expected ErrLength from Extract, got %v", n, err)
		}
		if buf.Len() != n {
			t.Fatalf("len=%d: buffer modified to %d bytes", n, buf.Len())
		}
	}
}

func TestHeaderCompleteButPayloadIncomplete(t *testing.T) {
	data := []byte{0x00, 0x0A, 0x01, 1, 2, 3}
	if HasCompletePacket[uint16, uint8](data) {
		t.Fatalf("declared size 10 with 3 payload bytes must be incomplete")
	}
	if _, err := FromData[uint16, uint8](data); !errors.Is(err, ErrLength) {
		t.Fatalf("expected ErrLength, got %v", err)
	}
}

func TestCapacityBoundary(t *testing.T) {
	limit := int(MaxSize[uint8]())
	if _, err := New[uint8](TypeTag(uint8(1)), make([]byte, limit)); err != nil {
		t.Fatalf("payload of max size must be accepted: %v", err)
	}
	if _, err := New[uint8](TypeTag(uint8(1)), make([]byte, limit+1)); !errors.Is(err, ErrRange) {
		t.Fatalf("expected ErrRange, got %v", err)
	}
}

func TestSetPayloadResyncsSizeAndValidates(t *testing.T) {
	p, err := New[uint8](TypeTag(uint16(9)), nil)
	if err != nil {
		t.Fatalf("new packet: %v", err)
	}
	if p.Size() != 0 || p.DataSize() != 3 {
		t.Fatalf("empty payload: size=%d data size=%d", p.Size(), p.DataSize())
	}

	if err := p.SetPayload([]byte("abcd")); err != nil {
		t.Fatalf("set payload: %v", err)
	}
	if p.Size() != 4 || p.Header().Size() != 4 {
		t.Fatalf("size not resynchronized: %d", p.Size())
	}

	if err := p.SetPayload(make([]byte, 256)); !errors.Is(err, ErrRange) {
		t.Fatalf("expected ErrRange, got %v", err)
	}
	if p.Size() != 4 || string(p.Payload()) != "abcd" {
		t.Fatalf("packet changed after rejected payload: %v", p)
	}
}

func TestPacketDoesNotAliasCallerMemory(t *testing.T) {
	payload := []byte("abc")
	p, err := New[uint16](TypeTag(uint8(1)), payload)
	if err != nil {
		t.Fatalf("new packet: %v", err)
	}
	payload[0] = 'z'
	if string(p.Payload()) != "abc" {
		t.Fatalf("packet aliases construction payload")
	}

	data := p.ToData()
	decoded, err := FromData[uint16, uint8](data)
	if err != nil {
		t.Fatalf("from data: %v", err)
	}
	data[len(data)-1] = 'z'
	if string(decoded.Payload()) != "abc" {
		t.Fatalf("decoded packet aliases source buffer")
	}
}

func TestZeroLengthPayloadExtraction(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00, 0x00, 0x05})
	p, err := Extract[uint16, uint8](buf)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if p.Type() != 5 || len(p.Payload()) != 0 {
		t.Fatalf("unexpected packet: %v", p)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected empty buffer, got %d bytes", buf.Len())
	}
}

func TestExtractRepeatedlyDrainsBuffer(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 4; i++ {
		p, err := New[uint32](TypeTag(uint32(i)), bytes.Repeat([]byte{byte(i)}, i*3))
		if err != nil {
			t.Fatalf("new packet %d: %v", i, err)
		}
		buf.Write(p.ToData())
	}
	buf.Write([]byte{0x00, 0x00})

	count := 0
	for HasCompletePacket[uint32, uint32](buf.Bytes()) {
		p, err := Extract[uint32, uint32](&buf)
		if err != nil {
			t.Fatalf("extract %d: %v", count, err)
		}
		if int(p.Type()) != count || len(p.Payload()) != count*3 {
			t.Fatalf("packet %d mismatch: %v", count, p)
		}
		count++
	}
	if count != 4 || buf.Len() != 2 {
		t.Fatalf("expected 4 packets and 2 leftover bytes, got %d and %d", count, buf.Len())
	}
}

func roundTrip[S, T Unsigned](t *testing.T, typ T, payload []byte) {
	t.Helper()
	p, err := New[S](TypeTag(typ), payload)
	if err != nil {
		t.Fatalf("new packet: %v", err)
	}
	out, err := FromData[S, T](p.ToData())
	if err != nil {
		t.Fatalf("from data: %v", err)
	}
	if out.Type() != typ || !bytes.Equal(out.Payload(), payload) {
		t.Fatalf("round trip mismatch: got=%v want type=%d len=%d", out, typ, len(payload))
	}
}

func TestRoundTripAcrossWidths(t *testing.T) {
	payload := bytes.Repeat([]byte("xyz"), 50)
	roundTrip[uint8, uint8](t, 0xFF, payload)
	roundTrip[uint16, uint8](t, 0x01, payload)
	roundTrip[uint16, uint16](t, 0xFFFF, payload)
	roundTrip[uint32, uint16](t, 0x8000, nil)
	roundTrip[uint32, uint32](t, 0xDEADBEEF, payload)
	roundTrip[uint64, uint32](t, 42, payload)
	roundTrip[uint64, uint64](t, 1<<63, payload)
}
