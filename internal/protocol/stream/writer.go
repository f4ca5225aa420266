package stream

import (
	"io"

	"github.com/misje/genericpacket/internal/protocol/packet"
)

// Writer serializes frames onto an io.Writer.
type Writer struct {
	dst   io.Writer
	codec packet.Codec
}

func NewWriter(dst io.Writer, codec packet.Codec) *Writer {
	return &Writer{dst: dst, codec: codec}
}

// WritePacket encodes one packet and writes it in a single call.
func (w *Writer) WritePacket(typ uint64, payload []byte) error {
	b, err := w.codec.Encode(typ, payload)
	if err != nil {
		return err
	}
	_, err = w.dst.Write(b)
	return err
}

func (w *Writer) WriteFrame(fr packet.Frame) error {
	return w.WritePacket(fr.Type, fr.Payload)
}
