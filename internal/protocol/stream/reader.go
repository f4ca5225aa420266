package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/misje/genericpacket/internal/protocol/packet"
)

// Reader pulls frames off an io.Reader.
type Reader struct {
	src   io.Reader
	d     *Deframer
	chunk []byte
}

func NewReader(src io.Reader, codec packet.Codec, cfg Config) *Reader {
	d := NewDeframer(codec, cfg)
	return &Reader{
		src:   src,
		d:     d,
		chunk: make([]byte, d.limits.ReadChunkBytes),
	}
}

// Next blocks until one frame is available. A clean end of stream returns
// io.EOF; an end of stream inside a frame returns io.ErrUnexpectedEOF.
func (r *Reader) Next() (packet.Frame, error) {
	for {
		fr, ok, err := r.d.Next()
		if err != nil {
			return packet.Frame{}, err
		}
		if ok {
			return fr, nil
		}
		if r.d.Buffered() > r.d.limits.MaxBufferedBytes {
			return packet.Frame{}, fmt.Errorf("%w: %d bytes, limit %d",
				ErrBufferOverflow, r.d.Buffered(), r.d.limits.MaxBufferedBytes)
		}

		n, err := r.src.Read(r.chunk)
		if n > 0 {
			_, _ = r.d.Write(r.chunk[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return packet.Frame{}, err
			}
			if n > 0 {
				continue
			}
			if r.d.Buffered() == 0 {
				return packet.Frame{}, io.EOF
			}
			return packet.Frame{}, io.ErrUnexpectedEOF
		}
	}
}

// Buffered reports bytes read from the source but not yet returned.
func (r *Reader) Buffered() int {
	return r.d.Buffered()
}
