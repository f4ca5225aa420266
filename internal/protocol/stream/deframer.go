package stream

import (
	"bytes"
	"fmt"

	"github.com/misje/genericpacket/internal/protocol/packet"
	"github.com/rs/zerolog"
)

// Observer receives deframing events. Implementations shared between
// connections must be safe for concurrent use.
type Observer interface {
	FrameDecoded(typ uint64, payloadBytes int)
	AwaitingBytes(buffered int)
}

type nopObserver struct{}

func (nopObserver) FrameDecoded(uint64, int) {}
func (nopObserver) AwaitingBytes(int)        {}

// Config wires optional collaborators into a Deframer or Reader.
type Config struct {
	Limits   Limits
	Logger   *zerolog.Logger
	Observer Observer
}

// Deframer accumulates inbound bytes and hands out complete frames. It is
// not safe for concurrent use; one Deframer belongs to one stream.
type Deframer struct {
	codec  packet.Codec
	limits Limits
	log    zerolog.Logger
	obs    Observer
	buf    bytes.Buffer
}

func NewDeframer(codec packet.Codec, cfg Config) *Deframer {
	d := &Deframer{
		codec:  codec,
		limits: cfg.Limits.WithDefaults(),
		log:    zerolog.Nop(),
		obs:    nopObserver{},
	}
	if cfg.Logger != nil {
		d.log = cfg.Logger.With().Str("profile", fmt.Sprint(codec)).Logger()
	}
	if cfg.Observer != nil {
		d.obs = cfg.Observer
	}
	return d
}

// Write appends raw stream bytes. It never fails.
func (d *Deframer) Write(p []byte) (int, error) {
	return d.buf.Write(p)
}

// Buffered is the number of received bytes not yet returned as frames.
func (d *Deframer) Buffered() int {
	return d.buf.Len()
}

func (d *Deframer) Limits() Limits {
	return d.limits
}

// Next extracts the next complete frame. ok is false when more bytes are
// needed; that is not an error.
func (d *Deframer) Next() (fr packet.Frame, ok bool, err error) {
	data := d.buf.Bytes()
	if !d.codec.HasCompleteHeader(data) {
		if len(data) > 0 {
			d.obs.AwaitingBytes(len(data))
		}
		return packet.Frame{}, false, nil
	}
	size, typ, err := d.codec.PeekHeader(data)
	if err != nil {
		return packet.Frame{}, false, err
	}
	if size > d.limits.MaxPayloadBytes {
		return packet.Frame{}, false, fmt.Errorf("%w: type %d announces %d bytes, limit %d",
			ErrPayloadTooLarge, typ, size, d.limits.MaxPayloadBytes)
	}
	if !d.codec.HasCompletePacket(data) {
		d.log.Debug().
			Uint64("type", typ).
			Uint64("size", size).
			Int("buffered", len(data)).
			Msg("stream.Deframer awaiting payload")
		d.obs.AwaitingBytes(len(data))
		return packet.Frame{}, false, nil
	}

	fr, err = d.codec.ExtractFrame(&d.buf)
	if err != nil {
		return packet.Frame{}, false, err
	}
	d.log.Debug().
		Uint64("type", fr.Type).
		Int("payload_bytes", len(fr.Payload)).
		Int("buffered", d.buf.Len()).
		Msg("stream.Deframer frame extracted")
	d.obs.FrameDecoded(fr.Type, len(fr.Payload))
	return fr, true, nil
}

// Drain extracts every complete frame currently buffered.
func (d *Deframer) Drain() ([]packet.Frame, error) {
	var out []packet.Frame
	for {
		fr, ok, err := d.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, fr)
	}
}

// Reset discards buffered bytes, e.g. after a fatal protocol error.
func (d *Deframer) Reset() {
	d.buf.Reset()
}
