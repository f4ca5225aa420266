package stream

import (
	"errors"
	"fmt"
)

var (
	ErrPayloadTooLarge = errors.New("stream: announced payload too large")
	ErrBufferOverflow  = errors.New("stream: buffered bytes exceed limit")
)

// Limits constrains deframing memory use.
type Limits struct {
	MaxPayloadBytes  uint64
	MaxBufferedBytes int
	ReadChunkBytes   int
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes:  8 * 1024 * 1024,
		MaxBufferedBytes: 16 * 1024 * 1024,
		ReadChunkBytes:   32 * 1024,
	}
}

// WithDefaults fills zero fields from DefaultLimits.
func (l Limits) WithDefaults() Limits {
	def := DefaultLimits()
	if l.MaxPayloadBytes == 0 {
		l.MaxPayloadBytes = def.MaxPayloadBytes
	}
	if l.MaxBufferedBytes <= 0 {
		l.MaxBufferedBytes = def.MaxBufferedBytes
	}
	if l.ReadChunkBytes <= 0 {
		l.ReadChunkBytes = def.ReadChunkBytes
	}
	return l
}

func (l Limits) Validate() error {
	if l.ReadChunkBytes <= 0 {
		return fmt.Errorf("stream: read chunk must be positive, got %d", l.ReadChunkBytes)
	}
	if l.MaxBufferedBytes < l.ReadChunkBytes {
		return fmt.Errorf("stream: max buffered %d smaller than read chunk %d",
			l.MaxBufferedBytes, l.ReadChunkBytes)
	}
	return nil
}
