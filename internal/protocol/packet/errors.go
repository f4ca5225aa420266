package packet

import "errors"

var (
	// ErrLength reports a buffer that does not yet hold a complete header or
	// packet. Streaming callers wait for more bytes and retry.
	ErrLength = errors.New("packet: buffer too short")
	// ErrRange reports a value that the configured field width cannot hold.
	ErrRange = errors.New("packet: value exceeds field capacity")
	// ErrUnsupportedWidth reports a field bit width other than 8, 16, 32 or 64.
	ErrUnsupportedWidth = errors.New("packet: unsupported field width")
)
