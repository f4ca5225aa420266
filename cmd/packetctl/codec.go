package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/misje/genericpacket/internal/protocol/packet"
	"github.com/misje/genericpacket/internal/protocol/stream"
)

type codecFlags struct {
	sizeBits int
	typeBits int
}

func (c *codecFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&c.sizeBits, "size-bits", 32, "size field width: 8|16|32|64")
	fs.IntVar(&c.typeBits, "type-bits", 16, "type field width: 8|16|32|64")
}

func (c codecFlags) codec() (packet.Codec, error) {
	return packet.NewCodec(c.sizeBits, c.typeBits)
}

// payloadFlags accepts a payload as text or as hex, never both.
type payloadFlags struct {
	text string
	hex  string
}

func (p *payloadFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&p.text, "payload", "", "payload as text")
	fs.StringVar(&p.hex, "payload-hex", "", "payload as hex")
}

func (p payloadFlags) bytes() ([]byte, error) {
	if p.text != "" && p.hex != "" {
		return nil, fmt.Errorf("-payload and -payload-hex are mutually exclusive")
	}
	if p.hex != "" {
		return decodeHex(p.hex)
	}
	return []byte(p.text), nil
}

// decodeHex accepts "0307 41", "03:07:41" and "0x030741".
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}

func runEncode(args []string, stdout io.Writer) error {
	fs := newFlagSet("encode")
	var cf codecFlags
	var pf payloadFlags
	cf.register(fs)
	pf.register(fs)
	typ := fs.Uint64("type", 0, "message type tag")
	if err := fs.Parse(args); err != nil {
		return err
	}

	codec, err := cf.codec()
	if err != nil {
		return err
	}
	payload, err := pf.bytes()
	if err != nil {
		return err
	}
	out, err := codec.Encode(*typ, payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, hex.EncodeToString(out))
	return err
}

func runDecode(args []string, stdout io.Writer) error {
	fs := newFlagSet("decode")
	var cf codecFlags
	cf.register(fs)
	input := fs.String("hex", "", "encoded bytes as hex")
	if err := fs.Parse(args); err != nil {
		return err
	}

	codec, err := cf.codec()
	if err != nil {
		return err
	}
	data, err := decodeHex(*input)
	if err != nil {
		return err
	}
	return describeFrames(stdout, codec, data)
}

// describeFrames prints every complete packet in data and then whatever
// bytes are left over.
func describeFrames(w io.Writer, codec packet.Codec, data []byte) error {
	limits := stream.DefaultLimits()
	limits.MaxPayloadBytes = codec.MaxSize()
	d := stream.NewDeframer(codec, stream.Config{Limits: limits})
	_, _ = d.Write(data)
	frames, err := d.Drain()
	if err != nil {
		return err
	}
	for i, fr := range frames {
		if _, err := fmt.Fprintf(w, "packet %d: type=%d size=%d payload=%s %q\n",
			i, fr.Type, len(fr.Payload), hex.EncodeToString(fr.Payload), fr.Payload); err != nil {
			return err
		}
	}
	if n := d.Buffered(); n > 0 {
		rest := data[len(data)-n:]
		status := "incomplete header"
		if codec.HasCompleteHeader(rest) {
			size, _, _ := codec.PeekHeader(rest)
			status = fmt.Sprintf("incomplete payload, announced %d bytes", size)
		}
		_, err := fmt.Fprintf(w, "trailing %d bytes (%s): %s\n", n, status, hex.EncodeToString(rest))
		return err
	}
	return nil
}
