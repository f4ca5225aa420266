package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/misje/genericpacket/internal/protocol/packet"
	"github.com/misje/genericpacket/internal/protocol/stream"
)

// Config is the packetctl runtime configuration.
type Config struct {
	ServiceName      string
	ListenAddr       string
	AdminAddr        string
	SizeBits         int
	TypeBits         int
	MaxPayloadBytes  uint64
	MaxBufferedBytes int
	ReadChunkBytes   int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	CorsOrigins      []string
}

// fileConfig is the packetctl.toml key mapping.
type fileConfig struct {
	ServiceName      string   `toml:"service_name" comment:"name reported by /health and metric labels"`
	ListenAddr       string   `toml:"listen_addr" comment:"TCP address the echo service accepts packets on"`
	AdminAddr        string   `toml:"admin_addr" comment:"HTTP address for /health, /ready, /profile and /metrics; empty disables"`
	SizeBits         int      `toml:"size_bits" comment:"width of the header size field: 8, 16, 32 or 64"`
	TypeBits         int      `toml:"type_bits" comment:"width of the header type field: 8, 16, 32 or 64"`
	MaxPayloadBytes  uint64   `toml:"max_payload_bytes"`
	MaxBufferedBytes int      `toml:"max_buffered_bytes"`
	ReadChunkBytes   int      `toml:"read_chunk_bytes"`
	ReadTimeout      string   `toml:"read_timeout"`
	WriteTimeout     string   `toml:"write_timeout"`
	CorsOrigins      []string `toml:"cors_origins"`
}

func DefaultConfig() Config {
	limits := stream.DefaultLimits()
	return Config{
		ServiceName:      "packetctl",
		ListenAddr:       "127.0.0.1:9400",
		AdminAddr:        "127.0.0.1:9401",
		SizeBits:         32,
		TypeBits:         16,
		MaxPayloadBytes:  limits.MaxPayloadBytes,
		MaxBufferedBytes: limits.MaxBufferedBytes,
		ReadChunkBytes:   limits.ReadChunkBytes,
		ReadTimeout:      15 * time.Second,
		WriteTimeout:     15 * time.Second,
		CorsOrigins:      []string{"http://localhost:3000"},
	}
}

// Load overlays the keys present in the TOML file at path onto DefaultConfig.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("service_name") {
		cfg.ServiceName = strings.TrimSpace(raw.ServiceName)
	}
	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("size_bits") {
		cfg.SizeBits = raw.SizeBits
	}
	if meta.IsDefined("type_bits") {
		cfg.TypeBits = raw.TypeBits
	}
	if meta.IsDefined("max_payload_bytes") {
		cfg.MaxPayloadBytes = raw.MaxPayloadBytes
	}
	if meta.IsDefined("max_buffered_bytes") {
		cfg.MaxBufferedBytes = raw.MaxBufferedBytes
	}
	if meta.IsDefined("read_chunk_bytes") {
		cfg.ReadChunkBytes = raw.ReadChunkBytes
	}
	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): read_timeout: %w", path, err)
		}
		cfg.ReadTimeout = d
	}
	if meta.IsDefined("write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WriteTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): write_timeout: %w", path, err)
		}
		cfg.WriteTimeout = d
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.ServiceName) == "" {
		return fmt.Errorf("service_name is required")
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return fmt.Errorf("listen_addr is required")
	}
	codec, err := cfg.Codec()
	if err != nil {
		return err
	}
	if cfg.MaxPayloadBytes == 0 {
		return fmt.Errorf("max_payload_bytes must be positive")
	}
	if cfg.MaxPayloadBytes > codec.MaxSize() {
		return fmt.Errorf("max_payload_bytes %d exceeds what a %d-bit size field can describe (%d)",
			cfg.MaxPayloadBytes, cfg.SizeBits, codec.MaxSize())
	}
	if err := cfg.StreamLimits().Validate(); err != nil {
		return err
	}
	if need := cfg.MaxPayloadBytes + uint64(codec.HeaderLen()); need < cfg.MaxPayloadBytes || uint64(cfg.MaxBufferedBytes) < need {
		return fmt.Errorf("max_buffered_bytes %d cannot hold a %d-byte header plus max_payload_bytes %d",
			cfg.MaxBufferedBytes, codec.HeaderLen(), cfg.MaxPayloadBytes)
	}
	if cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 {
		return fmt.Errorf("read_timeout and write_timeout must be positive")
	}
	return nil
}

// Codec returns the packet codec for the configured field widths.
func (c Config) Codec() (packet.Codec, error) {
	return packet.NewCodec(c.SizeBits, c.TypeBits)
}

func (c Config) StreamLimits() stream.Limits {
	return stream.Limits{
		MaxPayloadBytes:  c.MaxPayloadBytes,
		MaxBufferedBytes: c.MaxBufferedBytes,
		ReadChunkBytes:   c.ReadChunkBytes,
	}
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
