package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Template renders DefaultConfig as packetctl.toml.
func Template() (string, error) {
	cfg := DefaultConfig()
	out, err := toml.Marshal(fileConfig{
		ServiceName:      cfg.ServiceName,
		ListenAddr:       cfg.ListenAddr,
		AdminAddr:        cfg.AdminAddr,
		SizeBits:         cfg.SizeBits,
		TypeBits:         cfg.TypeBits,
		MaxPayloadBytes:  cfg.MaxPayloadBytes,
		MaxBufferedBytes: cfg.MaxBufferedBytes,
		ReadChunkBytes:   cfg.ReadChunkBytes,
		ReadTimeout:      cfg.ReadTimeout.String(),
		WriteTimeout:     cfg.WriteTimeout.String(),
		CorsOrigins:      cfg.CorsOrigins,
	})
	if err != nil {
		return "", fmt.Errorf("render config template: %w", err)
	}
	return string(out), nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
