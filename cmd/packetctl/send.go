package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/misje/genericpacket/internal/config"
	"github.com/misje/genericpacket/internal/echo"
)

func runSend(args []string, stdout io.Writer) error {
	fs := newFlagSet("send")
	path := fs.String("config", defaultConfigPath, "config path; supplies address and codec")
	addr := fs.String("addr", "", "service address (overrides config listen_addr)")
	typ := fs.Uint64("type", 0, "message type tag")
	count := fs.Int("count", 1, "number of roundtrips")
	timeout := fs.Duration("timeout", 5*time.Second, "per-roundtrip timeout")
	var pf payloadFlags
	pf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*path)
	if err != nil {
		return err
	}
	payload, err := pf.bytes()
	if err != nil {
		return err
	}
	clientCfg, err := clientConfig(cfg, *addr)
	if err != nil {
		return err
	}
	return sendPackets(context.Background(), stdout, clientCfg, *typ, payload, *count, *timeout)
}

func clientConfig(cfg config.Config, addr string) (echo.ClientConfig, error) {
	codec, err := cfg.Codec()
	if err != nil {
		return echo.ClientConfig{}, fmt.Errorf("client codec: %w", err)
	}
	out := echo.DefaultClientConfig()
	out.Address = cfg.ListenAddr
	if addr != "" {
		out.Address = addr
	}
	out.Codec = codec
	out.Limits = cfg.StreamLimits()
	return out, nil
}

func sendPackets(ctx context.Context, stdout io.Writer, cfg echo.ClientConfig, typ uint64, payload []byte, count int, timeout time.Duration) error {
	client, err := echo.Dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	for i := 0; i < count; i++ {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		fr, err := client.Roundtrip(reqCtx, typ, payload)
		cancel()
		if err != nil {
			return fmt.Errorf("roundtrip %d: %w", i, err)
		}
		if _, err := fmt.Fprintf(stdout, "reply %d: type=%d size=%d payload=%s rtt=%s\n",
			i, fr.Type, len(fr.Payload), hex.EncodeToString(fr.Payload), time.Since(start).Round(time.Microsecond)); err != nil {
			return err
		}
	}
	return nil
}
