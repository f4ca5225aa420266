package echo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/misje/genericpacket/internal/protocol/packet"
	"github.com/misje/genericpacket/internal/protocol/stream"
	"github.com/rs/zerolog/log"
)

var (
	ErrAddressRequired = errors.New("echo: address required")
	ErrClientClosed    = errors.New("echo: client closed")
)

// Backoff controls the delay between dial attempts.
type Backoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// Delay returns the wait before attempt N (1-based). Attempt 1 is
// immediate.
func (b Backoff) Delay(attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 || b.InitialDelay <= 0 {
		return 0
	}
	mult := b.Multiplier
	if mult < 1.0 {
		mult = 1.0
	}
	delay := float64(b.InitialDelay) * math.Pow(mult, float64(attempt-2))
	if b.MaxDelay > 0 && delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}
	if b.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay *= f
	}
	return time.Duration(delay)
}

type ClientConfig struct {
	Address        string
	Codec          packet.Codec
	Limits         stream.Limits
	ConnectTimeout time.Duration
	// RequestTimeout bounds one roundtrip when ctx has no earlier deadline.
	RequestTimeout time.Duration
	MaxAttempts    int
	Backoff        Backoff
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Address:        "127.0.0.1:9400",
		Codec:          packet.Format32x16,
		Limits:         stream.DefaultLimits(),
		ConnectTimeout: 3 * time.Second,
		RequestTimeout: 10 * time.Second,
		MaxAttempts:    3,
		Backoff: Backoff{
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2,
			Jitter:       true,
		},
	}
}

// Client sends packets to an echo service over one TCP connection.
// Roundtrips are serialized.
type Client struct {
	cfg    ClientConfig
	conn   net.Conn
	reader *stream.Reader

	mu     sync.Mutex
	closed bool
}

// Dial connects to cfg.Address, retrying up to cfg.MaxAttempts times.
func Dial(ctx context.Context, cfg ClientConfig) (*Client, error) {
	def := DefaultClientConfig()
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	if cfg.Codec == nil {
		return nil, ErrCodecRequired
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	cfg.Limits = cfg.Limits.WithDefaults()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if wait := cfg.Backoff.Delay(attempt, rng); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
		conn, err := dialer.DialContext(ctx, "tcp", cfg.Address)
		if err == nil {
			return &Client{
				cfg:    cfg,
				conn:   conn,
				reader: stream.NewReader(conn, cfg.Codec, stream.Config{Limits: cfg.Limits}),
			}, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Debug().Err(err).Str("addr", cfg.Address).Int("attempt", attempt).
			Int("max_attempts", cfg.MaxAttempts).Msg("echo.Dial retry")
	}
	return nil, fmt.Errorf("echo: dial %s after %d attempts: %w", cfg.Address, cfg.MaxAttempts, lastErr)
}

// Roundtrip writes one packet and waits for the next frame the server
// sends back. A transport error or an expired ctx mid-roundtrip closes the
// client and wraps ErrClientClosed.
func (c *Client) Roundtrip(ctx context.Context, typ uint64, payload []byte) (packet.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return packet.Frame{}, ErrClientClosed
	}
	if err := ctx.Err(); err != nil {
		return packet.Frame{}, err
	}
	wire, err := c.cfg.Codec.Encode(typ, payload)
	if err != nil {
		return packet.Frame{}, err
	}

	deadline := time.Now().Add(c.cfg.RequestTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = c.conn.SetDeadline(deadline)
	defer c.conn.SetDeadline(time.Time{})
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := c.conn.Write(wire); err != nil {
		return packet.Frame{}, c.fail(ctx, err)
	}
	fr, err := c.reader.Next()
	if err != nil {
		return packet.Frame{}, c.fail(ctx, err)
	}
	return fr, nil
}

// fail closes the client: its connection may still hold a partial request
// or a late reply.
func (c *Client) fail(ctx context.Context, err error) error {
	c.closed = true
	_ = c.conn.Close()
	return fmt.Errorf("%w: %w", ErrClientClosed, c.wrapCtx(ctx, err))
}

func (c *Client) wrapCtx(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	// The conn deadline can fire just before ctx's own timer does.
	if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

func (c *Client) Codec() packet.Codec {
	return c.cfg.Codec
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
