package echo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/misje/genericpacket/internal/observability"
	"github.com/misje/genericpacket/internal/protocol/packet"
	"github.com/misje/genericpacket/internal/protocol/stream"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrCodecRequired = errors.New("echo: codec required")

// Handler maps one inbound frame to the reply written back on the same
// connection. ok=false sends nothing.
type Handler func(fr packet.Frame) (reply packet.Frame, ok bool)

// EchoHandler replies with the frame it received.
func EchoHandler(fr packet.Frame) (packet.Frame, bool) {
	return fr, true
}

// ServiceConfig is the echo endpoint configuration.
type ServiceConfig struct {
	Name         string
	ListenAddr   string
	AdminAddr    string
	Codec        packet.Codec
	Limits       stream.Limits
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CorsOrigins  []string
	Handler      Handler
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:         "packetctl",
		ListenAddr:   "127.0.0.1:9400",
		Codec:        packet.Format32x16,
		Limits:       stream.DefaultLimits(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		Handler:      EchoHandler,
	}
}

// Stats is a point-in-time view of service counters.
type Stats struct {
	ActiveClients int64  `json:"active_clients"`
	PacketsEchoed uint64 `json:"packets_echoed"`
}

type Service struct {
	cfg       ServiceConfig
	profile   string
	observer  stream.Observer
	log       zerolog.Logger
	startedAt time.Time

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
	closing bool

	clientCount atomic.Int64
	echoed      atomic.Uint64
}

func NewServiceWithConfig(cfg ServiceConfig) (*Service, error) {
	def := DefaultServiceConfig()
	if cfg.Codec == nil {
		return nil, ErrCodecRequired
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = def.Name
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.Handler == nil {
		cfg.Handler = EchoHandler
	}
	cfg.Limits = cfg.Limits.WithDefaults()
	if err := cfg.Limits.Validate(); err != nil {
		return nil, err
	}
	profile := ProfileLabel(cfg.Codec)
	return &Service{
		cfg:       cfg,
		profile:   profile,
		observer:  observability.NewPacketObserver(profile),
		log:       log.Logger.With().Str("service", cfg.Name).Str("profile", profile).Logger(),
		startedAt: time.Now(),
		conns:     make(map[net.Conn]struct{}),
	}, nil
}

// ProfileLabel names a codec by its field widths, e.g. "32x16".
func ProfileLabel(codec packet.Codec) string {
	return fmt.Sprintf("%dx%d", codec.SizeBits(), codec.TypeBits())
}

func (s *Service) Config() ServiceConfig {
	return s.cfg
}

func (s *Service) Stats() Stats {
	return Stats{
		ActiveClients: s.clientCount.Load(),
		PacketsEchoed: s.echoed.Load(),
	}
}

// Run listens on the configured addresses and blocks until SIGINT/SIGTERM.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("echo.Service listening")

	adminErr := make(chan error, 1)
	if addr := strings.TrimSpace(s.cfg.AdminAddr); addr != "" {
		go func() {
			adminErr <- s.ServeAdmin(ctx, addr)
		}()
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.Serve(ctx, ln)
	}()
	select {
	case err := <-serveErr:
		return err
	case err := <-adminErr:
		if err != nil {
			stop()
			<-serveErr
			return err
		}
		return <-serveErr
	}
}

// Serve accepts connections on ln until ctx is done.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		s.closeAllConns()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if !s.trackConn(conn) {
			_ = conn.Close()
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *Service) handleConn(conn net.Conn) {
	defer conn.Close()
	defer s.untrackConn(conn)

	logger := s.log.With().Str("remote", conn.RemoteAddr().String()).Logger()
	active := s.clientCount.Add(1)
	logger.Info().Int64("active_clients", active).Msg("echo.Service client connected")
	defer func() {
		remaining := s.clientCount.Add(-1)
		logger.Info().Int64("active_clients", remaining).Msg("echo.Service client disconnected")
	}()

	reader := stream.NewReader(conn, s.cfg.Codec, stream.Config{
		Limits:   s.cfg.Limits,
		Logger:   &logger,
		Observer: s.observer,
	})
	writer := stream.NewWriter(conn, s.cfg.Codec)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		fr, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			reason := errorReason(err)
			observability.RecordStreamError(s.profile, reason)
			logger.Warn().Err(err).Str("reason", reason).Int("buffered", reader.Buffered()).
				Msg("echo.Service closing stream")
			return
		}

		reply, ok := s.cfg.Handler(fr)
		if !ok {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		if err := writer.WriteFrame(reply); err != nil {
			reason := errorReason(err)
			observability.RecordStreamError(s.profile, reason)
			logger.Warn().Err(err).Str("reason", reason).Uint64("type", reply.Type).
				Msg("echo.Service write reply")
			return
		}
		observability.RecordPacketEncoded(s.profile, reply.Type)
		s.echoed.Add(1)
	}
}

func errorReason(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "truncated"
	case errors.Is(err, stream.ErrPayloadTooLarge):
		return "payload_too_large"
	case errors.Is(err, stream.ErrBufferOverflow):
		return "buffer_overflow"
	case errors.Is(err, packet.ErrRange):
		return "range"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "transport"
	}
}

// trackConn registers conn for shutdown. It reports false once shutdown has
// started; the caller must close conn itself.
func (s *Service) trackConn(conn net.Conn) bool {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Service) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

func (s *Service) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.closing = true
	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
}
