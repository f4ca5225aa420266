package echo

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/misje/genericpacket/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// AdminRouter builds the admin HTTP surface for the service.
func (s *Service) AdminRouter() *gin.Engine {
	observability.RegisterMetrics()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(s.cfg.Name))
	if len(s.cfg.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: s.cfg.CorsOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		stats := s.Stats()
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"service":        s.cfg.Name,
			"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
			"active_clients": stats.ActiveClients,
			"packets_echoed": stats.PacketsEchoed,
		})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "service": s.cfg.Name})
	})
	r.GET("/profile", func(c *gin.Context) {
		codec := s.cfg.Codec
		c.JSON(http.StatusOK, gin.H{
			"profile":            s.profile,
			"size_bits":          codec.SizeBits(),
			"type_bits":          codec.TypeBits(),
			"header_len":         codec.HeaderLen(),
			"max_size":           codec.MaxSize(),
			"max_type":           codec.MaxType(),
			"max_payload_bytes":  s.cfg.Limits.MaxPayloadBytes,
			"max_buffered_bytes": s.cfg.Limits.MaxBufferedBytes,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// ServeAdmin serves the admin router on addr until ctx is done.
func (s *Service) ServeAdmin(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.serveAdmin(ctx, ln)
}

func (s *Service) serveAdmin(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.AdminRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("echo.Service admin listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
