package main

import (
	"fmt"

	"github.com/misje/genericpacket/internal/config"
	"github.com/misje/genericpacket/internal/echo"
	"github.com/rs/zerolog/log"
)

func runServe(args []string) error {
	fs := newFlagSet("serve")
	path := fs.String("config", defaultConfigPath, "config path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*path)
	if err != nil {
		return err
	}
	log.Info().Str("path", *path).Msg("loaded packetctl config")

	svcCfg, err := serviceConfig(cfg)
	if err != nil {
		return err
	}
	svc, err := echo.NewServiceWithConfig(svcCfg)
	if err != nil {
		return err
	}
	return svc.Run()
}

// serviceConfig maps the file configuration onto the echo service.
func serviceConfig(cfg config.Config) (echo.ServiceConfig, error) {
	codec, err := cfg.Codec()
	if err != nil {
		return echo.ServiceConfig{}, fmt.Errorf("service codec: %w", err)
	}
	out := echo.DefaultServiceConfig()
	out.Name = cfg.ServiceName
	out.ListenAddr = cfg.ListenAddr
	out.AdminAddr = cfg.AdminAddr
	out.Codec = codec
	out.Limits = cfg.StreamLimits()
	out.ReadTimeout = cfg.ReadTimeout
	out.WriteTimeout = cfg.WriteTimeout
	out.CorsOrigins = cfg.CorsOrigins
	return out, nil
}
