package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/avdeyev/pingroom/internal/adapters/http"
	wssignal "github.com/avdeyev/pingroom/internal/adapters/signal"
	"github.com/avdeyev/pingroom/internal/app"
	"github.com/avdeyev/pingroom/internal/catalog"
	"github.com/avdeyev/pingroom/internal/config"
	"github.com/avdeyev/pingroom/internal/geo"
	"github.com/avdeyev/pingroom/internal/monitoring"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	cat, err := catalog.New(cfg.Servers)
	if err != nil {
		log.Fatal().Err(err).Msg("bad endpoint catalog")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := monitoring.NewMetrics(registry)

	var resolver geo.Resolver = geo.Noop{}
	if cfg.GeoEndpoint != "" {
		resolver = geo.NewHTTPResolver(cfg.GeoEndpoint, cfg.GeoTimeout)
	}

	// Wire coordinator and signal adapter; the adapter delivers, the
	// coordinator decides.
	ctl := wssignal.NewController(cfg, resolver, metrics)
	coord := app.NewCoordinator(ctl, metrics)
	ctl.SetCoordinator(coord)

	r := router.SetupRouter(ctx, cfg, ctl, coord, cat, registry)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Int("servers", cat.Len()).Msg("pingroom server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
