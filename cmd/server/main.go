package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/jusunglee/mrt-go/api/handlers"
	"github.com/jusunglee/mrt-go/internal/config"
	"github.com/jusunglee/mrt-go/internal/logger"
	"github.com/jusunglee/mrt-go/internal/metrics"
	"github.com/jusunglee/mrt-go/pkg/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.Setup(cfg.LogFormat, cfg.Debug)

	var client *router.LocalClient
	collector := metrics.NewCollector(func() time.Time {
		if client == nil {
			return time.Time{}
		}
		return client.GetLastUpdate()
	})

	client, err = router.NewLocal(router.Config{
		NetworkDir:     cfg.NetworkDir,
		ReloadInterval: cfg.ReloadInterval,
		TransferPolicy: cfg.TransferPolicy.String(),
		MaxWorkers:     cfg.MaxWorkers,
		CacheTTL:       cfg.CacheTTL,
		Metrics:        collector,
	})
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.NetworkDir).Msg("Failed to load networks")
	}
	defer client.Close()

	// Create HTTP server
	r := mux.NewRouter()
	h := handlers.NewHandler(client)
	h.RegisterRoutes(r)

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = collector.Serve(cfg.MetricsAddr)
	} else {
		r.Handle("/metrics", collector.Handler()).Methods("GET")
	}

	// Add middleware
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// CORS wraps the router so preflight requests never reach route matching
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      corsHandler.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Info().Int("port", cfg.Port).Strs("networks", client.GetNetworks()).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Metrics server forced to shutdown")
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server stopped")
}
