package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcAdapter "github.com/quentinrf/glucose-log/internal/adapters/grpc"
	"github.com/quentinrf/glucose-log/internal/adapters/rest"
	"github.com/quentinrf/glucose-log/internal/config"
	"github.com/quentinrf/glucose-log/internal/domain"
	"github.com/quentinrf/glucose-log/internal/metrics"
	"github.com/quentinrf/glucose-log/internal/ports"
	"github.com/quentinrf/glucose-log/internal/store"
	"github.com/quentinrf/glucose-log/pkg/tlsconfig"
)

func main() {
	configPath := flag.String("config", os.Getenv("GLUCOSE_CONFIG"), "path to config file")
	flag.Parse()

	// Initialize logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogging(cfg.Logging)

	log.Info().Str("storage", cfg.Storage.Driver).Msg("starting glucose service")

	// The backend is opened on first use and shared by every request
	repo := store.NewLazy(func(ctx context.Context) (domain.ReadingRepository, error) {
		return store.Open(ctx, cfg.Storage, ports.SystemClock{})
	})
	defer repo.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc := ports.NewReadingService(repo, m)

	gin.SetMode(gin.ReleaseMode)
	router := rest.SetupRouter(rest.NewHandler(svc), m, reg)

	readTimeout, writeTimeout := parseTimeout(cfg.HTTP.ReadTimeout), parseTimeout(cfg.HTTP.WriteTimeout)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	// Configure TLS if certificates are provided
	var serverOpts []grpc.ServerOption
	if cfg.TLS.Cert != "" {
		tlsCfg, err := tlsconfig.LoadServerTLS(cfg.TLS.Cert, cfg.TLS.Key, cfg.TLS.CA)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load TLS config")
		}
		httpServer.TLSConfig = tlsCfg
		serverOpts = append(serverOpts, grpc.Creds(credentials.NewTLS(tlsCfg)))
		log.Info().Bool("mtls", cfg.TLS.CA != "").Msg("TLS enabled")
	} else {
		log.Warn().Msg("tls.cert not set, starting without TLS (dev mode only)")
	}

	go func() {
		log.Info().Str("port", cfg.HTTP.Port).Msg("HTTP server listening")
		var err error
		if httpServer.TLSConfig != nil {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to serve HTTP")
		}
	}()

	var grpcServer *grpc.Server
	if cfg.GRPC.Port != "" {
		grpcServer = grpc.NewServer(serverOpts...)
		healthpb.RegisterHealthServer(grpcServer, grpcAdapter.NewHealthHandler(repo))

		// Enable gRPC reflection for grpcurl testing
		reflection.Register(grpcServer)

		listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPC.Port))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to listen")
		}
		log.Info().Str("port", cfg.GRPC.Port).Msg("gRPC health server listening")

		go func() {
			if err := grpcServer.Serve(listener); err != nil {
				log.Fatal().Err(err).Msg("failed to serve gRPC")
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	log.Info().Msg("server stopped")
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

func parseTimeout(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		log.Warn().Str("value", s).Msg("invalid HTTP timeout, using 15s")
		return 15 * time.Second
	}
	return d
}
