// Command server runs the cafe-safar ordering backend: REST API, session
// auth, and the WebSocket realtime channel, backed by SQLite.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sino99/cafe-safar-ver1/internal/config"
	httpapi "github.com/sino99/cafe-safar-ver1/internal/http"
	"github.com/sino99/cafe-safar-ver1/internal/observability"
	"github.com/sino99/cafe-safar-ver1/internal/realtime"
	"github.com/sino99/cafe-safar-ver1/internal/repo"
	"github.com/sino99/cafe-safar-ver1/internal/sysutil"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	zerolog.TimeFieldFormat = time.RFC3339
	sysutil.SetLogLevel(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if err := repo.EnableTracing(db); err != nil {
		log.Warn().Err(err).Msg("gorm tracing disabled")
	}

	// Panel accounts must exist before the first login attempt.
	if err := repo.SeedAccount(db, cfg.Seed.AdminLogin, "", cfg.Seed.AdminPassword, "admin"); err != nil {
		log.Fatal().Err(err).Msg("seed admin failed")
	}
	if err := repo.SeedAccount(db, cfg.Seed.OwnerLogin, "", cfg.Seed.OwnerPassword, "owner"); err != nil {
		log.Fatal().Err(err).Msg("seed owner failed")
	}

	hub := realtime.NewHub()
	defer hub.Close()

	r := gin.New()
	httpapi.RegisterRoutes(r, db, hub, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
	log.Info().Msg("bye")
}
