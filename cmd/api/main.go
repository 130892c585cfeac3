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
	"github.com/rs/zerolog/log"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	"github.com/BruksfildServices01/barber-saas/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-saas/internal/db"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	infraRepo "github.com/BruksfildServices01/barber-saas/internal/infra/repository"
	"github.com/BruksfildServices01/barber-saas/internal/logger"
	"github.com/BruksfildServices01/barber-saas/internal/routes"
	"github.com/BruksfildServices01/barber-saas/internal/usecase/dashboard"
	"github.com/BruksfildServices01/barber-saas/internal/validators"
)

func main() {

	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogPretty)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := validators.RegisterBindings(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	db := dbpkg.NewDB(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditDispatcher := audit.NewDispatcher(audit.New(db))
	defer auditDispatcher.Close()

	stats := dashboard.NewService(infraRepo.NewDashboardGormRepository(db), cfg.DashboardCacheTTL)

	deps := routes.Deps{
		DB:        db,
		Config:    cfg,
		Audit:     auditDispatcher,
		Events:    realtime.Nop{},
		Dashboard: stats,
	}

	// Realtime is optional: without Redis the API runs with a silent feed
	// and a dashboard cache that only expires.
	if cfg.RedisURL != "" {
		rdb, err := realtime.NewRedisClient(cfg.RedisURL)
		if err == nil {
			err = rdb.Ping(ctx).Err()
		}
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, realtime disabled")
		} else {
			defer rdb.Close()

			broker := realtime.NewBroker(rdb)
			deps.Events = broker
			deps.Feed = broker

			changes, err := broker.SubscribeAll(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("dashboard invalidation disabled")
			} else {
				go stats.Listen(changes)
			}
		}
	}

	r := gin.New()
	if err := routes.RegisterRoutes(r, deps); err != nil {
		log.Fatal().Err(err).Msg("failed to register routes")
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
