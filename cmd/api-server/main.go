package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clinicdesk/clinic-booking/internal/api"
	"github.com/clinicdesk/clinic-booking/internal/config"
	"github.com/clinicdesk/clinic-booking/internal/db"
	"github.com/clinicdesk/clinic-booking/internal/logging"
	redisclient "github.com/clinicdesk/clinic-booking/internal/redis"
	"github.com/clinicdesk/clinic-booking/internal/schedule"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("api-server", "dev")
		log.Fatal().Err(err).Msg("config load error")
	}

	logging.Setup("api-server", cfg.Env)
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	cal, err := schedule.NewCalendar(cfg.ClinicTimezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.ClinicTimezone).Msg("invalid clinic timezone")
	}

	store := schedule.NewPgStore(pgPool)
	locker := redisclient.NewRedisDayLocker(rdb, cfg.LockTTL, cfg.LockRetry)
	scheduler := schedule.NewScheduler(store, locker, cal)

	router := api.NewRouter(api.RouterConfig{
		Scheduler: scheduler,
		PgPool:    pgPool,
		Redis:     rdb,
		Env:       cfg.Env,
		Version:   version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	case <-rootCtx.Done():
	}

	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
