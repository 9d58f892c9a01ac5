package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/clinic-booking/internal/schedule"
)

type RouterConfig struct {
	Scheduler *schedule.Scheduler
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/availability", getAvailabilityHandler(cfg.Scheduler))
	r.Post("/bookings", createBookingHandler(cfg.Scheduler))
	r.Get("/bookings/{id}", getBookingHandler(cfg.Scheduler))
	r.Post("/bookings/{id}/cancel", cancelBookingHandler(cfg.Scheduler))

	return r
}
