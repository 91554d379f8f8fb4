package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/carewave/opd-queue-engine/internal/queue"
)

type RouterConfig struct {
	Engine           *queue.Engine
	GeoBufferMinutes int
	PgPool           *pgxpool.Pool // optional, event archiver
	Redis            *redis.Client // optional, status projection
	Env              string
	Version          string
	Logger           zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/appointments", bookHandler(cfg.Engine))
	r.Post("/walk-ins", walkInHandler(cfg.Engine))
	r.Post("/follow-ups", followUpHandler(cfg.Engine))
	r.Post("/emergencies", emergencyHandler(cfg.Engine))

	r.Get("/appointments/{token}/status", statusHandler(cfg.Engine))
	r.Get("/appointments/{token}/eta", etaHandler(cfg.Engine))
	r.Get("/appointments/{token}/mobile", mobileStatusHandler(cfg.Engine))
	r.Post("/appointments/{token}/check-in", checkInHandler(cfg.Engine))
	r.Post("/appointments/{token}/no-show", noShowHandler(cfg.Engine))
	r.Post("/appointments/{token}/start", startConsultationHandler(cfg.Engine))
	r.Post("/appointments/{token}/complete", endConsultationHandler(cfg.Engine))

	r.Get("/doctors/{id}/capacity", capacityHandler(cfg.Engine))
	r.Post("/doctors/{id}/delay", delayHandler(cfg.Engine))
	r.Post("/doctors/{id}/break/cancel", cancelBreakHandler(cfg.Engine))

	r.Get("/departments/{id}/balance", balanceHandler(cfg.Engine))

	r.Post("/travel-check", travelCheckHandler(cfg.GeoBufferMinutes))

	return r
}
