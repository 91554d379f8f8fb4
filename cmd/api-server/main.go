package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/carewave/opd-queue-engine/internal/api"
	"github.com/carewave/opd-queue-engine/internal/cache"
	"github.com/carewave/opd-queue-engine/internal/config"
	"github.com/carewave/opd-queue-engine/internal/eventlog"
	"github.com/carewave/opd-queue-engine/internal/queue"
)

const version = "0.3.0"

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "api-server").Logger()
	log.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The engine publishes through a fan-out; the archiver and the status
	// projection join it only when their backends are configured. The
	// engine never depends on either being up.
	var sinks []queue.Sink

	logSink := queue.SinkFunc(func(ev queue.Event) {
		log.Debug().
			Str("event", string(ev.Type)).
			Str("doctor_id", ev.DoctorID.String()).
			Msg("engine event")
	})
	sinks = append(sinks, logSink)

	var pgPool *pgxpool.Pool
	if cfg.PostgresDSN != "" {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pool, err := eventlog.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connection error")
		}
		defer pool.Close()
		log.Info().Msg("event archiver enabled")
		sinks = append(sinks, eventlog.NewSink(eventlog.NewPgArchiver(pool), log))
		pgPool = pool
	}

	fanout := queue.NewFanOut(sinks...)
	eng := queue.New(cfg.Engine(), fanout)
	defer eng.Close()

	routerCfg := api.RouterConfig{
		Engine:           eng,
		GeoBufferMinutes: cfg.GeoBufferMinutes,
		PgPool:           pgPool,
		Env:              cfg.Env,
		Version:          version,
		Logger:           log,
	}

	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisUser, cfg.RedisPass)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("error closing redis")
			}
		}()
		log.Info().Msg("status projection cache enabled")
		fanout.Register(cache.NewStatusCache(rdb, eng, cfg.StatusTTL, log))
		routerCfg.Redis = rdb
	}

	if cfg.SweepInterval > 0 {
		go runSweeper(rootCtx, eng, cfg.SweepInterval, log)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.NewRouter(routerCfg),
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
}

// runSweeper periodically marks overdue scheduled entries as no-shows.
func runSweeper(ctx context.Context, eng *queue.Engine, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping overdue sweeper")
			return
		case <-ticker.C:
			swept := eng.SweepOverdue(time.Now())
			if len(swept) > 0 {
				log.Info().Int("count", len(swept)).Msg("swept overdue appointments to no-show")
			}
		}
	}
}
