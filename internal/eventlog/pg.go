package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectPostgres opens a pool sized for the archiver's write-only load.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	cfg.MaxConns = 5
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// PgArchiver appends entries to the queue_events table.
type PgArchiver struct {
	pool *pgxpool.Pool
}

func NewPgArchiver(pool *pgxpool.Pool) *PgArchiver {
	return &PgArchiver{pool: pool}
}

func (a *PgArchiver) Record(ctx context.Context, e Entry) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO queue_events (id, event_type, token, doctor_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.EventType, e.Token, e.DoctorID, e.Payload, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert queue event: %w", err)
	}
	return nil
}
