package storage

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool and verifies connectivity with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

type postgresSlots struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewPostgres stores slots in the kv_slots table. The schema comes from
// internal/migrate.
func NewPostgres(pool *pgxpool.Pool, namespace string) Slots {
	return &postgresSlots{pool: pool, namespace: namespace}
}

func (r *postgresSlots) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `
SELECT value
FROM kv_slots
WHERE namespace = $1 AND key = $2
`
	var value []byte
	if err := r.pool.QueryRow(ctx, q, r.namespace, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (r *postgresSlots) Set(ctx context.Context, key string, value []byte) error {
	const q = `
INSERT INTO kv_slots (namespace, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (namespace, key)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`
	_, err := r.pool.Exec(ctx, q, r.namespace, key, value)
	return err
}

func (r *postgresSlots) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM kv_slots WHERE namespace = $1 AND key = ANY($2)`, r.namespace, keys)
	return err
}

func (r *postgresSlots) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
