package storage

import (
	"context"
	"fmt"

	"storefront/internal/migrate"

	"github.com/sirupsen/logrus"
)

// Options selects and configures a slot driver.
type Options struct {
	Driver        string // memory, postgres or redis
	Namespace     string
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open connects the configured driver. The postgres schema is brought up to
// date before use. The returned close func releases the connection.
func Open(ctx context.Context, opts Options, logger logrus.FieldLogger) (Slots, func(), error) {
	log := logger.WithFields(logrus.Fields{"driver": opts.Driver, "namespace": opts.Namespace})

	switch opts.Driver {
	case "", "memory":
		log.Warn("storage: using in-memory slots, state is lost on exit")
		return NewMemory(), func() {}, nil

	case "postgres":
		pool, err := Connect(ctx, opts.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrate.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		log.Info("storage: postgres slots ready")
		return NewPostgres(pool, opts.Namespace), pool.Close, nil

	case "redis":
		client, err := ConnectRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		log.Info("storage: redis slots ready")
		return NewRedis(client, opts.Namespace), func() { _ = client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
