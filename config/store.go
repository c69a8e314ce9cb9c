package config

import (
	"context"
	"fmt"

	"github.com/smallnest/stepgraph/store"
	"github.com/smallnest/stepgraph/store/memory"
	"github.com/smallnest/stepgraph/store/postgres"
	"github.com/smallnest/stepgraph/store/redis"
	"github.com/smallnest/stepgraph/store/sqlite"
)

// OpenRunStore creates the configured run store. The returned close function
// releases the backend's connections and is never nil.
func OpenRunStore(ctx context.Context, cfg StoreConfig) (store.RunStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "", BackendMemory:
		return memory.NewMemoryRunStore(), noop, nil

	case BackendRedis:
		s := redis.NewRedisRunStore(redis.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		})
		return s, s.Close, nil

	case BackendPostgres:
		s, err := postgres.NewPostgresRunStore(ctx, postgres.PostgresOptions{
			ConnString: cfg.Postgres.URL,
			TableName:  cfg.Postgres.Table,
		})
		if err != nil {
			return nil, noop, err
		}
		if err := s.InitSchema(ctx); err != nil {
			s.Close()
			return nil, noop, err
		}
		return s, func() error { s.Close(); return nil }, nil

	case BackendSqlite:
		s, err := sqlite.NewSqliteRunStore(sqlite.SqliteOptions{
			Path:      cfg.Sqlite.Path,
			TableName: cfg.Sqlite.Table,
		})
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
