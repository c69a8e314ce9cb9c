package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/stepgraph/store"
)

// RedisRunStore implements store.RunStore using Redis
type RedisRunStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

var _ store.RunStore = (*RedisRunStore)(nil)

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "stepgraph:"
	TTL      time.Duration // Expiration for run records, default 0 (no expiration)
}

// NewRedisRunStore creates a new Redis run store
func NewRedisRunStore(opts RedisOptions) *RedisRunStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisRunStoreWithClient(client, opts.Prefix, opts.TTL)
}

// NewRedisRunStoreWithClient creates a Redis run store on an existing client
func NewRedisRunStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisRunStore {
	if prefix == "" {
		prefix = "stepgraph:"
	}
	return &RedisRunStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Close closes the underlying client
func (s *RedisRunStore) Close() error {
	return s.client.Close()
}

func (s *RedisRunStore) runKey(id string) string {
	return fmt.Sprintf("%srun:%s", s.prefix, id)
}

func (s *RedisRunStore) seqKey() string {
	return s.prefix + "run:seq"
}

func (s *RedisRunStore) indexKey() string {
	return s.prefix + "runs"
}

func (s *RedisRunStore) graphKey(graphID string) string {
	return fmt.Sprintf("%sgraph:%s:runs", s.prefix, graphID)
}

// Create allocates a run ID from an INCR counter and stores the run record
func (s *RedisRunStore) Create(ctx context.Context, graphID string, initialState map[string]any) (string, error) {
	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return "", fmt.Errorf("failed to allocate run id: %w", err)
	}

	id := fmt.Sprintf("run_%d", seq)
	run := store.NewRun(id, graphID, initialState, s.now())

	data, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.runKey(id), data, s.ttl)

	// Sorted by sequence so List can return runs in creation order
	member := redis.Z{Score: float64(seq), Member: id}
	pipe.ZAdd(ctx, s.indexKey(), member)
	pipe.ZAdd(ctx, s.graphKey(graphID), member)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.graphKey(graphID), s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to save run to redis: %w", err)
	}
	return id, nil
}

// Update overwrites the mutable fields of a run
func (s *RedisRunStore) Update(ctx context.Context, runID string, update store.RunUpdate) error {
	run, err := s.Get(ctx, runID)
	if err != nil {
		return err
	}
	run.Apply(update, s.now())

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	// SET XX: only an existing record is overwritten
	ok, err := s.client.SetXX(ctx, s.runKey(runID), data, s.keepTTL()).Result()
	if err != nil {
		return fmt.Errorf("failed to update run in redis: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
	}
	return nil
}

func (s *RedisRunStore) keepTTL() time.Duration {
	if s.ttl > 0 {
		return s.ttl
	}
	return redis.KeepTTL
}

// Get retrieves a run by ID
func (s *RedisRunStore) Get(ctx context.Context, runID string) (*store.Run, error) {
	data, err := s.client.Get(ctx, s.runKey(runID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to load run from redis: %w", err)
	}

	var run store.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	if run.State == nil {
		run.State = map[string]any{}
	}
	return &run, nil
}

// List returns the matching runs in creation order
func (s *RedisRunStore) List(ctx context.Context, filter store.RunFilter) ([]*store.Run, error) {
	key := s.indexKey()
	if filter.GraphID != "" {
		key = s.graphKey(filter.GraphID)
	}

	ids, err := s.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if len(ids) == 0 {
		return []*store.Run{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.runKey(id))
	}

	// MGet returns nil for expired keys, which are skipped.
	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}

	runs := make([]*store.Run, 0, len(results))
	for _, result := range results {
		strData, ok := result.(string)
		if !ok {
			continue
		}

		var run store.Run
		if err := json.Unmarshal([]byte(strData), &run); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run: %w", err)
		}
		if filter.Match(&run) {
			runs = append(runs, &run)
		}
	}
	return runs, nil
}
