package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallnest/stepgraph/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresRunStore implements store.RunStore using PostgreSQL
type PostgresRunStore struct {
	pool      DBPool
	tableName string
	newID     func() string
	now       func() time.Time
}

var _ store.RunStore = (*PostgresRunStore)(nil)

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "runs"
}

// NewPostgresRunStore creates a new Postgres run store
func NewPostgresRunStore(ctx context.Context, opts PostgresOptions) (*PostgresRunStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewPostgresRunStoreWithPool(pool, opts.TableName), nil
}

// NewPostgresRunStoreWithPool creates a new Postgres run store with an existing pool
// Useful for testing with mocks
func NewPostgresRunStoreWithPool(pool DBPool, tableName string) *PostgresRunStore {
	if tableName == "" {
		tableName = "runs"
	}
	return &PostgresRunStore{
		pool:      pool,
		tableName: tableName,
		newID:     func() string { return "run_" + uuid.NewString() },
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *PostgresRunStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			graph_id TEXT NOT NULL,
			state JSONB NOT NULL,
			log JSONB NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_graph_id ON %s (graph_id);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresRunStore) Close() {
	s.pool.Close()
}

// Create inserts a new run in status created
func (s *PostgresRunStore) Create(ctx context.Context, graphID string, initialState map[string]any) (string, error) {
	run := store.NewRun(s.newID(), graphID, initialState, s.now())

	stateJSON, err := json.Marshal(run.State)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}
	logJSON, err := json.Marshal(run.Log)
	if err != nil {
		return "", fmt.Errorf("failed to marshal log: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, graph_id, state, log, status, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		run.ID,
		run.GraphID,
		stateJSON,
		logJSON,
		string(run.Status),
		run.Error,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return run.ID, nil
}

// Update overwrites state, log, status and error of a run
func (s *PostgresRunStore) Update(ctx context.Context, runID string, update store.RunUpdate) error {
	stateJSON, err := json.Marshal(store.CloneState(update.State))
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	logJSON, err := json.Marshal(store.CloneLog(update.Log))
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET state = $2, log = $3, status = $4, error = $5, updated_at = $6
		WHERE id = $1
	`, s.tableName)

	tag, err := s.pool.Exec(ctx, query,
		runID,
		stateJSON,
		logJSON,
		string(update.Status),
		update.Error,
		s.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
	}
	return nil
}

// Get retrieves a run by ID
func (s *PostgresRunStore) Get(ctx context.Context, runID string) (*store.Run, error) {
	query := fmt.Sprintf(`
		SELECT id, graph_id, state, log, status, error, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, s.tableName)

	run, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return run, nil
}

// List returns the matching runs ordered by creation time
func (s *PostgresRunStore) List(ctx context.Context, filter store.RunFilter) ([]*store.Run, error) {
	query := fmt.Sprintf(`
		SELECT id, graph_id, state, log, status, error, created_at, updated_at
		FROM %s
		WHERE ($1 = '' OR graph_id = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at ASC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, filter.GraphID, string(filter.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*store.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (*store.Run, error) {
	var run store.Run
	var stateJSON, logJSON []byte
	var status string

	err := row.Scan(
		&run.ID,
		&run.GraphID,
		&stateJSON,
		&logJSON,
		&status,
		&run.Error,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Status = store.RunStatus(status)

	if err := json.Unmarshal(stateJSON, &run.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if run.State == nil {
		run.State = map[string]any{}
	}
	if len(logJSON) > 0 {
		if err := json.Unmarshal(logJSON, &run.Log); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log: %w", err)
		}
	}
	return &run, nil
}
