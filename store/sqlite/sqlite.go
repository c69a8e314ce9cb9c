package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/smallnest/stepgraph/store"
)

// SqliteRunStore implements store.RunStore using SQLite
type SqliteRunStore struct {
	db        *sql.DB
	tableName string
	newID     func() string
	now       func() time.Time
}

var _ store.RunStore = (*SqliteRunStore)(nil)

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "runs"
}

// NewSqliteRunStore creates a new SQLite run store
func NewSqliteRunStore(opts SqliteOptions) (*SqliteRunStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Every pooled connection to ":memory:" would see its own database.
	if opts.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "runs"
	}

	s := &SqliteRunStore{
		db:        db,
		tableName: tableName,
		newID:     func() string { return "run_" + uuid.NewString() },
		now:       func() time.Time { return time.Now().UTC() },
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *SqliteRunStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			graph_id TEXT NOT NULL,
			state TEXT NOT NULL,
			log TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_graph_id ON %s (graph_id);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SqliteRunStore) Close() error {
	return s.db.Close()
}

// Create inserts a new run in status created
func (s *SqliteRunStore) Create(ctx context.Context, graphID string, initialState map[string]any) (string, error) {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		run.GraphID,
		string(stateJSON),
		string(logJSON),
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
func (s *SqliteRunStore) Update(ctx context.Context, runID string, update store.RunUpdate) error {
	stateJSON, err := json.Marshal(store.CloneState(update.State))
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	logJSON, err := json.Marshal(store.CloneLog(update.Log))
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET state = ?, log = ?, status = ?, error = ?, updated_at = ?
		WHERE id = ?
	`, s.tableName)

	res, err := s.db.ExecContext(ctx, query,
		string(stateJSON),
		string(logJSON),
		string(update.Status),
		update.Error,
		s.now(),
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
	}
	return nil
}

// Get retrieves a run by ID
func (s *SqliteRunStore) Get(ctx context.Context, runID string) (*store.Run, error) {
	query := fmt.Sprintf(`
		SELECT id, graph_id, state, log, status, error, created_at, updated_at
		FROM %s
		WHERE id = ?
	`, s.tableName)

	run, err := scanRun(s.db.QueryRowContext(ctx, query, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return run, nil
}

// List returns the matching runs in insertion order
func (s *SqliteRunStore) List(ctx context.Context, filter store.RunFilter) ([]*store.Run, error) {
	query := fmt.Sprintf(`
		SELECT id, graph_id, state, log, status, error, created_at, updated_at
		FROM %s
		WHERE (? = '' OR graph_id = ?) AND (? = '' OR status = ?)
		ORDER BY rowid ASC
	`, s.tableName)

	status := string(filter.Status)
	rows, err := s.db.QueryContext(ctx, query, filter.GraphID, filter.GraphID, status, status)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*store.Run, error) {
	var run store.Run
	var stateJSON, logJSON, status string

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

	if err := json.Unmarshal([]byte(stateJSON), &run.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if run.State == nil {
		run.State = map[string]any{}
	}
	if len(logJSON) > 0 {
		if err := json.Unmarshal([]byte(logJSON), &run.Log); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log: %w", err)
		}
	}
	return &run, nil
}
