// Package sqlite provides a SQLite-backed run store for stepgraph.
//
// It uses the mattn/go-sqlite3 driver (cgo). Runs are rows of a single table
// with state and log stored as JSON text; IDs are "run_<uuid>".
//
// # Basic Usage
//
//	runs, err := sqlite.NewSqliteRunStore(sqlite.SqliteOptions{
//		Path:      "./runs.db", // Database file path, or ":memory:"
//		TableName: "runs",      // Optional table name
//	})
//	if err != nil {
//		return err
//	}
//	defer runs.Close()
//
// The schema is created on construction.
package sqlite
