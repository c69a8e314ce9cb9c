package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smallnest/stepgraph/log"
	"github.com/smallnest/stepgraph/store/memory"
	"github.com/smallnest/stepgraph/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Addr())
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, log.LogLevelInfo, cfg.LogLevel())
	assert.Empty(t, cfg.Graphs)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "stepgraph.yaml", `
server:
  host: 0.0.0.0
  port: 9090
log:
  level: debug
store:
  backend: redis
  redis:
    addr: redis:6379
    ttl: 1h
graphs:
  - graph_id: linear
    nodes: [extract, evaluate]
    edges:
      extract: evaluate
      evaluate: ~
    start_node: extract
    max_steps: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, log.LogLevelDebug, cfg.LogLevel())
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	// Defaults survive for keys the file does not set
	assert.Equal(t, "stepgraph:", cfg.Store.Redis.Prefix)

	require.Len(t, cfg.Graphs, 1)
	def := cfg.Graphs[0]
	assert.Equal(t, "linear", def.ID)
	assert.Equal(t, []string{"extract", "evaluate"}, def.Nodes)
	assert.Equal(t, "evaluate", *def.Edges["extract"])
	assert.Nil(t, def.Edges["evaluate"])
	assert.Equal(t, 5, def.MaxSteps)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STEPGRAPH_ADDR", ":7000")
	t.Setenv("STEPGRAPH_LOG_LEVEL", "warn")
	t.Setenv("STEPGRAPH_STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/stepgraph")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr())
	assert.Equal(t, log.LogLevelWarn, cfg.LogLevel())
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/stepgraph", cfg.Store.Postgres.URL)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "server: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("bad addr", func(t *testing.T) {
		t.Setenv("STEPGRAPH_ADDR", "no-port")
		_, err := Load("")
		assert.ErrorContains(t, err, "STEPGRAPH_ADDR")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Store.Backend = "mongo" }, "unknown store backend"},
		{"postgres without url", func(c *Config) { c.Store.Backend = BackendPostgres }, "postgres"},
		{"redis without addr", func(c *Config) {
			c.Store.Backend = BackendRedis
			c.Store.Redis.Addr = ""
		}, "redis"},
		{"sqlite without path", func(c *Config) {
			c.Store.Backend = BackendSqlite
			c.Store.Sqlite.Path = ""
		}, "sqlite"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "unknown log level"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "STEPGRAPH_DOTENV_TEST_VALUE"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := writeFile(t, ".env", key+"=from-file\n")
	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv(key))

	// Missing files are ignored
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestOpenRunStore(t *testing.T) {
	ctx := context.Background()

	runs, closeFn, err := OpenRunStore(ctx, StoreConfig{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.MemoryRunStore{}, runs)
	assert.NoError(t, closeFn())

	runs, closeFn, err = OpenRunStore(ctx, StoreConfig{
		Backend: BackendSqlite,
		Sqlite:  SqliteConfig{Path: filepath.Join(t.TempDir(), "runs.db")},
	})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.SqliteRunStore{}, runs)

	id, err := runs.Create(ctx, "g", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, closeFn())

	_, _, err = OpenRunStore(ctx, StoreConfig{Backend: "etcd"})
	assert.Error(t, err)
}
