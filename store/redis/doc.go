// Package redis provides a Redis-backed run store for stepgraph.
//
// Runs are stored as JSON documents under "<prefix>run:<id>". IDs come from an
// INCR counter, so they keep the "run_N" shape of the in-memory store and stay
// unique across every process sharing the Redis instance. Two sorted sets index
// runs in creation order: "<prefix>runs" and "<prefix>graph:<graph_id>:runs".
//
// # Basic Usage
//
//	runs := redis.NewRedisRunStore(redis.RedisOptions{
//		Addr:   "localhost:6379",
//		Prefix: "stepgraph:",     // Optional key prefix
//		TTL:    24 * time.Hour,   // Optional expiration for run records
//	})
//	defer runs.Close()
//
//	exec := graph.NewExecutor(runs)
//
// State read back from Redis follows JSON typing: numbers decode as float64
// and nested values as map[string]any / []any.
package redis
