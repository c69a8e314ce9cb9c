package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/smallnest/stepgraph/store"
)

// MemoryRunStore implements store.RunStore in process memory.
// Runs live for the lifetime of the store.
type MemoryRunStore struct {
	mu     sync.RWMutex
	runs   map[string]*store.Run
	nextID int64
	now    func() time.Time
}

var _ store.RunStore = (*MemoryRunStore)(nil)

// NewMemoryRunStore creates a new in-memory run store
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{
		runs: make(map[string]*store.Run),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create allocates a run with a monotonically increasing ID (run_1, run_2, ...)
func (s *MemoryRunStore) Create(_ context.Context, graphID string, initialState map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := fmt.Sprintf("run_%d", s.nextID)
	s.runs[id] = store.NewRun(id, graphID, initialState, s.now())
	return id, nil
}

// Update overwrites the state, log and status of a run
func (s *MemoryRunStore) Update(_ context.Context, runID string, update store.RunUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
	}
	run.Apply(update, s.now())
	return nil
}

// Get returns a copy of the run
func (s *MemoryRunStore) Get(_ context.Context, runID string) (*store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
	}
	return run.Clone(), nil
}

// List returns copies of the matching runs ordered by creation
func (s *MemoryRunStore) List(_ context.Context, filter store.RunFilter) ([]*store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*store.Run, 0, len(s.runs))
	for _, run := range s.runs {
		if filter.Match(run) {
			runs = append(runs, run.Clone())
		}
	}

	// IDs are sequential, so the numeric suffix gives creation order even
	// when two runs share a timestamp.
	sort.Slice(runs, func(i, j int) bool {
		return runSeq(runs[i].ID) < runSeq(runs[j].ID)
	})
	return runs, nil
}

func runSeq(id string) int64 {
	var n int64
	if _, err := fmt.Sscanf(id, "run_%d", &n); err != nil {
		return 0
	}
	return n
}
