package history

import (
	"context"
	"sync"

	"github.com/wonny/aegis-signal/internal/contracts"
)

// MemoryStore keeps the last evaluation per instrument in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	evals map[string]contracts.Evaluation
}

// NewMemoryStore creates an empty in-memory history store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		evals: make(map[string]contracts.Evaluation),
	}
}

// Load returns a snapshot copy; later Saves do not change it
func (s *MemoryStore) Load(ctx context.Context, instruments []string) (contracts.HistorySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(contracts.HistorySnapshot, len(instruments))
	for _, id := range instruments {
		if ev, ok := s.evals[id]; ok {
			snap[id] = ev
		}
	}
	return snap, nil
}

// Save upserts the evaluations
func (s *MemoryStore) Save(ctx context.Context, evaluations []contracts.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range evaluations {
		s.evals[ev.Instrument] = ev
	}
	return nil
}

// Len returns the number of stored instruments
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.evals)
}

var _ contracts.HistoryStore = (*MemoryStore)(nil)
