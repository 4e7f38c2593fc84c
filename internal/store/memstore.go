package store

import (
	"context"
	"sync"

	"ecss/internal/jobs"
)

// memStore is the default backend: a mutex-guarded map with no
// persistence across restarts. Used when no backend selector env var is
// set and as the fallback the daemon warns about loudly, the same way
// the rest of the daemon falls back to a Nop logger or a no-op store
// rather than refusing to start.
type memStore struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.Job
}

// NewMemStore creates an empty in-memory job store.
func NewMemStore() Store {
	return &memStore{jobs: map[string]*jobs.Job{}}
}

func (s *memStore) Bootstrap(ctx context.Context) error { return nil }

func (s *memStore) LoadAll(ctx context.Context) ([]*jobs.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*jobs.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Clone())
	}
	return out, nil
}

func (s *memStore) Get(ctx context.Context, id string) (*jobs.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j.Clone(), nil
}

func (s *memStore) Create(ctx context.Context, job *jobs.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return ErrAlreadyExists
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *memStore) Update(ctx context.Context, job *jobs.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; !exists {
		return ErrNotFound
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[id]; !exists {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

func (s *memStore) Capabilities() []Capability { return FullCapabilitySet }

func (s *memStore) Close() error { return nil }
