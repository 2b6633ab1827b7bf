package job

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store for the in-process execution mode and
// for tests. Records are deep-copied on the way in and out so callers
// never share mutable state with the store.
type MemStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{jobs: make(map[string]*Job)}
}

func (s *MemStore) Create(ctx context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = copyJob(j)
	return nil
}

func (s *MemStore) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyJob(stored), nil
}

func (s *MemStore) Update(ctx context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.ID]; !ok {
		return ErrNotFound
	}
	s.jobs[j.ID] = copyJob(j)
	return nil
}

// Claim picks the oldest queued job and marks it processing under the
// store lock, so two concurrent claimers can never take the same job.
func (s *MemStore) Claim(ctx context.Context) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var oldest *Job
	for _, j := range s.jobs {
		if j.Status != StatusQueued {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, nil
	}
	oldest.Status = StatusProcessing
	oldest.UpdatedAt = time.Now().UTC()
	return copyJob(oldest), nil
}

func (s *MemStore) List(ctx context.Context, limit, offset int) ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		all = append(all, j)
	}
	sort.Slice(all, func(i, k int) bool {
		return all[i].CreatedAt.After(all[k].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	out := make([]*Job, len(all))
	for i, j := range all {
		out[i] = copyJob(j)
	}
	return out, nil
}

func (s *MemStore) Close() error { return nil }

// copyJob deep-copies via the JSON round trip used by the persistent
// store, keeping the two stores' field coverage identical.
func copyJob(j *Job) *Job {
	data, err := json.Marshal(j)
	if err != nil {
		clone := *j
		return &clone
	}
	var out Job
	if err := json.Unmarshal(data, &out); err != nil {
		clone := *j
		return &clone
	}
	return &out
}
