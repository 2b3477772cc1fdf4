// Package memory provides an in-memory ProjectStore (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/estimate-engine/estimator"
	"github.com/warp/estimate-engine/store"
)

// Store keeps projects in a map guarded by a RWMutex.
type Store struct {
	mu       sync.RWMutex
	projects map[string]store.Project
}

func New() *Store {
	return &Store{projects: make(map[string]store.Project)}
}

func (s *Store) Save(_ context.Context, p store.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*store.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, estimator.ErrProjectNotFound
	}
	return &p, nil
}

func (s *Store) List(_ context.Context) ([]store.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, id)
	return nil
}
