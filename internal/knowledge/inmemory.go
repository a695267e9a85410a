package knowledge

import (
	"context"
	"slices"
	"sync"
)

// MemorySource serves records held in process. Used for local runs and tests.
type MemorySource struct {
	mu      sync.RWMutex
	records Records
}

func NewMemorySource(records Records) *MemorySource {
	return &MemorySource{records: records}
}

// Set replaces the served records. Callers should invalidate the context
// cache afterwards.
func (s *MemorySource) Set(records Records) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
}

func (s *MemorySource) Profile(_ context.Context) ([]ProfileFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records.Profile), nil
}

func (s *MemorySource) Skills(_ context.Context) ([]Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records.Skills), nil
}

func (s *MemorySource) Experience(_ context.Context) ([]Experience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records.Experience), nil
}

func (s *MemorySource) Education(_ context.Context) ([]Education, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records.Education), nil
}

func (s *MemorySource) Certificates(_ context.Context) ([]Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records.Certificates), nil
}

func (s *MemorySource) Projects(_ context.Context) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records.Projects), nil
}

func (s *MemorySource) Close() error { return nil }
