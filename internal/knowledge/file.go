package knowledge

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// FileSource serves records from a YAML seed document with one top-level list
// per collection. The file is re-read whenever its modification time changes.
type FileSource struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	records Records
	loaded  bool
}

func NewFileSource(path string) (*FileSource, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("knowledge file path is required")
	}
	s := &FileSource{path: path}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileSource) load() (Records, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		return Records{}, fmt.Errorf("stat knowledge file: %w", err)
	}
	if s.loaded && info.ModTime().Equal(s.modTime) {
		return s.records, nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return Records{}, fmt.Errorf("read knowledge file: %w", err)
	}
	var doc Records
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Records{}, fmt.Errorf("parse knowledge file %s: %w", s.path, err)
	}

	s.records = doc
	s.modTime = info.ModTime()
	s.loaded = true
	return doc, nil
}

func (s *FileSource) Profile(_ context.Context) ([]ProfileFact, error) {
	r, err := s.load()
	return r.Profile, err
}

func (s *FileSource) Skills(_ context.Context) ([]Skill, error) {
	r, err := s.load()
	return r.Skills, err
}

func (s *FileSource) Experience(_ context.Context) ([]Experience, error) {
	r, err := s.load()
	return r.Experience, err
}

func (s *FileSource) Education(_ context.Context) ([]Education, error) {
	r, err := s.load()
	return r.Education, err
}

func (s *FileSource) Certificates(_ context.Context) ([]Certificate, error) {
	r, err := s.load()
	return r.Certificates, err
}

func (s *FileSource) Projects(_ context.Context) ([]Project, error) {
	r, err := s.load()
	return r.Projects, err
}

func (s *FileSource) Close() error { return nil }
