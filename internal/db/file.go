package db

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"bootbench/internal/benchmark"
)

// FileStore implements Store using a JSON file holding every run.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Save(ctx context.Context, run *benchmark.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.loadAll()
	if err != nil {
		return err
	}
	for _, r := range runs {
		if r.ID == run.ID {
			return fmt.Errorf("failed to save run %s: already stored", run.ID)
		}
	}
	runs = append(runs, *run)

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal runs: %w", err)
	}

	// Replace atomically.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Latest(ctx context.Context, n int) ([]benchmark.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.loadAll()
	if err != nil {
		return nil, err
	}

	out := make([]benchmark.Run, 0, n)
	for i := len(runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, runs[i])
	}
	return out, nil
}

// loadAll returns every run, oldest first.
func (s *FileStore) loadAll() ([]benchmark.Run, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []benchmark.Run{}, nil
		}
		return nil, err
	}

	var runs []benchmark.Run
	if len(data) == 0 {
		return []benchmark.Run{}, nil
	}

	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal runs: %w", err)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})

	return runs, nil
}

func (s *FileStore) Close() error { return nil }
