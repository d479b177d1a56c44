package portfolio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Persistence saves and loads a whole portfolio.
type Persistence interface {
	Save(ctx context.Context, p *Portfolio) error
	Load(ctx context.Context) (*Portfolio, error)
}

// FileStore persists a portfolio in a JSONL file.
type FileStore struct {
	path string
	opts []Option
}

// NewFileStore returns a store for the file at path. opts are applied to loaded portfolios.
func NewFileStore(path string, opts ...Option) *FileStore {
	return &FileStore{path: path, opts: opts}
}

// Path returns the file path.
func (s *FileStore) Path() string { return s.path }

// Save writes the portfolio to a temporary file then renames it over the store file.
func (s *FileStore) Save(ctx context.Context, p *Portfolio) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Marshal(p)
	if err != nil {
		return fmt.Errorf("could not encode portfolio: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create directory %q: %w", dir, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("could not write portfolio file %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("could not replace portfolio file %q: %w", s.path, err)
	}
	return nil
}

// Load reads the portfolio from the store file.
func (s *FileStore) Load(ctx context.Context) (*Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("could not read portfolio file %q: %w", s.path, err)
	}
	p, err := Unmarshal(data, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("could not decode portfolio file %q: %w", s.path, err)
	}
	return p, nil
}

var _ Persistence = (*FileStore)(nil)
