// Package storage persists crawl results. The default backend appends JSON
// lines; a SQLite backend is available for queryable storage.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"clearcrawl/internal/types"
)

// Backend stores and loads crawled pages.
type Backend interface {
	SavePage(page types.StoredPage) error
	LoadPages() ([]types.StoredPage, error)
	Close() error
}

// Storage is the JSONL backend. Each saved page becomes one JSON line in
// pages.jsonl under the data directory.
type Storage struct {
	dataDir string
	mu      sync.Mutex
	jsonl   *os.File
}

// New creates a JSONL storage rooted at dataDir.
func New(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	jsonlPath := filepath.Join(dataDir, "pages.jsonl")
	file, err := os.OpenFile(jsonlPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL file: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
		jsonl:   file,
	}, nil
}

// SavePage appends a page record.
func (s *Storage) SavePage(page types.StoredPage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}

	if _, err := s.jsonl.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write page: %w", err)
	}

	return nil
}

// LoadPages reads back every stored page. Lines that fail to decode are
// skipped rather than failing the whole load.
func (s *Storage) LoadPages() ([]types.StoredPage, error) {
	jsonlPath := filepath.Join(s.dataDir, "pages.jsonl")

	file, err := os.Open(jsonlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.StoredPage{}, nil
		}
		return nil, fmt.Errorf("failed to open JSONL file: %w", err)
	}
	defer file.Close()

	pages := make([]types.StoredPage, 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		var page types.StoredPage
		if err := json.Unmarshal(scanner.Bytes(), &page); err == nil {
			pages = append(pages, page)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read JSONL file: %w", err)
	}

	return pages, nil
}

// Close closes the JSONL file.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jsonl.Close()
}
