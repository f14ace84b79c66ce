package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"clearcrawl/internal/types"
)

func samplePage(url string) types.StoredPage {
	return types.StoredPage{
		URL:       url,
		CrawledAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Data: types.PageData{
			Content: "example body text",
			Links:   []string{url + "/next", url + "/about"},
			Resources: types.Resources{
				Images:      []string{url + "/logo.png"},
				Scripts:     []string{url + "/app.js"},
				Stylesheets: []string{url + "/main.css"},
			},
			Metadata: types.PageMetadata{
				Title:       "Example",
				Description: "an example page",
				Keywords:    "example, test",
			},
		},
	}
}

func TestJSONLSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()

	pages := []types.StoredPage{
		samplePage("https://example.com"),
		samplePage("https://example.com/docs"),
	}
	for _, p := range pages {
		if err := s.SavePage(p); err != nil {
			t.Fatalf("SavePage failed: %v", err)
		}
	}

	loaded, err := s.LoadPages()
	if err != nil {
		t.Fatalf("LoadPages failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(loaded))
	}
	if loaded[0].URL != pages[0].URL {
		t.Errorf("URL = %q, want %q", loaded[0].URL, pages[0].URL)
	}
	if loaded[1].Data.Metadata.Title != "Example" {
		t.Errorf("title = %q, want Example", loaded[1].Data.Metadata.Title)
	}
	if len(loaded[0].Data.Links) != 2 {
		t.Errorf("links = %d, want 2", len(loaded[0].Data.Links))
	}
}

func TestJSONLLoadEmpty(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()

	loaded, err := s.LoadPages()
	if err != nil {
		t.Fatalf("LoadPages failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected no pages, got %d", len(loaded))
	}
}

func TestJSONLSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.SavePage(samplePage("https://example.com")); err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}
	s.Close()

	path := filepath.Join(dir, "pages.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	f.WriteString("{not valid json\n")
	f.Close()

	s2, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s2.Close()

	loaded, err := s2.LoadPages()
	if err != nil {
		t.Fatalf("LoadPages failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Errorf("expected 1 page after corrupt line, got %d", len(loaded))
	}
}

func TestSQLiteSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	s, err := NewSQLiteStorage(filepath.Join(dir, "crawl.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}
	defer s.Close()

	page := samplePage("https://example.com")
	if err := s.SavePage(page); err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}

	loaded, err := s.LoadPages()
	if err != nil {
		t.Fatalf("LoadPages failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 page, got %d", len(loaded))
	}
	got := loaded[0]
	if got.URL != page.URL {
		t.Errorf("URL = %q, want %q", got.URL, page.URL)
	}
	if got.Data.Metadata.Title != page.Data.Metadata.Title {
		t.Errorf("title = %q, want %q", got.Data.Metadata.Title, page.Data.Metadata.Title)
	}
	if len(got.Data.Links) != 2 {
		t.Errorf("links = %d, want 2", len(got.Data.Links))
	}
	if len(got.Data.Resources.Images) != 1 || len(got.Data.Resources.Scripts) != 1 {
		t.Errorf("resources not restored: %+v", got.Data.Resources)
	}
}

func TestSQLiteUpsert(t *testing.T) {
	dir := t.TempDir()

	s, err := NewSQLiteStorage(filepath.Join(dir, "crawl.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}
	defer s.Close()

	page := samplePage("https://example.com")
	if err := s.SavePage(page); err != nil {
		t.Fatalf("first SavePage failed: %v", err)
	}

	page.Data.Metadata.Title = "Updated"
	page.Data.Links = []string{"https://example.com/new"}
	if err := s.SavePage(page); err != nil {
		t.Fatalf("second SavePage failed: %v", err)
	}

	loaded, err := s.LoadPages()
	if err != nil {
		t.Fatalf("LoadPages failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 page after upsert, got %d", len(loaded))
	}
	if loaded[0].Data.Metadata.Title != "Updated" {
		t.Errorf("title = %q, want Updated", loaded[0].Data.Metadata.Title)
	}
	if len(loaded[0].Data.Links) != 1 {
		t.Errorf("links = %d, want 1 after upsert", len(loaded[0].Data.Links))
	}
}
