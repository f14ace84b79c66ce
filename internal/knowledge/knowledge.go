// Package knowledge stores crawled page text in a vector database so research
// queries can retrieve the most relevant excerpts. Every operation is
// fail-soft: errors are logged and degrade to a no-op or an empty result, so a
// down or misconfigured store never interrupts a crawl.
package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const collectionName = "research_documents"

// Metadata accompanies a stored document.
type Metadata struct {
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
}

// Result is one document returned by a similarity query, ordered by
// increasing distance (most relevant first).
type Result struct {
	Text     string
	Metadata Metadata
	Distance float64
}

// Store is the vector knowledge base consumed by the research agent.
type Store interface {
	AddDocument(ctx context.Context, text string, metadata Metadata)
	Query(ctx context.Context, text string, n int) []Result
	Count(ctx context.Context) int
	Clear(ctx context.Context)
}

// ChromaStore talks to a Chroma server over its HTTP API. The server computes
// embeddings itself, so this client only ships raw text.
type ChromaStore struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger

	mu           sync.Mutex
	collectionID string
}

// NewChromaStore initialises a Chroma-backed Store.
func NewChromaStore(endpoint string, logger *zap.Logger) (*ChromaStore, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("chroma endpoint not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ChromaStore{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}, nil
}

// AddDocument stores one document. Empty text is skipped; failures are logged
// and swallowed.
func (s *ChromaStore) AddDocument(ctx context.Context, text string, metadata Metadata) {
	if strings.TrimSpace(text) == "" {
		s.logger.Warn("skipping empty document")
		return
	}

	collID, err := s.ensureCollection(ctx)
	if err != nil {
		s.logger.Error("failed to resolve collection", zap.Error(err))
		return
	}

	body := map[string]any{
		"ids":       []string{documentID(text, metadata)},
		"documents": []string{text},
		"metadatas": []Metadata{metadata},
	}
	if err := s.post(ctx, s.collectionURL(collID)+"/add", body, nil); err != nil {
		s.logger.Error("failed to add document", zap.String("url", metadata.URL), zap.Error(err))
		return
	}
	s.logger.Debug("added document", zap.String("url", metadata.URL))
}

type queryResponse struct {
	Documents [][]string   `json:"documents"`
	Metadatas [][]Metadata `json:"metadatas"`
	Distances [][]float64  `json:"distances"`
}

// Query returns up to n documents most similar to text. Failures yield an
// empty slice.
func (s *ChromaStore) Query(ctx context.Context, text string, n int) []Result {
	collID, err := s.ensureCollection(ctx)
	if err != nil {
		s.logger.Error("failed to resolve collection", zap.Error(err))
		return nil
	}

	body := map[string]any{
		"query_texts": []string{text},
		"n_results":   n,
	}
	var parsed queryResponse
	if err := s.post(ctx, s.collectionURL(collID)+"/query", body, &parsed); err != nil {
		s.logger.Error("query failed", zap.Error(err))
		return nil
	}
	if len(parsed.Documents) == 0 {
		return nil
	}

	results := make([]Result, 0, len(parsed.Documents[0]))
	for i, doc := range parsed.Documents[0] {
		r := Result{Text: doc}
		if len(parsed.Metadatas) > 0 && i < len(parsed.Metadatas[0]) {
			r.Metadata = parsed.Metadatas[0][i]
		}
		if len(parsed.Distances) > 0 && i < len(parsed.Distances[0]) {
			r.Distance = parsed.Distances[0][i]
		}
		results = append(results, r)
	}
	return results
}

// Count returns the number of stored documents, or 0 on any failure.
func (s *ChromaStore) Count(ctx context.Context) int {
	collID, err := s.ensureCollection(ctx)
	if err != nil {
		return 0
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.collectionURL(collID)+"/count", nil)
	if err != nil {
		return 0
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("count failed", zap.Error(err))
		return 0
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0
	}
	var count int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		return 0
	}
	return count
}

// Clear deletes the collection; the next operation recreates it.
func (s *ChromaStore) Clear(ctx context.Context) {
	deleteURL := fmt.Sprintf("%s/api/v1/collections/%s", s.endpoint, url.PathEscape(collectionName))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, deleteURL, nil)
	if err != nil {
		s.logger.Error("failed to build delete request", zap.Error(err))
		return
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("failed to clear knowledge base", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	s.mu.Lock()
	s.collectionID = ""
	s.mu.Unlock()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		msg, _ := io.ReadAll(resp.Body)
		s.logger.Error("failed to clear knowledge base",
			zap.Int("status", resp.StatusCode), zap.String("body", string(msg)))
		return
	}
	s.logger.Info("cleared knowledge base")
}

type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ensureCollection resolves (creating if needed) the collection ID, caching it
// for the lifetime of the store.
func (s *ChromaStore) ensureCollection(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.collectionID != "" {
		id := s.collectionID
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	body := map[string]any{
		"name":          collectionName,
		"get_or_create": true,
	}
	var parsed collectionResponse
	if err := s.post(ctx, s.endpoint+"/api/v1/collections", body, &parsed); err != nil {
		return "", fmt.Errorf("get or create collection: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("collection response missing id")
	}

	s.mu.Lock()
	s.collectionID = parsed.ID
	s.mu.Unlock()
	return parsed.ID, nil
}

func (s *ChromaStore) post(ctx context.Context, target string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d body %s", resp.StatusCode, string(msg))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (s *ChromaStore) collectionURL(id string) string {
	return fmt.Sprintf("%s/api/v1/collections/%s", s.endpoint, url.PathEscape(id))
}

// documentID derives a stable ID from the document URL so re-crawling a page
// overwrites its previous entry rather than duplicating it.
func documentID(text string, metadata Metadata) string {
	h := fnv.New64a()
	if metadata.URL != "" {
		h.Write([]byte(metadata.URL))
	} else {
		preview := text
		if len(preview) > 100 {
			preview = preview[:100]
		}
		h.Write([]byte(preview + time.Now().Format(time.RFC3339Nano)))
	}
	return fmt.Sprintf("%d", h.Sum64())
}

var _ Store = (*ChromaStore)(nil)
