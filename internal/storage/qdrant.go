package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// QdrantConfig configures the Qdrant REST client.
type QdrantConfig struct {
	Host       string
	Port       int
	URL        string // overrides Host/Port when set (cloud instances)
	APIKey     string
	Collection string
	VectorSize int
	Timeout    time.Duration
}

// QdrantStore talks to the Qdrant HTTP API.
type QdrantStore struct {
	baseURL    string
	apiKey     string
	collection string
	vectorSize int
	httpClient *http.Client
}

// NewQdrantStore creates a store client for the configured instance.
func NewQdrantStore(cfg QdrantConfig) *QdrantStore {
	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &QdrantStore{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		vectorSize: cfg.VectorSize,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection with cosine distance if it does
// not exist yet.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	status, _, err := s.do(ctx, http.MethodGet, "/collections/"+s.collection, nil)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if status == http.StatusOK {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.vectorSize,
			"distance": "Cosine",
		},
	}
	status, respBody, err := s.do(ctx, http.MethodPut, "/collections/"+s.collection, body)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("create collection %s: status %d: %s", s.collection, status, respBody)
	}
	return nil
}

// Upsert writes points, overwriting any existing point with the same ID.
func (s *QdrantStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]map[string]any, len(points))
	for i, p := range points {
		qdrantPoints[i] = map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		}
	}

	status, respBody, err := s.do(ctx, http.MethodPut,
		"/collections/"+s.collection+"/points?wait=true",
		map[string]any{"points": qdrantPoints})
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("upsert points: status %d: %s", status, respBody)
	}
	return nil
}

// Search runs a similarity query, optionally filtered by payload equality.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int, filter Filter) ([]SearchResult, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if len(filter) > 0 {
		var must []map[string]any
		for key, value := range filter {
			must = append(must, map[string]any{
				"key":   key,
				"match": map[string]any{"value": value},
			})
		}
		body["filter"] = map[string]any{"must": must}
	}

	status, respBody, err := s.do(ctx, http.MethodPost,
		"/collections/"+s.collection+"/points/search", body)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("search: status %d: %s", status, respBody)
	}

	var parsed struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]SearchResult, len(parsed.Result))
	for i, hit := range parsed.Result {
		results[i] = SearchResult{
			ID:      fmt.Sprint(hit.ID),
			Score:   hit.Score,
			Payload: hit.Payload,
		}
	}
	return results, nil
}

// Get retrieves a point by ID. Returns (nil, nil) when it does not exist.
func (s *QdrantStore) Get(ctx context.Context, id string) (*Point, error) {
	status, respBody, err := s.do(ctx, http.MethodGet,
		"/collections/"+s.collection+"/points/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("get point: %w", err)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get point %s: status %d: %s", id, status, respBody)
	}

	var parsed struct {
		Result struct {
			ID      any            `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode point response: %w", err)
	}
	return &Point{
		ID:      fmt.Sprint(parsed.Result.ID),
		Vector:  parsed.Result.Vector,
		Payload: parsed.Result.Payload,
	}, nil
}

// Delete removes a point by ID. Returns false when the call fails.
func (s *QdrantStore) Delete(ctx context.Context, id string) (bool, error) {
	status, respBody, err := s.do(ctx, http.MethodPost,
		"/collections/"+s.collection+"/points/delete?wait=true",
		map[string]any{"points": []string{id}})
	if err != nil {
		return false, fmt.Errorf("delete point: %w", err)
	}
	if status != http.StatusOK {
		return false, fmt.Errorf("delete point %s: status %d: %s", id, status, respBody)
	}
	return true, nil
}

// Info returns collection parameters and point count.
func (s *QdrantStore) Info(ctx context.Context) (*CollectionInfo, error) {
	status, respBody, err := s.do(ctx, http.MethodGet, "/collections/"+s.collection, nil)
	if err != nil {
		return nil, fmt.Errorf("collection info: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("collection info: status %d: %s", status, respBody)
	}

	var parsed struct {
		Result struct {
			PointsCount int `json:"points_count"`
			Config      struct {
				Params struct {
					Vectors struct {
						Size     int    `json:"size"`
						Distance string `json:"distance"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode collection info: %w", err)
	}
	return &CollectionInfo{
		VectorSize: parsed.Result.Config.Params.Vectors.Size,
		Distance:   parsed.Result.Config.Params.Vectors.Distance,
		PointCount: parsed.Result.PointsCount,
	}, nil
}

// Close releases idle connections.
func (s *QdrantStore) Close() {
	s.httpClient.CloseIdleConnections()
}

func (s *QdrantStore) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
