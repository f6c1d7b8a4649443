// Package embed generates vector embeddings with quality gating. Batch
// calls against the embedding service recover from partial failure by
// bisection, so generation always yields one result per input text.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the embedding-service collaborator. A successful call returns
// one vector per input text in input order; failure is all-or-nothing for
// the batch.
type Client interface {
	Embed(ctx context.Context, texts []string, model string) ([][]float32, error)
}

// CohereClient calls the Cohere /v1/embed endpoint.
type CohereClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewCohereClient creates a client for the given API endpoint and key.
func NewCohereClient(baseURL, apiKey string, timeout time.Duration) *CohereClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &CohereClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type embedRequest struct {
	Texts     []string `json:"texts"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed requests embeddings for a batch of texts.
func (c *CohereClient) Embed(ctx context.Context, texts []string, model string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{
		Texts:     texts,
		Model:     model,
		InputType: "search_document",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("embed call: status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed call: got %d embeddings for %d texts", len(parsed.Embeddings), len(texts))
	}
	return parsed.Embeddings, nil
}

// Close releases idle connections.
func (c *CohereClient) Close() {
	c.httpClient.CloseIdleConnections()
}
