package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCohereClient_Embed(t *testing.T) {
	var gotAuth, gotInputType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embed" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		var req struct {
			Texts     []string `json:"texts"`
			Model     string   `json:"model"`
			InputType string   `json:"input_type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotInputType = req.InputType

		embeddings := make([][]float32, len(req.Texts))
		for i := range req.Texts {
			embeddings[i] = goodVector(16)
		}
		json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	}))
	defer srv.Close()

	client := NewCohereClient(srv.URL, "secret", 5*time.Second)
	defer client.Close()

	vectors, err := client.Embed(context.Background(), []string{"one", "two"}, "embed-multilingual-v3.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotInputType != "search_document" {
		t.Errorf("expected search_document input type, got %q", gotInputType)
	}
}

func TestCohereClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewCohereClient(srv.URL, "secret", 5*time.Second)
	defer client.Close()

	if _, err := client.Embed(context.Background(), []string{"one"}, "m"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestCohereClient_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{goodVector(16)}})
	}))
	defer srv.Close()

	client := NewCohereClient(srv.URL, "secret", 5*time.Second)
	defer client.Close()

	if _, err := client.Embed(context.Background(), []string{"one", "two"}, "m"); err == nil {
		t.Fatal("expected error when embedding count does not match text count")
	}
}
