package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeQdrant implements just enough of the Qdrant REST surface for the
// client tests.
func fakeQdrant(t *testing.T) (*httptest.Server, *map[string]any) {
	t.Helper()
	var lastBody map[string]any
	created := false

	mux := http.NewServeMux()
	mux.HandleFunc("/collections/docs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if !created {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{
					"points_count": 2,
					"config": map[string]any{
						"params": map[string]any{
							"vectors": map[string]any{"size": 16, "distance": "Cosine"},
						},
					},
				},
			})
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&lastBody)
			created = true
			json.NewEncoder(w).Encode(map[string]any{"result": true})
		}
	})
	mux.HandleFunc("/collections/docs/points", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&lastBody)
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"status": "completed"}})
	})
	mux.HandleFunc("/collections/docs/points/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&lastBody)
		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{"id": "p1", "score": 0.93, "payload": map[string]any{"text": "hit"}},
			},
		})
	})
	mux.HandleFunc("/collections/docs/points/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return httptest.NewServer(mux), &lastBody
}

func testQdrantStore(url string) *QdrantStore {
	return NewQdrantStore(QdrantConfig{
		URL:        url,
		Collection: "docs",
		VectorSize: 16,
		Timeout:    5 * time.Second,
	})
}

func TestQdrantStore_EnsureCollectionCreates(t *testing.T) {
	srv, lastBody := fakeQdrant(t)
	defer srv.Close()

	store := testQdrantStore(srv.URL)
	defer store.Close()

	if err := store.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("ensure collection: %v", err)
	}

	vectors, ok := (*lastBody)["vectors"].(map[string]any)
	if !ok {
		t.Fatalf("expected vectors config sent, got %v", *lastBody)
	}
	if vectors["distance"] != "Cosine" {
		t.Errorf("expected cosine distance, got %v", vectors["distance"])
	}

	// Second call sees the collection and must not recreate it.
	if err := store.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("ensure collection (existing): %v", err)
	}
}

func TestQdrantStore_Upsert(t *testing.T) {
	srv, lastBody := fakeQdrant(t)
	defer srv.Close()

	store := testQdrantStore(srv.URL)
	defer store.Close()

	points := []Point{{
		ID:      "p1",
		Vector:  unitVector(16, 0),
		Payload: map[string]any{"text": "chunk text"},
	}}
	if err := store.Upsert(context.Background(), points); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sent, ok := (*lastBody)["points"].([]any)
	if !ok || len(sent) != 1 {
		t.Fatalf("expected one point sent, got %v", *lastBody)
	}
}

func TestQdrantStore_UpsertEmptyIsNoop(t *testing.T) {
	store := testQdrantStore("http://127.0.0.1:1") // unreachable on purpose
	if err := store.Upsert(context.Background(), nil); err != nil {
		t.Errorf("expected empty upsert to skip the network, got %v", err)
	}
}

func TestQdrantStore_SearchWithFilter(t *testing.T) {
	srv, lastBody := fakeQdrant(t)
	defer srv.Close()

	store := testQdrantStore(srv.URL)
	defer store.Close()

	hits, err := store.Search(context.Background(), unitVector(16, 0), 5,
		Filter{"source_url": "https://example.com/a"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "p1" || hits[0].Score != 0.93 {
		t.Errorf("unexpected hits: %v", hits)
	}

	filter, ok := (*lastBody)["filter"].(map[string]any)
	if !ok {
		t.Fatalf("expected filter in request, got %v", *lastBody)
	}
	if _, ok := filter["must"]; !ok {
		t.Errorf("expected must clause, got %v", filter)
	}
}

func TestQdrantStore_GetMissing(t *testing.T) {
	srv, _ := fakeQdrant(t)
	defer srv.Close()

	store := testQdrantStore(srv.URL)
	defer store.Close()

	point, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if point != nil {
		t.Errorf("expected nil for missing point, got %v", point)
	}
}

func TestQdrantStore_Info(t *testing.T) {
	srv, _ := fakeQdrant(t)
	defer srv.Close()

	store := testQdrantStore(srv.URL)
	defer store.Close()

	if err := store.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("ensure collection: %v", err)
	}
	info, err := store.Info(context.Background())
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.PointCount != 2 || info.VectorSize != 16 || info.Distance != "Cosine" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestQdrantStore_HostPortBaseURL(t *testing.T) {
	store := NewQdrantStore(QdrantConfig{Host: "qdrant.local", Port: 6333, Collection: "docs"})
	if store.baseURL != "http://qdrant.local:6333" {
		t.Errorf("unexpected base URL %q", store.baseURL)
	}
}
