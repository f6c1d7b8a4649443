// Package storage persists embedding vectors with payload metadata and
// serves similarity search. Two backends exist: a Qdrant HTTP client for
// production and a chromem-go in-memory store for local runs and tests.
package storage

import "context"

// Point is one stored vector with its payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// SearchResult is one similarity hit.
type SearchResult struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Filter restricts search to points whose payload fields equal the given
// values.
type Filter map[string]string

// CollectionInfo describes the backing collection.
type CollectionInfo struct {
	VectorSize int
	Distance   string
	PointCount int
}

// Store is the vector-database collaborator. Implementations must be safe
// for concurrent use by pipeline workers.
type Store interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, limit int, filter Filter) ([]SearchResult, error)
	Get(ctx context.Context, id string) (*Point, error)
	Delete(ctx context.Context, id string) (bool, error)
	Info(ctx context.Context) (*CollectionInfo, error)
	Close()
}
