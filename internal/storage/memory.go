package storage

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
)

// MemoryStore keeps vectors in an embedded chromem-go database. Useful for
// local runs and tests where no Qdrant instance is available.
type MemoryStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	vectorSize int
}

// NewMemoryStore creates an in-memory store for the named collection.
func NewMemoryStore(name string, vectorSize int) *MemoryStore {
	return &MemoryStore{
		db:         chromem.NewDB(),
		name:       name,
		vectorSize: vectorSize,
	}
}

// EnsureCollection creates the backing collection. The embedding function
// is never used because all documents arrive with vectors attached.
func (s *MemoryStore) EnsureCollection(ctx context.Context) error {
	coll, err := s.db.GetOrCreateCollection(s.name, nil, func(_ context.Context, _ string) ([]float32, error) {
		return nil, fmt.Errorf("memory store requires precomputed embeddings")
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	s.collection = coll
	return nil
}

// Upsert stores points; same-ID points are overwritten.
func (s *MemoryStore) Upsert(ctx context.Context, points []Point) error {
	if s.collection == nil {
		return fmt.Errorf("collection not initialized")
	}
	docs := make([]chromem.Document, len(points))
	for i, p := range points {
		content, _ := p.Payload["text"].(string)
		docs[i] = chromem.Document{
			ID:        p.ID,
			Embedding: p.Vector,
			Content:   content,
			Metadata:  payloadToMetadata(p.Payload),
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Search queries by embedding, optionally filtered on payload equality.
func (s *MemoryStore) Search(ctx context.Context, vector []float32, limit int, filter Filter) ([]SearchResult, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}
	if count := s.collection.Count(); limit > count {
		limit = count
	}
	if limit <= 0 {
		return nil, nil
	}

	var where map[string]string
	if len(filter) > 0 {
		where = map[string]string(filter)
	}
	hits, err := s.collection.QueryEmbedding(ctx, vector, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{
			ID:      hit.ID,
			Score:   float64(hit.Similarity),
			Payload: metadataToPayload(hit.Metadata, hit.Content),
		}
	}
	return results, nil
}

// Get retrieves a point by ID. Returns (nil, nil) when it does not exist.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Point, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}
	doc, err := s.collection.GetByID(ctx, id)
	if err != nil {
		// chromem reports missing IDs as errors.
		return nil, nil
	}
	return &Point{
		ID:      doc.ID,
		Vector:  doc.Embedding,
		Payload: metadataToPayload(doc.Metadata, doc.Content),
	}, nil
}

// Delete removes a point by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	if s.collection == nil {
		return false, fmt.Errorf("collection not initialized")
	}
	if err := s.collection.Delete(ctx, nil, nil, id); err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}
	return true, nil
}

// Info reports the collection shape.
func (s *MemoryStore) Info(ctx context.Context) (*CollectionInfo, error) {
	count := 0
	if s.collection != nil {
		count = s.collection.Count()
	}
	return &CollectionInfo{
		VectorSize: s.vectorSize,
		Distance:   "Cosine",
		PointCount: count,
	}, nil
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close() {}

func payloadToMetadata(payload map[string]any) map[string]string {
	if len(payload) == 0 {
		return nil
	}
	meta := make(map[string]string, len(payload))
	for k, v := range payload {
		meta[k] = fmt.Sprint(v)
	}
	return meta
}

func metadataToPayload(meta map[string]string, content string) map[string]any {
	payload := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		payload[k] = v
	}
	if content != "" {
		payload["text"] = content
	}
	return payload
}
