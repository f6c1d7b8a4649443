package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/docvec/docvec/internal/extract"
	"github.com/docvec/docvec/internal/storage"
	"github.com/docvec/docvec/internal/validate"
)

type ingestRequest struct {
	URLs []string `json:"urls"`

	// When Discover is set, links are crawled from the first URL and
	// processed alongside it, up to MaxURLs pages.
	Discover bool `json:"discover,omitempty"`
	MaxURLs  int  `json:"max_urls,omitempty"`
	Retry    bool `json:"retry,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.URLs) == 0 {
		jsonError(w, "at least one url is required", http.StatusBadRequest)
		return
	}

	for _, u := range req.URLs {
		if check := validate.URL(u); !check.IsValid {
			jsonError(w, "invalid url "+u, http.StatusBadRequest)
			return
		}
	}

	urls := req.URLs
	if req.Discover {
		maxURLs := req.MaxURLs
		if maxURLs <= 0 {
			maxURLs = 50
		}
		discoverer, ok := s.orchestrator.Extractor().(*extract.Extractor)
		if !ok {
			jsonError(w, "discovery unavailable", http.StatusServiceUnavailable)
			return
		}
		found, err := discoverer.DiscoverURLs(r.Context(), req.URLs[0], maxURLs)
		if err != nil {
			jsonError(w, "discover urls: "+err.Error(), http.StatusBadGateway)
			return
		}
		urls = found
	}

	results := s.orchestrator.ProcessBatch(r.Context(), urls)
	if req.Retry {
		for i, res := range results {
			if !res.Succeeded() {
				results[i] = s.orchestrator.ProcessWithRetry(r.Context(), res.URL)
			}
		}
	}

	var succeeded int
	for _, res := range results {
		if res.Succeeded() {
			succeeded++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":     len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
		"results":   results,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}

	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			jsonError(w, "limit must be between 1 and 100", http.StatusBadRequest)
			return
		}
		limit = n
	}

	var filter storage.Filter
	if source := r.URL.Query().Get("source_url"); source != "" {
		filter = storage.Filter{"source_url": source}
	}

	hits, err := s.orchestrator.SearchSimilar(r.Context(), query, limit, filter)
	if err != nil {
		jsonError(w, "search failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"count":   len(hits),
		"results": hits,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"pipeline": s.orchestrator.Stats().Snapshot(),
	}
	if info, err := s.orchestrator.Store().Info(r.Context()); err == nil {
		resp["collection"] = map[string]any{
			"points":      info.PointCount,
			"vector_size": info.VectorSize,
			"distance":    info.Distance,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "pointID")
	point, err := s.orchestrator.Store().Get(r.Context(), id)
	if err != nil {
		jsonError(w, "get point: "+err.Error(), http.StatusBadGateway)
		return
	}
	if point == nil {
		jsonError(w, "point not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      point.ID,
		"payload": point.Payload,
	})
}

func (s *Server) handleDeletePoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "pointID")
	ok, err := s.orchestrator.Store().Delete(r.Context(), id)
	if err != nil {
		jsonError(w, "delete point: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": ok, "id": id})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.orchestrator.Health(r.Context())
	status := http.StatusOK
	for _, v := range health {
		if v != "ok" {
			status = http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(w, status, map[string]any{"components": health})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
