// Package dashboard serves exported pipeline artifacts over HTTP. It
// is read-only: every endpoint renders data already in the store.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spacebio/biolit/pkg/biolit/export"
	"github.com/spacebio/biolit/pkg/biolit/internalerr"
	"github.com/spacebio/biolit/pkg/biolit/store"
)

// Searcher answers semantic queries over the embedding index. May be
// nil, in which case /api/search returns 503.
type Searcher interface {
	SearchText(ctx context.Context, query string, k int) ([]SearchHit, error)
}

// SearchHit is one search result.
type SearchHit struct {
	ID    string  `json:"paper_id"`
	Score float64 `json:"score"`
}

// Server exposes the export families plus health and search.
type Server struct {
	store    store.Store
	searcher Searcher
	mux      *http.ServeMux
}

// New builds a Server over the given store.
func New(st store.Store, searcher Searcher) *Server {
	s := &Server{store: st, searcher: searcher, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/{family}", s.handleFamily)
	s.mux.HandleFunc("GET /", s.handleIndex)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	endpoints := make([]string, 0, len(export.Families))
	for _, f := range export.Families {
		endpoints = append(endpoints, "/api/"+f)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":   "biolit dashboard",
		"endpoints": endpoints,
	})
}

func (s *Server) handleFamily(w http.ResponseWriter, r *http.Request) {
	family := r.PathValue("family")
	if !validFamily(family) {
		http.Error(w, "unknown family", http.StatusNotFound)
		return
	}
	raw, err := s.store.GetAggregate(r.Context(), "export/"+family)
	if errors.Is(err, internalerr.ErrNotFound) {
		http.Error(w, "not exported yet", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		http.Error(w, "search not configured", http.StatusServiceUnavailable)
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing q parameter", http.StatusBadRequest)
		return
	}
	hits, err := s.searcher.SearchText(r.Context(), query, 10)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "hits": hits})
}

func validFamily(name string) bool {
	for _, f := range export.Families {
		if f == name {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
