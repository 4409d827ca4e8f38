package pipeline

import (
	"context"

	"github.com/spacebio/biolit/pkg/biolit/dashboard"
	"github.com/spacebio/biolit/pkg/biolit/embed"
)

// SemanticSearcher answers dashboard queries against a loaded
// embedding index.
type SemanticSearcher struct {
	idx *embed.Index
	emb Embedder
}

// SearchText implements dashboard.Searcher.
func (s *SemanticSearcher) SearchText(ctx context.Context, query string, k int) ([]dashboard.SearchHit, error) {
	hits, err := s.idx.SearchText(ctx, s.emb, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]dashboard.SearchHit, len(hits))
	for i, h := range hits {
		out[i] = dashboard.SearchHit{ID: h.ID, Score: h.Score}
	}
	return out, nil
}
