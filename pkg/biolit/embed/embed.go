// Package embed maintains a flat cosine-similarity index over summary
// embeddings for semantic search.
package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/spacebio/biolit/pkg/biolit/internalerr"
)

// Embedder produces vectors; satisfied by the llm client.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float64, error)
}

// Entry is one indexed document vector.
type Entry struct {
	ID     string    `json:"id"`
	Vector []float64 `json:"vector"`
}

// Index is a flat in-memory vector index, persisted as JSON.
type Index struct {
	Model   string    `json:"model"`
	Dim     int       `json:"dim"`
	BuiltAt time.Time `json:"built_at"`
	Entries []Entry   `json:"entries"`
}

// batchSize caps texts per embeddings request.
const batchSize = 64

// Build embeds all texts and returns a fresh index. ids and texts must
// be parallel slices.
func Build(ctx context.Context, emb Embedder, model string, ids, texts []string) (*Index, error) {
	if len(ids) != len(texts) {
		return nil, fmt.Errorf("%w: %d ids for %d texts", internalerr.ErrInvalidInput, len(ids), len(texts))
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", internalerr.ErrInsufficientData)
	}

	idx := &Index{Model: model, BuiltAt: time.Now().UTC()}
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := emb.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		for i, vec := range vectors {
			if idx.Dim == 0 {
				idx.Dim = len(vec)
			} else if len(vec) != idx.Dim {
				return nil, fmt.Errorf("%w: vector dim %d != %d", internalerr.ErrInvalidInput, len(vec), idx.Dim)
			}
			idx.Entries = append(idx.Entries, Entry{ID: ids[start+i], Vector: vec})
		}
	}
	return idx, nil
}

// Hit is one search result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Search returns the k entries most similar to the query vector.
func (idx *Index) Search(query []float64, k int) []Hit {
	if len(query) != idx.Dim || k <= 0 {
		return nil
	}

	hits := make([]Hit, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		hits = append(hits, Hit{ID: e.ID, Score: cosine(query, e.Vector)})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// SearchText embeds the query text and searches the index.
func (idx *Index) SearchText(ctx context.Context, emb Embedder, query string, k int) ([]Hit, error) {
	vectors, err := emb.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vectors))
	}
	return idx.Search(vectors[0], k), nil
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Marshal serializes the index for storage.
func (idx *Index) Marshal() ([]byte, error) {
	return json.MarshalIndent(idx, "", "  ")
}

// Unmarshal loads an index from its stored form.
func Unmarshal(data []byte) (*Index, error) {
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse embedding index: %w", err)
	}
	return &idx, nil
}
