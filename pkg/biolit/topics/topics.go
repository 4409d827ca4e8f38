// Package topics clusters summary texts into labeled research themes
// using TF-IDF vectors and k-means. Topic ids are run-scoped: a rerun
// reclusters from scratch and ids are not stable across runs.
package topics

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/spacebio/biolit/pkg/biolit/report"
	"github.com/spacebio/biolit/pkg/biolit/textrank"
)

const kmeansIterations = 15

// randSeed fixes centroid initialization so reruns over an unchanged
// corpus produce the same partition.
const randSeed = 42

// Topic is one cluster of papers.
type Topic struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Members  []string `json:"member_paper_ids"`
}

// Result is the stored aggregate artifact.
type Result struct {
	Status      report.Status `json:"status"`
	GeneratedAt time.Time     `json:"generated_at"`
	TotalDocs   int           `json:"total_docs"`
	Topics      []Topic       `json:"topics"`
}

// Clusterer configures a topic run.
type Clusterer struct {
	NumTopics   int
	MinCorpus   int
	TopKeywords int
	tok         *textrank.Tokenizer
}

// New creates a clusterer with default tokenization.
func New(numTopics, minCorpus, topKeywords int) *Clusterer {
	return &Clusterer{
		NumTopics:   numTopics,
		MinCorpus:   minCorpus,
		TopKeywords: topKeywords,
		tok:         textrank.NewTokenizer(nil),
	}
}

// Cluster partitions the corpus (id → summary text). Below MinCorpus
// it returns an explicit insufficient-data result instead of a thin
// clustering. Every input document lands in exactly one topic.
func (c *Clusterer) Cluster(docs map[string]string) Result {
	res := Result{
		Status:      report.StatusComplete,
		GeneratedAt: time.Now().UTC(),
		TotalDocs:   len(docs),
	}

	// An empty corpus is never clusterable, whatever MinCorpus says.
	if len(docs) == 0 || len(docs) < c.MinCorpus {
		res.Status = report.StatusInsufficientData
		return res
	}

	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	vectors, vocab := c.vectorize(ids, docs)

	k := c.NumTopics
	if k > len(ids) {
		k = len(ids)
	}

	assignments, centroids := kmeans(vectors, k)

	// Collect members per cluster, dropping empty clusters and
	// renumbering the survivors 1..N.
	members := make(map[int][]string)
	for i, cluster := range assignments {
		members[cluster] = append(members[cluster], ids[i])
	}

	clusters := make([]int, 0, len(members))
	for cluster := range members {
		clusters = append(clusters, cluster)
	}
	sort.Ints(clusters)

	for i, cluster := range clusters {
		keywords := topTerms(centroids[cluster], vocab, c.TopKeywords)
		res.Topics = append(res.Topics, Topic{
			ID:       i + 1,
			Name:     topicName(keywords),
			Keywords: keywords,
			Members:  members[cluster],
		})
	}
	return res
}

// vectorize builds L2-normalized TF-IDF vectors over the corpus
// vocabulary.
func (c *Clusterer) vectorize(ids []string, docs map[string]string) ([][]float64, []string) {
	tokenized := make([][]string, len(ids))
	df := make(map[string]int)
	for i, id := range ids {
		tokenized[i] = c.tok.Tokenize(docs[id])
		seen := make(map[string]struct{})
		for _, t := range tokenized[i] {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	vocab := make([]string, 0, len(df))
	for t := range df {
		vocab = append(vocab, t)
	}
	sort.Strings(vocab)
	index := make(map[string]int, len(vocab))
	for i, t := range vocab {
		index[t] = i
	}

	n := float64(len(ids))
	vectors := make([][]float64, len(ids))
	for i, toks := range tokenized {
		vec := make([]float64, len(vocab))
		for _, t := range toks {
			vec[index[t]]++
		}
		var norm float64
		for j := range vec {
			if vec[j] == 0 {
				continue
			}
			vec[j] *= math.Log(1 + n/float64(df[vocab[j]]))
			norm += vec[j] * vec[j]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range vec {
				vec[j] /= norm
			}
		}
		vectors[i] = vec
	}
	return vectors, vocab
}

// kmeans assigns every vector to its nearest centroid by cosine
// similarity. Normalized inputs make dot product equivalent to cosine.
func kmeans(vectors [][]float64, k int) ([]int, [][]float64) {
	rng := rand.New(rand.NewSource(randSeed))
	dim := len(vectors[0])

	// Initialize centroids from distinct random documents.
	perm := rng.Perm(len(vectors))
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), vectors[perm[i]]...)
	}

	assignments := make([]int, len(vectors))
	for iter := 0; iter < kmeansIterations; iter++ {
		changed := false
		for i, vec := range vectors {
			best, bestSim := 0, math.Inf(-1)
			for c, centroid := range centroids {
				sim := dot(vec, centroid)
				if sim > bestSim {
					best, bestSim = c, sim
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// Recompute centroids as normalized member means.
		for c := range centroids {
			centroids[c] = make([]float64, dim)
		}
		counts := make([]int, k)
		for i, vec := range vectors {
			c := assignments[i]
			counts[c]++
			for j := range vec {
				centroids[c][j] += vec[j]
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				// Re-seed an empty centroid from a random document.
				centroids[c] = append([]float64(nil), vectors[rng.Intn(len(vectors))]...)
				continue
			}
			var norm float64
			for j := range centroids[c] {
				norm += centroids[c][j] * centroids[c][j]
			}
			if norm > 0 {
				norm = math.Sqrt(norm)
				for j := range centroids[c] {
					centroids[c][j] /= norm
				}
			}
		}
	}
	return assignments, centroids
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func topTerms(centroid []float64, vocab []string, k int) []string {
	type weighted struct {
		term   string
		weight float64
	}
	terms := make([]weighted, 0, len(vocab))
	for i, w := range centroid {
		if w > 0 {
			terms = append(terms, weighted{term: vocab[i], weight: w})
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].weight == terms[j].weight {
			return terms[i].term < terms[j].term
		}
		return terms[i].weight > terms[j].weight
	})
	if len(terms) > k {
		terms = terms[:k]
	}
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.term
	}
	return out
}

func topicName(keywords []string) string {
	n := 3
	if len(keywords) < n {
		n = len(keywords)
	}
	if n == 0 {
		return "unlabeled"
	}
	name := keywords[0]
	for _, kw := range keywords[1:n] {
		name += " / " + kw
	}
	return name
}
