// Package textrank scores sentences by centrality over a
// sentence-similarity graph, for verbatim extractive summaries.
package textrank

import (
	"math"
	"sort"
)

const (
	dampingFactor = 0.85
	iterations    = 20
)

// Ranker scores sentences within one document.
type Ranker struct {
	tok *Tokenizer
}

// NewRanker creates a ranker with the given tokenizer. A nil tokenizer
// selects default stopwords.
func NewRanker(tok *Tokenizer) *Ranker {
	if tok == nil {
		tok = NewTokenizer(nil)
	}
	return &Ranker{tok: tok}
}

// TopSentences returns up to maxSentences of the highest-centrality
// sentences in their original order, wording preserved verbatim.
func (r *Ranker) TopSentences(text string, maxSentences int) []string {
	sentences := SplitSentences(text)
	if len(sentences) <= maxSentences {
		return sentences
	}

	tokens := make([][]string, len(sentences))
	for i, s := range sentences {
		tokens[i] = r.tok.Tokenize(s)
	}

	scores := rankScores(tokens)

	type ranked struct {
		idx   int
		score float64
	}
	order := make([]ranked, len(sentences))
	for i, s := range scores {
		order[i] = ranked{idx: i, score: s}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].score == order[j].score {
			return order[i].idx < order[j].idx
		}
		return order[i].score > order[j].score
	})
	order = order[:maxSentences]

	// Restore document order for readability.
	sort.Slice(order, func(i, j int) bool { return order[i].idx < order[j].idx })

	out := make([]string, len(order))
	for i, o := range order {
		out[i] = sentences[o.idx]
	}
	return out
}

// rankScores runs a power-iteration PageRank over the similarity graph.
func rankScores(tokens [][]string) []float64 {
	n := len(tokens)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}

	sets := make([]map[string]struct{}, n)
	for i, toks := range tokens {
		sets[i] = make(map[string]struct{}, len(toks))
		for _, t := range toks {
			sets[i][t] = struct{}{}
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := similarity(sets[i], sets[j], len(tokens[i]), len(tokens[j]))
			sim[i][j] = s
			sim[j][i] = s
		}
	}

	outWeight := make([]float64, n)
	for i := range sim {
		for j := range sim[i] {
			outWeight[i] += sim[i][j]
		}
	}

	scores := make([]float64, n)
	next := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0 / float64(n)
	}

	for iter := 0; iter < iterations; iter++ {
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				if i == j || sim[j][i] == 0 || outWeight[j] == 0 {
					continue
				}
				sum += scores[j] * sim[j][i] / outWeight[j]
			}
			next[i] = (1-dampingFactor)/float64(n) + dampingFactor*sum
		}
		scores, next = next, scores
	}
	return scores
}

// similarity is the TextRank overlap measure: shared tokens normalized
// by the log of both sentence lengths.
func similarity(a, b map[string]struct{}, lenA, lenB int) float64 {
	if lenA < 2 || lenB < 2 {
		return 0
	}
	overlap := 0
	for t := range a {
		if _, ok := b[t]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}
	return float64(overlap) / (math.Log(float64(lenA)) + math.Log(float64(lenB)))
}
