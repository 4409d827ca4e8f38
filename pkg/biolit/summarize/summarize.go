// Package summarize holds the two per-paper summarizers. Both read
// extracted text and write one artifact per paper; they are
// independent of each other and idempotent per id.
package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spacebio/biolit/pkg/biolit/extract"
	"github.com/spacebio/biolit/pkg/biolit/internalerr"
	"github.com/spacebio/biolit/pkg/biolit/textrank"
)

// sectionPriority picks the richest section for summarization input.
var sectionPriority = []string{"results", "conclusion", "abstract", "body"}

// InputText selects the section to summarize: results first, then
// conclusion, then abstract, then the unsectioned body.
func InputText(res extract.Result) (text, section string) {
	for _, name := range sectionPriority {
		if t := res.Section(name); strings.TrimSpace(t) != "" {
			return t, name
		}
	}
	return res.FullText, "full_text"
}

// Extractive selects verbatim sentences ranked by centrality over the
// sentence-similarity graph. No paraphrase is introduced.
type Extractive struct {
	MaxSentences int
	ranker       *textrank.Ranker
}

// NewExtractive creates an extractive summarizer bounded by
// maxSentences.
func NewExtractive(maxSentences int) *Extractive {
	return &Extractive{
		MaxSentences: maxSentences,
		ranker:       textrank.NewRanker(nil),
	}
}

// Summarize returns up to MaxSentences source sentences in original
// order.
func (e *Extractive) Summarize(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty input text", internalerr.ErrInvalidInput)
	}
	sentences := e.ranker.TopSentences(text, e.MaxSentences)
	if len(sentences) == 0 {
		return "", fmt.Errorf("%w: no sentences found", internalerr.ErrInvalidInput)
	}
	return strings.Join(sentences, " "), nil
}

// Generator produces abstractive summaries; satisfied by the llm
// client.
type Generator interface {
	SummarizePaper(ctx context.Context, title, text string, maxWords int) (string, error)
}

// AbstractiveResult is the stored artifact for one abstractive run.
type AbstractiveResult struct {
	ID          string    `json:"id"`
	Model       string    `json:"model"`
	Summary     string    `json:"summary"`
	Section     string    `json:"source_section"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Abstractive produces a fixed-length generated paragraph via a hosted
// model. Output may paraphrase and is not guaranteed faithful.
type Abstractive struct {
	Model    string
	MaxWords int
	gen      Generator
}

// NewAbstractive creates an abstractive summarizer over gen.
func NewAbstractive(gen Generator, model string, maxWords int) *Abstractive {
	return &Abstractive{Model: model, MaxWords: maxWords, gen: gen}
}

// Summarize generates a summary for one paper's selected section.
func (a *Abstractive) Summarize(ctx context.Context, id, title string, res extract.Result) (AbstractiveResult, error) {
	text, section := InputText(res)
	if strings.TrimSpace(text) == "" {
		return AbstractiveResult{}, fmt.Errorf("%w: empty input text", internalerr.ErrInvalidInput)
	}

	summary, err := a.gen.SummarizePaper(ctx, title, text, a.MaxWords)
	if err != nil {
		return AbstractiveResult{}, fmt.Errorf("abstractive summarize %s: %w", id, err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return AbstractiveResult{}, fmt.Errorf("%w: model returned empty summary", internalerr.ErrInvalidInput)
	}

	return AbstractiveResult{
		ID:          id,
		Model:       a.Model,
		Summary:     summary,
		Section:     section,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
