// Package pipeline wires the stages together over a shared store and
// run ledger. Every stage method processes what its predecessors left
// behind, skips per-id failures, and returns a finished run report.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spacebio/biolit/internal/llm"
	"github.com/spacebio/biolit/pkg/biolit/catalog"
	"github.com/spacebio/biolit/pkg/biolit/claims"
	"github.com/spacebio/biolit/pkg/biolit/config"
	"github.com/spacebio/biolit/pkg/biolit/embed"
	"github.com/spacebio/biolit/pkg/biolit/entities"
	"github.com/spacebio/biolit/pkg/biolit/export"
	"github.com/spacebio/biolit/pkg/biolit/extract"
	"github.com/spacebio/biolit/pkg/biolit/fetch"
	"github.com/spacebio/biolit/pkg/biolit/gaps"
	"github.com/spacebio/biolit/pkg/biolit/insights"
	"github.com/spacebio/biolit/pkg/biolit/internalerr"
	"github.com/spacebio/biolit/pkg/biolit/ledger"
	"github.com/spacebio/biolit/pkg/biolit/report"
	"github.com/spacebio/biolit/pkg/biolit/store"
	"github.com/spacebio/biolit/pkg/biolit/summarize"
	"github.com/spacebio/biolit/pkg/biolit/textrank"
	"github.com/spacebio/biolit/pkg/biolit/topics"
)

// claimSections are mined for claims, in priority order.
var claimSections = []string{"results", "conclusion", "abstract", "body"}

// Generator produces abstractive summaries. *llm.Client satisfies it.
type Generator interface {
	SummarizePaper(ctx context.Context, title, text string, maxWords int) (string, error)
}

// Embedder produces embedding vectors. *llm.Client satisfies it.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float64, error)
}

// Pipeline runs the processing stages.
type Pipeline struct {
	cfg    config.Config
	store  store.Store
	ledger *ledger.Ledger
	gen    Generator
	emb    Embedder
}

// New assembles a Pipeline. The ledger may be nil, in which case runs
// are not recorded. gen and emb may be nil for stages that do not use
// the hosted model.
func New(cfg config.Config, st store.Store, led *ledger.Ledger, client *llm.Client) *Pipeline {
	p := &Pipeline{cfg: cfg, store: st, ledger: led}
	if client != nil {
		p.gen = client
		p.emb = client
	}
	return p
}

func (p *Pipeline) record(ctx context.Context, run report.Run) (report.Run, error) {
	if p.ledger == nil {
		return run, nil
	}
	if err := p.ledger.RecordRun(ctx, run); err != nil {
		return run, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

func (p *Pipeline) setPaperStage(ctx context.Context, id, stage, status, detail string) {
	if p.ledger == nil {
		return
	}
	// Best effort: a ledger hiccup must not fail the stage.
	_ = p.ledger.SetPaperStage(ctx, id, stage, status, detail)
}

// Download fetches every catalog entry and stores the raw documents.
func (p *Pipeline) Download(ctx context.Context, entries []catalog.Entry) (report.Run, error) {
	run := report.NewRun("download")
	run.Attempted = len(entries)

	fetcher := fetch.New(p.cfg.Fetch.Delay(), p.cfg.Fetch.Timeout(), p.cfg.Fetch.UserAgent)
	for _, entry := range entries {
		if ctx.Err() != nil {
			return run.Finish(), ctx.Err()
		}
		doc, err := fetcher.Fetch(ctx, entry)
		if err != nil {
			run.Skip(entry.Key(), err.Error())
			p.setPaperStage(ctx, entry.Key(), "document", "failed", err.Error())
			continue
		}
		if err := p.store.Put(ctx, store.StageDocument, entry.Key(), doc.Body); err != nil {
			run.Skip(entry.Key(), err.Error())
			continue
		}
		p.setPaperStage(ctx, entry.Key(), "document", "ok", "")
		run.Succeeded++
	}
	return p.record(ctx, run.Finish())
}

// Extract turns every stored document into text plus a section map.
func (p *Pipeline) Extract(ctx context.Context) (report.Run, error) {
	run := report.NewRun("extract")

	ids, err := p.store.List(ctx, store.StageDocument)
	if err != nil {
		return run.Finish(), fmt.Errorf("list documents: %w", err)
	}
	run.Attempted = len(ids)

	ex := extract.New(p.cfg.Extract.MinChars, p.cfg.Extract.MinAlphaRatio)
	for _, id := range ids {
		body, err := p.store.Get(ctx, store.StageDocument, id)
		if err != nil {
			run.Skip(id, err.Error())
			continue
		}
		docID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			run.Skip(id, fmt.Sprintf("non-numeric document id: %v", err))
			continue
		}
		res, err := ex.Extract(fetch.Document{ID: docID, Body: body})
		if err != nil {
			run.Skip(id, err.Error())
			p.setPaperStage(ctx, id, "text", "failed", err.Error())
			continue
		}
		if err := p.store.Put(ctx, store.StageText, id, []byte(res.FullText)); err != nil {
			run.Skip(id, err.Error())
			continue
		}
		secJSON, err := json.Marshal(res)
		if err != nil {
			run.Skip(id, err.Error())
			continue
		}
		if err := p.store.Put(ctx, store.StageSections, id, secJSON); err != nil {
			run.Skip(id, err.Error())
			continue
		}
		p.setPaperStage(ctx, id, "text", "ok", "")
		run.Succeeded++
	}
	return p.record(ctx, run.Finish())
}

// Extractive writes a verbatim-sentence summary for every extracted
// paper.
func (p *Pipeline) Extractive(ctx context.Context) (report.Run, error) {
	run := report.NewRun("extractive")

	ids, err := p.store.List(ctx, store.StageSections)
	if err != nil {
		return run.Finish(), fmt.Errorf("list sections: %w", err)
	}
	run.Attempted = len(ids)

	summarizer := summarize.NewExtractive(p.cfg.Summary.MaxSentences)
	for _, id := range ids {
		res, err := p.loadSections(ctx, id)
		if err != nil {
			run.Skip(id, err.Error())
			continue
		}
		text, _ := summarize.InputText(res)
		summary, err := summarizer.Summarize(text)
		if err != nil {
			run.Skip(id, err.Error())
			continue
		}
		if err := p.store.Put(ctx, store.StageExtractive, id, []byte(summary)); err != nil {
			run.Skip(id, err.Error())
			continue
		}
		p.setPaperStage(ctx, id, "extractive", "ok", "")
		run.Succeeded++
	}
	return p.record(ctx, run.Finish())
}

// Abstractive writes a hosted-model summary for every extracted paper.
func (p *Pipeline) Abstractive(ctx context.Context, entries []catalog.Entry) (report.Run, error) {
	run := report.NewRun("abstractive")
	if p.gen == nil {
		return run.Finish(), fmt.Errorf("abstractive: %w: no model client", internalerr.ErrInvalidConfig)
	}

	titles := make(map[string]string, len(entries))
	for _, entry := range entries {
		titles[entry.Key()] = entry.Title
	}

	ids, err := p.store.List(ctx, store.StageSections)
	if err != nil {
		return run.Finish(), fmt.Errorf("list sections: %w", err)
	}
	run.Attempted = len(ids)

	summarizer := summarize.NewAbstractive(p.gen, p.cfg.LLM.Model, p.cfg.Summary.MaxWords)
	for _, id := range ids {
		if ctx.Err() != nil {
			return run.Finish(), ctx.Err()
		}
		res, err := p.loadSections(ctx, id)
		if err != nil {
			run.Skip(id, err.Error())
			continue
		}
		out, err := summarizer.Summarize(ctx, id, titles[id], res)
		if err != nil {
			run.Skip(id, err.Error())
			p.setPaperStage(ctx, id, "abstractive", "failed", err.Error())
			continue
		}
		data, err := json.Marshal(out)
		if err != nil {
			run.Skip(id, err.Error())
			continue
		}
		if err := p.store.Put(ctx, store.StageAbstractive, id, data); err != nil {
			run.Skip(id, err.Error())
			continue
		}
		p.setPaperStage(ctx, id, "abstractive", "ok", "")
		run.Succeeded++
	}
	return p.record(ctx, run.Finish())
}

// Entities extracts taxonomy entities from every extracted text.
func (p *Pipeline) Entities(ctx context.Context) (report.Run, error) {
	run := report.NewRun("entities")

	ids, err := p.store.List(ctx, store.StageText)
	if err != nil {
		return run.Finish(), fmt.Errorf("list texts: %w", err)
	}
	run.Attempted = len(ids)

	taxonomy := entities.Default()
	for _, id := range ids {
		text, err := p.store.Get(ctx, store.StageText, id)
		if err != nil {
			run.Skip(id, err.Error())
			continue
		}
		found := taxonomy.Extract(string(text), p.cfg.Analysis.MaxEntities)
		res := entities.Result{ID: id, Total: len(found), Entities: found, ProcessedAt: time.Now().UTC()}
		data, err := json.Marshal(res)
		if err != nil {
			run.Skip(id, err.Error())
			continue
		}
		if err := p.store.Put(ctx, store.StageEntities, id, data); err != nil {
			run.Skip(id, err.Error())
			continue
		}
		run.Succeeded++
	}
	return p.record(ctx, run.Finish())
}

// Embed builds the embedding index over extractive summaries.
func (p *Pipeline) Embed(ctx context.Context) (report.Run, error) {
	run := report.NewRun("embed")
	if p.emb == nil {
		return run.Finish(), fmt.Errorf("embed: %w: no model client", internalerr.ErrInvalidConfig)
	}

	ids, texts, err := p.summaryCorpus(ctx)
	if err != nil {
		return run.Finish(), err
	}
	run.Attempted = len(ids)

	idx, err := embed.Build(ctx, p.emb, p.cfg.LLM.EmbedModel, ids, texts)
	if err != nil {
		if errors.Is(err, internalerr.ErrInsufficientData) {
			run.Status = report.StatusInsufficientData
			return p.record(ctx, run.Finish())
		}
		return run.Finish(), fmt.Errorf("build index: %w", err)
	}

	data, err := idx.Marshal()
	if err != nil {
		return run.Finish(), fmt.Errorf("encode index: %w", err)
	}
	if err := p.store.PutAggregate(ctx, store.AggEmbeddings, data); err != nil {
		return run.Finish(), fmt.Errorf("store index: %w", err)
	}
	run.Succeeded = len(idx.Entries)
	return p.record(ctx, run.Finish())
}

// Topics clusters the summary corpus and stores the topic aggregate.
func (p *Pipeline) Topics(ctx context.Context) (report.Run, error) {
	run := report.NewRun("topics")

	ids, texts, err := p.summaryCorpus(ctx)
	if err != nil {
		return run.Finish(), err
	}
	run.Attempted = len(ids)

	docs := make(map[string]string, len(ids))
	for i, id := range ids {
		docs[id] = texts[i]
	}

	clusterer := topics.New(p.cfg.Analysis.NumTopics, p.cfg.Analysis.MinCorpus, p.cfg.Analysis.TopicKeywords)
	res := clusterer.Cluster(docs)
	if err := p.putAggregate(ctx, store.AggTopics, res); err != nil {
		return run.Finish(), err
	}

	run.Status = res.Status
	if res.Status == report.StatusComplete {
		run.Succeeded = len(ids)
	}
	return p.record(ctx, run.Finish())
}

// Claims mines claim sentences from extracted sections and stores the
// consensus aggregate.
func (p *Pipeline) Claims(ctx context.Context) (report.Run, error) {
	run := report.NewRun("claims")

	ids, err := p.store.List(ctx, store.StageSections)
	if err != nil {
		return run.Finish(), fmt.Errorf("list sections: %w", err)
	}
	run.Attempted = len(ids)

	var mentions []claims.Mention
	for _, id := range ids {
		res, err := p.loadSections(ctx, id)
		if err != nil {
			run.Skip(id, err.Error())
			continue
		}
		for _, name := range claimSections {
			text := res.Section(name)
			if text == "" {
				continue
			}
			mentions = append(mentions, claims.Extract(text, id, name, textrank.SplitSentences)...)
		}
		run.Succeeded++
	}

	agg := claims.Aggregator{
		MinCorpus:   p.cfg.Analysis.MinCorpus,
		MaxEvidence: p.cfg.Analysis.EvidencePerKey,
	}
	res := agg.Aggregate(mentions, run.Succeeded)
	if err := p.putAggregate(ctx, store.AggClaims, res); err != nil {
		return run.Finish(), err
	}
	run.Status = res.Status
	return p.record(ctx, run.Finish())
}

// Gaps derives knowledge gaps from the stored topic aggregate.
func (p *Pipeline) Gaps(ctx context.Context) (report.Run, error) {
	run := report.NewRun("gaps")
	run.Attempted = 1

	var tr topics.Result
	if err := p.getAggregate(ctx, store.AggTopics, &tr); err != nil {
		return run.Finish(), err
	}

	detector := gaps.Detector{MaxGaps: p.cfg.Analysis.MaxGaps}
	res := detector.Detect(tr)
	if err := p.putAggregate(ctx, store.AggGaps, res); err != nil {
		return run.Finish(), err
	}

	run.Status = res.Status
	if res.Status == report.StatusComplete {
		run.Succeeded = 1
	}
	return p.record(ctx, run.Finish())
}

// Insights derives mission insights from the stored claim aggregate.
func (p *Pipeline) Insights(ctx context.Context) (report.Run, error) {
	run := report.NewRun("insights")
	run.Attempted = 1

	var cr claims.Result
	if err := p.getAggregate(ctx, store.AggClaims, &cr); err != nil {
		return run.Finish(), err
	}

	res := insights.Generate(cr)
	if err := p.putAggregate(ctx, store.AggInsights, res); err != nil {
		return run.Finish(), err
	}

	run.Status = res.Status
	if res.Status == report.StatusComplete {
		run.Succeeded = 1
	}
	return p.record(ctx, run.Finish())
}

// Export builds every export family.
func (p *Pipeline) Export(ctx context.Context, entries []catalog.Entry) (report.Run, error) {
	return p.ExportWithSources(ctx, entries, "")
}

// ExportWithSources builds every export family, reading additional
// external sources from the given CSV when the path is non-empty.
func (p *Pipeline) ExportWithSources(ctx context.Context, entries []catalog.Entry, sourcesPath string) (report.Run, error) {
	exporter := export.Exporter{Store: p.store, MirrorDir: p.cfg.ExportDir, SourcesPath: sourcesPath}
	return p.record(ctx, exporter.Run(ctx, entries))
}

// Full runs the whole pipeline in stage order and returns the run
// reports in execution order. Analysis stages run even when earlier
// stages partially failed; a stage-level error stops the sequence.
func (p *Pipeline) Full(ctx context.Context, entries []catalog.Entry) ([]report.Run, error) {
	type stage struct {
		name string
		fn   func(context.Context) (report.Run, error)
	}
	stages := []stage{
		{"download", func(ctx context.Context) (report.Run, error) { return p.Download(ctx, entries) }},
		{"extract", p.Extract},
		{"extractive", p.Extractive},
		{"abstractive", func(ctx context.Context) (report.Run, error) { return p.Abstractive(ctx, entries) }},
		{"entities", p.Entities},
		{"embed", p.Embed},
		{"topics", p.Topics},
		{"claims", p.Claims},
		{"gaps", p.Gaps},
		{"insights", p.Insights},
		{"export", func(ctx context.Context) (report.Run, error) { return p.Export(ctx, entries) }},
	}

	var runs []report.Run
	for _, st := range stages {
		run, err := st.fn(ctx)
		runs = append(runs, run)
		if err != nil {
			return runs, fmt.Errorf("%s: %w", st.name, err)
		}
	}
	return runs, nil
}

// Searcher returns a dashboard search backend over the stored
// embedding index, or an error when the index or model client is
// missing.
func (p *Pipeline) Searcher(ctx context.Context) (*SemanticSearcher, error) {
	if p.emb == nil {
		return nil, fmt.Errorf("search: %w: no model client", internalerr.ErrInvalidConfig)
	}
	raw, err := p.store.GetAggregate(ctx, store.AggEmbeddings)
	if err != nil {
		return nil, fmt.Errorf("load embedding index: %w", err)
	}
	idx, err := embed.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decode embedding index: %w", err)
	}
	return &SemanticSearcher{idx: idx, emb: p.emb}, nil
}

// summaryCorpus returns the extractive summaries, falling back to the
// full text for papers that have none.
func (p *Pipeline) summaryCorpus(ctx context.Context) ([]string, []string, error) {
	ids, err := p.store.List(ctx, store.StageText)
	if err != nil {
		return nil, nil, fmt.Errorf("list texts: %w", err)
	}

	var outIDs, texts []string
	for _, id := range ids {
		raw, err := p.store.Get(ctx, store.StageExtractive, id)
		if errors.Is(err, internalerr.ErrNotFound) {
			raw, err = p.store.Get(ctx, store.StageText, id)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("load corpus doc %s: %w", id, err)
		}
		if len(raw) == 0 {
			continue
		}
		outIDs = append(outIDs, id)
		texts = append(texts, string(raw))
	}
	return outIDs, texts, nil
}

func (p *Pipeline) loadSections(ctx context.Context, id string) (extract.Result, error) {
	raw, err := p.store.Get(ctx, store.StageSections, id)
	if err != nil {
		return extract.Result{}, fmt.Errorf("load sections %s: %w", id, err)
	}
	var res extract.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return extract.Result{}, fmt.Errorf("decode sections %s: %w", id, err)
	}
	return res, nil
}

func (p *Pipeline) putAggregate(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := p.store.PutAggregate(ctx, name, data); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	return nil
}

func (p *Pipeline) getAggregate(ctx context.Context, name string, v any) error {
	raw, err := p.store.GetAggregate(ctx, name)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
