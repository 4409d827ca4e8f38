// Package export flattens pipeline artifacts into one JSON document
// per family, ready for static hosting.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spacebio/biolit/pkg/biolit/catalog"
	"github.com/spacebio/biolit/pkg/biolit/claims"
	"github.com/spacebio/biolit/pkg/biolit/gaps"
	"github.com/spacebio/biolit/pkg/biolit/insights"
	"github.com/spacebio/biolit/pkg/biolit/internalerr"
	"github.com/spacebio/biolit/pkg/biolit/report"
	"github.com/spacebio/biolit/pkg/biolit/store"
	"github.com/spacebio/biolit/pkg/biolit/summarize"
	"github.com/spacebio/biolit/pkg/biolit/topics"
)

// Families lists every export document, in build order.
var Families = []string{"papers", "claims", "topics", "gaps", "insights", "sources", "stats"}

// Paper is one catalog row joined with its summaries.
type Paper struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	HasSummary  bool   `json:"has_summary"`
	Extractive  string `json:"extractive_summary"`
	Abstractive string `json:"abstractive_summary"`
}

// PapersDoc is the papers.json envelope.
type PapersDoc struct {
	Total     int     `json:"total"`
	Processed int     `json:"processed"`
	Papers    []Paper `json:"papers"`
}

// ClaimsDoc is the claims.json envelope.
type ClaimsDoc struct {
	TotalClaims    int            `json:"total_claims"`
	PapersAnalyzed int            `json:"papers_analyzed"`
	Status         report.Status  `json:"status"`
	Claims         []claims.Claim `json:"claims"`
}

// TopicPaper pairs a member paper id with its catalog title.
type TopicPaper struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Topic is one exported cluster.
type Topic struct {
	ID         int          `json:"id"`
	Name       string       `json:"name"`
	Keywords   []string     `json:"keywords"`
	PaperCount int          `json:"paper_count"`
	Papers     []TopicPaper `json:"papers"`
}

// TopicsDoc is the topics.json envelope.
type TopicsDoc struct {
	TotalTopics int           `json:"total_topics"`
	Status      report.Status `json:"status"`
	Topics      []Topic       `json:"topics"`
}

// GapsDoc is the gaps.json envelope.
type GapsDoc struct {
	TotalGaps int           `json:"total_gaps"`
	Status    report.Status `json:"status"`
	Gaps      []gaps.Gap    `json:"gaps"`
}

// InsightsDoc is the insights.json envelope.
type InsightsDoc struct {
	TotalInsights int                `json:"total_insights"`
	Status        report.Status      `json:"status"`
	Insights      []insights.Insight `json:"insights"`
}

// Source is one external data source row.
type Source struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Kind  string `json:"source_type"`
}

// SourcesDoc is the sources.json envelope.
type SourcesDoc struct {
	TotalSources int      `json:"total_sources"`
	Sources      []Source `json:"sources"`
}

// Stats is the stats.json document.
type Stats struct {
	TotalPapers          int       `json:"total_papers"`
	PapersWithSummaries  int       `json:"papers_with_summaries"`
	ExtractiveSummaries  int       `json:"extractive_summaries"`
	AbstractiveSummaries int       `json:"abstractive_summaries"`
	ConsensusClaims      int       `json:"consensus_claims"`
	Topics               int       `json:"topics"`
	KnowledgeGaps        int       `json:"knowledge_gaps"`
	MissionInsights      int       `json:"mission_insights"`
	AdditionalSources    int       `json:"additional_sources"`
	LastUpdated          time.Time `json:"last_updated"`
}

// Exporter builds the export families from a populated store.
type Exporter struct {
	Store store.Store
	// MirrorDir, when set, additionally writes each family as a plain
	// file for static hosting.
	MirrorDir string
	// SourcesPath is an optional CSV of external sources.
	SourcesPath string
}

// Run builds every family. A failed family is skipped, not fatal.
func (e *Exporter) Run(ctx context.Context, entries []catalog.Entry) report.Run {
	run := report.NewRun("export")
	run.Attempted = len(Families)

	stats := Stats{TotalPapers: len(entries), LastUpdated: time.Now().UTC()}

	for _, family := range Families {
		doc, err := e.build(ctx, family, entries, &stats)
		if err != nil {
			run.Skip(family, err.Error())
			continue
		}
		if err := e.write(ctx, family, doc); err != nil {
			run.Skip(family, err.Error())
			continue
		}
		run.Succeeded++
	}
	return run.Finish()
}

func (e *Exporter) build(ctx context.Context, family string, entries []catalog.Entry, stats *Stats) (any, error) {
	switch family {
	case "papers":
		doc, err := e.buildPapers(ctx, entries)
		if err == nil {
			stats.PapersWithSummaries = doc.Processed
			for _, p := range doc.Papers {
				if p.Extractive != "" {
					stats.ExtractiveSummaries++
				}
				if p.Abstractive != "" {
					stats.AbstractiveSummaries++
				}
			}
		}
		return doc, err
	case "claims":
		doc, err := e.buildClaims(ctx, len(entries))
		if err == nil {
			stats.ConsensusClaims = doc.TotalClaims
		}
		return doc, err
	case "topics":
		doc, err := e.buildTopics(ctx, entries)
		if err == nil {
			stats.Topics = doc.TotalTopics
		}
		return doc, err
	case "gaps":
		doc, err := e.buildGaps(ctx)
		if err == nil {
			stats.KnowledgeGaps = doc.TotalGaps
		}
		return doc, err
	case "insights":
		doc, err := e.buildInsights(ctx)
		if err == nil {
			stats.MissionInsights = doc.TotalInsights
		}
		return doc, err
	case "sources":
		doc, err := e.buildSources()
		if err == nil {
			stats.AdditionalSources = doc.TotalSources
		}
		return doc, err
	case "stats":
		return *stats, nil
	default:
		return nil, fmt.Errorf("unknown export family %q: %w", family, internalerr.ErrInvalidInput)
	}
}

func (e *Exporter) buildPapers(ctx context.Context, entries []catalog.Entry) (PapersDoc, error) {
	doc := PapersDoc{Total: len(entries), Papers: make([]Paper, 0, len(entries))}
	for _, entry := range entries {
		p := Paper{ID: entry.ID, Title: entry.Title, Link: entry.Link}

		if raw, err := e.Store.Get(ctx, store.StageExtractive, entry.Key()); err == nil {
			p.Extractive = string(raw)
		} else if !errors.Is(err, internalerr.ErrNotFound) {
			return doc, fmt.Errorf("extractive summary %s: %w", entry.Key(), err)
		}

		if raw, err := e.Store.Get(ctx, store.StageAbstractive, entry.Key()); err == nil {
			var ab summarize.AbstractiveResult
			if jsonErr := json.Unmarshal(raw, &ab); jsonErr != nil {
				return doc, fmt.Errorf("abstractive summary %s: %w", entry.Key(), jsonErr)
			}
			p.Abstractive = ab.Summary
		} else if !errors.Is(err, internalerr.ErrNotFound) {
			return doc, fmt.Errorf("abstractive summary %s: %w", entry.Key(), err)
		}

		p.HasSummary = p.Extractive != "" && p.Abstractive != ""
		if p.HasSummary {
			doc.Processed++
		}
		doc.Papers = append(doc.Papers, p)
	}
	return doc, nil
}

func (e *Exporter) buildClaims(ctx context.Context, corpus int) (ClaimsDoc, error) {
	var res claims.Result
	if err := e.loadAggregate(ctx, store.AggClaims, &res); err != nil {
		return ClaimsDoc{}, err
	}
	return ClaimsDoc{
		TotalClaims:    len(res.Claims),
		PapersAnalyzed: corpus,
		Status:         res.Status,
		Claims:         res.Claims,
	}, nil
}

func (e *Exporter) buildTopics(ctx context.Context, entries []catalog.Entry) (TopicsDoc, error) {
	var res topics.Result
	if err := e.loadAggregate(ctx, store.AggTopics, &res); err != nil {
		return TopicsDoc{}, err
	}

	titles := make(map[string]string, len(entries))
	for _, entry := range entries {
		titles[entry.Key()] = entry.Title
	}

	doc := TopicsDoc{TotalTopics: len(res.Topics), Status: res.Status}
	for _, t := range res.Topics {
		out := Topic{
			ID:         t.ID,
			Name:       t.Name,
			Keywords:   t.Keywords,
			PaperCount: len(t.Members),
		}
		for _, member := range t.Members {
			id, err := strconv.ParseInt(member, 10, 64)
			if err != nil {
				continue
			}
			out.Papers = append(out.Papers, TopicPaper{ID: id, Title: titles[member]})
		}
		doc.Topics = append(doc.Topics, out)
	}
	return doc, nil
}

func (e *Exporter) buildGaps(ctx context.Context) (GapsDoc, error) {
	var res gaps.Result
	if err := e.loadAggregate(ctx, store.AggGaps, &res); err != nil {
		return GapsDoc{}, err
	}
	return GapsDoc{TotalGaps: len(res.Gaps), Status: res.Status, Gaps: res.Gaps}, nil
}

func (e *Exporter) buildInsights(ctx context.Context) (InsightsDoc, error) {
	var res insights.Result
	if err := e.loadAggregate(ctx, store.AggInsights, &res); err != nil {
		return InsightsDoc{}, err
	}
	return InsightsDoc{TotalInsights: len(res.Insights), Status: res.Status, Insights: res.Insights}, nil
}

func (e *Exporter) buildSources() (SourcesDoc, error) {
	if e.SourcesPath == "" {
		return SourcesDoc{Sources: []Source{}}, nil
	}
	f, err := os.Open(e.SourcesPath)
	if err != nil {
		return SourcesDoc{}, fmt.Errorf("open sources: %w", err)
	}
	defer f.Close()
	sources, err := parseSources(f)
	if err != nil {
		return SourcesDoc{}, err
	}
	return SourcesDoc{TotalSources: len(sources), Sources: sources}, nil
}

// parseSources reads a title,link,source_type CSV, header optional.
func parseSources(r io.Reader) ([]Source, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	sources := []Source{}
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sources csv: %w", err)
		}
		if len(rec) < 2 {
			continue
		}
		if first {
			first = false
			if rec[0] == "title" {
				continue
			}
		}
		s := Source{Title: rec[0], Link: rec[1]}
		if len(rec) > 2 {
			s.Kind = rec[2]
		}
		sources = append(sources, s)
	}
	return sources, nil
}

func (e *Exporter) loadAggregate(ctx context.Context, name string, v any) error {
	raw, err := e.Store.GetAggregate(ctx, name)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (e *Exporter) write(ctx context.Context, family string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", family, err)
	}
	if err := e.Store.PutAggregate(ctx, "export/"+family, data); err != nil {
		return fmt.Errorf("store %s: %w", family, err)
	}
	if e.MirrorDir != "" {
		if err := os.MkdirAll(e.MirrorDir, 0o755); err != nil {
			return fmt.Errorf("mirror dir: %w", err)
		}
		path := filepath.Join(e.MirrorDir, family+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("mirror %s: %w", family, err)
		}
	}
	return nil
}
