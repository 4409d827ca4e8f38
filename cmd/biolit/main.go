package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacebio/biolit/internal/llm"
	"github.com/spacebio/biolit/pkg/biolit/catalog"
	"github.com/spacebio/biolit/pkg/biolit/config"
	"github.com/spacebio/biolit/pkg/biolit/dashboard"
	"github.com/spacebio/biolit/pkg/biolit/ledger"
	"github.com/spacebio/biolit/pkg/biolit/pipeline"
	"github.com/spacebio/biolit/pkg/biolit/report"
	"github.com/spacebio/biolit/pkg/biolit/store/fsstore"
)

var modes = []string{
	"download", "extract", "extractive", "abstractive", "entities",
	"embed", "topics", "claims", "gaps", "insights", "export", "serve", "full",
}

func main() {
	var (
		mode       = flag.String("mode", "", "Stage to run: "+modeList())
		configPath = flag.String("config", "", "Path to YAML config file")
		sample     = flag.Int("sample", 0, "Process only the first N catalog rows")
		model      = flag.String("model", "", "Override chat model name")
		embedModel = flag.String("embed-model", "", "Override embedding model name")
		sources    = flag.String("sources", "", "Optional CSV of additional sources for export")
	)
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode required, one of: " + modeList())
	}
	if !validMode(*mode) {
		log.Fatalf("unknown mode %q, expected one of: %s", *mode, modeList())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *model != "" {
		cfg.LLM.Model = *model
	}
	if *embedModel != "" {
		cfg.LLM.EmbedModel = *embedModel
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var entries []catalog.Entry
	if needsCatalog(*mode) {
		var skipped []catalog.SkippedRow
		entries, skipped, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			log.Fatalf("load catalog %s: %v", cfg.CatalogPath, err)
		}
		for _, s := range skipped {
			log.Printf("catalog: line %d skipped: %s", s.Line, s.Reason)
		}
		if *sample > 0 {
			entries = catalog.Sample(entries, *sample)
		}
		log.Printf("catalog: %d entries", len(entries))
	}

	st, err := fsstore.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("open store %s: %v", cfg.DataDir, err)
	}
	defer st.Close()

	led, err := ledger.Open(ctx, cfg.LedgerPath)
	if err != nil {
		log.Fatalf("open ledger %s: %v", cfg.LedgerPath, err)
	}
	defer led.Close()

	var client *llm.Client
	if cfg.LLM.APIKey != "" || needsModel(*mode) {
		client = &llm.Client{
			BaseURL:    cfg.LLM.BaseURL,
			EmbedURL:   cfg.LLM.EmbedURL,
			APIKey:     cfg.LLM.APIKey,
			Model:      cfg.LLM.Model,
			EmbedModel: cfg.LLM.EmbedModel,
		}
	}

	p := pipeline.New(cfg, st, led, client)

	switch *mode {
	case "serve":
		serve(ctx, cfg, st, p)
	case "full":
		runs, err := p.Full(ctx, entries)
		for _, r := range runs {
			printRun(r)
		}
		if err != nil {
			log.Fatalf("pipeline: %v", err)
		}
	default:
		run, err := runStage(ctx, p, *mode, entries, *sources)
		if err != nil {
			log.Fatalf("%s: %v", *mode, err)
		}
		printRun(run)
	}
}

func runStage(ctx context.Context, p *pipeline.Pipeline, mode string, entries []catalog.Entry, sources string) (report.Run, error) {
	switch mode {
	case "download":
		return p.Download(ctx, entries)
	case "extract":
		return p.Extract(ctx)
	case "extractive":
		return p.Extractive(ctx)
	case "abstractive":
		return p.Abstractive(ctx, entries)
	case "entities":
		return p.Entities(ctx)
	case "embed":
		return p.Embed(ctx)
	case "topics":
		return p.Topics(ctx)
	case "claims":
		return p.Claims(ctx)
	case "gaps":
		return p.Gaps(ctx)
	case "insights":
		return p.Insights(ctx)
	case "export":
		return p.ExportWithSources(ctx, entries, sources)
	}
	panic("unreachable")
}

func serve(ctx context.Context, cfg config.Config, st *fsstore.Store, p *pipeline.Pipeline) {
	var searcher dashboard.Searcher
	if s, err := p.Searcher(ctx); err != nil {
		log.Printf("search disabled: %v", err)
	} else {
		searcher = s
	}

	srv := dashboard.New(st, searcher)
	log.Printf("dashboard listening on %s", cfg.Serve.Addr)
	if err := srv.ListenAndServe(ctx, cfg.Serve.Addr); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

func printRun(r report.Run) {
	for _, s := range r.Skipped {
		log.Printf("%s: skipped %s: %s", r.Stage, s.ID, s.Reason)
	}
	log.Println(r.Summary())
}

// needsCatalog reports whether a mode reads catalog rows. Serve and
// the per-artifact stages work entirely from the store.
func needsCatalog(mode string) bool {
	switch mode {
	case "download", "abstractive", "export", "full":
		return true
	}
	return false
}

func needsModel(mode string) bool {
	switch mode {
	case "abstractive", "embed", "full", "serve":
		return true
	}
	return false
}

func validMode(mode string) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

func modeList() string {
	out := ""
	for i, m := range modes {
		if i > 0 {
			out += ", "
		}
		out += m
	}
	return out
}
