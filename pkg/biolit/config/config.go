package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spacebio/biolit/pkg/biolit/internalerr"
)

// Environment variable overrides applied after file loading.
const (
	envAPIKey  = "BIOLIT_LLM_API_KEY"
	envBaseURL = "BIOLIT_LLM_BASE_URL"
	envDataDir = "BIOLIT_DATA_DIR"
)

// Config holds all pipeline settings.
type Config struct {
	DataDir     string         `yaml:"data_dir"`
	CatalogPath string         `yaml:"catalog"`
	ExportDir   string         `yaml:"export_dir"`
	LedgerPath  string         `yaml:"ledger"`
	Fetch       FetchConfig    `yaml:"fetch"`
	Extract     ExtractConfig  `yaml:"extract"`
	Summary     SummaryConfig  `yaml:"summary"`
	LLM         LLMConfig      `yaml:"llm"`
	Analysis    AnalysisConfig `yaml:"analysis"`
	Serve       ServeConfig    `yaml:"serve"`
}

// FetchConfig controls the document fetcher.
type FetchConfig struct {
	DelayMS    int    `yaml:"delay_ms"`
	TimeoutSec int    `yaml:"timeout_sec"`
	UserAgent  string `yaml:"user_agent"`
}

// Delay returns the fixed inter-request delay.
func (f FetchConfig) Delay() time.Duration {
	return time.Duration(f.DelayMS) * time.Millisecond
}

// Timeout returns the per-request deadline.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

// ExtractConfig controls the text extractor quality gate.
type ExtractConfig struct {
	MinChars      int     `yaml:"min_chars"`
	MinAlphaRatio float64 `yaml:"min_alpha_ratio"`
}

// SummaryConfig controls both summarizers.
type SummaryConfig struct {
	MaxSentences int `yaml:"max_sentences"`
	MaxWords     int `yaml:"max_words"`
}

// LLMConfig describes the hosted-model endpoints.
type LLMConfig struct {
	BaseURL    string `yaml:"base_url"`
	EmbedURL   string `yaml:"embed_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	EmbedModel string `yaml:"embed_model"`
}

// AnalysisConfig controls the corpus-level analyzers.
type AnalysisConfig struct {
	MinCorpus      int `yaml:"min_corpus"`
	NumTopics      int `yaml:"num_topics"`
	MaxEntities    int `yaml:"max_entities"`
	MaxGaps        int `yaml:"max_gaps"`
	TopicKeywords  int `yaml:"topic_keywords"`
	EvidencePerKey int `yaml:"evidence_per_claim"`
}

// ServeConfig controls the dashboard server.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DataDir:     "data",
		CatalogPath: "data/catalog.csv",
		ExportDir:   "data/export",
		LedgerPath:  "data/biolit.db",
		Fetch: FetchConfig{
			DelayMS:    500,
			TimeoutSec: 30,
			UserAgent:  "biolit/1.0 (research corpus builder)",
		},
		Extract: ExtractConfig{
			MinChars:      200,
			MinAlphaRatio: 0.45,
		},
		Summary: SummaryConfig{
			MaxSentences: 5,
			MaxWords:     180,
		},
		LLM: LLMConfig{
			BaseURL:    "https://api.openai.com/v1/chat/completions",
			EmbedURL:   "https://api.openai.com/v1/embeddings",
			Model:      "gpt-4o-mini",
			EmbedModel: "text-embedding-3-small",
		},
		Analysis: AnalysisConfig{
			MinCorpus:      5,
			NumTopics:      8,
			MaxEntities:    100,
			MaxGaps:        10,
			TopicKeywords:  10,
			EvidencePerKey: 5,
		},
		Serve: ServeConfig{Addr: ":8080"},
	}
}

// Load reads YAML configuration from path and applies environment
// overrides. An empty path yields defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(envAPIKey); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(envBaseURL); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv(envDataDir); v != "" {
		c.DataDir = v
	}
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is empty", internalerr.ErrInvalidConfig)
	}
	if c.Fetch.DelayMS < 0 {
		return fmt.Errorf("%w: fetch.delay_ms must be >= 0", internalerr.ErrInvalidConfig)
	}
	if c.Extract.MinAlphaRatio < 0 || c.Extract.MinAlphaRatio > 1 {
		return fmt.Errorf("%w: extract.min_alpha_ratio must be in [0,1]", internalerr.ErrInvalidConfig)
	}
	if c.Summary.MaxSentences <= 0 {
		return fmt.Errorf("%w: summary.max_sentences must be positive", internalerr.ErrInvalidConfig)
	}
	if c.Analysis.NumTopics <= 0 {
		return fmt.Errorf("%w: analysis.num_topics must be positive", internalerr.ErrInvalidConfig)
	}
	if c.Analysis.MinCorpus < 0 {
		return fmt.Errorf("%w: analysis.min_corpus must be >= 0", internalerr.ErrInvalidConfig)
	}
	return nil
}
