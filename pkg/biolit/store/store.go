// Package store defines the artifact store abstraction shared by all
// pipeline stages. Artifacts are keyed by (stage, paper id); corpus
// aggregates by name. Any backend can implement it without changing
// stage logic.
package store

import "context"

// Stage names the artifact families produced per paper.
type Stage string

const (
	StageDocument    Stage = "document"
	StageText        Stage = "text"
	StageSections    Stage = "sections"
	StageExtractive  Stage = "extractive"
	StageAbstractive Stage = "abstractive"
	StageEntities    Stage = "entities"
)

// Aggregate names for corpus-level artifacts.
const (
	AggTopics     = "topics"
	AggClaims     = "claims"
	AggGaps       = "gaps"
	AggInsights   = "insights"
	AggEmbeddings = "embeddings"
)

// Store persists per-paper and corpus-level artifacts. Writes are
// whole-blob overwrites; there is no partial update.
type Store interface {
	Close() error

	// Per-paper artifacts
	Put(ctx context.Context, stage Stage, id string, data []byte) error
	Get(ctx context.Context, stage Stage, id string) ([]byte, error)
	Exists(ctx context.Context, stage Stage, id string) (bool, error)
	List(ctx context.Context, stage Stage) ([]string, error)

	// Corpus aggregates
	PutAggregate(ctx context.Context, name string, data []byte) error
	GetAggregate(ctx context.Context, name string) ([]byte, error)
}
