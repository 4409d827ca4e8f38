package report

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Status describes the outcome of a stage run.
type Status string

const (
	// StatusComplete means the stage ran over its full input set.
	// Per-id skips do not demote a run from complete.
	StatusComplete Status = "complete"

	// StatusInsufficientData means the stage had too little input to
	// produce a meaningful result and emitted empty output on purpose.
	StatusInsufficientData Status = "insufficient_data"
)

// Skip records one unit of work the stage gave up on and why.
type Skip struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Run is the partial-success summary every stage returns.
type Run struct {
	RunID      string    `json:"run_id"`
	Stage      string    `json:"stage"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Attempted  int       `json:"attempted"`
	Succeeded  int       `json:"succeeded"`
	Skipped    []Skip    `json:"skipped,omitempty"`
	Status     Status    `json:"status"`
}

// NewRun starts a run record for the given stage with a fresh ULID.
func NewRun(stage string) *Run {
	now := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(now.UnixNano())), 0)
	return &Run{
		RunID:     ulid.MustNew(ulid.Timestamp(now), entropy).String(),
		Stage:     stage,
		StartedAt: now,
		Status:    StatusComplete,
	}
}

// Skip records a skipped id with its reason.
func (r *Run) Skip(id, reason string) {
	r.Skipped = append(r.Skipped, Skip{ID: id, Reason: reason})
}

// Finish stamps the end time and returns the run by value.
func (r *Run) Finish() Run {
	r.FinishedAt = time.Now()
	return *r
}

// Summary renders a one-line human-readable digest.
func (r Run) Summary() string {
	return fmt.Sprintf("%s: attempted=%d succeeded=%d skipped=%d status=%s",
		r.Stage, r.Attempted, r.Succeeded, len(r.Skipped), r.Status)
}
