// Package ingest drives the concurrent per-symbol ingestion run: it owns
// the worker pool, the per-symbol stage machine, and the failure sink.
package ingest

import (
	"time"

	"idxdata/internal/domain"
)

// Stage names the step of a symbol task, for failure records and outcomes.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageNormalize Stage = "normalize"
	StagePlan      Stage = "plan"
	StageWrite     Stage = "write"
)

// Status is a task's terminal state.
type Status string

const (
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

// Outcome is one symbol's terminal result. A failed outcome names the stage
// that failed; a done outcome carries write and skip counts.
type Outcome struct {
	Status  Status
	Stage   Stage // set when Status is failed
	Written int   // daily artifacts created
	Skipped int   // records already present before the run
	Err     string
}

// RunSummary aggregates every task's terminal outcome. Outcomes arrive in
// arbitrary order across symbols; the mapping merge is commutative.
type RunSummary struct {
	Mode       domain.Mode
	Window     domain.Window
	StartedAt  time.Time
	FinishedAt time.Time
	PerSymbol  map[string]Outcome
	Cancelled  bool // run was interrupted before all symbols were dispatched
}

// Counts tallies the summary: symbols done and failed, and total records
// written and skipped.
func (s *RunSummary) Counts() (done, failed, written, skipped int) {
	for _, o := range s.PerSymbol {
		switch o.Status {
		case StatusDone:
			done++
		case StatusFailed:
			failed++
		}
		written += o.Written
		skipped += o.Skipped
	}
	return done, failed, written, skipped
}
