// Package catalog persists run history for later inspection: one row per
// run and one row per symbol outcome.
package catalog

import "idxdata/internal/ingest"

// Recorder persists run summaries.
type Recorder interface {
	RecordRun(summary *ingest.RunSummary) error
	Close() error
}

// NoopRecorder is used when no catalog database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *ingest.RunSummary) error { return nil }
func (n *NoopRecorder) Close() error                         { return nil }
