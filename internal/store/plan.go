// Package store persists daily records to the per-symbol artifact tree and
// plans which records need writing.
package store

import (
	"sort"

	"idxdata/internal/domain"
)

// State is the set of daily artifact keys already present on disk for one
// symbol, observed at the start of that symbol's task. It is owned by a
// single task; symbols never share state, so no locking is needed.
type State struct {
	days map[string]struct{}
}

// HasDay reports whether a daily artifact already exists for the key.
func (s *State) HasDay(key string) bool {
	_, ok := s.days[key]
	return ok
}

// WritePlan pairs a record with its derived artifact keys.
type WritePlan struct {
	Record   domain.DailyRecord
	DailyKey string // YYYY-MM-DD
	MonthKey string // YYYY-MM
}

// Plan decides which records are net-new against the observed state. A
// record is skipped iff its daily key is already present: this is the
// resume gate that makes re-running an overlapping window idempotent.
// Every planned record also contributes an append to its monthly artifact;
// monthly artifacts are accumulating logs and are not row-deduplicated
// here. Plans are returned ascending by date so a monthly artifact is
// chronological on first fill.
func Plan(records []domain.DailyRecord, state *State) (toWrite []WritePlan, skipped int) {
	for _, rec := range records {
		key := rec.DateKey()
		if state.HasDay(key) {
			skipped++
			continue
		}
		toWrite = append(toWrite, WritePlan{
			Record:   rec,
			DailyKey: key,
			MonthKey: rec.MonthKey(),
		})
	}
	sort.Slice(toWrite, func(i, j int) bool {
		return toWrite[i].Record.Date.Before(toWrite[j].Record.Date)
	})
	return toWrite, skipped
}
