package domain

import (
	"fmt"
	"time"
)

// Epoch is the fixed start of full-history fetches. The IDX dataset this
// pipeline maintains begins at the start of 2004.
var Epoch = time.Date(2004, 1, 1, 0, 0, 0, 0, time.UTC)

// Mode selects how much history a run covers.
type Mode string

const (
	// ModeFull fetches from Epoch to now.
	ModeFull Mode = "full"
	// ModeIncremental fetches a short trailing window ending now, for
	// frequent re-runs.
	ModeIncremental Mode = "incremental"
)

// ParseMode validates a mode string from the CLI or config.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFull, ModeIncremental:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeFull, ModeIncremental)
}

// Window is the [Start, End] range requested from the fetch client,
// with Start <= End, both UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

// FullWindow returns the window from Epoch to now.
func FullWindow(now time.Time) Window {
	return Window{Start: Epoch, End: now.UTC()}
}

// IncrementalWindow returns a trailing window of trailingDays ending now.
// The start is clamped to stay strictly after Epoch so an incremental run
// can overlap but never exceed what a full run would cover.
func IncrementalWindow(now time.Time, trailingDays int) Window {
	end := now.UTC()
	start := end.AddDate(0, 0, -trailingDays)
	if !start.After(Epoch) {
		start = Epoch.AddDate(0, 0, 1)
	}
	return Window{Start: start, End: end}
}

// WindowFor builds the window for the given mode.
func WindowFor(mode Mode, now time.Time, trailingDays int) Window {
	if mode == ModeFull {
		return FullWindow(now)
	}
	return IncrementalWindow(now, trailingDays)
}
