package ingest

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"
)

// FailureRecord is one structured failure from any pipeline stage.
type FailureRecord struct {
	Kode    string
	Stage   Stage
	Message string
	Time    time.Time
}

// Journal is the append-only failure sink shared by every worker in a run.
// Appends are serialized behind a mutex so records from different symbols
// never interleave. It is constructed at run start and closed at run end;
// the file accumulates across runs.
type Journal struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

// OpenJournal opens (or creates) the journal file for appending.
func OpenJournal(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening failure journal %s: %w", path, err)
	}
	return &Journal{file: f, w: bufio.NewWriter(f)}, nil
}

// Record appends one failure line and flushes it, so a crash loses at most
// the record being written.
func (j *Journal) Record(rec FailureRecord) error {
	ts := rec.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	line := fmt.Sprintf("%s - Error %s: %s\n", ts.Format("2006-01-02 15:04:05"), rec.Kode, rec.Message)
	if _, err := j.w.WriteString(line); err != nil {
		return fmt.Errorf("writing failure journal: %w", err)
	}
	return j.w.Flush()
}

// Close flushes and closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w != nil {
		j.w.Flush()
	}
	if j.file != nil {
		return j.file.Close()
	}
	return nil
}
