package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"idxdata/internal/domain"
)

// ParquetArchive mirrors written daily records into yearly Parquet files:
//
//	<root>/<kode>/parquet/<YYYY>.parquet
//
// The archive is a secondary, columnar copy of the JSON/CSV tree; absent
// price fields are stored as zero. Writes merge with the existing file by
// date, incoming records winning, so re-archiving is idempotent.
type ParquetArchive struct {
	root string
}

// NewParquetArchive creates an archive rooted at the same output directory
// as the primary store.
func NewParquetArchive(root string) *ParquetArchive {
	return &ParquetArchive{root: root}
}

// archiveRow is the Parquet schema for archived daily records.
type archiveRow struct {
	Kode   string  `parquet:"kode"`
	Date   int64   `parquet:"date,timestamp(millisecond)"` // Unix ms, midnight UTC
	Open   float64 `parquet:"open"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Close  float64 `parquet:"close"`
	Volume int64   `parquet:"volume"`
}

// Archive merges records into their yearly files for one symbol.
func (a *ParquetArchive) Archive(kode string, records []domain.DailyRecord) error {
	if len(records) == 0 {
		return nil
	}

	groups := make(map[int][]archiveRow)
	for _, r := range records {
		year := r.Date.UTC().Year()
		groups[year] = append(groups[year], archiveRow{
			Kode:   r.Kode,
			Date:   r.Date.UTC().UnixMilli(),
			Open:   deref(r.Open),
			High:   deref(r.High),
			Low:    deref(r.Low),
			Close:  deref(r.Close),
			Volume: derefInt(r.Volume),
		})
	}

	for year, rows := range groups {
		path := a.yearPath(kode, year)

		existing, _ := readParquetFile[archiveRow](path)
		merged := mergeRows(existing, rows)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("archiving %s/%d: %w", kode, year, err)
		}
	}
	return nil
}

// yearPath returns the archive file path for one symbol and year.
func (a *ParquetArchive) yearPath(kode string, year int) string {
	return filepath.Join(a.root, kode, "parquet", strconv.Itoa(year)+".parquet")
}

// Read returns the archived rows for a symbol within [start, end], for
// verification and ad-hoc inspection.
func (a *ParquetArchive) Read(kode string, start, end time.Time) ([]archiveRow, error) {
	var out []archiveRow
	for year := start.Year(); year <= end.Year(); year++ {
		rows, err := readParquetFile[archiveRow](a.yearPath(kode, year))
		if err != nil {
			// No file for this year.
			continue
		}
		for _, r := range rows {
			ts := time.UnixMilli(r.Date)
			if !ts.Before(start) && !ts.After(end) {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func writeParquetFile[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, rows)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

// mergeRows deduplicates by date, preferring incoming rows over existing
// ones, and sorts the result chronologically.
func mergeRows(existing, incoming []archiveRow) []archiveRow {
	seen := make(map[int64]archiveRow, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Date] = r
	}
	for _, r := range incoming {
		seen[r.Date] = r
	}

	merged := make([]archiveRow, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })
	return merged
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
