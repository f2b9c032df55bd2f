package store

import (
	"testing"
	"time"

	"idxdata/internal/domain"
)

func TestArchiveMergeIdempotent(t *testing.T) {
	a := NewParquetArchive(t.TempDir())

	seed := []archiveRow{
		{Kode: "BBRI", Date: ms(2024, 3, 11), Close: 100, Volume: 10},
		{Kode: "BBRI", Date: ms(2024, 3, 12), Close: 101, Volume: 11},
	}
	if err := writeParquetFile(a.yearPath("BBRI", 2024), seed); err != nil {
		t.Fatalf("seed write: %v", err)
	}

	// Re-archive an overlapping range; the overlap must replace, not append.
	incoming := []domain.DailyRecord{
		rec("BBRI", 2024, 3, 12, 201),
		rec("BBRI", 2024, 3, 13, 202),
	}
	if err := a.Archive("BBRI", incoming); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	rows, err := a.Read("BBRI", day(2024, 3, 1), day(2024, 3, 31))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3: %+v", len(rows), rows)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].Date >= rows[i].Date {
			t.Fatalf("rows not chronological: %+v", rows)
		}
	}
	// The incoming 2024-03-12 row wins over the seeded one.
	if rows[1].Close != 201 {
		t.Errorf("merged 2024-03-12 close = %v, want 201", rows[1].Close)
	}
}

func TestArchiveSplitsByYear(t *testing.T) {
	a := NewParquetArchive(t.TempDir())

	records := []domain.DailyRecord{
		rec("BBCA", 2023, 12, 29, 99),
		rec("BBCA", 2024, 1, 2, 100),
	}
	if err := a.Archive("BBCA", records); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	for _, year := range []int{2023, 2024} {
		rows, err := readParquetFile[archiveRow](a.yearPath("BBCA", year))
		if err != nil {
			t.Fatalf("read %d: %v", year, err)
		}
		if len(rows) != 1 {
			t.Errorf("year %d has %d rows, want 1", year, len(rows))
		}
	}
}

func TestArchiveAbsentFieldsAsZero(t *testing.T) {
	a := NewParquetArchive(t.TempDir())

	r := rec("BMRI", 2024, 3, 11, 100)
	r.Volume = nil
	if err := a.Archive("BMRI", []domain.DailyRecord{r}); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	rows, err := readParquetFile[archiveRow](a.yearPath("BMRI", 2024))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 1 || rows[0].Volume != 0 {
		t.Fatalf("rows = %+v, want single row with zero volume", rows)
	}
}

func ms(y int, m time.Month, d int) int64 {
	return day(y, m, d).UnixMilli()
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
