package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"idxdata/internal/domain"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int64) *int64     { return &v }

func rec(kode string, y int, m time.Month, d int, close float64) domain.DailyRecord {
	return domain.DailyRecord{
		Kode:   kode,
		Name:   "Test Tbk.",
		Date:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Open:   fptr(close * 0.99),
		High:   fptr(close * 1.01),
		Low:    fptr(close * 0.98),
		Close:  fptr(close),
		Volume: iptr(5000),
	}
}

func TestPlanSkipsExistingDays(t *testing.T) {
	state := &State{days: map[string]struct{}{"2024-03-11": {}}}
	records := []domain.DailyRecord{
		rec("BBRI", 2024, 3, 11, 100),
		rec("BBRI", 2024, 3, 12, 101),
	}

	plans, skipped := Plan(records, state)
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(plans) != 1 {
		t.Fatalf("got %d plans, want 1", len(plans))
	}
	if plans[0].DailyKey != "2024-03-12" {
		t.Errorf("planned key = %s, want 2024-03-12", plans[0].DailyKey)
	}
	if plans[0].MonthKey != "2024-03" {
		t.Errorf("month key = %s, want 2024-03", plans[0].MonthKey)
	}
}

func TestPlanOrdersAscending(t *testing.T) {
	state := &State{days: map[string]struct{}{}}
	records := []domain.DailyRecord{
		rec("BBRI", 2024, 3, 13, 103),
		rec("BBRI", 2024, 3, 11, 101),
		rec("BBRI", 2024, 3, 12, 102),
	}

	plans, _ := Plan(records, state)
	for i := 1; i < len(plans); i++ {
		if plans[i-1].DailyKey >= plans[i].DailyKey {
			t.Fatalf("plans not ascending: %s before %s", plans[i-1].DailyKey, plans[i].DailyKey)
		}
	}
}

func TestApplyIdempotent(t *testing.T) {
	s := NewFSStore(t.TempDir())
	records := []domain.DailyRecord{
		rec("BBRI", 2024, 3, 11, 100),
		rec("BBRI", 2024, 3, 12, 101),
	}

	run := func() int {
		state, err := s.Observe("BBRI")
		if err != nil {
			t.Fatalf("Observe: %v", err)
		}
		plans, _ := Plan(records, state)
		written, err := s.Apply(plans)
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		return len(written)
	}

	if got := run(); got != 2 {
		t.Fatalf("first run wrote %d, want 2", got)
	}
	if got := run(); got != 0 {
		t.Fatalf("second run wrote %d, want 0 (idempotent)", got)
	}

	// Exactly one daily artifact per date.
	entries, err := os.ReadDir(filepath.Join(s.Root(), "BBRI", "json"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("found %d daily artifacts, want 2", len(entries))
	}
}

func TestMonthlyHeaderOnce(t *testing.T) {
	s := NewFSStore(t.TempDir())

	// Three records in the same month, written across two separate runs.
	first := []domain.DailyRecord{
		rec("BBCA", 2024, 3, 11, 100),
		rec("BBCA", 2024, 3, 12, 101),
	}
	second := []domain.DailyRecord{
		rec("BBCA", 2024, 3, 11, 100), // overlap, skipped by the plan
		rec("BBCA", 2024, 3, 13, 102),
	}

	for _, records := range [][]domain.DailyRecord{first, second} {
		state, err := s.Observe("BBCA")
		if err != nil {
			t.Fatalf("Observe: %v", err)
		}
		plans, _ := Plan(records, state)
		if _, err := s.Apply(plans); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(s.Root(), "BBCA", "csv", "2024-03.csv"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("monthly artifact has %d lines, want 4 (header + 3 rows):\n%s", len(lines), data)
	}
	if lines[0] != "kode,nama,date,open,high,low,close,volume" {
		t.Errorf("header = %q", lines[0])
	}
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "kode,") {
			t.Errorf("duplicate header row: %q", line)
		}
	}
	// Rows retain write order.
	if !strings.Contains(lines[1], "2024-03-11") || !strings.Contains(lines[3], "2024-03-13") {
		t.Errorf("rows out of write order:\n%s", data)
	}
}

func TestWriteDailyCreateRace(t *testing.T) {
	// An artifact created by another process between Observe and Apply
	// must count as already-present, not as an error.
	s := NewFSStore(t.TempDir())
	r := rec("BMRI", 2024, 3, 11, 100)

	state, err := s.Observe("BMRI")
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	plans, _ := Plan([]domain.DailyRecord{r}, state)

	// Simulate the race.
	path := filepath.Join(s.Root(), "BMRI", "json", "2024-03-11.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	written, err := s.Apply(plans)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(written) != 0 {
		t.Errorf("wrote %d records, want 0 (lost race treated as present)", len(written))
	}

	// The racing writer's content must be untouched and no monthly row
	// appended for the skipped record.
	data, _ := os.ReadFile(path)
	if string(data) != "{}\n" {
		t.Errorf("daily artifact was overwritten: %q", data)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "BMRI", "csv", "2024-03.csv")); !os.IsNotExist(err) {
		t.Error("monthly artifact should not exist after a fully-skipped apply")
	}
}

func TestDailyArtifactContent(t *testing.T) {
	s := NewFSStore(t.TempDir())
	r := rec("BBNI", 2024, 3, 11, 100)
	r.Volume = nil // absent field serializes as null

	state, _ := s.Observe("BBNI")
	plans, _ := Plan([]domain.DailyRecord{r}, state)
	if _, err := s.Apply(plans); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.Root(), "BBNI", "json", "2024-03-11.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var art struct {
		Kode   string   `json:"kode"`
		Nama   string   `json:"nama"`
		Date   string   `json:"date"`
		Close  *float64 `json:"close"`
		Volume *int64   `json:"volume"`
	}
	if err := json.Unmarshal(data, &art); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if art.Kode != "BBNI" || art.Date != "2024-03-11" {
		t.Errorf("artifact = %+v", art)
	}
	if art.Close == nil || *art.Close != 100 {
		t.Errorf("Close = %v, want 100", art.Close)
	}
	if art.Volume != nil {
		t.Errorf("Volume = %v, want null", art.Volume)
	}
}
