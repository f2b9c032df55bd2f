package store

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"idxdata/internal/domain"
)

// Column order of the monthly CSV artifacts.
var csvHeader = []string{"kode", "nama", "date", "open", "high", "low", "close", "volume"}

// FSStore writes the per-symbol artifact tree:
//
//	<root>/<kode>/json/<YYYY-MM-DD>.json   one record per file, write-once
//	<root>/<kode>/csv/<YYYY-MM>.csv        append log, header on creation
//
// All paths for a symbol live under that symbol's own subtree, so stores
// are safe for concurrent use across different symbols without locking.
type FSStore struct {
	root string
}

// NewFSStore creates a store rooted at the given output directory.
func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

// Root returns the output directory the store writes under.
func (s *FSStore) Root() string { return s.root }

// dailyArtifact is the on-disk JSON shape of one DailyRecord.
type dailyArtifact struct {
	Kode   string   `json:"kode"`
	Nama   string   `json:"nama"`
	Date   string   `json:"date"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *int64   `json:"volume"`
}

func (s *FSStore) dailyPath(kode, dateKey string) string {
	return filepath.Join(s.root, kode, "json", dateKey+".json")
}

func (s *FSStore) monthlyPath(kode, monthKey string) string {
	return filepath.Join(s.root, kode, "csv", monthKey+".csv")
}

// Observe scans the existing daily artifacts for a symbol and returns the
// set of dates already persisted. A missing directory means a fresh symbol,
// not an error.
func (s *FSStore) Observe(kode string) (*State, error) {
	state := &State{days: make(map[string]struct{})}

	entries, err := os.ReadDir(filepath.Join(s.root, kode, "json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return state, nil
		}
		return nil, &domain.PersistenceError{Path: filepath.Join(s.root, kode), Err: err}
	}
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".json"); ok {
			state.days[name] = struct{}{}
		}
	}
	return state, nil
}

// Apply executes a write plan for one symbol and returns the records whose
// daily artifacts were actually created. The create step is the source of
// truth: if another process raced us to a daily artifact, the record counts
// as already-present and its monthly append is skipped too.
func (s *FSStore) Apply(plans []WritePlan) ([]domain.DailyRecord, error) {
	var written []domain.DailyRecord
	for _, p := range plans {
		created, err := s.writeDaily(p)
		if err != nil {
			return written, err
		}
		if !created {
			continue
		}
		if err := s.appendMonthly(p); err != nil {
			return written, err
		}
		written = append(written, p.Record)
	}
	return written, nil
}

// writeDaily creates the daily JSON artifact with create-if-absent
// semantics. An artifact that already exists is not rewritten: content for
// a (symbol, date) pair is stable once published by the provider.
func (s *FSStore) writeDaily(p WritePlan) (bool, error) {
	path := s.dailyPath(p.Record.Kode, p.DailyKey)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, &domain.PersistenceError{Path: path, Err: err}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, &domain.PersistenceError{Path: path, Err: err}
	}

	art := dailyArtifact{
		Kode:   p.Record.Kode,
		Nama:   p.Record.Name,
		Date:   p.DailyKey,
		Open:   p.Record.Open,
		High:   p.Record.High,
		Low:    p.Record.Low,
		Close:  p.Record.Close,
		Volume: p.Record.Volume,
	}
	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		f.Close()
		return false, &domain.PersistenceError{Path: path, Err: err}
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return false, &domain.PersistenceError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return false, &domain.PersistenceError{Path: path, Err: err}
	}
	return true, nil
}

// appendMonthly opens the monthly CSV in append mode, writing the header
// exactly once when the artifact is first created.
func (s *FSStore) appendMonthly(p WritePlan) error {
	path := s.monthlyPath(p.Record.Kode, p.MonthKey)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &domain.PersistenceError{Path: path, Err: err}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return &domain.PersistenceError{Path: path, Err: err}
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return &domain.PersistenceError{Path: path, Err: err}
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return &domain.PersistenceError{Path: path, Err: err}
		}
	}
	if err := w.Write(csvRow(p.Record)); err != nil {
		return &domain.PersistenceError{Path: path, Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &domain.PersistenceError{Path: path, Err: err}
	}
	return nil
}

func csvRow(r domain.DailyRecord) []string {
	return []string{
		r.Kode,
		r.Name,
		r.DateKey(),
		fmtFloat(r.Open),
		fmtFloat(r.High),
		fmtFloat(r.Low),
		fmtFloat(r.Close),
		fmtInt(r.Volume),
	}
}

func fmtFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func fmtInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
