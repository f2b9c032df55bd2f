// Package roster reads the IDX company list that drives an ingestion run.
package roster

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"idxdata/internal/domain"
)

// Column headers in the company list CSV, as published by the exchange.
const (
	colKode = "Kode"
	colName = "Nama Perusahaan"
)

// Load reads the roster CSV at path and returns one Symbol per well-formed
// row. Rows with a missing code are skipped, not fatal; a missing or
// unreadable file is the one run-wide fatal error. When nameFilter is
// non-empty, only companies whose name contains it are returned.
func Load(path, nameFilter string) ([]domain.Symbol, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening roster %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows; they are skipped below

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading roster %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	kodeIdx, nameIdx := -1, -1
	for i, h := range records[0] {
		switch strings.TrimSpace(h) {
		case colKode:
			kodeIdx = i
		case colName:
			nameIdx = i
		}
	}
	if kodeIdx < 0 {
		return nil, fmt.Errorf("roster %s: missing %q column", path, colKode)
	}

	symbols := make([]domain.Symbol, 0, len(records)-1)
	for _, row := range records[1:] {
		if kodeIdx >= len(row) {
			continue
		}
		kode := strings.TrimSpace(row[kodeIdx])
		if kode == "" {
			continue
		}

		var name string
		if nameIdx >= 0 && nameIdx < len(row) {
			name = strings.TrimSpace(row[nameIdx])
		}
		if nameFilter != "" && !strings.Contains(name, nameFilter) {
			continue
		}

		symbols = append(symbols, domain.Symbol{Kode: kode, Name: name})
	}
	return symbols, nil
}
