// Package domain defines the core types shared across the ingestion
// pipeline: symbols, daily records, fetch windows, and the error taxonomy.
package domain

import "time"

// Symbol identifies one listed company from the roster. Immutable once
// loaded; the roster is read exactly once per run.
type Symbol struct {
	Kode string // stable short identifier, e.g. "BBRI"
	Name string // display name, e.g. "Bank Rakyat Indonesia Tbk."
}

// DailyRecord is the normalized, persisted unit: one symbol, one trading
// day. Price and volume fields are pointers because the provider may omit
// any of them for a given day; a record is only dropped during
// normalization when all five are absent.
type DailyRecord struct {
	Kode   string
	Name   string
	Date   time.Time // UTC calendar day, weekday only
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *int64
}

// DateKey returns the daily artifact key for the record: its UTC calendar
// date as YYYY-MM-DD.
func (r DailyRecord) DateKey() string {
	return r.Date.UTC().Format("2006-01-02")
}

// MonthKey returns the monthly artifact key for the record: the month
// containing its date, as YYYY-MM.
func (r DailyRecord) MonthKey() string {
	return r.Date.UTC().Format("2006-01")
}
