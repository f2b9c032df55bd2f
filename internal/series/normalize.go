// Package series converts raw chart payloads into validated daily records.
package series

import (
	"fmt"
	"sort"
	"time"

	"idxdata/internal/domain"
	"idxdata/internal/yahoo"
)

// Normalize converts the chart response for one symbol into an ascending,
// per-date-unique sequence of daily records. It is pure: no I/O, fully
// deterministic for a given input.
//
// Points are dropped silently when they fall on a Saturday or Sunday (the
// provider emits spurious non-trading entries) or when every one of
// open/high/low/close/volume is absent. When two points share a calendar
// date the first one in provider order wins; provider order is treated as
// authoritative.
//
// A response with no usable series container at all fails with an error
// wrapping domain.ErrNoSeries.
func Normalize(sym domain.Symbol, resp *yahoo.ChartResponse) ([]domain.DailyRecord, error) {
	if resp == nil || len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", sym.Kode, domain.ErrNoSeries)
	}
	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: %w", sym.Kode, domain.ErrNoSeries)
	}
	quote := result.Indicators.Quote[0]

	seen := make(map[string]struct{}, len(result.Timestamp))
	records := make([]domain.DailyRecord, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		day := time.Unix(ts, 0).UTC()
		date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}

		rec := domain.DailyRecord{
			Kode:   sym.Kode,
			Name:   sym.Name,
			Date:   date,
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		}
		if rec.Open == nil && rec.High == nil && rec.Low == nil && rec.Close == nil && rec.Volume == nil {
			continue // unusable row; partial payloads are expected, not an error
		}

		key := rec.DateKey()
		if _, dup := seen[key]; dup {
			continue // first occurrence in provider order wins
		}
		seen[key] = struct{}{}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

// at returns the i-th element of a nullable quote array, or nil when the
// provider sent a shorter array than the timestamp list.
func at[T any](arr []*T, i int) *T {
	if i >= len(arr) {
		return nil
	}
	return arr[i]
}
