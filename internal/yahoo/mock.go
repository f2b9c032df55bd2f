package yahoo

import (
	"context"
	"hash/fnv"
	"time"

	"idxdata/internal/domain"
)

// MockClient returns deterministic synthetic weekday bars without touching
// the network, for offline runs and tests. Canned responses or errors, when
// set for a ticker, take precedence over generation.
type MockClient struct {
	Responses map[string]*ChartResponse
	Errors    map[string]error
}

var _ ChartClient = (*MockClient)(nil)

// FetchDaily returns the canned response for ticker when present, and
// otherwise generates one weekday bar per day in the window, priced off a
// hash of the ticker so repeated runs agree.
func (m *MockClient) FetchDaily(_ context.Context, ticker string, w domain.Window) (*ChartResponse, error) {
	if err, ok := m.Errors[ticker]; ok {
		return nil, err
	}
	if resp, ok := m.Responses[ticker]; ok {
		return resp, nil
	}
	return synthetic(ticker, w), nil
}

func synthetic(ticker string, w domain.Window) *ChartResponse {
	h := fnv.New32a()
	h.Write([]byte(ticker))
	seed := h.Sum32()
	base := 100 + float64(seed%9000)

	var result ChartResult
	var quote Quote

	day := time.Date(w.Start.Year(), w.Start.Month(), w.Start.Day(), 0, 0, 0, 0, time.UTC)
	for i := 0; !day.After(w.End); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		px := base * (1 + float64(i%21-10)*0.002)
		open, high, low, closePx := px*0.995, px*1.01, px*0.99, px
		vol := int64(100000 + (seed+uint32(i))%900000)
		i++

		result.Timestamp = append(result.Timestamp, day.Unix())
		quote.Open = append(quote.Open, &open)
		quote.High = append(quote.High, &high)
		quote.Low = append(quote.Low, &low)
		quote.Close = append(quote.Close, &closePx)
		quote.Volume = append(quote.Volume, &vol)
	}
	result.Indicators.Quote = []Quote{quote}

	resp := &ChartResponse{}
	resp.Chart.Result = []ChartResult{result}
	return resp
}
