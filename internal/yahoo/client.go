// Package yahoo fetches daily history from the Yahoo Finance v8 chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"idxdata/internal/domain"
)

// ChartClient is the raw fetch contract the pipeline depends on: given an
// exchange ticker and a time window, return the provider's chart payload or
// fail. Any non-success is reported as a *domain.FetchError.
type ChartClient interface {
	FetchDaily(ctx context.Context, ticker string, w domain.Window) (*ChartResponse, error)
}

// ---------------------------------------------------------------------------
// Response structures
// ---------------------------------------------------------------------------

// ChartResponse is the subset of the chart API response the pipeline reads.
type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *ChartError   `json:"error"`
	} `json:"chart"`
}

// ChartResult holds one symbol's series: parallel arrays of timestamps and
// quote fields. Individual quote entries may be null.
type ChartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []Quote `json:"quote"`
	} `json:"indicators"`
}

// Quote carries the nullable OHLCV arrays, index-aligned with Timestamp.
type Quote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// ChartError is the API-level error object.
type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ---------------------------------------------------------------------------
// HTTP client
// ---------------------------------------------------------------------------

// Client fetches chart data over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a chart client against baseURL with a fixed per-request
// timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

var _ ChartClient = (*Client)(nil)

// FetchDaily requests the 1d-interval chart for ticker over the window.
func (c *Client) FetchDaily(ctx context.Context, ticker string, w domain.Window) (*ChartResponse, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("events", "capitalGain|div|split")
	q.Set("formatted", "true")
	q.Set("includeAdjustedClose", "true")
	q.Set("period1", fmt.Sprintf("%d", w.Start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", w.End.Unix()))
	q.Set("lang", "en-US")
	q.Set("region", "US")

	u := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(ticker), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &domain.FetchError{Symbol: ticker, Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Symbol: ticker, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.FetchError{Symbol: ticker, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.FetchError{Symbol: ticker, Status: resp.StatusCode}
	}

	var chart ChartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, &domain.FetchError{Symbol: ticker, Err: fmt.Errorf("decode: %w", err)}
	}
	if chart.Chart.Error != nil {
		return nil, &domain.FetchError{
			Symbol: ticker,
			Err:    fmt.Errorf("api error %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description),
		}
	}
	return &chart, nil
}
