package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"idxdata/internal/domain"
)

var testWindow = domain.Window{
	Start: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
}

const chartBody = `{
  "chart": {
    "result": [{
      "timestamp": [1709520300, 1709606700],
      "indicators": {
        "quote": [{
          "open": [4560.0, 4570.0],
          "high": [4600.0, null],
          "low": [4540.0, 4550.0],
          "close": [4590.0, 4580.0],
          "volume": [125000000, null]
        }]
      }
    }],
    "error": null
  }
}`

func TestFetchDaily(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	resp, err := c.FetchDaily(context.Background(), "BBRI.JK", testWindow)
	if err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}

	if gotPath != "/BBRI.JK" {
		t.Errorf("path = %s", gotPath)
	}
	for _, param := range []string{"interval=1d", "period1=", "period2="} {
		if !strings.Contains(gotQuery, param) {
			t.Errorf("query %q missing %q", gotQuery, param)
		}
	}

	if len(resp.Chart.Result) != 1 {
		t.Fatalf("got %d results", len(resp.Chart.Result))
	}
	res := resp.Chart.Result[0]
	if len(res.Timestamp) != 2 {
		t.Fatalf("got %d timestamps", len(res.Timestamp))
	}
	q := res.Indicators.Quote[0]
	if q.Close[0] == nil || *q.Close[0] != 4590.0 {
		t.Errorf("close[0] = %v", q.Close[0])
	}
	if q.High[1] != nil {
		t.Errorf("high[1] = %v, want null", *q.High[1])
	}
	if q.Volume[1] != nil {
		t.Errorf("volume[1] = %v, want null", *q.Volume[1])
	}
}

func TestFetchDailyHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.FetchDaily(context.Background(), "NOPE.JK", testWindow)

	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *domain.FetchError", err)
	}
	if fe.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", fe.Status)
	}
	if fe.Symbol != "NOPE.JK" {
		t.Errorf("Symbol = %s", fe.Symbol)
	}
}

func TestFetchDailyAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.FetchDaily(context.Background(), "GONE.JK", testWindow)

	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *domain.FetchError", err)
	}
	if !strings.Contains(err.Error(), "delisted") {
		t.Errorf("err = %v, want API description in message", err)
	}
}

func TestFetchDailyMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>rate limited</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if _, err := c.FetchDaily(context.Background(), "BBRI.JK", testWindow); err == nil {
		t.Fatal("expected decode error for non-JSON body")
	}
}

func TestMockClientDeterministic(t *testing.T) {
	m := &MockClient{}
	a, err := m.FetchDaily(context.Background(), "BBRI.JK", testWindow)
	if err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	b, _ := m.FetchDaily(context.Background(), "BBRI.JK", testWindow)

	ra, rb := a.Chart.Result[0], b.Chart.Result[0]
	if len(ra.Timestamp) != 5 {
		t.Fatalf("got %d bars, want 5 weekdays", len(ra.Timestamp))
	}
	for i := range ra.Timestamp {
		if ra.Timestamp[i] != rb.Timestamp[i] {
			t.Fatal("synthetic series not deterministic")
		}
		qa, qb := ra.Indicators.Quote[0], rb.Indicators.Quote[0]
		if *qa.Close[i] != *qb.Close[i] {
			t.Fatal("synthetic closes not deterministic")
		}
	}
}
