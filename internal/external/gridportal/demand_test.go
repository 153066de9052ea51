package gridportal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wonny/helios/pkg/config"
	"github.com/wonny/helios/pkg/httputil"
	"github.com/wonny/helios/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "test", Level: "error"})
}

// Sample HTML in the portal's daily demand page shape
const samplePage = `
	<html>
	<body>
	<table class="tbl_list">
		<tr><th>날짜</th><th>최대전력(MW)</th><th>평균전력(MW)</th><th>공급예비율(%)</th></tr>
		<tr>
			<td>2024.01.16</td>
			<td>85,120</td>
			<td>72,431.5</td>
			<td>12.4</td>
		</tr>
		<tr>
			<td>2024.01.15</td>
			<td>84,905</td>
			<td>71,980.2</td>
			<td>13.1</td>
		</tr>
		<tr>
			<td>invalid date</td>
			<td>84,905</td>
			<td>71,980.2</td>
		</tr>
	</table>
	</body>
	</html>
`

func TestParseDemandHTML(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	c := &Client{}
	observations, lastDate, hasMore := c.parseDemandHTML(samplePage, from, to)

	// Should parse 2 valid rows
	if len(observations) != 2 {
		t.Fatalf("parseDemandHTML() got %d observations, want 2", len(observations))
	}

	// Rows arrive newest first; ordering is FetchDailyDemand's job
	wantDate := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	if !observations[0].Timestamp.Equal(wantDate) {
		t.Errorf("Timestamp = %v, want %v", observations[0].Timestamp, wantDate)
	}
	if observations[0].Value != 72431.5 {
		t.Errorf("Value = %v, want 72431.5", observations[0].Value)
	}

	wantLast := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if !lastDate.Equal(wantLast) {
		t.Errorf("lastDate = %v, want %v", lastDate, wantLast)
	}

	// hasMore should be false (no pagination links in sample)
	if hasMore {
		t.Error("parseDemandHTML() hasMore = true, want false")
	}
}

func TestParseDemandHTMLNoTable(t *testing.T) {
	html := "<html><body></body></html>"
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	c := &Client{}
	observations, lastDate, hasMore := c.parseDemandHTML(html, from, to)

	if len(observations) != 0 {
		t.Errorf("parseDemandHTML() got %d observations, want 0", len(observations))
	}
	if !lastDate.IsZero() {
		t.Error("parseDemandHTML() lastDate should be zero")
	}
	if hasMore {
		t.Error("parseDemandHTML() hasMore = true, want false")
	}
}

func TestParseDemandHTMLDateFilter(t *testing.T) {
	html := `
		<html>
		<body>
		<table class="tbl_list">
			<tr>
				<td>2024.02.15</td>
				<td>85,120</td>
				<td>72,431.5</td>
			</tr>
			<tr>
				<td>2024.01.15</td>
				<td>84,905</td>
				<td>71,980.2</td>
			</tr>
		</table>
		</body>
		</html>
	`

	// Filter: only January 2024
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	c := &Client{}
	observations, _, _ := c.parseDemandHTML(html, from, to)

	if len(observations) != 1 {
		t.Fatalf("parseDemandHTML() with date filter got %d observations, want 1", len(observations))
	}

	wantDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if !observations[0].Timestamp.Equal(wantDate) {
		t.Errorf("Filtered timestamp = %v, want %v", observations[0].Timestamp, wantDate)
	}
}

func TestFetchDailyDemand(t *testing.T) {
	var gotBgnDe string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBgnDe = r.URL.Query().Get("searchBgnDe")
		w.Write([]byte(samplePage))
	}))
	defer server.Close()

	cfg := config.GridPortalConfig{BaseURL: server.URL, RatePerSecond: 100}
	c := NewClient(cfg, httputil.New(testLogger()), testLogger())

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	ts, err := c.FetchDailyDemand(context.Background(), from, to)
	if err != nil {
		t.Fatalf("FetchDailyDemand: %v", err)
	}

	if gotBgnDe != "20240101" {
		t.Errorf("searchBgnDe = %s, want 20240101", gotBgnDe)
	}

	if ts.Len() != 2 {
		t.Fatalf("len = %d, want 2", ts.Len())
	}

	// Ascending order after collection
	if !ts.Observations[0].Timestamp.Before(ts.Observations[1].Timestamp) {
		t.Error("observations not in ascending order")
	}
	if ts.Observations[0].Value != 71980.2 {
		t.Errorf("first value = %v, want 71980.2", ts.Observations[0].Value)
	}
}

func TestFetchDailyDemandNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body></body></html>"))
	}))
	defer server.Close()

	cfg := config.GridPortalConfig{BaseURL: server.URL, RatePerSecond: 100}
	c := NewClient(cfg, httputil.New(testLogger()), testLogger())

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	_, err := c.FetchDailyDemand(context.Background(), from, to)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}
