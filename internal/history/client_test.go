package history

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ymorita/kabuscan/pkg/httputil"
	"github.com/ymorita/kabuscan/pkg/logger"
)

const chartFixture = `{
  "chart": {
    "result": [
      {
        "meta": {"symbol": "7203.T", "regularMarketPrice": 2500},
        "indicators": {
          "quote": [
            {
              "close": [2400, null, 2450, 2500],
              "high": [2480, null, 2470, 2520],
              "low": [2380, null, 2430, 2490],
              "volume": [1000000, null, 1200000, 800000]
            }
          ]
        }
      }
    ],
    "error": null
  }
}`

const profileFixture = `<html><body>
<h1>トヨタ自動車(株)</h1>
<dl><dt>時価総額</dt><dd>40,000,000百万円</dd></dl>
<dl><dt>PER(会社予想)</dt><dd>10.5倍</dd></dl>
<table>
<tr><th>PBR(実績)</th><td>1.2倍</td></tr>
<tr><th>配当利回り(会社予想)</th><td>2.8%</td></tr>
</table>
<a href="/stocks/sector?ids=3700">輸送用機器</a>
</body></html>`

func newHistoryServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/chart/") {
			fmt.Fprint(w, chartFixture)
			return
		}
		fmt.Fprint(w, profileFixture)
	}))
}

func newHistoryClient(serverURL string) *Client {
	log := logger.Nop()
	return NewClient(httputil.New(log), serverURL+"/v8/finance/chart", serverURL+"/quote", log)
}

func TestHistory(t *testing.T) {
	server := newHistoryServer(t)
	defer server.Close()

	client := newHistoryClient(server.URL)

	h, err := client.History(context.Background(), "7203")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}

	// Null slots dropped, all series stay aligned.
	if len(h.Close) != 3 || len(h.High) != 3 || len(h.Low) != 3 || len(h.Volume) != 3 {
		t.Fatalf("series lengths = %d/%d/%d/%d, want 3 each",
			len(h.Close), len(h.High), len(h.Low), len(h.Volume))
	}
	if h.LatestClose() != 2500 {
		t.Errorf("LatestClose() = %v, want 2500", h.LatestClose())
	}
	if h.YTDHigh() != 2520 {
		t.Errorf("YTDHigh() = %v, want 2520", h.YTDHigh())
	}
	if h.YTDLow() != 2380 {
		t.Errorf("YTDLow() = %v, want 2380", h.YTDLow())
	}
	if want := (1000000.0 + 1200000.0 + 800000.0) / 3; math.Abs(h.AvgVolume-want) > 0.01 {
		t.Errorf("AvgVolume = %v, want %v", h.AvgVolume, want)
	}

	if h.CompanyName != "トヨタ自動車(株)" {
		t.Errorf("CompanyName = %q", h.CompanyName)
	}
	if h.MarketCap != 40000000 {
		t.Errorf("MarketCap = %v, want 40000000", h.MarketCap)
	}
	if h.PER != 10.5 {
		t.Errorf("PER = %v, want 10.5", h.PER)
	}
	if h.PBR != 1.2 {
		t.Errorf("PBR = %v, want 1.2", h.PBR)
	}
	if h.DividendYield != 2.8 {
		t.Errorf("DividendYield = %v, want 2.8", h.DividendYield)
	}
	if h.Sector != "輸送用機器" {
		t.Errorf("Sector = %q, want 輸送用機器", h.Sector)
	}
}

func TestHistoryProfileFailureTolerated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/chart/") {
			fmt.Fprint(w, chartFixture)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newHistoryClient(server.URL)

	h, err := client.History(context.Background(), "7203")
	if err != nil {
		t.Fatalf("History() error = %v, want nil when only the profile fails", err)
	}
	if len(h.Close) != 3 {
		t.Errorf("series length = %d, want 3", len(h.Close))
	}
	if h.MarketCap != 0 || h.Sector != "" {
		t.Error("fundamentals should stay zero-valued when the profile is unavailable")
	}
}

func TestHistoryChartError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer server.Close()

	client := newHistoryClient(server.URL)

	if _, err := client.History(context.Background(), "0000"); err == nil {
		t.Fatal("History() error = nil, want chart API error")
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"10.5倍", 10.5},
		{"40,000,000百万円", 40000000},
		{"2.8%", 2.8},
		{"-3.2", -3.2},
		{"---", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := parseNumber(tt.in); got != tt.want {
			t.Errorf("parseNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
