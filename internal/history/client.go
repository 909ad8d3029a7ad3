package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ymorita/kabuscan/pkg/httputil"
	"github.com/ymorita/kabuscan/pkg/logger"
)

// Client fetches one-year daily price series from the chart API and
// fundamentals from the per-symbol quote page.
// ⭐ SSOT: 個別銘柄の時系列・基本情報の取得はこの型でのみ行う
type Client struct {
	httpClient *httputil.Client
	chartBase  string
	quoteBase  string
	logger     *logger.Logger
}

func NewClient(httpClient *httputil.Client, chartBase, quoteBase string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		chartBase:  chartBase,
		quoteBase:  quoteBase,
		logger:     log,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol       string  `json:"symbol"`
				RegularPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History fetches the price series and fundamentals for one symbol.
// The series is required; a profile failure degrades to zero-valued
// fundamentals with a warning.
func (c *Client) History(ctx context.Context, code string) (*StockHistory, error) {
	h, err := c.fetchChart(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := c.fetchProfile(ctx, code, h); err != nil {
		c.logger.WithError(err).WithField("code", code).Warn("Profile fetch failed, continuing with series only")
	}

	return h, nil
}

func (c *Client) fetchChart(ctx context.Context, code string) (*StockHistory, error) {
	chartURL := fmt.Sprintf("%s/%s.T?range=1y&interval=1d", c.chartBase, code)

	resp, err := c.httpClient.Get(ctx, chartURL)
	if err != nil {
		return nil, fmt.Errorf("chart request for %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("chart request for %s: status %d", code, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("chart request for %s: %w", code, err)
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("chart decode for %s: %w", code, err)
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", code, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart response for %s has no series", code)
	}

	quote := parsed.Chart.Result[0].Indicators.Quote[0]
	h := &StockHistory{Code: code}

	// Null entries mark non-trading slots and are dropped across all
	// series at the same index to keep them aligned.
	for i := range quote.Close {
		if quote.Close[i] == nil {
			continue
		}
		h.Close = append(h.Close, *quote.Close[i])
		h.High = append(h.High, deref(quote.High, i, *quote.Close[i]))
		h.Low = append(h.Low, deref(quote.Low, i, *quote.Close[i]))
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			h.Volume = append(h.Volume, *quote.Volume[i])
		} else {
			h.Volume = append(h.Volume, 0)
		}
	}

	if len(h.Volume) > 0 {
		var sum int64
		for _, v := range h.Volume {
			sum += v
		}
		h.AvgVolume = float64(sum) / float64(len(h.Volume))
	}

	c.logger.WithFields(map[string]interface{}{
		"code": code,
		"days": len(h.Close),
	}).Debug("Fetched price series")

	return h, nil
}

// Profile page labels on the quote detail tables.
var profileFields = map[string]func(h *StockHistory, v string){
	"時価総額":  func(h *StockHistory, v string) { h.MarketCap = parseNumber(v) },
	"PER":   func(h *StockHistory, v string) { h.PER = parseNumber(v) },
	"PBR":   func(h *StockHistory, v string) { h.PBR = parseNumber(v) },
	"配当利回り": func(h *StockHistory, v string) { h.DividendYield = parseNumber(v) },
}

func (c *Client) fetchProfile(ctx context.Context, code string, h *StockHistory) error {
	profileURL := fmt.Sprintf("%s/%s.T", c.quoteBase, code)

	resp, err := c.httpClient.Get(ctx, profileURL)
	if err != nil {
		return fmt.Errorf("profile request for %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("profile request for %s: status %d", code, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("profile parse for %s: %w", code, err)
	}

	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		h.CompanyName = title
	}

	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		label := strings.TrimSpace(dl.Find("dt").First().Text())
		value := strings.TrimSpace(dl.Find("dd").First().Text())
		applyProfileField(h, label, value)
	})
	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		label := strings.TrimSpace(tr.Find("th").First().Text())
		value := strings.TrimSpace(tr.Find("td").First().Text())
		applyProfileField(h, label, value)
	})

	// 業種 links carry the sector classification.
	doc.Find(`a[href*="/stocks/sector"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if s := strings.TrimSpace(a.Text()); s != "" {
			h.Sector = s
			return false
		}
		return true
	})

	return nil
}

func applyProfileField(h *StockHistory, label, value string) {
	for key, apply := range profileFields {
		if strings.Contains(label, key) && value != "" {
			apply(h, value)
		}
	}
}

var numberPattern = regexp.MustCompile(`-?[\d,]+(?:\.\d+)?`)

// parseNumber pulls the first numeric token out of a label like
// "12.34倍" or "45,600百万円". Unparseable input yields 0.
func parseNumber(s string) float64 {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func deref(series []*float64, i int, fallback float64) float64 {
	if i < len(series) && series[i] != nil {
		return *series[i]
	}
	return fallback
}
