package ranking

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ymorita/kabuscan/pkg/httputil"
	"github.com/ymorita/kabuscan/pkg/logger"
)

var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "ja-JP,ja;q=0.9,en-US;q=0.8,en;q=0.7",
}

// FetchParams identifies one ranking page.
type FetchParams struct {
	Category Category
	Market   string
	Term     string
	Page     int
}

// Validate checks the parameters before any network activity.
func (p FetchParams) Validate() error {
	if !p.Category.Valid() {
		return &ValidationError{
			Param: "category",
			Value: string(p.Category),
			Hint:  fmt.Sprintf("must be one of %s", strings.Join(categoryNames(), ", ")),
		}
	}
	if !contains(ValidMarkets, p.Market) {
		return &ValidationError{
			Param: "market",
			Value: p.Market,
			Hint:  fmt.Sprintf("must be one of %s", strings.Join(ValidMarkets, ", ")),
		}
	}
	if !contains(ValidTerms, p.Term) {
		return &ValidationError{
			Param: "term",
			Value: p.Term,
			Hint:  fmt.Sprintf("must be one of %s", strings.Join(ValidTerms, ", ")),
		}
	}
	if p.Page < 1 {
		return &ValidationError{
			Param: "page",
			Value: p.Page,
			Hint:  "must be 1 or greater",
		}
	}
	return nil
}

// Client fetches ranking pages from the finance site.
// ⭐ SSOT: ランキングページのHTTP取得はこの型でのみ行う
type Client struct {
	httpClient *httputil.Client
	baseURL    string
	quoteBase  string
	logger     *logger.Logger
	extractors map[Category]*Extractor
}

// NewClient creates a ranking client over the shared HTTP client.
func NewClient(httpClient *httputil.Client, baseURL, quoteBase string, log *logger.Logger) *Client {
	httpClient.WithHeaders(browserHeaders)

	origin := siteOrigin(baseURL)
	extractors := make(map[Category]*Extractor)
	for cat, schema := range DefaultSchemas() {
		extractors[cat] = NewExtractor(schema, origin, quoteBase, log)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		quoteBase:  quoteBase,
		logger:     log,
		extractors: extractors,
	}
}

// PageURL builds the ranking page URL for the given parameters.
func (c *Client) PageURL(p FetchParams) string {
	q := url.Values{}
	q.Set("market", p.Market)
	q.Set("term", p.Term)
	q.Set("page", fmt.Sprintf("%d", p.Page))
	return fmt.Sprintf("%s/stocks/ranking/%s?%s", c.baseURL, p.Category, q.Encode())
}

// FetchPage retrieves and parses a single ranking page.
// Validation failures never reach the network.
func (c *Client) FetchPage(ctx context.Context, p FetchParams) ([]StockRecord, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	pageURL := c.PageURL(p)
	c.logger.WithFields(map[string]interface{}{
		"category": string(p.Category),
		"market":   p.Market,
		"term":     p.Term,
		"page":     p.Page,
	}).Info("Fetching ranking page")

	resp, err := c.httpClient.Get(ctx, pageURL)
	if err != nil {
		return nil, &NetworkError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &NetworkError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: pageURL, Err: err}
	}

	return c.extractors[p.Category].Extract(string(body))
}

// Throttle spaces consecutive page fetches.
type Throttle interface {
	Wait(ctx context.Context) error
}

type limiterThrottle struct {
	limiter *rate.Limiter
}

func (t *limiterThrottle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

type noopThrottle struct{}

func (noopThrottle) Wait(ctx context.Context) error { return nil }

// NewThrottle returns a throttle whose first Wait already blocks for the
// full interval. A non-positive interval disables throttling.
func NewThrottle(interval time.Duration) Throttle {
	if interval <= 0 {
		return noopThrottle{}
	}
	l := rate.NewLimiter(rate.Every(interval), 1)
	l.Allow() // drain the initial token
	return &limiterThrottle{limiter: l}
}

// CollectOptions drives a multi-page collection run.
type CollectOptions struct {
	Category Category
	Market   string
	Term     string
	MaxPages int
	Throttle Throttle
}

// Collect walks ranking pages in order and accumulates their records.
//
// An empty page ends the walk. A network or parse failure on page N is
// logged and ends the walk too, returning whatever pages 1..N-1 yielded;
// partial results are valid results. No delay follows the final page.
func (c *Client) Collect(ctx context.Context, opts CollectOptions) ([]StockRecord, error) {
	params := FetchParams{
		Category: opts.Category,
		Market:   opts.Market,
		Term:     opts.Term,
		Page:     1,
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxPages < 1 {
		return nil, &ValidationError{Param: "maxPages", Value: opts.MaxPages, Hint: "must be 1 or greater"}
	}

	throttle := opts.Throttle
	if throttle == nil {
		throttle = noopThrottle{}
	}

	var all []StockRecord
	for page := 1; page <= opts.MaxPages; page++ {
		params.Page = page

		records, err := c.FetchPage(ctx, params)
		if err != nil {
			c.logger.WithError(err).WithField("page", page).Warn("Page fetch failed, stopping collection")
			break
		}
		if len(records) == 0 {
			c.logger.WithField("page", page).Debug("Empty page, stopping collection")
			break
		}

		all = append(all, records...)

		if page < opts.MaxPages {
			if err := throttle.Wait(ctx); err != nil {
				return all, err
			}
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"category": string(opts.Category),
		"total":    len(all),
	}).Info("Ranking collection finished")

	return all, nil
}

func categoryNames() []string {
	cats := Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return names
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func siteOrigin(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return baseURL
	}
	return u.Scheme + "://" + u.Host
}
