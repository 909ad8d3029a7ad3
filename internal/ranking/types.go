package ranking

import (
	"regexp"
	"time"
)

// Category identifies a Yahoo Finance Japan ranking page.
type Category string

const (
	CategoryStopHigh Category = "stopHigh"       // ストップ高
	CategoryStopLow  Category = "stopLow"        // ストップ安
	CategoryYTDHigh  Category = "yearToDateHigh" // 年初来高値
	CategoryYTDLow   Category = "yearToDateLow"  // 年初来安値
)

// Categories returns all supported ranking categories.
func Categories() []Category {
	return []Category{CategoryStopHigh, CategoryStopLow, CategoryYTDHigh, CategoryYTDLow}
}

// Valid reports whether the category is supported.
func (c Category) Valid() bool {
	for _, cat := range Categories() {
		if c == cat {
			return true
		}
	}
	return false
}

// ValidMarkets lists accepted market query values.
var ValidMarkets = []string{"all", "tokyo", "osaka", "nagoya", "sapporo", "fukuoka"}

// ValidTerms lists accepted term query values.
var ValidTerms = []string{"daily", "weekly", "monthly"}

// MarketUnknown is the sentinel used when a row carries no market label.
const MarketUnknown = "不明"

// StockRecord is one normalized row from a ranking page.
//
// Rank restarts at 1 on every page; duplicates across pages are accepted,
// the source does not renumber. Code may be a synthesized placeholder when
// no real code could be extracted; that is a degraded state, not an error.
type StockRecord struct {
	Rank      int
	Code      string
	Name      string
	Market    string
	URL       string
	ScrapedAt time.Time

	// PriceFields holds the positional price cells keyed by the schema's
	// column names. A missing key means the source row lacked that column.
	PriceFields map[string]string
}

// Field returns a positional price field and whether it was present.
func (r StockRecord) Field(name string) (string, bool) {
	v, ok := r.PriceFields[name]
	return v, ok
}

// SetField records a positional price field, allocating lazily.
func (r *StockRecord) SetField(name, value string) {
	if r.PriceFields == nil {
		r.PriceFields = make(map[string]string)
	}
	r.PriceFields[name] = value
}

// PageSchema captures the per-category extraction strategy: selector
// priority, positional column names, and code-extraction patterns.
// The near-duplicate upstream scripts differ only in these values.
type PageSchema struct {
	Category Category

	// Selectors is tried in order; the first one yielding more than one
	// row wins (the first row is always treated as a header).
	Selectors []string

	// PriceColumns names the cells from index 2 onward, positionally.
	PriceColumns []string

	// CodePatterns is tried in order against the anchor href. The first
	// submatch is the stock code; a trailing exchange suffix is stripped.
	CodePatterns []*regexp.Regexp

	// PlaceholderFormat synthesizes a code from the row position when
	// every extraction strategy fails, e.g. "UNK%d" or "UNKNOWN_%d".
	PlaceholderFormat string
}

var (
	codeQueryPattern = regexp.MustCompile(`code=([^&]+)`)
	codePathPattern  = regexp.MustCompile(`/(?:detail|quote)/([^/?]+)`)
	codeDigitPattern = regexp.MustCompile(`(\d{4})`)
)

var defaultSelectors = []string{
	`div[data-module="RankingResult"] table tr`,
	`table.rankingTable tr`,
	`table tr`,
	`div.RankingResult table tr`,
	`[data-ranking] tr`,
	`.rankingTable tr`,
}

var defaultCodePatterns = []*regexp.Regexp{codeQueryPattern, codePathPattern}

// DefaultSchemas returns the extraction schema for every supported
// category. The column layouts mirror the source site's table variants
// and must be preserved exactly.
func DefaultSchemas() map[Category]PageSchema {
	return map[Category]PageSchema{
		CategoryStopHigh: {
			Category:          CategoryStopHigh,
			Selectors:         defaultSelectors,
			PriceColumns:      []string{"current_price", "price_change", "price_change_rate"},
			CodePatterns:      defaultCodePatterns,
			PlaceholderFormat: "UNK%d",
		},
		CategoryStopLow: {
			Category:          CategoryStopLow,
			Selectors:         defaultSelectors,
			PriceColumns:      []string{"current_price", "change_value", "change_rate", "volume", "additional_info"},
			CodePatterns:      defaultCodePatterns,
			PlaceholderFormat: "UNKNOWN_%d",
		},
		CategoryYTDHigh: {
			Category:          CategoryYTDHigh,
			Selectors:         defaultSelectors,
			PriceColumns:      []string{"current_info", "ytd_high_info", "additional_info"},
			CodePatterns:      defaultCodePatterns,
			PlaceholderFormat: "UNKNOWN_%d",
		},
		CategoryYTDLow: {
			Category:          CategoryYTDLow,
			Selectors:         defaultSelectors,
			PriceColumns:      []string{"current_info", "ytd_low_info", "additional_info"},
			CodePatterns:      defaultCodePatterns,
			PlaceholderFormat: "UNKNOWN_%d",
		},
	}
}
