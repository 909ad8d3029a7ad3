package ranking

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ymorita/kabuscan/pkg/logger"
)

// debugRowLimit caps how many parsed rows are logged at debug level.
const debugRowLimit = 5

var (
	// window.mainRankingList = {...}; embedded by the ranking pages
	jsonAssignPattern = regexp.MustCompile(`(?s)window\.mainRankingList\s*=\s*(\{.*?\});`)
	// "mainRankingList": {...} object literal fallback
	jsonLiteralPattern = regexp.MustCompile(`(?s)"mainRankingList"\s*:\s*(\{.*?\})`)
)

// Extractor turns raw ranking page text into StockRecords.
// ⭐ SSOT: ランキングページの解析はこの型でのみ行う
//
// Two strategies run in priority order: the embedded JSON payload first,
// then the HTML table via the schema's selector chain. A JSON blob that
// is present but malformed surfaces a ParseError; absence of JSON is not
// an error and falls through to HTML.
type Extractor struct {
	schema    PageSchema
	origin    string // site origin prefixed to root-relative hrefs
	quoteBase string // per-symbol quote page base for JSON-path URLs
	logger    *logger.Logger
}

// NewExtractor creates an extractor for one page schema.
func NewExtractor(schema PageSchema, origin, quoteBase string, log *logger.Logger) *Extractor {
	return &Extractor{
		schema:    schema,
		origin:    origin,
		quoteBase: quoteBase,
		logger:    log,
	}
}

// Extract produces the ordered records found in the page body.
// "No data" is an empty slice, never an error.
func (e *Extractor) Extract(body string) ([]StockRecord, error) {
	records, err := e.extractFromJSON(body)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		e.logger.WithField("count", len(records)).Debug("Extracted records from embedded JSON")
		return records, nil
	}

	records = e.extractFromHTML(body)
	e.logger.WithField("count", len(records)).Debug("Extracted records from HTML table")
	return records, nil
}

// text tolerates JSON strings and numbers, normalizing to string.
// Missing or odd-typed values decode to "".
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*t = text(n.String())
		return nil
	}
	*t = ""
	return nil
}

type jsonStopPrice struct {
	ChangePrice     text `json:"changePrice"`
	ChangePriceRate text `json:"changePriceRate"`
	PreviousClose   text `json:"previousClose"`
}

type jsonEntry struct {
	StockCode  text `json:"stockCode"`
	StockName  text `json:"stockName"`
	MarketName text `json:"marketName"`
	SavePrice  text `json:"savePrice"`

	RankingResult struct {
		StopPrice *jsonStopPrice `json:"stopPrice"`
	} `json:"rankingResult"`
}

type jsonPayload struct {
	Results []jsonEntry `json:"results"`
}

// extractFromJSON searches for the embedded ranking payload.
// Not found: (nil, nil). Found but malformed: ParseError.
func (e *Extractor) extractFromJSON(body string) ([]StockRecord, error) {
	match := jsonAssignPattern.FindStringSubmatch(body)
	if match == nil {
		match = jsonLiteralPattern.FindStringSubmatch(body)
	}
	if match == nil {
		return nil, nil
	}

	e.logger.Debug("Found embedded JSON pattern in page")

	var payload jsonPayload
	if err := json.Unmarshal([]byte(match[1]), &payload); err != nil {
		return nil, &ParseError{Reason: "JSON decode failed for ranking payload", Err: err}
	}

	now := time.Now()
	records := make([]StockRecord, 0, len(payload.Results))
	for i, entry := range payload.Results {
		rec := StockRecord{
			// Rank is positional; any rank-like field in the payload is ignored.
			Rank:      i + 1,
			Code:      string(entry.StockCode),
			Name:      string(entry.StockName),
			Market:    string(entry.MarketName),
			URL:       fmt.Sprintf("%s/%s", e.quoteBase, entry.StockCode),
			ScrapedAt: now,
		}
		rec.SetField("current_price", string(entry.SavePrice))

		if sp := entry.RankingResult.StopPrice; sp != nil {
			rec.SetField("price_change", string(sp.ChangePrice))
			rec.SetField("price_change_rate", string(sp.ChangePriceRate))
			rec.SetField("previous_close", string(sp.PreviousClose))
		}

		records = append(records, rec)
	}

	return records, nil
}

// extractFromHTML walks the schema's selector chain and normalizes rows.
func (e *Extractor) extractFromHTML(body string) []StockRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		e.logger.WithError(err).Warn("HTML document parse failed")
		return nil
	}

	rows := e.findTableRows(doc)
	if rows == nil {
		e.logger.Warn("No data rows found in HTML table")
		return nil
	}

	now := time.Now()
	var records []StockRecord
	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header row
		}

		rec, ok := e.parseTableRow(row, i, now)
		if !ok {
			return
		}

		records = append(records, rec)
		if len(records) <= debugRowLimit {
			e.logger.WithFields(map[string]interface{}{
				"rank": rec.Rank,
				"code": rec.Code,
				"name": rec.Name,
			}).Debug("Parsed ranking row")
		}
	})

	return records
}

// findTableRows tries selectors from most to least specific and returns
// the first selection with more than one row (header plus data).
func (e *Extractor) findTableRows(doc *goquery.Document) *goquery.Selection {
	for _, selector := range e.schema.Selectors {
		rows := doc.Find(selector)
		if rows.Length() > 1 {
			e.logger.WithField("selector", selector).Debug("Selector matched data rows")
			return rows
		}
	}
	return nil
}

// parseTableRow normalizes one table row into a StockRecord.
// Any structural defect is a row-skip decision, never an abort.
func (e *Extractor) parseTableRow(row *goquery.Selection, rowIndex int, now time.Time) (StockRecord, bool) {
	cells := row.Find("td, th")
	if cells.Length() < 3 {
		return StockRecord{}, false
	}

	// Rank cell: trailing periods stripped, remainder must be all digits.
	// This also filters non-data rows that slipped through the selector.
	rankText := strings.ReplaceAll(strings.TrimSpace(cells.Eq(0).Text()), ".", "")
	rank, ok := parseRank(rankText)
	if !ok {
		return StockRecord{}, false
	}

	// A row without an anchor in the stock cell is never a data row.
	stockCell := cells.Eq(1)
	link := stockCell.Find("a").First()
	if link.Length() == 0 {
		return StockRecord{}, false
	}

	name := strings.TrimSpace(link.Text())
	if name == "" {
		return StockRecord{}, false
	}

	href := link.AttrOr("href", "")
	code := e.extractCode(stockCell, href, rowIndex)

	market := MarketUnknown
	if span := stockCell.Find("span").First(); span.Length() > 0 {
		if label := strings.TrimSpace(span.Text()); label != "" {
			market = label
		}
	}

	rec := StockRecord{
		Rank:      rank,
		Code:      code,
		Name:      name,
		Market:    market,
		URL:       e.buildURL(href),
		ScrapedAt: now,
	}

	// Remaining cells are mapped positionally per the schema.
	for k, column := range e.schema.PriceColumns {
		idx := 2 + k
		if idx >= cells.Length() {
			break
		}
		rec.SetField(column, strings.TrimSpace(cells.Eq(idx).Text()))
	}

	return rec, true
}

// extractCode runs the ordered fallback chain for the stock code:
// href patterns, 4-digit sequence in the cell text, then a synthesized
// placeholder derived from the row position.
func (e *Extractor) extractCode(stockCell *goquery.Selection, href string, rowIndex int) string {
	for _, pattern := range e.schema.CodePatterns {
		if m := pattern.FindStringSubmatch(href); m != nil {
			return strings.TrimSuffix(m[1], ".T")
		}
	}

	if m := codeDigitPattern.FindStringSubmatch(stockCell.Text()); m != nil {
		return m[1]
	}

	return fmt.Sprintf(e.schema.PlaceholderFormat, rowIndex)
}

// buildURL prefixes root-relative hrefs with the site origin.
func (e *Extractor) buildURL(href string) string {
	if strings.HasPrefix(href, "/") {
		return e.origin + href
	}
	return href
}

func parseRank(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	if n < 1 {
		return 0, false
	}
	return n, true
}
