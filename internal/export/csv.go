package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ymorita/kabuscan/internal/analyzer"
	"github.com/ymorita/kabuscan/internal/ranking"
	"github.com/ymorita/kabuscan/pkg/logger"
)

// utf8BOM keeps Japanese headers readable when the file is opened in
// spreadsheet software that sniffs the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer saves collection and analysis results as CSV files.
// ⭐ SSOT: CSV出力はこの型でのみ行う
type Writer struct {
	dir    string
	logger *logger.Logger
}

func NewWriter(dir string, log *logger.Logger) *Writer {
	return &Writer{dir: dir, logger: log}
}

// WriteRecords saves raw ranking rows. The price columns follow the
// positional layout of the category's page schema.
func (w *Writer) WriteRecords(records []ranking.StockRecord, category ranking.Category, filename string) (string, error) {
	schema, ok := ranking.DefaultSchemas()[category]
	if !ok {
		return "", fmt.Errorf("no schema for category %s", category)
	}

	header := []string{"rank", "code", "name", "market", "url", "scraped_at"}
	header = append(header, schema.PriceColumns...)

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.Rank),
			rec.Code,
			rec.Name,
			rec.Market,
			rec.URL,
			rec.ScrapedAt.Format(time.RFC3339),
		}
		for _, col := range schema.PriceColumns {
			v, _ := rec.Field(col)
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	return w.write(filename, header, rows)
}

var analysisHeader = []string{
	"rank", "code", "name", "market",
	"company_name", "sector", "industry",
	"current_price", "ytd_high", "ytd_low", "year_start_price",
	"ytd_high_ratio", "ytd_low_distance", "ytd_return_pct", "high_return_pct",
	"low_decline_pct", "recovery_from_low_pct", "max_drawdown_pct",
	"sma_20", "sma_50", "volatility_pct",
	"market_cap", "pe_ratio", "pb_ratio", "dividend_yield", "avg_volume",
	"recovery_score", "value_score", "risk_score", "overall_score",
}

// WriteAnalyses saves enriched rows with their derived metrics.
// Undefined ratios serialize as empty cells.
func (w *Writer) WriteAnalyses(rows []analyzer.Analysis, filename string) (string, error) {
	out := make([][]string, 0, len(rows))
	for _, a := range rows {
		out = append(out, []string{
			strconv.Itoa(a.Record.Rank),
			a.Record.Code,
			a.Record.Name,
			a.Record.Market,
			a.CompanyName,
			a.Sector,
			a.Industry,
			num(a.CurrentPrice),
			num(a.YTDHigh),
			num(a.YTDLow),
			num(a.YearStartPrice),
			num(a.YTDHighRatio),
			num(a.YTDLowDistance),
			num(a.YTDReturn),
			num(a.HighReturn),
			num(a.LowDecline),
			num(a.RecoveryFromLow),
			num(a.MaxDrawdown),
			num(a.SMA20),
			num(a.SMA50),
			num(a.Volatility),
			num(a.MarketCap),
			num(a.PER),
			num(a.PBR),
			num(a.DividendYield),
			num(a.AvgVolume),
			num(a.RecoveryScore),
			num(a.ValueScore),
			num(a.RiskScore),
			num(a.OverallScore),
		})
	}

	return w.write(filename, analysisHeader, out)
}

func (w *Writer) write(filename string, header []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", w.dir, err)
	}

	path := filepath.Join(w.dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return "", fmt.Errorf("write BOM to %s: %w", path, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("write header to %s: %w", path, err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("write row to %s: %w", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", path, err)
	}

	w.logger.WithFields(map[string]interface{}{
		"path": path,
		"rows": len(rows),
	}).Info("Saved CSV file")

	return path, nil
}

// num formats a metric, leaving undefined values as an empty cell.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Timestamped builds a filename like prefix_20260830_153000.csv.
func Timestamped(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.Format("20060102_150405"))
}
