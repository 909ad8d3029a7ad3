package analyzer

import (
	"context"
	"math"
	"sort"

	"github.com/ymorita/kabuscan/internal/history"
	"github.com/ymorita/kabuscan/internal/ranking"
	"github.com/ymorita/kabuscan/pkg/logger"
)

// Analysis is one ranking row enriched with history-derived metrics.
// Metric fields stay zero (or NaN for undefined ratios) when the
// per-symbol detail fetch failed.
type Analysis struct {
	Record ranking.StockRecord

	CompanyName string
	Sector      string
	Industry    string

	CurrentPrice   float64
	YTDHigh        float64
	YTDLow         float64
	YearStartPrice float64

	YTDHighRatio    float64
	YTDLowDistance  float64
	YTDReturn       float64
	HighReturn      float64
	LowDecline      float64
	RecoveryFromLow float64
	MaxDrawdown     float64

	SMA20      float64
	SMA50      float64
	Volatility float64

	MarketCap     float64
	PER           float64
	PBR           float64
	DividendYield float64
	AvgVolume     float64

	RecoveryScore float64
	ValueScore    float64
	RiskScore     float64
	OverallScore  float64

	Detailed bool
}

// Analyzer enriches collected ranking rows with per-symbol history.
// ⭐ SSOT: 派生指標とスコアの計算はこのパッケージでのみ行う
type Analyzer struct {
	provider    history.Provider
	logger      *logger.Logger
	detailLimit int
	throttle    ranking.Throttle
}

// New creates an analyzer. detailLimit caps how many rows get a detail
// fetch; throttle spaces those fetches and may be nil.
func New(provider history.Provider, detailLimit int, throttle ranking.Throttle, log *logger.Logger) *Analyzer {
	if throttle == nil {
		throttle = ranking.NewThrottle(0)
	}
	return &Analyzer{
		provider:    provider,
		logger:      log,
		detailLimit: detailLimit,
		throttle:    throttle,
	}
}

// Analyze fetches history for the leading rows and computes metrics.
// A failed detail fetch keeps the bare row in the output; partial
// enrichment is a valid result.
func (a *Analyzer) Analyze(ctx context.Context, records []ranking.StockRecord) ([]Analysis, error) {
	limit := len(records)
	if a.detailLimit > 0 && limit > a.detailLimit {
		limit = a.detailLimit
	}

	a.logger.WithFields(map[string]interface{}{
		"records": len(records),
		"detail":  limit,
	}).Info("Starting analysis")

	results := make([]Analysis, 0, limit)
	for i := 0; i < limit; i++ {
		rec := records[i]

		h, err := a.provider.History(ctx, rec.Code)
		if err != nil {
			a.logger.WithError(err).WithField("code", rec.Code).Warn("Detail fetch failed, keeping base row")
			results = append(results, Analysis{Record: rec})
		} else {
			results = append(results, buildAnalysis(rec, h))
		}

		if i < limit-1 {
			if err := a.throttle.Wait(ctx); err != nil {
				return results, err
			}
		}
	}

	return results, nil
}

func buildAnalysis(rec ranking.StockRecord, h *history.StockHistory) Analysis {
	price := h.LatestClose()
	high := h.YTDHigh()
	low := h.YTDLow()

	yearStart := 0.0
	if len(h.Close) > 0 {
		yearStart = h.Close[0]
	}

	a := Analysis{
		Record:         rec,
		CompanyName:    h.CompanyName,
		Sector:         h.Sector,
		Industry:       h.Industry,
		CurrentPrice:   price,
		YTDHigh:        high,
		YTDLow:         low,
		YearStartPrice: yearStart,

		YTDHighRatio:    YTDHighRatio(price, high),
		YTDLowDistance:  YTDLowDistance(price, low),
		YTDReturn:       ChangeRate(yearStart, price),
		HighReturn:      ChangeRate(yearStart, high),
		LowDecline:      ChangeRate(yearStart, low),
		RecoveryFromLow: YTDLowDistance(price, low),
		MaxDrawdown:     MaxDrawdown(high, low),

		SMA20:      SMA(h.Close, 20),
		SMA50:      SMA(h.Close, 50),
		Volatility: Volatility(h.Close),

		MarketCap:     h.MarketCap,
		PER:           h.PER,
		PBR:           h.PBR,
		DividendYield: h.DividendYield,
		AvgVolume:     h.AvgVolume,

		Detailed: true,
	}

	in := ScoreInputs{
		RecoveryFromLow: nanToZero(a.RecoveryFromLow),
		LowDecline:      nanToZero(a.LowDecline),
		YTDHighRatio:    nanToZero(a.YTDHighRatio),
		PER:             a.PER,
		PBR:             a.PBR,
		DividendYield:   a.DividendYield,
		MarketCap:       a.MarketCap,
		CurrentPrice:    a.CurrentPrice,
		SMA20:           a.SMA20,
		SMA50:           a.SMA50,
		Volatility:      a.Volatility,
		MaxDrawdown:     a.MaxDrawdown,
		AvgVolume:       a.AvgVolume,
	}

	a.RecoveryScore = RecoveryScore(in)
	a.ValueScore = ValueScore(in)
	a.RiskScore = RiskScore(in)
	a.OverallScore = OverallScore(a.RecoveryScore, a.ValueScore, a.RiskScore)

	return a
}

// SortByScore orders rows best-first by the given score selector.
func SortByScore(rows []Analysis, score func(Analysis) float64) {
	sort.SliceStable(rows, func(i, j int) bool {
		return score(rows[i]) > score(rows[j])
	})
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
