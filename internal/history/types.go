package history

import "context"

// StockHistory bundles the per-symbol data the analysis stage consumes.
// Zero values mean the source did not expose the figure.
type StockHistory struct {
	Code        string
	CompanyName string
	Sector      string
	Industry    string

	MarketCap     float64 // 百万円
	PER           float64
	PBR           float64
	DividendYield float64 // %

	Close  []float64
	High   []float64
	Low    []float64
	Volume []int64

	AvgVolume float64
}

// YTDHigh returns the highest high in the series, 0 when empty.
func (h *StockHistory) YTDHigh() float64 {
	max := 0.0
	for _, v := range h.High {
		if v > max {
			max = v
		}
	}
	return max
}

// YTDLow returns the lowest low in the series, 0 when empty.
func (h *StockHistory) YTDLow() float64 {
	if len(h.Low) == 0 {
		return 0
	}
	min := h.Low[0]
	for _, v := range h.Low[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// LatestClose returns the most recent close, 0 when empty.
func (h *StockHistory) LatestClose() float64 {
	if len(h.Close) == 0 {
		return 0
	}
	return h.Close[len(h.Close)-1]
}

// Provider supplies per-symbol history to the analysis stage.
type Provider interface {
	History(ctx context.Context, code string) (*StockHistory, error)
}
