package analyzer

import "math"

// ScoreInputs collects the figures the composite scores draw on.
// A zero (or NaN) field means the figure is unavailable; the
// corresponding term contributes nothing rather than poisoning the
// score. Percentages are expressed as 2.8 for 2.8%.
type ScoreInputs struct {
	RecoveryFromLow float64 // % above the yearly low
	LowDecline      float64 // % fall from the year-start price to the low
	YTDHighRatio    float64 // price as % of the yearly high

	PER           float64
	PBR           float64
	DividendYield float64
	MarketCap     float64

	CurrentPrice float64
	SMA20        float64
	SMA50        float64

	Volatility  float64 // annualized %
	MaxDrawdown float64 // negative %
	AvgVolume   float64
}

// RecoveryScore rates rebound potential for beaten-down names.
// Base 50 plus weighted bonuses, clamped to [0, 100].
func RecoveryScore(in ScoreInputs) float64 {
	score := 50.0

	switch {
	case in.RecoveryFromLow > 20:
		score += 15
	case in.RecoveryFromLow > 10:
		score += 10
	case in.RecoveryFromLow > 5:
		score += 5
	}

	if present(in.PBR) {
		switch {
		case in.PBR < 1.0:
			score += 15
		case in.PBR < 1.5:
			score += 10
		}
	}

	if present(in.PER) && in.PER > 5 && in.PER < 15 {
		score += 10
	}

	if in.DividendYield > 3 {
		score += 10
	}

	if present(in.CurrentPrice) && present(in.SMA20) {
		if in.CurrentPrice > in.SMA20 && in.SMA20 > in.SMA50 {
			score += 15
		} else if in.CurrentPrice > in.SMA20 {
			score += 5
		}
	}

	if present(in.Volatility) && in.Volatility < 30 {
		score += 5
	}

	switch decline := math.Abs(in.LowDecline); {
	case decline > 50:
		score += 10
	case decline > 30:
		score += 5
	}

	return clamp(score)
}

// ValueScore rates how cheap the name looks on valuation multiples.
func ValueScore(in ScoreInputs) float64 {
	score := 50.0

	if present(in.PBR) {
		switch {
		case in.PBR < 1.0:
			score += 20
		case in.PBR < 1.5:
			score += 10
		}
	}

	if present(in.PER) {
		switch {
		case in.PER > 5 && in.PER < 15:
			score += 15
		case in.PER > 0 && in.PER < 25:
			score += 5
		}
	}

	switch {
	case in.DividendYield > 3:
		score += 15
	case in.DividendYield > 1.5:
		score += 5
	}

	return clamp(score)
}

// RiskScore rates downside exposure; higher means riskier.
func RiskScore(in ScoreInputs) float64 {
	score := 50.0

	if present(in.Volatility) {
		switch {
		case in.Volatility > 50:
			score += 20
		case in.Volatility > 30:
			score += 10
		}
	}

	switch drawdown := math.Abs(in.MaxDrawdown); {
	case drawdown > 50:
		score += 15
	case drawdown > 30:
		score += 5
	}

	if present(in.PBR) && in.PBR > 3 {
		score += 10
	}

	if present(in.AvgVolume) && in.AvgVolume < 10000 {
		score += 10
	}

	return clamp(score)
}

// OverallScore blends the composite scores into one [0, 100] figure.
// Lower risk raises it.
func OverallScore(recovery, value, risk float64) float64 {
	return clamp(0.4*recovery + 0.3*value + 0.3*(100-risk))
}

func present(v float64) bool {
	return v != 0 && !math.IsNaN(v)
}

func clamp(score float64) float64 {
	return math.Min(math.Max(score, 0), 100)
}
