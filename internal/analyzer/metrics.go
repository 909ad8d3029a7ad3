package analyzer

import "math"

// Trading days per year, used to annualize daily dispersion.
const tradingDays = 252

// YTDHighRatio is the current price as a percentage of the yearly high.
// A zero high yields NaN, never a panic.
func YTDHighRatio(price, ytdHigh float64) float64 {
	if ytdHigh == 0 {
		return math.NaN()
	}
	return price / ytdHigh * 100
}

// YTDLowDistance is how far the current price sits above the yearly low,
// in percent. A zero low yields NaN.
func YTDLowDistance(price, ytdLow float64) float64 {
	if ytdLow == 0 {
		return math.NaN()
	}
	return (price - ytdLow) / ytdLow * 100
}

// ChangeRate is (to - from) / from * 100, NaN when from is zero.
func ChangeRate(from, to float64) float64 {
	if from == 0 {
		return math.NaN()
	}
	return (to - from) / from * 100
}

// MaxDrawdown is the fall from the yearly high to the yearly low, in
// percent (a negative number). A non-positive high yields 0.
func MaxDrawdown(ytdHigh, ytdLow float64) float64 {
	if ytdHigh <= 0 {
		return 0
	}
	return (ytdLow - ytdHigh) / ytdHigh * 100
}

// SMA is the simple moving average of the trailing window. When the
// series is shorter than the window the latest close stands in, so the
// trend comparison degrades to neutral instead of failing.
func SMA(closes []float64, window int) float64 {
	if len(closes) == 0 {
		return 0
	}
	if window < 1 || len(closes) < window {
		return closes[len(closes)-1]
	}
	sum := 0.0
	for _, v := range closes[len(closes)-window:] {
		sum += v
	}
	return sum / float64(window)
}

// Volatility is the annualized standard deviation of daily returns, in
// percent. Fewer than three closes yield 0. The result is never negative.
func Volatility(closes []float64) float64 {
	if len(closes) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(tradingDays) * 100
}
