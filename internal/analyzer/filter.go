package analyzer

import "math"

// Criteria filters an analyzed dataset. Nil fields are ignored; set
// bounds are inclusive. NaN metrics never satisfy a bound, so rows
// with undefined ratios drop out of any bounded filter.
type Criteria struct {
	MinRecoveryScore *float64
	MinOverallScore  *float64
	MinRecoveryFrom  *float64 // % above the yearly low
	MinYTDReturn     *float64
	MinHighReturn    *float64
	MaxPBR           *float64
	MinDividendYield *float64
	MinMarketCap     *float64
	MaxMarketCap     *float64
	Sectors          []string
}

// Apply returns the rows satisfying every set bound.
func (c Criteria) Apply(rows []Analysis) []Analysis {
	var out []Analysis
	for _, row := range rows {
		if c.matches(row) {
			out = append(out, row)
		}
	}
	return out
}

func (c Criteria) matches(a Analysis) bool {
	if !atLeast(c.MinRecoveryScore, a.RecoveryScore) {
		return false
	}
	if !atLeast(c.MinOverallScore, a.OverallScore) {
		return false
	}
	if !atLeast(c.MinRecoveryFrom, a.RecoveryFromLow) {
		return false
	}
	if !atLeast(c.MinYTDReturn, a.YTDReturn) {
		return false
	}
	if !atLeast(c.MinHighReturn, a.HighReturn) {
		return false
	}
	if !atLeast(c.MinMarketCap, a.MarketCap) {
		return false
	}
	if c.MaxMarketCap != nil && (math.IsNaN(a.MarketCap) || a.MarketCap > *c.MaxMarketCap) {
		return false
	}
	if !atLeast(c.MinDividendYield, a.DividendYield) {
		return false
	}
	if c.MaxPBR != nil && (math.IsNaN(a.PBR) || a.PBR == 0 || a.PBR > *c.MaxPBR) {
		return false
	}
	if len(c.Sectors) > 0 && !containsString(c.Sectors, a.Sector) {
		return false
	}
	return true
}

func atLeast(bound *float64, v float64) bool {
	if bound == nil {
		return true
	}
	return !math.IsNaN(v) && v >= *bound
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Float is a convenience for building Criteria literals.
func Float(v float64) *float64 { return &v }
