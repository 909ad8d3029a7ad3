package analyzer

import (
	"math"
	"sort"
)

// WorstPerformers returns the n detailed rows with the deepest fall from
// the year-start price, most negative first. Rows without a defined
// decline are excluded.
func WorstPerformers(rows []Analysis, n int) []Analysis {
	var eligible []Analysis
	for _, row := range rows {
		if row.Detailed && !math.IsNaN(row.LowDecline) {
			eligible = append(eligible, row)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].LowDecline < eligible[j].LowDecline
	})

	if n > len(eligible) {
		n = len(eligible)
	}
	return eligible[:n]
}

// GroupCount is one bucket of a categorical breakdown.
type GroupCount struct {
	Name  string
	Count int
}

// Summary aggregates an analyzed dataset for the report output.
// Averages are NaN when no row carried the figure.
type Summary struct {
	Total              int
	AvgLowDecline      float64
	MinLowDecline      float64
	MaxLowDecline      float64
	AvgRecoveryFromLow float64
	AvgRecoveryScore   float64
	Sectors            []GroupCount
	Markets            []GroupCount
}

// Summarize builds the report aggregates over all rows. Undefined
// metrics are skipped per figure, never poisoning the averages.
func Summarize(rows []Analysis) Summary {
	s := Summary{
		Total:         len(rows),
		AvgLowDecline: math.NaN(),
		MinLowDecline: math.NaN(),
		MaxLowDecline: math.NaN(),
	}

	var declineSum float64
	var declineN int
	var recoverySum float64
	var recoveryN int
	var scoreSum float64
	var scoreN int

	sectors := make(map[string]int)
	markets := make(map[string]int)

	for _, row := range rows {
		if row.Detailed && !math.IsNaN(row.LowDecline) {
			declineSum += row.LowDecline
			declineN++
			if math.IsNaN(s.MinLowDecline) || row.LowDecline < s.MinLowDecline {
				s.MinLowDecline = row.LowDecline
			}
			if math.IsNaN(s.MaxLowDecline) || row.LowDecline > s.MaxLowDecline {
				s.MaxLowDecline = row.LowDecline
			}
		}
		if row.Detailed && !math.IsNaN(row.RecoveryFromLow) {
			recoverySum += row.RecoveryFromLow
			recoveryN++
		}
		if row.Detailed {
			scoreSum += row.RecoveryScore
			scoreN++
		}
		if row.Sector != "" {
			sectors[row.Sector]++
		}
		if row.Record.Market != "" {
			markets[row.Record.Market]++
		}
	}

	s.AvgRecoveryFromLow = math.NaN()
	s.AvgRecoveryScore = math.NaN()
	if declineN > 0 {
		s.AvgLowDecline = declineSum / float64(declineN)
	}
	if recoveryN > 0 {
		s.AvgRecoveryFromLow = recoverySum / float64(recoveryN)
	}
	if scoreN > 0 {
		s.AvgRecoveryScore = scoreSum / float64(scoreN)
	}

	s.Sectors = sortedCounts(sectors)
	s.Markets = sortedCounts(markets)
	return s
}

func sortedCounts(m map[string]int) []GroupCount {
	out := make([]GroupCount, 0, len(m))
	for name, count := range m {
		out = append(out, GroupCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
