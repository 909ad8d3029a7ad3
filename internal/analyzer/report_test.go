package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymorita/kabuscan/internal/ranking"
)

func reportRow(code, market, sector string, lowDecline, recovery, score float64, detailed bool) Analysis {
	return Analysis{
		Record:          ranking.StockRecord{Code: code, Market: market},
		Sector:          sector,
		LowDecline:      lowDecline,
		RecoveryFromLow: recovery,
		RecoveryScore:   score,
		Detailed:        detailed,
	}
}

func TestWorstPerformers(t *testing.T) {
	rows := []Analysis{
		reportRow("1001", "東証PRM", "電気機器", -12.5, 4.0, 60, true),
		reportRow("1002", "東証STD", "銀行業", -48.0, 1.5, 70, true),
		reportRow("1003", "東証PRM", "電気機器", -30.2, 8.0, 55, true),
		reportRow("1004", "東証GRT", "", math.NaN(), 0, 0, true),
		reportRow("1005", "不明", "", 0, 0, 0, false),
	}

	worst := WorstPerformers(rows, 2)
	require.Len(t, worst, 2)
	assert.Equal(t, "1002", worst[0].Record.Code)
	assert.Equal(t, "1003", worst[1].Record.Code)
}

func TestWorstPerformersShortInput(t *testing.T) {
	rows := []Analysis{
		reportRow("1001", "東証PRM", "電気機器", -12.5, 4.0, 60, true),
	}
	assert.Len(t, WorstPerformers(rows, 10), 1)
	assert.Empty(t, WorstPerformers(nil, 5))
}

func TestSummarize(t *testing.T) {
	rows := []Analysis{
		reportRow("1001", "東証PRM", "電気機器", -10, 2, 60, true),
		reportRow("1002", "東証STD", "銀行業", -50, 6, 70, true),
		reportRow("1003", "東証PRM", "電気機器", -30, 4, 50, true),
		// Detail fetch failed: counted in total and market breakdown only.
		reportRow("1004", "東証GRT", "", 0, 0, 0, false),
	}

	s := Summarize(rows)
	assert.Equal(t, 4, s.Total)
	assert.InDelta(t, -30.0, s.AvgLowDecline, 0.001)
	assert.InDelta(t, -50.0, s.MinLowDecline, 0.001)
	assert.InDelta(t, -10.0, s.MaxLowDecline, 0.001)
	assert.InDelta(t, 4.0, s.AvgRecoveryFromLow, 0.001)
	assert.InDelta(t, 60.0, s.AvgRecoveryScore, 0.001)

	require.NotEmpty(t, s.Sectors)
	assert.Equal(t, GroupCount{Name: "電気機器", Count: 2}, s.Sectors[0])

	require.Len(t, s.Markets, 3)
	assert.Equal(t, GroupCount{Name: "東証PRM", Count: 2}, s.Markets[0])
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Total)
	assert.True(t, math.IsNaN(s.AvgLowDecline))
	assert.True(t, math.IsNaN(s.AvgRecoveryScore))
	assert.Empty(t, s.Sectors)
	assert.Empty(t, s.Markets)
}
