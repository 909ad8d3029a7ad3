package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCriteriaApply(t *testing.T) {
	rows := []Analysis{
		{CompanyName: "A", RecoveryScore: 75, PBR: 0.9, Sector: "輸送用機器", DividendYield: 3.5, MarketCap: 5000},
		{CompanyName: "B", RecoveryScore: 60, PBR: 2.0, Sector: "情報・通信業", DividendYield: 1.0, MarketCap: 500},
		{CompanyName: "C", RecoveryScore: 70, PBR: 1.5, Sector: "輸送用機器", DividendYield: 2.0, MarketCap: 2000},
	}

	t.Run("min recovery score is inclusive", func(t *testing.T) {
		got := Criteria{MinRecoveryScore: Float(70)}.Apply(rows)
		assert.Len(t, got, 2)
		assert.Equal(t, "A", got[0].CompanyName)
		assert.Equal(t, "C", got[1].CompanyName)
	})

	t.Run("max pbr is inclusive", func(t *testing.T) {
		got := Criteria{MaxPBR: Float(1.5)}.Apply(rows)
		assert.Len(t, got, 2)
	})

	t.Run("sector set", func(t *testing.T) {
		got := Criteria{Sectors: []string{"輸送用機器"}}.Apply(rows)
		assert.Len(t, got, 2)
	})

	t.Run("combined", func(t *testing.T) {
		got := Criteria{
			MinRecoveryScore: Float(60),
			MaxPBR:           Float(1.5),
			MinDividendYield: Float(2.0),
		}.Apply(rows)
		assert.Len(t, got, 2)
	})

	t.Run("market cap band is inclusive on both ends", func(t *testing.T) {
		got := Criteria{MinMarketCap: Float(500), MaxMarketCap: Float(2000)}.Apply(rows)
		assert.Len(t, got, 2)
		assert.Equal(t, "B", got[0].CompanyName)
		assert.Equal(t, "C", got[1].CompanyName)
	})

	t.Run("empty criteria keeps everything", func(t *testing.T) {
		assert.Len(t, Criteria{}.Apply(rows), 3)
	})
}

func TestCriteriaExcludesUndefinedMetrics(t *testing.T) {
	rows := []Analysis{
		{CompanyName: "defined", YTDReturn: 10, PBR: 1.0},
		{CompanyName: "undefined", YTDReturn: math.NaN(), PBR: math.NaN()},
	}

	got := Criteria{MinYTDReturn: Float(-100)}.Apply(rows)
	assert.Len(t, got, 1)
	assert.Equal(t, "defined", got[0].CompanyName)

	got = Criteria{MaxPBR: Float(100)}.Apply(rows)
	assert.Len(t, got, 1)
}

func TestCriteriaMissingPBRFailsMaxBound(t *testing.T) {
	rows := []Analysis{{CompanyName: "no-pbr", PBR: 0}}
	assert.Empty(t, Criteria{MaxPBR: Float(1.5)}.Apply(rows))
}
