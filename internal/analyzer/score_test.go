package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoveryScoreRange(t *testing.T) {
	inputs := []ScoreInputs{
		{}, // everything missing
		{
			RecoveryFromLow: 25,
			LowDecline:      -60,
			PBR:             0.8,
			PER:             10,
			DividendYield:   4,
			CurrentPrice:    1100,
			SMA20:           1050,
			SMA50:           1000,
			Volatility:      20,
		},
		{RecoveryFromLow: -10, Volatility: 80, PBR: 5},
	}

	for _, in := range inputs {
		score := RecoveryScore(in)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
		assert.False(t, math.IsNaN(score))
	}
}

func TestRecoveryScoreBaseline(t *testing.T) {
	// No inputs at all: the base score stands.
	assert.Equal(t, 50.0, RecoveryScore(ScoreInputs{}))
}

func TestRecoveryScoreAllBonuses(t *testing.T) {
	in := ScoreInputs{
		RecoveryFromLow: 25,  // +15
		PBR:             0.8, // +15
		PER:             10,  // +10
		DividendYield:   4,   // +10
		CurrentPrice:    1100,
		SMA20:           1050,
		SMA50:           1000, // uptrend +15
		Volatility:      20,   // +5
		LowDecline:      -60,  // +10
	}
	// 50 + 80 clamps to 100.
	assert.Equal(t, 100.0, RecoveryScore(in))
}

func TestRecoveryScoreMissingValuationIgnored(t *testing.T) {
	with := RecoveryScore(ScoreInputs{RecoveryFromLow: 25, PBR: 0.8})
	without := RecoveryScore(ScoreInputs{RecoveryFromLow: 25})
	assert.Greater(t, with, without)
	assert.Equal(t, 65.0, without)
}

func TestRecoveryScoreNaNInputTolerated(t *testing.T) {
	score := RecoveryScore(ScoreInputs{PBR: math.NaN(), PER: math.NaN(), Volatility: math.NaN()})
	assert.False(t, math.IsNaN(score))
	assert.Equal(t, 50.0, score)
}

func TestValueScore(t *testing.T) {
	cheap := ValueScore(ScoreInputs{PBR: 0.7, PER: 8, DividendYield: 4})
	expensive := ValueScore(ScoreInputs{PBR: 6, PER: 80, DividendYield: 0})
	assert.Greater(t, cheap, expensive)
	assert.Equal(t, 100.0, cheap)
	assert.Equal(t, 50.0, expensive)
}

func TestRiskScore(t *testing.T) {
	calm := RiskScore(ScoreInputs{Volatility: 15, MaxDrawdown: -10, PBR: 1.0, AvgVolume: 1e6})
	wild := RiskScore(ScoreInputs{Volatility: 70, MaxDrawdown: -60, PBR: 5, AvgVolume: 100})
	assert.Less(t, calm, wild)

	for _, s := range []float64{calm, wild} {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 100.0)
	}
}

func TestOverallScore(t *testing.T) {
	assert.InDelta(t, 0.4*80+0.3*70+0.3*(100-40), OverallScore(80, 70, 40), 0.0001)
	assert.Equal(t, 100.0, OverallScore(100, 100, 0))
	assert.GreaterOrEqual(t, OverallScore(0, 0, 100), 0.0)
}
