package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erold/cryptofolio/pkg/formulas"
)

func TestHeat_ColdAssetScoresZero(t *testing.T) {
	levels := DefaultLevels()
	// XRP far below ATH and resistance, RSI below neutral, negative momentum
	heat := Heat("XRP", 0.40, 35, formulas.Changes{D7: -5, D30: -10}, levels)
	assert.Equal(t, 0.0, heat)
}

func TestHeat_RSIContributionCapped(t *testing.T) {
	levels := Levels{} // no ATH, no ladders: only the RSI term contributes
	// RSI 60 -> (60-50)*1.5 = 15
	assert.InDelta(t, 15.0, Heat("XRP", 1.0, 60, formulas.Changes{}, levels), 0.0001)
	// RSI 90 -> capped at 30
	assert.InDelta(t, 30.0, Heat("XRP", 1.0, 90, formulas.Changes{}, levels), 0.0001)
}

func TestHeat_ATHProximityContribution(t *testing.T) {
	levels := Levels{ATH: map[string]float64{"XRP": 4.0}}
	// 10% below ATH: contribution 30-10 = 20
	assert.InDelta(t, 20.0, Heat("XRP", 3.6, 50, formulas.Changes{}, levels), 0.0001)
	// 40% below ATH: no contribution
	assert.Equal(t, 0.0, Heat("XRP", 2.4, 50, formulas.Changes{}, levels))
}

func TestHeat_MomentumContribution(t *testing.T) {
	levels := Levels{}
	// mean(20, 40) = 30 -> 30/2 = 15
	assert.InDelta(t, 15.0, Heat("XRP", 1.0, 50, formulas.Changes{D7: 20, D30: 40}, levels), 0.0001)
	// mean(100, 100) = 100 -> capped at 20
	assert.InDelta(t, 20.0, Heat("XRP", 1.0, 50, formulas.Changes{D7: 100, D30: 100}, levels), 0.0001)
	// negative momentum contributes nothing
	assert.Equal(t, 0.0, Heat("XRP", 1.0, 50, formulas.Changes{D7: -20, D30: 10}, levels))
}

func TestHeat_ResistanceProximityContribution(t *testing.T) {
	levels := Levels{Resistance: map[string][]float64{"XRP": {1.05, 2.0}}}
	// Next resistance 5% above -> 20 - 5*2 = 10
	assert.InDelta(t, 10.0, Heat("XRP", 1.0, 50, formulas.Changes{}, levels), 0.0001)

	// Resistance 20% away -> no contribution
	levels = Levels{Resistance: map[string][]float64{"XRP": {1.2}}}
	assert.Equal(t, 0.0, Heat("XRP", 1.0, 50, formulas.Changes{}, levels))
}

func TestHeat_AllTermsStack(t *testing.T) {
	levels := Levels{
		ATH:        map[string]float64{"XRP": 1.0},
		Resistance: map[string][]float64{"XRP": {1.001}},
	}
	// At the ATH with extreme RSI and momentum: 30 + 30 + 20 + (20 - 0.1*2)
	heat := Heat("XRP", 1.0, 100, formulas.Changes{D7: 200, D30: 200}, levels)
	assert.InDelta(t, 99.8, heat, 0.0001)
	assert.LessOrEqual(t, heat, 100.0)
}

func TestLevels_ATHFor(t *testing.T) {
	levels := DefaultLevels()
	assert.Equal(t, 3.84, levels.ATHFor("XRP", 2.0))
	// Unknown symbol falls back to the current price
	assert.Equal(t, 42.0, levels.ATHFor("DOGE", 42.0))
}

func TestLevels_NextSupport(t *testing.T) {
	levels := DefaultLevels()
	// Highest support strictly below price*0.98
	assert.Equal(t, 0.60, levels.NextSupport("XRP", 2.0))
	// 0.60 is not below 0.61*0.98, so the next one down is used
	assert.Equal(t, 0.55, levels.NextSupport("XRP", 0.61))
	// Below the whole ladder: price*0.9
	assert.InDelta(t, 0.18, levels.NextSupport("XRP", 0.2), 0.0001)
	// No ladder for the symbol
	assert.InDelta(t, 90.0, levels.NextSupport("DOGE", 100), 0.0001)
}

func TestLevels_NextResistance(t *testing.T) {
	levels := DefaultLevels()
	assert.Equal(t, 2.50, levels.NextResistance("XRP", 2.0))
	// Above the ladder: falls back to the ATH
	assert.Equal(t, 3.84, levels.NextResistance("XRP", 3.9))
	// Unknown symbol: price*1.2
	assert.InDelta(t, 120.0, levels.NextResistance("DOGE", 100), 0.0001)
}
