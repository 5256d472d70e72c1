package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateChanges(t *testing.T) {
	closes := make([]float64, 31)
	for i := range closes {
		closes[i] = 100 + float64(i) // 100 .. 130
	}
	current := 132.0

	changes := CalculateChanges(closes, current)

	// 1d back: 129, 7d back: 123, 30d back: 100
	assert.InDelta(t, (132.0-129.0)/129.0*100, changes.D1, 0.0001)
	assert.InDelta(t, (132.0-123.0)/123.0*100, changes.D7, 0.0001)
	assert.InDelta(t, 32.0, changes.D30, 0.0001)
}

func TestCalculateChanges_ShortSeriesFallsBackToCurrent(t *testing.T) {
	changes := CalculateChanges([]float64{100, 105}, 105)

	// 1d window is covered, 7d and 30d fall back to current price (0%)
	assert.InDelta(t, 5.0, changes.D1, 0.0001)
	assert.Equal(t, 0.0, changes.D7)
	assert.Equal(t, 0.0, changes.D30)
}

func TestCalculateChanges_ZeroPrice(t *testing.T) {
	assert.Equal(t, Changes{}, CalculateChanges([]float64{1, 2, 3}, 0))
}

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}

	sma := SMA(closes, 5)
	assert.NotNil(t, sma)
	assert.InDelta(t, 3.0, *sma, 0.0001)

	assert.Nil(t, SMA(closes, 6))
	assert.Nil(t, SMA(closes, 0))
}

func TestCalculateTrendVsSMA(t *testing.T) {
	closes := []float64{10, 10, 10, 10, 14}

	trend := CalculateTrendVsSMA(closes, 5)
	assert.NotNil(t, trend)
	assert.Equal(t, 14.0, trend.Price)
	assert.InDelta(t, 10.8, trend.SMA, 0.0001)
	assert.True(t, trend.Above)
	assert.InDelta(t, (14.0-10.8)/10.8*100, trend.Pct, 0.0001)

	assert.Nil(t, CalculateTrendVsSMA(closes, 10))
}
