package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRSI_ShortSeriesReturnsNeutral(t *testing.T) {
	closes := []float64{100, 101, 102}
	assert.Equal(t, 50.0, RSI(closes, 14))
}

func TestRSI_AllGainsReturns100(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	assert.Equal(t, 100.0, RSI(closes, 14))
}

func TestRSI_AllLossesReturns0(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	assert.InDelta(t, 0.0, RSI(closes, 14), 0.0001)
}

func TestRSI_SimpleAverageVariant(t *testing.T) {
	// Alternating +2/-1 over the window: avgGain = 2*7/14 = 1,
	// avgLoss = 1*7/14 = 0.5, RS = 2, RSI = 100 - 100/3.
	closes := []float64{100}
	for i := 0; i < 7; i++ {
		last := closes[len(closes)-1]
		closes = append(closes, last+2, last+2-1)
	}
	rsi := RSI(closes, 14)
	assert.InDelta(t, 100-100.0/3, rsi, 0.0001)
}

func TestRSI_UsesTrailingWindowOnly(t *testing.T) {
	// A large spike outside the trailing window must not affect the result.
	flat := make([]float64, 15)
	for i := range flat {
		flat[i] = 100 + float64(i%2)
	}
	spiked := append([]float64{1, 5000}, flat...)
	assert.Equal(t, RSI(flat, 14), RSI(spiked, 14))
}

func TestRSI_InvalidPeriod(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 50.0, RSI(closes, 0))
	assert.Equal(t, 50.0, RSI(closes, -3))
}
