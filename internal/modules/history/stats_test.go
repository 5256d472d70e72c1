package history

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erold/cryptofolio/internal/domain"
)

func TestComputeStats_ShortSeries(t *testing.T) {
	assert.Zero(t, ComputeStats(nil))
	assert.Zero(t, ComputeStats([]domain.HistoryPoint{{Time: 1, Value: 100}}))
}

func TestComputeStats(t *testing.T) {
	series := []domain.HistoryPoint{
		{Time: 1, Value: 100},
		{Time: 2, Value: 110},
		{Time: 3, Value: 121},
	}

	stats := ComputeStats(series)
	assert.InDelta(t, 110.3333, stats.Mean, 1e-3)
	assert.Equal(t, 100.0, stats.Min)
	assert.Equal(t, 121.0, stats.Max)
	assert.InDelta(t, 10.504, stats.StdDev, 1e-3)
	// Both daily returns are exactly +10%, so their spread is zero.
	assert.InDelta(t, 0.0, stats.Volatility, 1e-9)
	assert.InDelta(t, 21.0, stats.TotalReturnPct, 1e-9)
}

func TestComputeStats_Volatility(t *testing.T) {
	series := []domain.HistoryPoint{
		{Time: 1, Value: 100},
		{Time: 2, Value: 120}, // +20%
		{Time: 3, Value: 120}, // 0%
		{Time: 4, Value: 108}, // -10%
	}

	stats := ComputeStats(series)
	// Sample stddev of {20, 0, -10}.
	assert.InDelta(t, 15.275, stats.Volatility, 1e-3)
	assert.InDelta(t, 8.0, stats.TotalReturnPct, 1e-9)
}
