package history

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/erold/cryptofolio/internal/domain"
)

// SeriesStats summarizes a reconstructed value series for the chart header.
type SeriesStats struct {
	Mean           float64 `json:"mean"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	StdDev         float64 `json:"std_dev"`
	Volatility     float64 `json:"volatility"` // stddev of daily returns, percent
	TotalReturnPct float64 `json:"total_return_pct"`
}

// ComputeStats derives summary statistics from a value series. Returns the
// zero value for series shorter than two points.
func ComputeStats(series []domain.HistoryPoint) SeriesStats {
	if len(series) < 2 {
		return SeriesStats{}
	}

	values := make([]float64, len(series))
	min, max := math.Inf(1), math.Inf(-1)
	for i, p := range series {
		values[i] = p.Value
		if p.Value < min {
			min = p.Value
		}
		if p.Value > max {
			max = p.Value
		}
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] > 0 {
			returns = append(returns, (values[i]-values[i-1])/values[i-1]*100)
		}
	}

	volatility := 0.0
	if len(returns) > 1 {
		volatility = stat.StdDev(returns, nil)
	}

	totalReturn := 0.0
	if values[0] > 0 {
		totalReturn = (values[len(values)-1] - values[0]) / values[0] * 100
	}

	return SeriesStats{
		Mean:           stat.Mean(values, nil),
		Min:            min,
		Max:            max,
		StdDev:         stat.StdDev(values, nil),
		Volatility:     volatility,
		TotalReturnPct: totalReturn,
	}
}
