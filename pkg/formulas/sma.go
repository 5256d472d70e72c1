package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA calculates the simple moving average over the last `length` closes.
//
// Returns nil if there is not enough data.
func SMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}

	sma := talib.Sma(closes, length)
	if len(sma) == 0 {
		return nil
	}

	last := sma[len(sma)-1]
	if isNaN(last) {
		return nil
	}
	return &last
}

// TrendVsSMA describes where a price sits relative to a moving average.
type TrendVsSMA struct {
	Price float64 `json:"price"`
	SMA   float64 `json:"sma"`
	Above bool    `json:"above"`
	Pct   float64 `json:"pct"` // Signed distance from the SMA, in percent
}

// CalculateTrendVsSMA compares the latest close against the N-period SMA.
// Returns nil when the series is shorter than the SMA length.
func CalculateTrendVsSMA(closes []float64, length int) *TrendVsSMA {
	sma := SMA(closes, length)
	if sma == nil || *sma == 0 || len(closes) == 0 {
		return nil
	}

	last := closes[len(closes)-1]
	return &TrendVsSMA{
		Price: last,
		SMA:   *sma,
		Above: last > *sma,
		Pct:   (last - *sma) / *sma * 100,
	}
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
