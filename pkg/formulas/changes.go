package formulas

// Changes holds percentage price changes over trailing windows.
type Changes struct {
	D1  float64 `json:"d1"`
	D7  float64 `json:"d7"`
	D30 float64 `json:"d30"`
}

// CalculateChanges derives 1d/7d/30d percentage changes from a daily close
// series and the current price. Windows the series cannot cover fall back to
// the current price, which yields a 0% change rather than an error.
func CalculateChanges(closes []float64, currentPrice float64) Changes {
	if currentPrice == 0 {
		return Changes{}
	}

	pick := func(daysBack int) float64 {
		idx := len(closes) - 1 - daysBack
		if idx < 0 || closes[idx] == 0 {
			return currentPrice
		}
		return closes[idx]
	}

	pct := func(ref float64) float64 {
		if ref == 0 {
			return 0
		}
		return (currentPrice - ref) / ref * 100
	}

	return Changes{
		D1:  pct(pick(1)),
		D7:  pct(pick(7)),
		D30: pct(pick(30)),
	}
}
