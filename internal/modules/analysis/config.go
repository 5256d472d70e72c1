package analysis

// Thresholds are the advisory trigger levels. They were tuned against the
// tracked portfolio and are frozen: output parity across versions matters
// more than theoretical optimality, so treat them as constants, not knobs.
type Thresholds struct {
	RSIOversold    float64
	RSIOverbought  float64
	RSIExtremeLow  float64
	RSIExtremeHigh float64
	FNGFear        int
	FNGGreed       int
	ATHProximity   float64 // percent distance from ATH
	PnLHigh        float64 // percent profit
	PnLExtreme     float64 // percent profit
}

// DefaultThresholds returns the standard advisory levels.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RSIOversold:    30,
		RSIOverbought:  70,
		RSIExtremeLow:  25,
		RSIExtremeHigh: 80,
		FNGFear:        25,
		FNGGreed:       75,
		ATHProximity:   15,
		PnLHigh:        50,
		PnLExtreme:     100,
	}
}

// Levels holds the static per-symbol price reference data: all-time highs and
// configured support/resistance ladders, in USD. Symbols without an entry
// degrade gracefully (ATH falls back to the current price, ladders to empty).
type Levels struct {
	ATH        map[string]float64
	Resistance map[string][]float64 // ascending
	Support    map[string][]float64 // ascending
}

// DefaultLevels returns the reference levels for the tracked assets.
func DefaultLevels() Levels {
	return Levels{
		ATH: map[string]float64{
			"XRP":  3.84,
			"QNT":  428.45,
			"HBAR": 0.57,
			"XDC":  0.195,
			"BTC":  73750,
			"ETH":  4891,
		},
		Resistance: map[string][]float64{
			"XRP":  {0.75, 1.00, 1.50, 2.00, 2.50, 3.00, 3.84},
			"QNT":  {100, 150, 200, 250, 300, 350, 428},
			"HBAR": {0.15, 0.20, 0.25, 0.30, 0.40, 0.50, 0.57},
			"XDC":  {0.05, 0.08, 0.10, 0.12, 0.15, 0.18, 0.195},
		},
		Support: map[string][]float64{
			"XRP":  {0.30, 0.40, 0.50, 0.55, 0.60},
			"QNT":  {50, 60, 70, 80, 90},
			"HBAR": {0.05, 0.08, 0.10, 0.12, 0.15},
			"XDC":  {0.03, 0.04, 0.05, 0.06, 0.07},
		},
	}
}

// ATHFor returns the configured all-time high, or the current price when the
// symbol has no entry (athDistance then reads 0, never negative garbage).
func (l Levels) ATHFor(symbol string, currentPrice float64) float64 {
	if ath, ok := l.ATH[symbol]; ok && ath > 0 {
		return ath
	}
	return currentPrice
}

// NextSupport returns the highest configured support strictly below
// price*0.98, or price*0.9 when the ladder has none. The 2% margin keeps the
// suggested entry meaningfully below the current price.
func (l Levels) NextSupport(symbol string, price float64) float64 {
	supports := l.Support[symbol]
	for i := len(supports) - 1; i >= 0; i-- {
		if supports[i] < price*0.98 {
			return supports[i]
		}
	}
	return price * 0.9
}

// NextResistance returns the lowest configured resistance above price*1.02,
// falling back to the ATH, then price*1.2.
func (l Levels) NextResistance(symbol string, price float64) float64 {
	for _, r := range l.Resistance[symbol] {
		if r > price*1.02 {
			return r
		}
	}
	if ath, ok := l.ATH[symbol]; ok && ath > 0 {
		return ath
	}
	return price * 1.2
}
