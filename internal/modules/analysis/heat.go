package analysis

import (
	"math"

	"github.com/erold/cryptofolio/pkg/formulas"
)

// Heat computes the composite overheating score in [0,100] from four capped
// contributions:
//
//	RSI above neutral   up to 30 points (RSI 50 = 0, RSI 70+ = 30)
//	ATH proximity       up to 30 points (inside 30% of ATH)
//	recent momentum     up to 20 points (positive mean of 7d and 30d change)
//	resistance proximity up to 20 points (inside 10% of the next level)
//
// The 30/30/20/20 weights are frozen alongside the advisory thresholds.
func Heat(symbol string, price, rsi float64, changes formulas.Changes, levels Levels) float64 {
	heat := 0.0

	if rsi > 50 {
		heat += math.Min(30, (rsi-50)*1.5)
	}

	// Configured ATHs only. The ATHFor fallback would report every unknown
	// symbol as sitting at its ATH and hand it 30 free points.
	if ath, ok := levels.ATH[symbol]; ok && ath > 0 {
		athDist := (ath - price) / ath * 100
		if athDist < 30 {
			heat += math.Min(30, 30-athDist)
		}
	}

	recentGain := (changes.D7 + changes.D30) / 2
	if recentGain > 0 {
		heat += math.Min(20, recentGain/2)
	}

	if next, ok := nextResistanceAbovePrice(levels, symbol, price); ok {
		distToRes := (next - price) / price * 100
		if distToRes < 10 {
			heat += math.Min(20, 20-distToRes*2)
		}
	}

	return math.Min(100, math.Max(0, heat))
}

// nextResistanceAbovePrice finds the first ladder level strictly above the
// price. Unlike Levels.NextResistance this takes no 2% margin and no ATH
// fallback: the heat contribution only cares about configured levels.
func nextResistanceAbovePrice(levels Levels, symbol string, price float64) (float64, bool) {
	for _, r := range levels.Resistance[symbol] {
		if r > price {
			return r, true
		}
	}
	return 0, false
}
