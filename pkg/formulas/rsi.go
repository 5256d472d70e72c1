// Package formulas provides the technical indicator math shared across modules.
package formulas

// NeutralRSI is returned when a series is too short to compute RSI.
const NeutralRSI = 50.0

// RSI calculates the Relative Strength Index over the trailing window.
//
// RSI Formula:
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Average Gain / Average Loss over the last N deltas
//
// This is the simple-average variant: gains and losses are averaged over the
// trailing window only, NOT smoothed with Wilder's recursive EMA. It therefore
// produces different values than talib.Rsi for the same input. The divergence
// is intentional and must be kept for output parity with the advice thresholds,
// which were tuned against this formulation.
//
// Args:
//
//	closes: Array of closing prices
//	period: RSI period (typically 14)
//
// Returns:
//
//	RSI in [0,100]. Series shorter than period+1 return the neutral 50.
//	A window with no losses returns 100 (fully overbought).
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return NeutralRSI
	}

	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		if diff >= 0 {
			gains += diff
		} else {
			losses -= diff
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
