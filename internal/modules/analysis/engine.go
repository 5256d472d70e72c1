// Package analysis computes per-asset indicators, advisory signals and the
// global market-condition scorecard. Everything here is a pure function of a
// market snapshot; nothing is persisted.
package analysis

import (
	"fmt"

	"github.com/erold/cryptofolio/internal/domain"
	"github.com/erold/cryptofolio/internal/modules/portfolio"
	"github.com/erold/cryptofolio/pkg/formulas"
)

// RSIPeriod is the lookback window for the RSI indicator.
const RSIPeriod = 14

// Analyze computes an AnalysisResult for every holding in the snapshot.
// Analysis prices are USD: the ATH and ladder tables are USD-denominated.
// P&L percentages come from the reconciled EUR cost basis.
func Analyze(snap domain.MarketSnapshot, thresholds Thresholds, levels Levels) map[string]domain.AnalysisResult {
	results := make(map[string]domain.AnalysisResult, len(snap.Holdings))

	for _, h := range snap.Holdings {
		price := snap.Prices.Price(h.Symbol, domain.CurrencyUSD)

		closes := make([]float64, 0, len(snap.History[h.Symbol]))
		for _, p := range snap.History[h.Symbol] {
			closes = append(closes, p.Close)
		}

		rsi := formulas.RSI(closes, RSIPeriod)
		changes := formulas.CalculateChanges(closes, price)
		heat := Heat(h.Symbol, price, rsi, changes, levels)
		pnlPct := portfolio.HoldingPnLPct(h, snap.Ledger, snap.Prices)

		athDistance := 0.0
		if ath := levels.ATHFor(h.Symbol, price); ath > 0 {
			athDistance = (ath - price) / ath * 100
		}

		results[h.Symbol] = domain.AnalysisResult{
			Symbol:      h.Symbol,
			RSI:         rsi,
			Heat:        heat,
			PnLPct:      pnlPct,
			ATHDistance: athDistance,
			Advice: generateAdvice(adviceInput{
				rsi:         rsi,
				heat:        heat,
				pnlPct:      pnlPct,
				athDistance: athDistance,
				fng:         snap.Sentiment.Value,
				thresholds:  thresholds,
			}),
			Signal:  GetSignal(rsi, heat),
			Changes: changes,
		}
	}

	return results
}

// Conditions builds the global buy/sell scorecard from the per-asset results
// and portfolio-wide state. Each side has six fixed conditions; the active
// counts drive the action banner.
func Conditions(snap domain.MarketSnapshot, results map[string]domain.AnalysisResult, thresholds Thresholds) domain.MarketConditions {
	fng := snap.Sentiment.Value
	pnl := portfolio.Valuate(snap.Holdings, snap.Ledger, snap.Prices, domain.CurrencyEUR).PnLPct

	count := func(pred func(domain.AnalysisResult) bool) int {
		n := 0
		for _, a := range results {
			if pred(a) {
				n++
			}
		}
		return n
	}

	lowRSI := count(func(a domain.AnalysisResult) bool { return a.RSI < 30 })
	highRSI := count(func(a domain.AnalysisResult) bool { return a.RSI > 70 })
	farFromATH := count(func(a domain.AnalysisResult) bool { return a.ATHDistance > 50 })
	nearATH := count(func(a domain.AnalysisResult) bool { return a.ATHDistance < 15 })
	coldAssets := count(func(a domain.AnalysisResult) bool { return a.Heat < 25 })
	hotAssets := count(func(a domain.AnalysisResult) bool { return a.Heat > 70 })

	btcTrendValue := "--"
	btcBelow, btcHigh := false, false
	if snap.BTCTrend != nil {
		btcBelow = !snap.BTCTrend.Above
		btcHigh = snap.BTCTrend.Above && snap.BTCTrend.Pct > 30
		sign := ""
		if snap.BTCTrend.Pct > 0 {
			sign = "+"
		}
		btcTrendValue = fmt.Sprintf("%s%.1f%%", sign, snap.BTCTrend.Pct)
	}

	buy := []domain.Condition{
		{Label: "Fear & Greed ≤ 25", Value: fmt.Sprintf("F&G = %d", fng), Active: fng <= thresholds.FNGFear},
		{Label: "BTC below 200 MA", Value: btcTrendValue, Active: btcBelow},
		{Label: "RSI < 30 on 2+ assets", Value: fmt.Sprintf("%d assets", lowRSI), Active: lowRSI >= 2},
		{Label: "Portfolio below cost basis", Value: fmt.Sprintf("%.1f%%", pnl), Active: pnl < -10},
		{Label: "Far from ATH (>50%)", Value: fmt.Sprintf("%d assets", farFromATH), Active: farFromATH >= 2},
		{Label: "Market cold", Value: fmt.Sprintf("%d assets", coldAssets), Active: coldAssets >= 2},
	}

	sellPnL := fmt.Sprintf("%.1f%%", pnl)
	if pnl > 0 {
		sellPnL = "+" + sellPnL
	}
	sell := []domain.Condition{
		{Label: "Fear & Greed ≥ 75", Value: fmt.Sprintf("F&G = %d", fng), Active: fng >= thresholds.FNGGreed},
		{Label: "BTC above 200 MA (+30%)", Value: btcTrendValue, Active: btcHigh},
		{Label: "RSI > 70 on 2+ assets", Value: fmt.Sprintf("%d assets", highRSI), Active: highRSI >= 2},
		{Label: "Portfolio +50% profit", Value: sellPnL, Active: pnl >= thresholds.PnLHigh},
		{Label: "Near ATH (<15%)", Value: fmt.Sprintf("%d assets", nearATH), Active: nearATH >= 2},
		{Label: "Market overheated", Value: fmt.Sprintf("%d assets", hotAssets), Active: hotAssets >= 2},
	}

	conditions := domain.MarketConditions{Buy: buy, Sell: sell}
	for _, c := range buy {
		if c.Active {
			conditions.BuyActive++
		}
	}
	for _, c := range sell {
		if c.Active {
			conditions.SellActive++
		}
	}
	return conditions
}
