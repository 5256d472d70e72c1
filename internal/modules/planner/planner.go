// Package planner turns analysis results into concrete recommended actions
// with quantities, values and target prices, plus the global action banner.
// Planning is a pure function of the latest analysis cycle; actions carry
// fresh IDs each time and are never persisted.
package planner

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/erold/cryptofolio/internal/domain"
	"github.com/erold/cryptofolio/internal/modules/analysis"
)

// Action presentation colors.
const (
	colorGreen = "#00D4AA"
	colorBlue  = "#0088FF"
	colorAmber = "#F59E0B"
	colorRed   = "#EF4444"
)

// currencySymbol returns the display prefix for formatted amounts.
func currencySymbol(currency domain.Currency) string {
	if currency == domain.CurrencyEUR {
		return "€"
	}
	return "$"
}

// Plan builds the recommended action list for one analysis cycle.
//
// The SELL ladder and the BUY ladder are evaluated independently per asset
// (first match within each ladder), so one asset can legitimately produce
// both a SELL and a BUY suggestion. Output order: all SELLs before all BUYs,
// ascending priority within each type. An empty list is replaced by a single
// portfolio-wide HOLD so the consumer always has something to render.
func Plan(snap domain.MarketSnapshot, results map[string]domain.AnalysisResult, levels analysis.Levels, currency domain.Currency) []domain.RecommendedAction {
	var actions []domain.RecommendedAction
	sym := currencySymbol(currency)

	for _, h := range snap.Holdings {
		a, ok := results[h.Symbol]
		if !ok {
			continue
		}

		priceUSD := snap.Prices.Price(h.Symbol, domain.CurrencyUSD)
		displayPrice := snap.Prices.Price(h.Symbol, currency)

		// USD-table prices (ATH, supports) are rescaled to the display
		// currency through the asset's own pair ratio.
		toDisplay := 1.0
		if priceUSD > 0 && displayPrice > 0 {
			toDisplay = displayPrice / priceUSD
		}

		if sell := planSell(h, a, levels, priceUSD, displayPrice, toDisplay, sym); sell != nil {
			actions = append(actions, *sell)
		}
		if buy := planBuy(h, a, snap.Sentiment.Value, levels, priceUSD, displayPrice, toDisplay, sym); buy != nil {
			actions = append(actions, *buy)
		}
	}

	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].Type != actions[j].Type {
			return actions[i].Type == domain.ActionSell
		}
		return actions[i].Priority < actions[j].Priority
	})

	if len(actions) == 0 {
		actions = append(actions, domain.RecommendedAction{
			ID:       uuid.NewString(),
			Type:     domain.ActionHold,
			Priority: 0,
			Asset:    "ALL",
			Action:   "Hold positions",
			Reason:   "No extreme signal",
			Details:  "The market is in a neutral phase. Keep watching the indicators.",
			Icon:     "✅",
			Color:    colorGreen,
		})
	}

	return actions
}

// planSell evaluates the SELL ladder for one asset, first match wins.
func planSell(h domain.Holding, a domain.AnalysisResult, levels analysis.Levels, priceUSD, displayPrice, toDisplay float64, sym string) *domain.RecommendedAction {
	switch {
	case a.RSI >= 80 && a.PnLPct >= 50:
		sellPct := 20.0
		if a.PnLPct >= 100 {
			sellPct = 30.0
		}
		sellQty := h.Qty * sellPct / 100
		sellValue := sellQty * displayPrice
		return &domain.RecommendedAction{
			ID:           uuid.NewString(),
			Type:         domain.ActionSell,
			Priority:     1,
			Asset:        h.Symbol,
			Action:       fmt.Sprintf("Sell %.0f%%", sellPct),
			Quantity:     ptr(sellQty),
			Value:        ptr(sellValue),
			CurrentPrice: ptr(displayPrice),
			Reason:       fmt.Sprintf("Extreme RSI (%.0f) + Profit %.0f%%", a.RSI, a.PnLPct),
			Details:      fmt.Sprintf("Take profit on %.2f %s (%s%.0f)", sellQty, h.Symbol, sym, sellValue),
			Icon:         "🎯",
			Color:        colorRed,
		}

	case a.ATHDistance <= 15 && a.PnLPct >= 30:
		sellQty := h.Qty * 0.15
		sellValue := sellQty * displayPrice
		ath := levels.ATHFor(h.Symbol, priceUSD)
		return &domain.RecommendedAction{
			ID:           uuid.NewString(),
			Type:         domain.ActionSell,
			Priority:     2,
			Asset:        h.Symbol,
			Action:       "Sell 15%",
			Quantity:     ptr(sellQty),
			Value:        ptr(sellValue),
			CurrentPrice: ptr(displayPrice),
			TargetPrice:  ptr(ath * toDisplay),
			Reason:       fmt.Sprintf("Only %.0f%% from ATH", a.ATHDistance),
			Details:      "Consider a partial sale near the all-time high",
			Icon:         "🏔️",
			Color:        colorAmber,
		}

	case a.Heat >= 75 && a.PnLPct >= 20:
		sellQty := h.Qty * 0.10
		sellValue := sellQty * displayPrice
		return &domain.RecommendedAction{
			ID:           uuid.NewString(),
			Type:         domain.ActionSell,
			Priority:     3,
			Asset:        h.Symbol,
			Action:       "Consider 10%",
			Quantity:     ptr(sellQty),
			Value:        ptr(sellValue),
			CurrentPrice: ptr(displayPrice),
			Reason:       fmt.Sprintf("Overheating %.0f%%", a.Heat),
			Details:      "Asset in a hot zone, protect part of the profits",
			Icon:         "🔥",
			Color:        colorAmber,
		}
	}
	return nil
}

// planBuy evaluates the BUY ladder for one asset, first match wins.
func planBuy(h domain.Holding, a domain.AnalysisResult, fng int, levels analysis.Levels, priceUSD, displayPrice, toDisplay float64, sym string) *domain.RecommendedAction {
	switch {
	case a.RSI <= 25 && fng <= 30:
		support := levels.NextSupport(h.Symbol, priceUSD) * toDisplay
		return &domain.RecommendedAction{
			ID:           uuid.NewString(),
			Type:         domain.ActionBuy,
			Priority:     1,
			Asset:        h.Symbol,
			Action:       "Accumulate strongly",
			CurrentPrice: ptr(displayPrice),
			TargetPrice:  ptr(support),
			Reason:       fmt.Sprintf("RSI %.0f + Fear %d", a.RSI, fng),
			Details:      fmt.Sprintf("Ideal accumulation zone. Support at %s%.4f", sym, support),
			Icon:         "💰",
			Color:        colorGreen,
		}

	case a.RSI <= 35 && a.Heat <= 25:
		support := levels.NextSupport(h.Symbol, priceUSD) * toDisplay
		return &domain.RecommendedAction{
			ID:           uuid.NewString(),
			Type:         domain.ActionBuy,
			Priority:     2,
			Asset:        h.Symbol,
			Action:       "Consider buying",
			CurrentPrice: ptr(displayPrice),
			TargetPrice:  ptr(support),
			Reason:       fmt.Sprintf("Low RSI (%.0f) + cold market", a.RSI),
			Details:      fmt.Sprintf("Good entry point. Target: %s%.4f", sym, support),
			Icon:         "📥",
			Color:        colorBlue,
		}

	case a.PnLPct <= -20 && a.RSI <= 45:
		return &domain.RecommendedAction{
			ID:           uuid.NewString(),
			Type:         domain.ActionBuy,
			Priority:     3,
			Asset:        h.Symbol,
			Action:       "DCA recommended",
			CurrentPrice: ptr(displayPrice),
			Reason:       fmt.Sprintf("Down %.0f%%", a.PnLPct),
			Details:      "Lower your average cost with a small buy",
			Icon:         "📊",
			Color:        colorBlue,
		}
	}
	return nil
}

// Banner aggregates the condition counts into the coarse global mood banner.
func Banner(conditions domain.MarketConditions) domain.ActionBanner {
	switch {
	case conditions.BuyActive >= 2:
		return domain.ActionBanner{
			Type:     "buy",
			Title:    "Accumulation Opportunity",
			Subtitle: fmt.Sprintf("%d favorable conditions active", conditions.BuyActive),
			Badge:    "CONSIDER BUY",
			Icon:     "💰",
		}
	case conditions.SellActive >= 2:
		return domain.ActionBanner{
			Type:     "sell",
			Title:    "Caution Zone",
			Subtitle: fmt.Sprintf("%d warning signals active", conditions.SellActive),
			Badge:    "CONSIDER SELL",
			Icon:     "⚠️",
		}
	case conditions.BuyActive == 1 || conditions.SellActive == 1:
		return domain.ActionBanner{
			Type:     "monitor",
			Title:    "Active Monitoring",
			Subtitle: "Some indicators need attention",
			Badge:    "MONITOR",
			Icon:     "👀",
		}
	default:
		return domain.ActionBanner{
			Type:     "hold",
			Title:    "All Under Control",
			Subtitle: "No extreme signal - neutral market",
			Badge:    "HODL",
			Icon:     "✅",
		}
	}
}

func ptr(v float64) *float64 { return &v }
