package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erold/cryptofolio/internal/domain"
	"github.com/erold/cryptofolio/internal/modules/analysis"
)

func planSnapshot(holdings []domain.Holding, fng int) domain.MarketSnapshot {
	return domain.MarketSnapshot{
		Prices: domain.PriceMap{
			"XRP":  {domain.CurrencyUSD: 2.16, domain.CurrencyEUR: 2.0},
			"HBAR": {domain.CurrencyUSD: 0.108, domain.CurrencyEUR: 0.10},
		},
		Sentiment: domain.FearGreed{Value: fng, Label: "x"},
		Holdings:  holdings,
	}
}

func TestPlan_EmptyProducesHold(t *testing.T) {
	snap := planSnapshot([]domain.Holding{{Symbol: "XRP", Qty: 100}}, 50)
	results := map[string]domain.AnalysisResult{
		"XRP": {Symbol: "XRP", RSI: 50, Heat: 40},
	}

	actions := Plan(snap, results, analysis.DefaultLevels(), domain.CurrencyEUR)

	require.Len(t, actions, 1)
	assert.Equal(t, domain.ActionHold, actions[0].Type)
	assert.Equal(t, "ALL", actions[0].Asset)
	assert.NotEmpty(t, actions[0].ID)
}

func TestPlan_ExtremeProfitSell(t *testing.T) {
	snap := planSnapshot([]domain.Holding{{Symbol: "XRP", Qty: 100}}, 50)
	results := map[string]domain.AnalysisResult{
		"XRP": {Symbol: "XRP", RSI: 85, Heat: 60, PnLPct: 120, ATHDistance: 40},
	}

	actions := Plan(snap, results, analysis.DefaultLevels(), domain.CurrencyEUR)

	require.Len(t, actions, 1)
	a := actions[0]
	assert.Equal(t, domain.ActionSell, a.Type)
	assert.Equal(t, 1, a.Priority)
	// 30% tier kicks in above 100% profit
	assert.Equal(t, "Sell 30%", a.Action)
	require.NotNil(t, a.Quantity)
	assert.InDelta(t, 30.0, *a.Quantity, 0.0001)
	require.NotNil(t, a.Value)
	assert.InDelta(t, 60.0, *a.Value, 0.0001) // 30 XRP at 2.00 EUR
	assert.Nil(t, a.TargetPrice)
}

func TestPlan_NearATHSellCarriesConvertedTarget(t *testing.T) {
	snap := planSnapshot([]domain.Holding{{Symbol: "XRP", Qty: 100}}, 50)
	results := map[string]domain.AnalysisResult{
		"XRP": {Symbol: "XRP", RSI: 60, Heat: 50, PnLPct: 40, ATHDistance: 10},
	}

	actions := Plan(snap, results, analysis.DefaultLevels(), domain.CurrencyEUR)

	require.Len(t, actions, 1)
	a := actions[0]
	assert.Equal(t, 2, a.Priority)
	assert.Equal(t, "Sell 15%", a.Action)
	require.NotNil(t, a.TargetPrice)
	// USD ATH 3.84 rescaled through the asset's own EUR/USD pair ratio
	assert.InDelta(t, 3.84*(2.0/2.16), *a.TargetPrice, 0.0001)
}

func TestPlan_BuyLadder(t *testing.T) {
	snap := planSnapshot([]domain.Holding{{Symbol: "XRP", Qty: 100}}, 25)
	results := map[string]domain.AnalysisResult{
		"XRP": {Symbol: "XRP", RSI: 20, Heat: 10, PnLPct: -5, ATHDistance: 60},
	}

	actions := Plan(snap, results, analysis.DefaultLevels(), domain.CurrencyEUR)

	require.Len(t, actions, 1)
	a := actions[0]
	assert.Equal(t, domain.ActionBuy, a.Type)
	assert.Equal(t, 1, a.Priority)
	assert.Equal(t, "Accumulate strongly", a.Action)
	require.NotNil(t, a.TargetPrice)
	// Support 0.60 USD rescaled to EUR
	assert.InDelta(t, 0.60*(2.0/2.16), *a.TargetPrice, 0.0001)
}

func TestPlan_DCAHasNoTarget(t *testing.T) {
	snap := planSnapshot([]domain.Holding{{Symbol: "XRP", Qty: 100}}, 50)
	results := map[string]domain.AnalysisResult{
		"XRP": {Symbol: "XRP", RSI: 40, Heat: 30, PnLPct: -25, ATHDistance: 60},
	}

	actions := Plan(snap, results, analysis.DefaultLevels(), domain.CurrencyEUR)

	require.Len(t, actions, 1)
	assert.Equal(t, "DCA recommended", actions[0].Action)
	assert.Equal(t, 3, actions[0].Priority)
	assert.Nil(t, actions[0].TargetPrice)
	require.NotNil(t, actions[0].CurrentPrice)
	assert.InDelta(t, 2.0, *actions[0].CurrentPrice, 0.0001)
}

func TestPlan_SellsBeforeBuysOrderedByPriority(t *testing.T) {
	holdings := []domain.Holding{
		{Symbol: "XRP", Qty: 100},
		{Symbol: "HBAR", Qty: 1000},
	}
	snap := planSnapshot(holdings, 25)
	results := map[string]domain.AnalysisResult{
		// Heat-driven SELL (priority 3)
		"XRP": {Symbol: "XRP", RSI: 60, Heat: 80, PnLPct: 25, ATHDistance: 40},
		// Strong BUY (priority 1)
		"HBAR": {Symbol: "HBAR", RSI: 20, Heat: 10, PnLPct: -10, ATHDistance: 80},
	}

	actions := Plan(snap, results, analysis.DefaultLevels(), domain.CurrencyEUR)

	require.Len(t, actions, 2)
	assert.Equal(t, domain.ActionSell, actions[0].Type)
	assert.Equal(t, "XRP", actions[0].Asset)
	assert.Equal(t, domain.ActionBuy, actions[1].Type)
	assert.Equal(t, "HBAR", actions[1].Asset)
}

func TestPlan_OneAssetCanSellAndBuy(t *testing.T) {
	// Deep drawdown with overheating after a bounce: the SELL ladder and the
	// BUY ladder are independent, both fire.
	snap := planSnapshot([]domain.Holding{{Symbol: "XRP", Qty: 100}}, 25)
	results := map[string]domain.AnalysisResult{
		"XRP": {Symbol: "XRP", RSI: 20, Heat: 80, PnLPct: 25, ATHDistance: 40},
	}

	actions := Plan(snap, results, analysis.DefaultLevels(), domain.CurrencyEUR)

	require.Len(t, actions, 2)
	assert.Equal(t, domain.ActionSell, actions[0].Type)
	assert.Equal(t, domain.ActionBuy, actions[1].Type)
	assert.Equal(t, "XRP", actions[0].Asset)
	assert.Equal(t, "XRP", actions[1].Asset)
}

func TestBanner(t *testing.T) {
	banner := Banner(domain.MarketConditions{BuyActive: 3})
	assert.Equal(t, "buy", banner.Type)
	assert.Equal(t, "CONSIDER BUY", banner.Badge)
	assert.Contains(t, banner.Subtitle, "3")

	banner = Banner(domain.MarketConditions{SellActive: 2})
	assert.Equal(t, "sell", banner.Type)
	assert.Equal(t, "CONSIDER SELL", banner.Badge)

	// Buy wins when both sides are elevated
	banner = Banner(domain.MarketConditions{BuyActive: 2, SellActive: 4})
	assert.Equal(t, "buy", banner.Type)

	banner = Banner(domain.MarketConditions{SellActive: 1})
	assert.Equal(t, "monitor", banner.Type)

	banner = Banner(domain.MarketConditions{})
	assert.Equal(t, "hold", banner.Type)
	assert.Equal(t, "HODL", banner.Badge)
}
