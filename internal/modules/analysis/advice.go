package analysis

import (
	"fmt"

	"github.com/erold/cryptofolio/internal/domain"
)

// Presentation colors shared by advice and actions.
const (
	colorGreen = "#00D4AA"
	colorBlue  = "#0088FF"
	colorAmber = "#FBBF24"
	colorRed   = "#FF6B6B"
)

// adviceInput bundles everything an advice rule may look at.
type adviceInput struct {
	rsi         float64
	heat        float64
	pnlPct      float64
	athDistance float64
	fng         int
	thresholds  Thresholds
}

// adviceRule pairs a predicate with its outcome. Rules are evaluated
// top-to-bottom, first match wins; keeping them in a flat table makes the
// precedence order visible and testable rule by rule.
type adviceRule struct {
	name    string
	match   func(in adviceInput) bool
	outcome func(in adviceInput) domain.Advice
}

var adviceRules = []adviceRule{
	{
		name: "extreme-low-rsi-cold",
		match: func(in adviceInput) bool {
			return in.rsi <= in.thresholds.RSIExtremeLow && in.heat < 20
		},
		outcome: func(in adviceInput) domain.Advice {
			return domain.Advice{Action: "ACCUMULATE", Strength: "strong", Reason: "RSI in extreme zone + price cold", Icon: "💰", Color: colorGreen}
		},
	},
	{
		name: "oversold-with-fear",
		match: func(in adviceInput) bool {
			return in.rsi <= in.thresholds.RSIOversold && in.fng <= in.thresholds.FNGFear
		},
		outcome: func(in adviceInput) domain.Advice {
			return domain.Advice{Action: "ACCUMULATE", Strength: "strong", Reason: "Low RSI + fear in the market", Icon: "💰", Color: colorGreen}
		},
	},
	{
		name: "oversold",
		match: func(in adviceInput) bool {
			return in.rsi <= in.thresholds.RSIOversold && in.heat < 30
		},
		outcome: func(in adviceInput) domain.Advice {
			return domain.Advice{Action: "CONSIDER BUYING", Strength: "moderate", Reason: "RSI oversold", Icon: "📥", Color: colorBlue}
		},
	},
	{
		name: "extreme-rsi-extreme-profit",
		match: func(in adviceInput) bool {
			return in.rsi >= in.thresholds.RSIExtremeHigh && in.pnlPct >= in.thresholds.PnLExtreme
		},
		outcome: func(in adviceInput) domain.Advice {
			return domain.Advice{Action: "TAKE PROFIT", Strength: "strong", Reason: fmt.Sprintf("Extreme RSI + %.0f%% profit", in.pnlPct), Icon: "🎯", Color: colorRed}
		},
	},
	{
		name: "overheated-with-profit",
		match: func(in adviceInput) bool {
			return in.heat >= 80 && in.pnlPct >= in.thresholds.PnLHigh
		},
		outcome: func(in adviceInput) domain.Advice {
			return domain.Advice{Action: "SELL PARTIAL", Strength: "strong", Reason: "Price overheated + good profit", Icon: "📤", Color: colorRed}
		},
	},
	{
		name: "overbought-with-greed",
		match: func(in adviceInput) bool {
			return in.rsi >= in.thresholds.RSIOverbought && in.fng >= in.thresholds.FNGGreed
		},
		outcome: func(in adviceInput) domain.Advice {
			return domain.Advice{Action: "CAUTION", Strength: "moderate", Reason: "High RSI + greed in the market", Icon: "⚠️", Color: colorAmber}
		},
	},
	{
		name: "near-ath-with-profit",
		match: func(in adviceInput) bool {
			return in.athDistance <= in.thresholds.ATHProximity && in.pnlPct > 30
		},
		outcome: func(in adviceInput) domain.Advice {
			return domain.Advice{Action: "EVALUATE SELLING", Strength: "moderate", Reason: fmt.Sprintf("Only %.0f%% from ATH", in.athDistance), Icon: "🏔️", Color: colorAmber}
		},
	},
	{
		name: "hot-zone",
		match: func(in adviceInput) bool {
			return in.heat >= 60 || in.rsi >= 65
		},
		outcome: func(in adviceInput) domain.Advice {
			return domain.Advice{Action: "MONITOR", Strength: "light", Reason: "Price in hot zone", Icon: "👀", Color: colorAmber}
		},
	},
}

// holdAdvice is the fall-through outcome when no rule matches.
var holdAdvice = domain.Advice{Action: "HOLD", Strength: "neutral", Reason: "No extreme signal", Icon: "✅", Color: colorGreen}

// generateAdvice evaluates the rule table top-to-bottom and returns the first
// matching outcome.
func generateAdvice(in adviceInput) domain.Advice {
	for _, rule := range adviceRules {
		if rule.match(in) {
			return rule.outcome(in)
		}
	}
	return holdAdvice
}

// GetSignal classifies an asset for the traffic light. Evaluation order is
// danger, warning, opportunity, ok; an asset that is both overbought and cold
// never happens, but the order makes danger win regardless.
func GetSignal(rsi, heat float64) domain.Signal {
	switch {
	case rsi >= 75 || heat >= 75:
		return domain.Signal{Color: "danger", Label: "Hot"}
	case rsi >= 65 || heat >= 50:
		return domain.Signal{Color: "warning", Label: "Warm"}
	case rsi <= 30 || heat <= 20:
		return domain.Signal{Color: "opportunity", Label: "Cold"}
	default:
		return domain.Signal{Color: "ok", Label: "Neutral"}
	}
}
