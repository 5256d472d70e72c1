package portfolio

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/domain"
)

// FallbackEURUSD is used when the EUR/USD cross rate cannot be derived from
// the BTC pair. Valuations computed with it are flagged degraded.
const FallbackEURUSD = 1.08

// EURToUSDRate derives the EUR/USD rate from the BTC price pair. Both BTC
// quotes come from the same upstream tick, so their ratio is a consistent
// cross rate without a separate FX API. Returns degraded=true when the pair
// is unavailable and the fallback constant is used.
func EURToUSDRate(prices domain.PriceMap) (rate float64, degraded bool) {
	btcEUR := prices.Price("BTC", domain.CurrencyEUR)
	btcUSD := prices.Price("BTC", domain.CurrencyUSD)
	if btcEUR > 0 && btcUSD > 0 {
		return btcUSD / btcEUR, false
	}
	return FallbackEURUSD, true
}

// CostBasisEUR resolves the invested amount for one holding, in EUR.
// Precedence: stored cost_basis_eur when positive, else the sum of ledger BUY
// transactions, else original quantity times average price (EUR average
// preferred, legacy USD-epoch average as last resort).
func CostBasisEUR(h domain.Holding, ledger []domain.Transaction) float64 {
	if h.CostBasisEUR > 0 {
		return h.CostBasisEUR
	}

	var buyCost float64
	var sawBuy bool
	for _, tx := range ledger {
		if tx.Asset == h.Symbol && tx.Type == domain.TxBuy {
			buyCost += tx.Qty * tx.Price
			sawBuy = true
		}
	}
	if sawBuy {
		return buyCost
	}

	avgPrice := h.AvgPriceEUR
	if avgPrice == 0 {
		avgPrice = h.AvgPrice
	}
	originalQty := h.OriginalQty
	if originalQty == 0 {
		originalQty = h.Qty
	}
	return originalQty * avgPrice
}

// Reconciler recomputes the ledger-derived cost fields on holdings. The
// ledger is the single source of truth for costs: stored cost_basis_eur,
// avg_price_eur and original_qty are overwritten from BUY transactions, so
// running the reconciler twice in a row is a no-op.
type Reconciler struct {
	holdings domain.HoldingsStore
	ledger   domain.LedgerStore
	log      zerolog.Logger
}

// NewReconciler creates a reconciler over the given stores.
func NewReconciler(holdings domain.HoldingsStore, ledger domain.LedgerStore, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		holdings: holdings,
		ledger:   ledger,
		log:      log.With().Str("service", "reconciler").Logger(),
	}
}

// Recalculate rebuilds derived cost fields for every holding from the ledger.
// Holdings with no BUY transactions are left untouched. A live quantity above
// the ledger-implied quantity is logged as unregistered units, not erased;
// the divergence is real information about transfers outside the ledger.
func (r *Reconciler) Recalculate() error {
	holdings, err := r.holdings.All()
	if err != nil {
		return fmt.Errorf("failed to load holdings: %w", err)
	}
	ledger, err := r.ledger.All()
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	for _, h := range holdings {
		var totalQty, totalCostEUR float64
		var buys int
		for _, tx := range ledger {
			if tx.Asset != h.Symbol || tx.Type != domain.TxBuy {
				continue
			}
			totalQty += tx.Qty
			totalCostEUR += tx.Qty * tx.Price
			buys++
		}

		if buys == 0 {
			r.log.Warn().Str("symbol", h.Symbol).Msg("No BUY transactions, skipping reconcile")
			continue
		}

		avgPriceEUR := 0.0
		if totalQty > 0 {
			avgPriceEUR = totalCostEUR / totalQty
		}

		if err := r.holdings.UpdateDerived(h.Symbol, totalCostEUR, avgPriceEUR, totalQty); err != nil {
			return fmt.Errorf("failed to persist derived fields for %s: %w", h.Symbol, err)
		}

		walletDiff := h.Qty - totalQty
		event := r.log.Info().
			Str("symbol", h.Symbol).
			Int("buys", buys).
			Float64("original_qty", totalQty).
			Float64("cost_basis_eur", totalCostEUR).
			Float64("avg_price_eur", avgPriceEUR)
		if walletDiff > 0.01 {
			event = event.Float64("unregistered_qty", walletDiff)
		}
		event.Msg("Reconciled holding from ledger")
	}

	return nil
}

// Valuation aggregates across all holdings at current prices.
type Valuation struct {
	Value    float64 `json:"value"`
	Invested float64 `json:"invested"`
	PnL      float64 `json:"pnl"`
	PnLPct   float64 `json:"pnl_pct"`
	Degraded bool    `json:"degraded"`
}

// Valuate computes the portfolio valuation in the given display currency.
// Costs are kept in EUR and converted once at the end; the degraded flag is
// set when the conversion had to use the fallback rate.
func Valuate(holdings []domain.Holding, ledger []domain.Transaction, prices domain.PriceMap, currency domain.Currency) Valuation {
	var value, investedEUR float64
	for _, h := range holdings {
		value += h.Qty * prices.Price(h.Symbol, currency)
		investedEUR += CostBasisEUR(h, ledger)
	}

	invested := investedEUR
	var degraded bool
	if currency != domain.LedgerCurrency {
		rate, usedFallback := EURToUSDRate(prices)
		invested = investedEUR * rate
		degraded = usedFallback
	}

	pnl := value - invested
	pnlPct := 0.0
	if invested > 0 {
		pnlPct = pnl / invested * 100
	}

	return Valuation{Value: value, Invested: invested, PnL: pnl, PnLPct: pnlPct, Degraded: degraded}
}

// HoldingPnLPct computes one holding's unrealized P&L percentage in EUR
// terms. Returns 0 when the cost basis is unknown.
func HoldingPnLPct(h domain.Holding, ledger []domain.Transaction, prices domain.PriceMap) float64 {
	cost := CostBasisEUR(h, ledger)
	if cost <= 0 {
		return 0
	}
	value := h.Qty * prices.Price(h.Symbol, domain.CurrencyEUR)
	return (value - cost) / cost * 100
}

// AllocationEntry is one slice of the allocation breakdown.
type AllocationEntry struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Pct    float64 `json:"pct"`
}

// Allocation computes the per-asset value breakdown, largest first.
func Allocation(holdings []domain.Holding, prices domain.PriceMap, currency domain.Currency) []AllocationEntry {
	var total float64
	for _, h := range holdings {
		total += h.Qty * prices.Price(h.Symbol, currency)
	}

	entries := make([]AllocationEntry, 0, len(holdings))
	for _, h := range holdings {
		value := h.Qty * prices.Price(h.Symbol, currency)
		pct := 0.0
		if total > 0 {
			pct = value / total * 100
		}
		entries = append(entries, AllocationEntry{Symbol: h.Symbol, Name: h.Name, Value: value, Pct: pct})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Value > entries[j].Value })
	return entries
}

// QtyChanged reports whether a synced balance differs from the stored one
// beyond float noise.
func QtyChanged(oldQty, newQty float64) bool {
	return math.Abs(oldQty-newQty) > 0.0001
}
