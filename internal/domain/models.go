// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/erold/cryptofolio/pkg/formulas"
)

// Currency represents a currency code
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
)

// LedgerCurrency is the reference currency all transactions and cost-basis
// fields are denominated in. Legacy USD-epoch fields are read but never
// written; they must not be mixed with EUR amounts.
const LedgerCurrency = CurrencyEUR

// TxType represents the kind of ledger transaction
type TxType string

const (
	TxBuy  TxType = "BUY"
	TxSell TxType = "SELL"
	TxSwap TxType = "SWAP"
)

// DateFormat is the calendar-date layout used throughout the ledger and the
// history replay. Transactions carry no time-of-day.
const DateFormat = "2006-01-02"

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// ValidateSymbol reports whether a symbol is well-formed (uppercase
// alphanumeric, at most 10 characters).
func ValidateSymbol(symbol string) error {
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("invalid symbol %q", symbol)
	}
	return nil
}

// Holding represents one tracked asset row.
//
// Qty is independently owned by wallet sync / manual edit and may diverge from
// the quantity implied by the ledger; the divergence represents unregistered
// transfers and is surfaced, not hidden. CostBasisEUR, AvgPriceEUR and
// OriginalQty are derived from the ledger by the reconciler, which is the only
// code path allowed to overwrite them.
type Holding struct {
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Qty          float64  `json:"qty"`
	AvgPrice     float64  `json:"avg_price"`      // Legacy, USD epoch
	AvgPriceEUR  float64  `json:"avg_price_eur"`  // Derived: CostBasisEUR / OriginalQty
	CostBasis    float64  `json:"cost_basis"`     // Legacy, USD epoch
	CostBasisEUR float64  `json:"cost_basis_eur"` // Authoritative when > 0
	OriginalQty  float64  `json:"original_qty"`   // Quantity implied by the ledger alone
	LastUpdated  *int64   `json:"last_updated,omitempty"`
}

// Transaction is an immutable append-only ledger record. Records are created
// by user entry or wallet-history import, never mutated, and kept sorted by
// date for replay. A swap is recorded as a paired SELL+BUY.
type Transaction struct {
	ID    int64   `json:"id"`
	Date  string  `json:"date"` // Calendar date, DateFormat layout
	Type  TxType  `json:"type"`
	Asset string  `json:"asset"`
	Qty   float64 `json:"qty"`
	Price float64 `json:"price"` // In LedgerCurrency
	Note  string  `json:"note"`
}

// Validate checks the programming contract for a transaction before it enters
// the ledger. Callers are expected to validate before appending.
func (t Transaction) Validate() error {
	if err := ValidateSymbol(t.Asset); err != nil {
		return err
	}
	switch t.Type {
	case TxBuy, TxSell, TxSwap:
	default:
		return fmt.Errorf("invalid transaction type %q", t.Type)
	}
	if t.Qty <= 0 {
		return fmt.Errorf("transaction qty must be > 0, got %v", t.Qty)
	}
	if t.Price <= 0 {
		return fmt.Errorf("transaction price must be > 0, got %v", t.Price)
	}
	if _, err := time.Parse(DateFormat, t.Date); err != nil {
		return fmt.Errorf("invalid transaction date %q: %w", t.Date, err)
	}
	return nil
}

// PricePoint is a single close observation in a history series.
type PricePoint struct {
	Time  int64   `json:"time"` // Epoch seconds
	Close float64 `json:"close"`
}

// PriceMap is the ephemeral price snapshot: symbol -> currency -> price.
// Fully replaced on each fetch cycle, never persisted.
type PriceMap map[string]map[Currency]float64

// Price returns the price of a symbol in a currency, or 0 if unknown.
func (p PriceMap) Price(symbol string, currency Currency) float64 {
	if byCurrency, ok := p[symbol]; ok {
		return byCurrency[currency]
	}
	return 0
}

// FearGreed is the external market sentiment index in [0,100].
type FearGreed struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// Neutral sentiment used when the index has not been fetched yet.
var NeutralFearGreed = FearGreed{Value: 50, Label: "Neutral"}

// Snapshot is one persisted daily portfolio valuation. Generated snapshots are
// back-filled by replaying the ledger against history and are overridden by a
// real (observed) snapshot for the same date.
type Snapshot struct {
	Date      string   `json:"date"` // DateFormat layout, unique per day
	Timestamp int64    `json:"timestamp"`
	Value     float64  `json:"value"`
	Invested  float64  `json:"invested"`
	PnL       float64  `json:"pnl"`
	Currency  Currency `json:"currency"`
	Generated bool     `json:"generated"`
}

// SnapshotRetentionDays bounds the persisted snapshot table.
const SnapshotRetentionDays = 730

// Advice is the per-asset advisory outcome. Label, icon and color are
// presentation metadata exposed as structured data so the consumer can
// localize or restyle them.
type Advice struct {
	Action   string `json:"action"`
	Strength string `json:"strength"` // strong, moderate, light, neutral
	Reason   string `json:"reason"`
	Icon     string `json:"icon"`
	Color    string `json:"color"`
}

// Signal is the traffic-light classification of an asset.
type Signal struct {
	Color string `json:"color"` // danger, warning, opportunity, ok
	Label string `json:"label"`
}

// AnalysisResult is the ephemeral per-asset output of one refresh cycle.
// Never persisted; fully recomputed from current price + history + holdings.
type AnalysisResult struct {
	Symbol      string           `json:"symbol"`
	RSI         float64          `json:"rsi"`
	Heat        float64          `json:"heat"`
	PnLPct      float64          `json:"pnl_pct"`
	ATHDistance float64          `json:"ath_distance"`
	Advice      Advice           `json:"advice"`
	Signal      Signal           `json:"signal"`
	Changes     formulas.Changes `json:"changes"`
}

// Condition is one entry of the market-condition scorecard.
type Condition struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Active bool   `json:"active"`
}

// MarketConditions is the global buy/sell scorecard.
type MarketConditions struct {
	Buy        []Condition `json:"buy"`
	Sell       []Condition `json:"sell"`
	BuyActive  int         `json:"buy_active"`
	SellActive int         `json:"sell_active"`
}

// ActionType classifies a recommended action.
type ActionType string

const (
	ActionSell ActionType = "SELL"
	ActionBuy  ActionType = "BUY"
	ActionHold ActionType = "HOLD"
)

// RecommendedAction is one concrete suggested trade. Pointer fields are nil
// when the rule that produced the action does not supply them (e.g. DCA
// suggestions carry no target price).
type RecommendedAction struct {
	ID           string     `json:"id"`
	Type         ActionType `json:"type"`
	Priority     int        `json:"priority"`
	Asset        string     `json:"asset"`
	Action       string     `json:"action"`
	Quantity     *float64   `json:"quantity,omitempty"`
	Value        *float64   `json:"value,omitempty"`
	CurrentPrice *float64   `json:"current_price,omitempty"`
	TargetPrice  *float64   `json:"target_price,omitempty"`
	Reason       string     `json:"reason"`
	Details      string     `json:"details"`
	Icon         string     `json:"icon"`
	Color        string     `json:"color"`
}

// ActionBanner is the coarse global mood indicator shown above the action list.
type ActionBanner struct {
	Type     string `json:"type"` // buy, sell, monitor, hold
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Badge    string `json:"badge"`
	Icon     string `json:"icon"`
}

// HistoryPoint is one emitted point of the reconstructed portfolio value
// series.
type HistoryPoint struct {
	Time     int64   `json:"time"` // Epoch seconds
	Value    float64 `json:"value"`
	Invested float64 `json:"invested"`
}

// PriceTarget is a user-defined trigger price checked on each price refresh.
type PriceTarget struct {
	ID        int64   `json:"id"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Type      TxType  `json:"type"` // BUY or SELL
	Note      string  `json:"note"`
	CreatedAt int64   `json:"created_at"`
	Triggered bool    `json:"triggered"`
}

// MarketSnapshot is an immutable view of all inputs a computation cycle needs.
// Computation functions take it by value and never mutate shared fetch
// buffers, so recomputes are safe to run repeatedly and concurrently with the
// refresh pipelines.
type MarketSnapshot struct {
	Prices        PriceMap
	History       map[string][]PricePoint // Daily closes per symbol
	HourlyHistory map[string][]PricePoint
	Sentiment     FearGreed
	BTCTrend      *formulas.TrendVsSMA
	Holdings      []Holding
	Ledger        []Transaction
}
