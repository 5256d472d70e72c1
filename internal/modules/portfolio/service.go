// Package portfolio implements holdings, the transaction ledger, valuation
// and wallet synchronization.
package portfolio

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/domain"
	"github.com/erold/cryptofolio/internal/market"
)

// HoldingView is one holding enriched with live valuation.
type HoldingView struct {
	domain.Holding
	Price  float64 `json:"price"`
	Value  float64 `json:"value"`
	PnLPct float64 `json:"pnl_pct"`
}

// Overview is the full portfolio response.
type Overview struct {
	Holdings   []HoldingView     `json:"holdings"`
	Valuation  Valuation         `json:"valuation"`
	Allocation []AllocationEntry `json:"allocation"`
	Currency   domain.Currency   `json:"currency"`
}

// Service exposes portfolio operations: valuation, ledger maintenance and
// price targets. Every ledger mutation triggers a reconcile so derived cost
// fields never drift from the transactions.
type Service struct {
	holdings   domain.HoldingsStore
	ledger     domain.LedgerStore
	targets    domain.TargetStore
	reconciler *Reconciler
	state      *market.State
	currency   domain.Currency
	log        zerolog.Logger
}

// NewService creates the portfolio service.
func NewService(
	holdings domain.HoldingsStore,
	ledger domain.LedgerStore,
	targets domain.TargetStore,
	reconciler *Reconciler,
	state *market.State,
	currency domain.Currency,
	log zerolog.Logger,
) *Service {
	return &Service{
		holdings:   holdings,
		ledger:     ledger,
		targets:    targets,
		reconciler: reconciler,
		state:      state,
		currency:   currency,
		log:        log.With().Str("service", "portfolio").Logger(),
	}
}

// Overview returns all holdings valued at current prices, plus totals and
// allocation. currency overrides the configured display currency when set.
func (s *Service) Overview(currency domain.Currency) (*Overview, error) {
	if currency == "" {
		currency = s.currency
	}
	if currency != domain.CurrencyEUR && currency != domain.CurrencyUSD {
		return nil, fmt.Errorf("unsupported currency %q", currency)
	}

	holdings, err := s.holdings.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	ledger, err := s.ledger.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	snap := s.state.Snapshot(holdings, ledger)

	views := make([]HoldingView, 0, len(holdings))
	for _, h := range holdings {
		price := snap.Prices.Price(h.Symbol, currency)
		views = append(views, HoldingView{
			Holding: h,
			Price:   price,
			Value:   h.Qty * price,
			PnLPct:  HoldingPnLPct(h, ledger, snap.Prices),
		})
	}

	return &Overview{
		Holdings:   views,
		Valuation:  Valuate(holdings, ledger, snap.Prices, currency),
		Allocation: Allocation(holdings, snap.Prices, currency),
		Currency:   currency,
	}, nil
}

// Transactions returns the full ledger, oldest first.
func (s *Service) Transactions() ([]domain.Transaction, error) {
	return s.ledger.All()
}

// AddTransaction appends a transaction and reconciles derived cost fields.
// An unknown asset gets a holding row created so it valuates immediately.
func (s *Service) AddTransaction(tx domain.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	existing, err := s.holdings.Get(tx.Asset)
	if err != nil {
		return 0, fmt.Errorf("failed to look up holding %s: %w", tx.Asset, err)
	}
	if existing == nil {
		if err := s.holdings.Upsert(domain.Holding{Symbol: tx.Asset, Name: tx.Asset, Qty: tx.Qty}); err != nil {
			return 0, fmt.Errorf("failed to create holding %s: %w", tx.Asset, err)
		}
	}

	id, err := s.ledger.Append(tx)
	if err != nil {
		return 0, err
	}

	if err := s.reconciler.Recalculate(); err != nil {
		return id, fmt.Errorf("transaction %d recorded but reconcile failed: %w", id, err)
	}

	s.log.Info().
		Int64("id", id).
		Str("asset", tx.Asset).
		Str("type", string(tx.Type)).
		Float64("qty", tx.Qty).
		Float64("price", tx.Price).
		Msg("Recorded transaction")
	return id, nil
}

// DeleteTransaction removes a ledger entry and reconciles.
func (s *Service) DeleteTransaction(id int64) error {
	if err := s.ledger.Delete(id); err != nil {
		return err
	}
	if err := s.reconciler.Recalculate(); err != nil {
		return fmt.Errorf("transaction %d deleted but reconcile failed: %w", id, err)
	}
	s.log.Info().Int64("id", id).Msg("Deleted transaction")
	return nil
}

// Targets returns all price targets.
func (s *Service) Targets() ([]domain.PriceTarget, error) {
	return s.targets.All()
}

// AddTarget creates a price target.
func (s *Service) AddTarget(t domain.PriceTarget) (int64, error) {
	return s.targets.Create(t)
}

// DeleteTarget removes a price target.
func (s *Service) DeleteTarget(id int64) error {
	return s.targets.Delete(id)
}

// CheckTargets marks untriggered targets whose threshold the current price
// has crossed: SELL targets trigger at or above the price, BUY targets at or
// below. Returns the targets that fired on this check.
func (s *Service) CheckTargets() ([]domain.PriceTarget, error) {
	targets, err := s.targets.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load targets: %w", err)
	}

	snap := s.state.Snapshot(nil, nil)

	var fired []domain.PriceTarget
	for _, t := range targets {
		if t.Triggered {
			continue
		}
		price := snap.Prices.Price(t.Symbol, s.currency)
		if price <= 0 {
			continue
		}

		hit := (t.Type == domain.TxSell && price >= t.Price) ||
			(t.Type == domain.TxBuy && price <= t.Price)
		if !hit {
			continue
		}

		if err := s.targets.MarkTriggered(t.ID); err != nil {
			s.log.Warn().Err(err).Int64("id", t.ID).Msg("Failed to mark target triggered")
			continue
		}
		t.Triggered = true
		fired = append(fired, t)
		s.log.Info().
			Str("symbol", t.Symbol).
			Str("type", string(t.Type)).
			Float64("target", t.Price).
			Float64("price", price).
			Msg("Price target hit")
	}

	return fired, nil
}
