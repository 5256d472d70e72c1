package history

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/domain"
	"github.com/erold/cryptofolio/internal/market"
	"github.com/erold/cryptofolio/internal/modules/portfolio"
)

// Response is the /api/history payload.
type Response struct {
	Range         int                   `json:"range"` // days, 0 = all
	Currency      domain.Currency       `json:"currency"`
	Points        []domain.HistoryPoint `json:"points"`
	BTCComparison []float64             `json:"btc_comparison,omitempty"`
	Stats         SeriesStats           `json:"stats"`
}

// Service reconstructs portfolio history and maintains valuation snapshots.
type Service struct {
	prices    *PriceRepository
	snapshots *SnapshotRepository
	holdings  domain.HoldingsStore
	ledger    domain.LedgerStore
	state     *market.State
	currency  domain.Currency
	log       zerolog.Logger
}

// NewService creates the history service.
func NewService(
	prices *PriceRepository,
	snapshots *SnapshotRepository,
	holdings domain.HoldingsStore,
	ledger domain.LedgerStore,
	state *market.State,
	currency domain.Currency,
	log zerolog.Logger,
) *Service {
	return &Service{
		prices:    prices,
		snapshots: snapshots,
		holdings:  holdings,
		ledger:    ledger,
		state:     state,
		currency:  currency,
		log:       log.With().Str("service", "history").Logger(),
	}
}

// snapshot loads holdings and ledger and combines them with market state.
func (s *Service) snapshot() (domain.MarketSnapshot, error) {
	holdings, err := s.holdings.All()
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("failed to load holdings: %w", err)
	}
	ledger, err := s.ledger.All()
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("failed to load ledger: %w", err)
	}
	return s.state.Snapshot(holdings, ledger), nil
}

// History returns the reconstructed value series. Ranges of a week or less
// use hourly resolution; longer ranges (and 0, meaning the full series) use
// the daily ledger replay. compareBTC adds the BTC benchmark to daily series.
func (s *Service) History(rangeDays int, currency domain.Currency, compareBTC bool) (*Response, error) {
	if currency == "" {
		currency = s.currency
	}
	if currency != domain.CurrencyEUR && currency != domain.CurrencyUSD {
		return nil, fmt.Errorf("unsupported currency %q", currency)
	}
	if rangeDays < 0 {
		return nil, fmt.Errorf("invalid range %d", rangeDays)
	}

	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	resp := &Response{Range: rangeDays, Currency: currency}

	if rangeDays > 0 && rangeDays <= 7 {
		resp.Points = ReconstructHourly(snap, rangeDays, currency)
	} else {
		resp.Points = Reconstruct(snap, rangeDays, currency)
		if compareBTC {
			resp.BTCComparison = BTCComparison(snap, resp.Points, currency)
		}
	}
	if resp.Points == nil {
		resp.Points = []domain.HistoryPoint{}
	}
	resp.Stats = ComputeStats(resp.Points)

	return resp, nil
}

// RecordSnapshot persists today's real valuation snapshot in the ledger
// currency and prunes expired rows. Called by the scheduler after each
// successful valuation cycle.
func (s *Service) RecordSnapshot() error {
	holdings, err := s.holdings.All()
	if err != nil {
		return fmt.Errorf("failed to load holdings: %w", err)
	}
	ledger, err := s.ledger.All()
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	snap := s.state.Snapshot(holdings, ledger)

	valuation := portfolio.Valuate(holdings, ledger, snap.Prices, domain.LedgerCurrency)
	if valuation.Value <= 0 {
		// No prices yet; recording a zero snapshot would poison the series.
		s.log.Debug().Msg("Skipping snapshot, no valuation available")
		return nil
	}

	now := time.Now().UTC()
	err = s.snapshots.Upsert(domain.Snapshot{
		Date:      now.Format(domain.DateFormat),
		Timestamp: now.Unix(),
		Value:     valuation.Value,
		Invested:  valuation.Invested,
		PnL:       valuation.PnL,
		Currency:  domain.LedgerCurrency,
		Generated: false,
	})
	if err != nil {
		return err
	}

	pruned, err := s.snapshots.Prune(domain.SnapshotRetentionDays)
	if err != nil {
		return err
	}
	if pruned > 0 {
		s.log.Info().Int64("pruned", pruned).Msg("Pruned expired snapshots")
	}
	return nil
}

// BackfillSnapshots fills snapshot gaps with generated valuations from the
// ledger replay. Real snapshots are never overwritten; re-running is
// idempotent.
func (s *Service) BackfillSnapshots() error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}

	series := Reconstruct(snap, 0, domain.LedgerCurrency)
	if len(series) == 0 {
		return nil
	}

	for _, point := range series {
		err := s.snapshots.Upsert(domain.Snapshot{
			Date:      dateOf(point.Time),
			Timestamp: point.Time,
			Value:     point.Value,
			Invested:  point.Invested,
			PnL:       point.Value - point.Invested,
			Currency:  domain.LedgerCurrency,
			Generated: true,
		})
		if err != nil {
			return fmt.Errorf("failed to backfill snapshot %s: %w", dateOf(point.Time), err)
		}
	}

	s.log.Info().Int("points", len(series)).Msg("Backfilled generated snapshots")
	return nil
}

// Snapshots returns the persisted snapshots for the last rangeDays days
// (0 = full retention window).
func (s *Service) Snapshots(rangeDays int) ([]domain.Snapshot, error) {
	to := time.Now().UTC().Format(domain.DateFormat)
	from := "0000-01-01"
	if rangeDays > 0 {
		from = time.Now().UTC().AddDate(0, 0, -rangeDays).Format(domain.DateFormat)
	}
	return s.snapshots.Range(from, to)
}

// LoadPersisted seeds the in-memory market state with the close series on
// disk, so analysis and charts work immediately after a restart while the
// first fetch cycle is still running.
func (s *Service) LoadPersisted() error {
	symbols, err := s.prices.Symbols()
	if err != nil {
		return err
	}
	for _, symbol := range symbols {
		series, err := s.prices.Series(symbol)
		if err != nil {
			return err
		}
		s.state.SetHistory(symbol, series)
	}
	if len(symbols) > 0 {
		s.log.Info().Int("symbols", len(symbols)).Msg("Seeded market state from persisted history")
	}
	return nil
}

// MergeSeries persists freshly fetched daily closes and updates the
// in-memory state.
func (s *Service) MergeSeries(symbol string, points []domain.PricePoint) error {
	if err := s.prices.Merge(symbol, points); err != nil {
		return err
	}
	// Serve the merged series, not just the fetch window.
	merged, err := s.prices.Series(symbol)
	if err != nil {
		return err
	}
	s.state.SetHistory(symbol, merged)
	return nil
}
