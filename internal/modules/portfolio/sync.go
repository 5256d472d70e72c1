package portfolio

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/domain"
)

// SyncChange records one balance update applied by a sync run.
type SyncChange struct {
	Symbol string  `json:"symbol"`
	OldQty float64 `json:"old_qty"`
	NewQty float64 `json:"new_qty"`
}

// SyncReport summarizes one wallet sync run.
type SyncReport struct {
	Skipped   bool         `json:"skipped"`
	Synced    []SyncChange `json:"synced"`
	Unchanged []string     `json:"unchanged"`
	Failed    []string     `json:"failed"`
}

// WalletSyncService refreshes holding quantities from on-chain balances.
// One reader per chain; holdings without a reader are left alone.
type WalletSyncService struct {
	holdings domain.HoldingsStore
	readers  map[string]domain.ChainBalanceReader
	inFlight atomic.Bool
	log      zerolog.Logger
}

// NewWalletSyncService creates a sync service over the given readers.
func NewWalletSyncService(holdings domain.HoldingsStore, readers []domain.ChainBalanceReader, log zerolog.Logger) *WalletSyncService {
	bySymbol := make(map[string]domain.ChainBalanceReader, len(readers))
	for _, r := range readers {
		bySymbol[r.Symbol()] = r
	}
	return &WalletSyncService{
		holdings: holdings,
		readers:  bySymbol,
		log:      log.With().Str("service", "wallet_sync").Logger(),
	}
}

// SyncAll reads every configured chain balance and updates holding
// quantities. Concurrent calls do not stack: if a run is already in flight
// the call returns immediately with Skipped set, so a slow chain API cannot
// pile up scheduled runs behind it.
//
// A fetched balance of exactly zero for a holding that previously had a
// positive quantity is refused: a suddenly empty wallet is far more likely an
// API hiccup than a real liquidation, and accepting it would zero the
// portfolio. The read is counted as failed and the stored quantity kept.
func (s *WalletSyncService) SyncAll(ctx context.Context) (SyncReport, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Warn().Msg("Sync already in flight, skipping")
		return SyncReport{Skipped: true}, nil
	}
	defer s.inFlight.Store(false)

	holdings, err := s.holdings.All()
	if err != nil {
		return SyncReport{}, fmt.Errorf("failed to load holdings: %w", err)
	}

	report := SyncReport{}
	for _, h := range holdings {
		reader, ok := s.readers[h.Symbol]
		if !ok {
			report.Unchanged = append(report.Unchanged, h.Symbol)
			continue
		}

		qty, err := reader.FetchBalance(ctx)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", h.Symbol).Msg("Balance fetch failed")
			report.Failed = append(report.Failed, h.Symbol)
			continue
		}
		if math.IsNaN(qty) || qty < 0 {
			s.log.Warn().Float64("qty", qty).Str("symbol", h.Symbol).Msg("Rejecting invalid balance")
			report.Failed = append(report.Failed, h.Symbol)
			continue
		}
		if qty == 0 && h.Qty > 0 {
			s.log.Warn().
				Str("symbol", h.Symbol).
				Float64("stored_qty", h.Qty).
				Msg("Rejecting suspicious zero balance, keeping stored quantity")
			report.Failed = append(report.Failed, h.Symbol)
			continue
		}

		if !QtyChanged(h.Qty, qty) {
			report.Unchanged = append(report.Unchanged, h.Symbol)
			continue
		}

		if err := s.holdings.UpdateQty(h.Symbol, qty); err != nil {
			s.log.Error().Err(err).Str("symbol", h.Symbol).Msg("Failed to persist synced quantity")
			report.Failed = append(report.Failed, h.Symbol)
			continue
		}

		s.log.Info().
			Str("symbol", h.Symbol).
			Float64("old_qty", h.Qty).
			Float64("new_qty", qty).
			Msg("Synced balance")
		report.Synced = append(report.Synced, SyncChange{Symbol: h.Symbol, OldQty: h.Qty, NewQty: qty})
	}

	return report, nil
}
