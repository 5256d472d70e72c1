package analysis

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/domain"
	"github.com/erold/cryptofolio/internal/market"
)

// Service recomputes analysis results on demand and caches the latest cycle
// for handlers and the action planner. Results are ephemeral; a restart
// starts from an empty cache and the first refresh repopulates it.
type Service struct {
	holdings   domain.HoldingsStore
	ledger     domain.LedgerStore
	state      *market.State
	thresholds Thresholds
	levels     Levels
	log        zerolog.Logger

	mu         sync.RWMutex
	results    map[string]domain.AnalysisResult
	conditions domain.MarketConditions
	snapshot   domain.MarketSnapshot
}

// NewService creates the analysis service.
func NewService(holdings domain.HoldingsStore, ledger domain.LedgerStore, state *market.State, log zerolog.Logger) *Service {
	return &Service{
		holdings:   holdings,
		ledger:     ledger,
		state:      state,
		thresholds: DefaultThresholds(),
		levels:     DefaultLevels(),
		log:        log.With().Str("service", "analysis").Logger(),
	}
}

// Refresh recomputes all per-asset results and the global conditions from the
// current market state.
func (s *Service) Refresh() error {
	holdings, err := s.holdings.All()
	if err != nil {
		return fmt.Errorf("failed to load holdings: %w", err)
	}
	ledger, err := s.ledger.All()
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	snap := s.state.Snapshot(holdings, ledger)
	results := Analyze(snap, s.thresholds, s.levels)
	conditions := Conditions(snap, results, s.thresholds)

	s.mu.Lock()
	s.results = results
	s.conditions = conditions
	s.snapshot = snap
	s.mu.Unlock()

	s.log.Debug().
		Int("assets", len(results)).
		Int("buy_active", conditions.BuyActive).
		Int("sell_active", conditions.SellActive).
		Msg("Analysis refreshed")
	return nil
}

// Results returns the latest per-asset analysis, keyed by symbol.
func (s *Service) Results() map[string]domain.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.AnalysisResult, len(s.results))
	for symbol, r := range s.results {
		out[symbol] = r
	}
	return out
}

// Conditions returns the latest global scorecard.
func (s *Service) Conditions() domain.MarketConditions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conditions
}

// Snapshot returns the market snapshot the latest results were computed from,
// so consumers (the planner) work on consistent data.
func (s *Service) Snapshot() domain.MarketSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Levels exposes the reference level tables.
func (s *Service) Levels() Levels {
	return s.levels
}
