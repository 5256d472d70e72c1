// Package market holds the shared in-memory view of current market data.
// The refresh pipelines write into it independently at their own cadences;
// readers take immutable snapshots, so a stalled pipeline only means stale
// data for its slice, never a blocked reader.
package market

import (
	"sync"

	"github.com/erold/cryptofolio/internal/domain"
	"github.com/erold/cryptofolio/pkg/formulas"
)

// State is the concurrent-safe holder of the latest fetched market data.
type State struct {
	mu            sync.RWMutex
	prices        domain.PriceMap
	history       map[string][]domain.PricePoint
	hourlyHistory map[string][]domain.PricePoint
	sentiment     domain.FearGreed
	btcTrend      *formulas.TrendVsSMA
}

// NewState creates an empty state with neutral sentiment.
func NewState() *State {
	return &State{
		prices:        domain.PriceMap{},
		history:       map[string][]domain.PricePoint{},
		hourlyHistory: map[string][]domain.PricePoint{},
		sentiment:     domain.NeutralFearGreed,
	}
}

// SetPrices replaces the price snapshot wholesale. Partial updates are not
// supported: a fetch either produced a full consistent snapshot or nothing.
func (s *State) SetPrices(prices domain.PriceMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = prices
}

// SetHistory replaces one symbol's daily close series.
func (s *State) SetHistory(symbol string, points []domain.PricePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[symbol] = points
}

// SetHourlyHistory replaces one symbol's hourly close series.
func (s *State) SetHourlyHistory(symbol string, points []domain.PricePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hourlyHistory[symbol] = points
}

// SetSentiment replaces the fear & greed index.
func (s *State) SetSentiment(fng domain.FearGreed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentiment = fng
}

// SetBTCTrend replaces the BTC-vs-SMA200 trend context.
func (s *State) SetBTCTrend(trend *formulas.TrendVsSMA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.btcTrend = trend
}

// Snapshot returns an immutable copy of the current market view combined with
// the given holdings and ledger. Maps are shallow-copied; the slices they
// hold are replaced wholesale by the writers, never mutated in place.
func (s *State) Snapshot(holdings []domain.Holding, ledger []domain.Transaction) domain.MarketSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prices := make(domain.PriceMap, len(s.prices))
	for symbol, byCurrency := range s.prices {
		copied := make(map[domain.Currency]float64, len(byCurrency))
		for currency, price := range byCurrency {
			copied[currency] = price
		}
		prices[symbol] = copied
	}

	history := make(map[string][]domain.PricePoint, len(s.history))
	for symbol, points := range s.history {
		history[symbol] = points
	}
	hourly := make(map[string][]domain.PricePoint, len(s.hourlyHistory))
	for symbol, points := range s.hourlyHistory {
		hourly[symbol] = points
	}

	return domain.MarketSnapshot{
		Prices:        prices,
		History:       history,
		HourlyHistory: hourly,
		Sentiment:     s.sentiment,
		BTCTrend:      s.btcTrend,
		Holdings:      holdings,
		Ledger:        ledger,
	}
}
