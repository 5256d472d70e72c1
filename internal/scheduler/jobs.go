package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/domain"
	"github.com/erold/cryptofolio/internal/market"
	"github.com/erold/cryptofolio/internal/modules/analysis"
	"github.com/erold/cryptofolio/internal/modules/history"
	"github.com/erold/cryptofolio/internal/modules/portfolio"
	"github.com/erold/cryptofolio/internal/reliability"
	"github.com/erold/cryptofolio/pkg/formulas"
)

// DailyHistoryDays is the fetch window for daily close series.
const DailyHistoryDays = 365

// HourlyHistoryHours is the fetch window for hourly close series.
const HourlyHistoryHours = 168

// BTCTrendSMALength is the moving-average length for the BTC trend context.
const BTCTrendSMALength = 200

// trackedSymbols returns the holdings' symbols with BTC appended: BTC is
// always fetched as the reference asset for cross rates and the trend
// context, whether or not it is held.
func trackedSymbols(holdings domain.HoldingsStore) ([]string, error) {
	all, err := holdings.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	symbols := make([]string, 0, len(all)+1)
	hasBTC := false
	for _, h := range all {
		symbols = append(symbols, h.Symbol)
		if h.Symbol == "BTC" {
			hasBTC = true
		}
	}
	if !hasBTC {
		symbols = append(symbols, "BTC")
	}
	return symbols, nil
}

// PricesJob refreshes spot prices, recomputes analysis and checks price
// targets. This is the fastest pipeline.
type PricesJob struct {
	Provider  domain.PriceProvider
	Holdings  domain.HoldingsStore
	State     *market.State
	Analysis  *analysis.Service
	Portfolio *portfolio.Service
	Timeout   time.Duration
	Log       zerolog.Logger
}

// Name implements Job.
func (j *PricesJob) Name() string { return "prices_refresh" }

// Run implements Job.
func (j *PricesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.Timeout)
	defer cancel()

	symbols, err := trackedSymbols(j.Holdings)
	if err != nil {
		return err
	}

	prices, err := j.Provider.FetchPrices(ctx, symbols)
	if err != nil {
		return err
	}
	j.State.SetPrices(prices)

	if err := j.Analysis.Refresh(); err != nil {
		return err
	}

	fired, err := j.Portfolio.CheckTargets()
	if err != nil {
		j.Log.Warn().Err(err).Msg("Price target check failed")
	} else if len(fired) > 0 {
		j.Log.Info().Int("targets", len(fired)).Msg("Price targets fired")
	}

	return nil
}

// SentimentJob refreshes the fear & greed index.
type SentimentJob struct {
	Provider domain.SentimentProvider
	State    *market.State
	Analysis *analysis.Service
	Timeout  time.Duration
}

// Name implements Job.
func (j *SentimentJob) Name() string { return "sentiment_refresh" }

// Run implements Job.
func (j *SentimentJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.Timeout)
	defer cancel()

	fng, err := j.Provider.FetchFearGreed(ctx)
	if err != nil {
		return err
	}
	j.State.SetSentiment(fng)
	return j.Analysis.Refresh()
}

// HistoryJob refreshes daily and hourly close series, recomputes the BTC
// trend context and backfills generated snapshots. This is the slowest
// pipeline; per-symbol failures are logged and skipped so one bad symbol
// cannot starve the rest.
type HistoryJob struct {
	Provider domain.HistoryProvider
	Holdings domain.HoldingsStore
	State    *market.State
	History  *history.Service
	Analysis *analysis.Service
	Timeout  time.Duration
	Log      zerolog.Logger
}

// Name implements Job.
func (j *HistoryJob) Name() string { return "history_refresh" }

// Run implements Job.
func (j *HistoryJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.Timeout)
	defer cancel()

	symbols, err := trackedSymbols(j.Holdings)
	if err != nil {
		return err
	}

	var btcCloses []domain.PricePoint
	for _, symbol := range symbols {
		daily, err := j.Provider.FetchDailyHistory(ctx, symbol, DailyHistoryDays)
		if err != nil {
			j.Log.Warn().Err(err).Str("symbol", symbol).Msg("Daily history fetch failed")
		} else {
			if err := j.History.MergeSeries(symbol, daily); err != nil {
				j.Log.Warn().Err(err).Str("symbol", symbol).Msg("History merge failed")
			}
			if symbol == "BTC" {
				btcCloses = daily
			}
		}

		hourly, err := j.Provider.FetchHourlyHistory(ctx, symbol, HourlyHistoryHours)
		if err != nil {
			j.Log.Warn().Err(err).Str("symbol", symbol).Msg("Hourly history fetch failed")
		} else {
			j.State.SetHourlyHistory(symbol, hourly)
		}
	}

	if len(btcCloses) > 0 {
		closes := make([]float64, len(btcCloses))
		for i, p := range btcCloses {
			closes[i] = p.Close
		}
		j.State.SetBTCTrend(formulas.CalculateTrendVsSMA(closes, BTCTrendSMALength))
	}

	if err := j.Analysis.Refresh(); err != nil {
		return err
	}
	return j.History.BackfillSnapshots()
}

// WalletSyncJob refreshes holding quantities from on-chain balances.
type WalletSyncJob struct {
	Sync    *portfolio.WalletSyncService
	Timeout time.Duration
}

// Name implements Job.
func (j *WalletSyncJob) Name() string { return "wallet_sync" }

// Run implements Job.
func (j *WalletSyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.Timeout)
	defer cancel()

	_, err := j.Sync.SyncAll(ctx)
	return err
}

// SnapshotJob records the daily valuation snapshot.
type SnapshotJob struct {
	History *history.Service
}

// Name implements Job.
func (j *SnapshotJob) Name() string { return "snapshot_record" }

// Run implements Job.
func (j *SnapshotJob) Run() error {
	return j.History.RecordSnapshot()
}

// BackupJob uploads a database backup to the configured bucket.
type BackupJob struct {
	Backup  *reliability.BackupService
	Timeout time.Duration
}

// Name implements Job.
func (j *BackupJob) Name() string { return "cloud_backup" }

// Run implements Job.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.Timeout)
	defer cancel()

	return j.Backup.CreateAndUpload(ctx)
}
