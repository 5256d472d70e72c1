package domain

import "context"

// PriceProvider fetches current spot prices for a set of symbols.
type PriceProvider interface {
	FetchPrices(ctx context.Context, symbols []string) (PriceMap, error)
}

// HistoryProvider fetches historical close series for a symbol.
type HistoryProvider interface {
	FetchDailyHistory(ctx context.Context, symbol string, days int) ([]PricePoint, error)
	FetchHourlyHistory(ctx context.Context, symbol string, hours int) ([]PricePoint, error)
}

// SentimentProvider fetches the fear & greed index.
type SentimentProvider interface {
	FetchFearGreed(ctx context.Context) (FearGreed, error)
}

// ChainBalanceReader reads an on-chain balance for one configured wallet.
type ChainBalanceReader interface {
	// Symbol returns the asset symbol this reader resolves balances for.
	Symbol() string
	// FetchBalance returns the current on-chain quantity.
	FetchBalance(ctx context.Context) (float64, error)
}

// LedgerStore persists the append-only transaction ledger.
type LedgerStore interface {
	Append(tx Transaction) (int64, error)
	Delete(id int64) error
	All() ([]Transaction, error)
	ByAsset(symbol string) ([]Transaction, error)
}

// HoldingsStore persists tracked asset rows.
type HoldingsStore interface {
	All() ([]Holding, error)
	Get(symbol string) (*Holding, error)
	Upsert(h Holding) error
	UpdateQty(symbol string, qty float64) error
	UpdateDerived(symbol string, costBasisEUR, avgPriceEUR, originalQty float64) error
	Delete(symbol string) error
}

// SnapshotStore persists daily portfolio valuations.
type SnapshotStore interface {
	Upsert(s Snapshot) error
	Range(fromDate, toDate string) ([]Snapshot, error)
	Latest() (*Snapshot, error)
	Prune(retentionDays int) (int64, error)
}

// TargetStore persists user-defined price targets.
type TargetStore interface {
	Create(t PriceTarget) (int64, error)
	All() ([]PriceTarget, error)
	MarkTriggered(id int64) error
	Delete(id int64) error
}
