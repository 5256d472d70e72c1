package portfolio

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erold/cryptofolio/internal/domain"
)

type fakeReader struct {
	symbol  string
	qty     float64
	err     error
	release chan struct{} // when set, FetchBalance blocks until closed
}

func (f *fakeReader) Symbol() string { return f.symbol }

func (f *fakeReader) FetchBalance(ctx context.Context) (float64, error) {
	if f.release != nil {
		<-f.release
	}
	return f.qty, f.err
}

func setupSyncService(t *testing.T, readers ...domain.ChainBalanceReader) (*WalletSyncService, *HoldingRepository) {
	t.Helper()
	db := setupPortfolioDB(t)
	holdings := NewHoldingRepository(db)
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewWalletSyncService(holdings, readers, log), holdings
}

func TestSyncAll_UpdatesChangedBalances(t *testing.T) {
	svc, holdings := setupSyncService(t,
		&fakeReader{symbol: "XRP", qty: 120.5},
		&fakeReader{symbol: "HBAR", qty: 1000},
	)
	require.NoError(t, holdings.Upsert(domain.Holding{Symbol: "XRP", Name: "XRP", Qty: 100}))
	require.NoError(t, holdings.Upsert(domain.Holding{Symbol: "HBAR", Name: "Hedera", Qty: 1000}))
	require.NoError(t, holdings.Upsert(domain.Holding{Symbol: "BTC", Name: "Bitcoin", Qty: 0.5}))

	report, err := svc.SyncAll(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Skipped)
	require.Len(t, report.Synced, 1)
	assert.Equal(t, SyncChange{Symbol: "XRP", OldQty: 100, NewQty: 120.5}, report.Synced[0])
	// HBAR unchanged within epsilon, BTC has no reader
	assert.ElementsMatch(t, []string{"HBAR", "BTC"}, report.Unchanged)
	assert.Empty(t, report.Failed)

	xrp, err := holdings.Get("XRP")
	require.NoError(t, err)
	assert.Equal(t, 120.5, xrp.Qty)
}

func TestSyncAll_RefusesSuspiciousZero(t *testing.T) {
	svc, holdings := setupSyncService(t, &fakeReader{symbol: "XRP", qty: 0})
	require.NoError(t, holdings.Upsert(domain.Holding{Symbol: "XRP", Name: "XRP", Qty: 500}))

	report, err := svc.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"XRP"}, report.Failed)
	xrp, err := holdings.Get("XRP")
	require.NoError(t, err)
	assert.Equal(t, 500.0, xrp.Qty)
}

func TestSyncAll_ZeroAcceptedWhenStoredIsZero(t *testing.T) {
	svc, holdings := setupSyncService(t, &fakeReader{symbol: "XRP", qty: 0})
	require.NoError(t, holdings.Upsert(domain.Holding{Symbol: "XRP", Name: "XRP", Qty: 0}))

	report, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"XRP"}, report.Unchanged)
	assert.Empty(t, report.Failed)
}

func TestSyncAll_FetchErrorKeepsStoredQty(t *testing.T) {
	svc, holdings := setupSyncService(t, &fakeReader{symbol: "XRP", err: errors.New("rpc down")})
	require.NoError(t, holdings.Upsert(domain.Holding{Symbol: "XRP", Name: "XRP", Qty: 500}))

	report, err := svc.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"XRP"}, report.Failed)
	xrp, err := holdings.Get("XRP")
	require.NoError(t, err)
	assert.Equal(t, 500.0, xrp.Qty)
}

func TestSyncAll_RejectsNegativeBalance(t *testing.T) {
	svc, holdings := setupSyncService(t, &fakeReader{symbol: "XRP", qty: -5})
	require.NoError(t, holdings.Upsert(domain.Holding{Symbol: "XRP", Name: "XRP", Qty: 500}))

	report, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"XRP"}, report.Failed)
}

func TestSyncAll_ConcurrentRunSkipped(t *testing.T) {
	release := make(chan struct{})
	slow := &fakeReader{symbol: "XRP", qty: 100, release: release}
	svc, holdings := setupSyncService(t, slow)
	require.NoError(t, holdings.Upsert(domain.Holding{Symbol: "XRP", Name: "XRP", Qty: 50}))

	var wg sync.WaitGroup
	wg.Add(1)
	started := make(chan struct{})
	go func() {
		defer wg.Done()
		close(started)
		_, _ = svc.SyncAll(context.Background())
	}()

	<-started
	// Wait until the first run holds the in-flight flag
	for !svc.inFlight.Load() {
	}

	report, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Skipped)

	close(release)
	wg.Wait()

	// After the first run completes, a new run proceeds normally
	report, err = svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Skipped)
}
