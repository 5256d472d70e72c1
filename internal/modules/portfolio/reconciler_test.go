package portfolio

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/erold/cryptofolio/internal/domain"
)

func setupPortfolioDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(PortfolioSchema)
	require.NoError(t, err)
	_, err = db.Exec(LedgerSchema)
	require.NoError(t, err)
	return db
}

func testPrices() domain.PriceMap {
	return domain.PriceMap{
		"BTC": {domain.CurrencyUSD: 108000, domain.CurrencyEUR: 100000},
		"XRP": {domain.CurrencyUSD: 2.16, domain.CurrencyEUR: 2.0},
	}
}

func TestEURToUSDRate_FromBTCPair(t *testing.T) {
	rate, degraded := EURToUSDRate(testPrices())
	assert.InDelta(t, 1.08, rate, 0.0001)
	assert.False(t, degraded)
}

func TestEURToUSDRate_FallbackWhenBTCMissing(t *testing.T) {
	rate, degraded := EURToUSDRate(domain.PriceMap{})
	assert.Equal(t, FallbackEURUSD, rate)
	assert.True(t, degraded)
}

func TestCostBasisEUR_StoredValueWins(t *testing.T) {
	h := domain.Holding{Symbol: "XRP", Qty: 100, CostBasisEUR: 150}
	ledger := []domain.Transaction{
		{Asset: "XRP", Type: domain.TxBuy, Qty: 100, Price: 1.0},
	}
	assert.Equal(t, 150.0, CostBasisEUR(h, ledger))
}

func TestCostBasisEUR_LedgerBuySum(t *testing.T) {
	h := domain.Holding{Symbol: "XRP", Qty: 300}
	ledger := []domain.Transaction{
		{Asset: "XRP", Type: domain.TxBuy, Qty: 100, Price: 1.0},
		{Asset: "XRP", Type: domain.TxBuy, Qty: 200, Price: 2.0},
		{Asset: "XRP", Type: domain.TxSell, Qty: 50, Price: 3.0}, // ignored
		{Asset: "BTC", Type: domain.TxBuy, Qty: 1, Price: 50000}, // other asset
	}
	assert.Equal(t, 500.0, CostBasisEUR(h, ledger))
}

func TestCostBasisEUR_AvgPriceFallback(t *testing.T) {
	// EUR average preferred over the legacy USD-epoch average
	h := domain.Holding{Symbol: "XRP", Qty: 100, OriginalQty: 80, AvgPriceEUR: 1.5, AvgPrice: 2.0}
	assert.Equal(t, 120.0, CostBasisEUR(h, nil))

	// Legacy average as last resort, live qty when original is unset
	h = domain.Holding{Symbol: "XRP", Qty: 100, AvgPrice: 2.0}
	assert.Equal(t, 200.0, CostBasisEUR(h, nil))
}

func TestReconciler_Recalculate(t *testing.T) {
	db := setupPortfolioDB(t)
	log := zerolog.New(nil).Level(zerolog.Disabled)

	holdings := NewHoldingRepository(db)
	ledger := NewLedgerRepository(db)

	require.NoError(t, holdings.Upsert(domain.Holding{Symbol: "XRP", Name: "XRP", Qty: 350}))
	require.NoError(t, holdings.Upsert(domain.Holding{Symbol: "HBAR", Name: "Hedera", Qty: 1000, CostBasisEUR: 99}))

	_, err := ledger.Append(domain.Transaction{ID: 1, Date: "2024-01-10", Type: domain.TxBuy, Asset: "XRP", Qty: 100, Price: 1.0})
	require.NoError(t, err)
	_, err = ledger.Append(domain.Transaction{ID: 2, Date: "2024-02-10", Type: domain.TxBuy, Asset: "XRP", Qty: 200, Price: 2.0})
	require.NoError(t, err)

	rec := NewReconciler(holdings, ledger, log)
	require.NoError(t, rec.Recalculate())

	xrp, err := holdings.Get("XRP")
	require.NoError(t, err)
	require.NotNil(t, xrp)
	assert.Equal(t, 500.0, xrp.CostBasisEUR)
	assert.InDelta(t, 500.0/300.0, xrp.AvgPriceEUR, 0.0001)
	assert.Equal(t, 300.0, xrp.OriginalQty)
	// Live qty is never touched by reconciliation
	assert.Equal(t, 350.0, xrp.Qty)

	// No BUY transactions: derived fields stay as they were
	hbar, err := holdings.Get("HBAR")
	require.NoError(t, err)
	require.NotNil(t, hbar)
	assert.Equal(t, 99.0, hbar.CostBasisEUR)

	// Running again is a no-op
	require.NoError(t, rec.Recalculate())
	again, err := holdings.Get("XRP")
	require.NoError(t, err)
	assert.Equal(t, *xrp, *again)
}

func TestValuate_EUR(t *testing.T) {
	holdings := []domain.Holding{{Symbol: "XRP", Qty: 100, CostBasisEUR: 150}}

	v := Valuate(holdings, nil, testPrices(), domain.CurrencyEUR)
	assert.InDelta(t, 200.0, v.Value, 0.0001)
	assert.InDelta(t, 150.0, v.Invested, 0.0001)
	assert.InDelta(t, 50.0, v.PnL, 0.0001)
	assert.InDelta(t, 100.0/3, v.PnLPct, 0.0001)
	assert.False(t, v.Degraded)
}

func TestValuate_USDConvertsInvested(t *testing.T) {
	holdings := []domain.Holding{{Symbol: "XRP", Qty: 100, CostBasisEUR: 150}}

	v := Valuate(holdings, nil, testPrices(), domain.CurrencyUSD)
	assert.InDelta(t, 216.0, v.Value, 0.0001)
	assert.InDelta(t, 162.0, v.Invested, 0.0001) // 150 EUR * 1.08
	assert.False(t, v.Degraded)
}

func TestValuate_DegradedWithoutBTCPair(t *testing.T) {
	holdings := []domain.Holding{{Symbol: "XRP", Qty: 100, CostBasisEUR: 150}}
	prices := domain.PriceMap{"XRP": {domain.CurrencyUSD: 2.16}}

	v := Valuate(holdings, nil, prices, domain.CurrencyUSD)
	assert.True(t, v.Degraded)
	assert.InDelta(t, 150*FallbackEURUSD, v.Invested, 0.0001)
}

func TestHoldingPnLPct(t *testing.T) {
	h := domain.Holding{Symbol: "XRP", Qty: 100, CostBasisEUR: 150}
	assert.InDelta(t, 100.0/3, HoldingPnLPct(h, nil, testPrices()), 0.0001)

	// Unknown cost basis yields 0, not a division error
	assert.Equal(t, 0.0, HoldingPnLPct(domain.Holding{Symbol: "XRP", Qty: 100}, nil, testPrices()))
}

func TestAllocation_SortedByValue(t *testing.T) {
	holdings := []domain.Holding{
		{Symbol: "XRP", Name: "XRP", Qty: 10},   // 20 EUR
		{Symbol: "BTC", Name: "Bitcoin", Qty: 1}, // 100000 EUR
	}

	entries := Allocation(holdings, testPrices(), domain.CurrencyEUR)
	require.Len(t, entries, 2)
	assert.Equal(t, "BTC", entries[0].Symbol)
	assert.Equal(t, "XRP", entries[1].Symbol)
	assert.InDelta(t, 100.0*100000/100020, entries[0].Pct, 0.001)
}

func TestQtyChanged(t *testing.T) {
	assert.False(t, QtyChanged(100, 100.00005))
	assert.True(t, QtyChanged(100, 100.001))
	assert.True(t, QtyChanged(100, 0))
}
