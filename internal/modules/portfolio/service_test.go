package portfolio

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erold/cryptofolio/internal/domain"
	"github.com/erold/cryptofolio/internal/market"
)

func setupService(t *testing.T) (*Service, *HoldingRepository, *LedgerRepository, *market.State) {
	t.Helper()
	db := setupPortfolioDB(t)
	log := zerolog.New(nil).Level(zerolog.Disabled)

	holdings := NewHoldingRepository(db)
	ledger := NewLedgerRepository(db)
	targets := NewTargetRepository(db)
	state := market.NewState()
	rec := NewReconciler(holdings, ledger, log)
	svc := NewService(holdings, ledger, targets, rec, state, domain.CurrencyEUR, log)
	return svc, holdings, ledger, state
}

func TestAddTransaction_CreatesHoldingAndReconciles(t *testing.T) {
	svc, holdings, _, _ := setupService(t)

	id, err := svc.AddTransaction(domain.Transaction{
		Date: "2024-03-01", Type: domain.TxBuy, Asset: "XRP", Qty: 100, Price: 1.5,
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	h, err := holdings.Get("XRP")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, 100.0, h.Qty)
	assert.Equal(t, 150.0, h.CostBasisEUR)
	assert.Equal(t, 1.5, h.AvgPriceEUR)
	assert.Equal(t, 100.0, h.OriginalQty)
}

func TestAddTransaction_RejectsInvalid(t *testing.T) {
	svc, _, _, _ := setupService(t)

	cases := []domain.Transaction{
		{Date: "2024-03-01", Type: domain.TxBuy, Asset: "xrp", Qty: 100, Price: 1.5},
		{Date: "2024-03-01", Type: "TRANSFER", Asset: "XRP", Qty: 100, Price: 1.5},
		{Date: "2024-03-01", Type: domain.TxBuy, Asset: "XRP", Qty: 0, Price: 1.5},
		{Date: "2024-03-01", Type: domain.TxBuy, Asset: "XRP", Qty: 100, Price: -1},
		{Date: "01/03/2024", Type: domain.TxBuy, Asset: "XRP", Qty: 100, Price: 1.5},
	}
	for _, tx := range cases {
		_, err := svc.AddTransaction(tx)
		assert.Error(t, err)
	}
}

func TestDeleteTransaction_Reconciles(t *testing.T) {
	svc, holdings, _, _ := setupService(t)

	id1, err := svc.AddTransaction(domain.Transaction{
		ID: 1, Date: "2024-03-01", Type: domain.TxBuy, Asset: "XRP", Qty: 100, Price: 1.0,
	})
	require.NoError(t, err)
	_, err = svc.AddTransaction(domain.Transaction{
		ID: 2, Date: "2024-03-02", Type: domain.TxBuy, Asset: "XRP", Qty: 100, Price: 2.0,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTransaction(id1))

	h, err := holdings.Get("XRP")
	require.NoError(t, err)
	assert.Equal(t, 200.0, h.CostBasisEUR)
	assert.Equal(t, 100.0, h.OriginalQty)

	assert.Error(t, svc.DeleteTransaction(99999))
}

func TestOverview_RejectsUnknownCurrency(t *testing.T) {
	svc, _, _, _ := setupService(t)
	_, err := svc.Overview("GBP")
	assert.Error(t, err)
}

func TestOverview_ValuesHoldings(t *testing.T) {
	svc, holdings, _, state := setupService(t)
	require.NoError(t, holdings.Upsert(domain.Holding{Symbol: "XRP", Name: "XRP", Qty: 100, CostBasisEUR: 150}))
	state.SetPrices(testPrices())

	ov, err := svc.Overview("")
	require.NoError(t, err)

	assert.Equal(t, domain.CurrencyEUR, ov.Currency)
	require.Len(t, ov.Holdings, 1)
	assert.Equal(t, 2.0, ov.Holdings[0].Price)
	assert.Equal(t, 200.0, ov.Holdings[0].Value)
	assert.InDelta(t, 100.0/3, ov.Holdings[0].PnLPct, 0.0001)
	assert.InDelta(t, 200.0, ov.Valuation.Value, 0.0001)
}

func TestCheckTargets(t *testing.T) {
	svc, _, _, state := setupService(t)
	state.SetPrices(testPrices()) // XRP at 2.00 EUR

	sellHit, err := svc.AddTarget(domain.PriceTarget{Symbol: "XRP", Price: 1.8, Type: domain.TxSell})
	require.NoError(t, err)
	_, err = svc.AddTarget(domain.PriceTarget{Symbol: "XRP", Price: 2.5, Type: domain.TxSell})
	require.NoError(t, err)
	buyHit, err := svc.AddTarget(domain.PriceTarget{Symbol: "XRP", Price: 2.2, Type: domain.TxBuy})
	require.NoError(t, err)
	_, err = svc.AddTarget(domain.PriceTarget{Symbol: "XRP", Price: 1.5, Type: domain.TxBuy})
	require.NoError(t, err)

	fired, err := svc.CheckTargets()
	require.NoError(t, err)

	firedIDs := make([]int64, 0, len(fired))
	for _, f := range fired {
		firedIDs = append(firedIDs, f.ID)
		assert.True(t, f.Triggered)
	}
	assert.ElementsMatch(t, []int64{sellHit, buyHit}, firedIDs)

	// A second check does not re-fire triggered targets
	fired, err = svc.CheckTargets()
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestTargetRepository_Validation(t *testing.T) {
	db := setupPortfolioDB(t)
	targets := NewTargetRepository(db)

	_, err := targets.Create(domain.PriceTarget{Symbol: "xrp", Price: 1, Type: domain.TxBuy})
	assert.Error(t, err)
	_, err = targets.Create(domain.PriceTarget{Symbol: "XRP", Price: 0, Type: domain.TxBuy})
	assert.Error(t, err)
	_, err = targets.Create(domain.PriceTarget{Symbol: "XRP", Price: 1, Type: domain.TxSwap})
	assert.Error(t, err)
}

func TestLedgerRepository_Ordering(t *testing.T) {
	db := setupPortfolioDB(t)
	ledger := NewLedgerRepository(db)

	// Inserted out of date order, returned sorted by date then ID
	_, err := ledger.Append(domain.Transaction{ID: 10, Date: "2024-02-01", Type: domain.TxBuy, Asset: "XRP", Qty: 1, Price: 1})
	require.NoError(t, err)
	_, err = ledger.Append(domain.Transaction{ID: 5, Date: "2024-01-01", Type: domain.TxBuy, Asset: "XRP", Qty: 1, Price: 1})
	require.NoError(t, err)
	_, err = ledger.Append(domain.Transaction{ID: 7, Date: "2024-01-01", Type: domain.TxSell, Asset: "BTC", Qty: 1, Price: 1})
	require.NoError(t, err)

	all, err := ledger.All()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(5), all[0].ID)
	assert.Equal(t, int64(7), all[1].ID)
	assert.Equal(t, int64(10), all[2].ID)

	xrp, err := ledger.ByAsset("XRP")
	require.NoError(t, err)
	require.Len(t, xrp, 2)
	assert.Equal(t, int64(5), xrp[0].ID)
}

func TestLedgerRepository_AssignsTimestampID(t *testing.T) {
	db := setupPortfolioDB(t)
	ledger := NewLedgerRepository(db)

	id, err := ledger.Append(domain.Transaction{Date: "2024-01-01", Type: domain.TxBuy, Asset: "XRP", Qty: 1, Price: 1})
	require.NoError(t, err)
	// Unix-millisecond IDs are far beyond any hand-assigned counter
	assert.Greater(t, id, int64(1_000_000_000_000))
}
