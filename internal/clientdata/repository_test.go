package clientdata

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erold/cryptofolio/internal/domain"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	_, err = db.Exec(Schema)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func TestRepository_StoreAndGetIfFresh(t *testing.T) {
	repo := setupRepo(t)

	stored := []domain.PricePoint{{Time: 100, Close: 2.0}, {Time: 200, Close: 2.1}}
	require.NoError(t, repo.Store("daily_history", "XRP", stored, time.Hour))

	var out []domain.PricePoint
	hit, err := repo.GetIfFresh("daily_history", "XRP", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, stored, out)

	hit, err = repo.GetIfFresh("daily_history", "BTC", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRepository_ExpiredEntryMissesButGetStillServes(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.Store("fear_greed", "current", domain.FearGreed{Value: 42, Label: "Fear"}, -time.Minute))

	var out domain.FearGreed
	hit, err := repo.GetIfFresh("fear_greed", "current", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	// Stale fallback for when the upstream API is down.
	hit, err = repo.Get("fear_greed", "current", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42, out.Value)
}

func TestRepository_StoreReplaces(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.Store("prices", "all", map[string]float64{"XRP": 2.0}, time.Hour))
	require.NoError(t, repo.Store("prices", "all", map[string]float64{"XRP": 2.5}, time.Hour))

	var out map[string]float64
	hit, err := repo.GetIfFresh("prices", "all", &out)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 2.5, out["XRP"])
}

func TestRepository_Delete(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.Store("chain_balances", "XRP", 500.0, time.Hour))
	require.NoError(t, repo.Delete("chain_balances", "XRP"))

	var out float64
	hit, err := repo.Get("chain_balances", "XRP", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRepository_DeleteExpired(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.Store("hourly_history", "stale", 1.0, -time.Minute))
	require.NoError(t, repo.Store("hourly_history", "fresh", 2.0, time.Hour))

	deleted, err := repo.DeleteExpired("hourly_history")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var out float64
	hit, err := repo.Get("hourly_history", "fresh", &out)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestRepository_DeleteAllExpired(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.Store("prices", "stale", 1.0, -time.Minute))
	require.NoError(t, repo.Store("fear_greed", "stale", 2.0, -time.Minute))

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Len(t, results, len(AllTables))
	assert.Equal(t, int64(1), results["prices"])
	assert.Equal(t, int64(1), results["fear_greed"])
	assert.Equal(t, int64(0), results["daily_history"])
}

func TestRepository_RejectsUnknownTable(t *testing.T) {
	repo := setupRepo(t)

	err := repo.Store("holdings; DROP TABLE prices", "k", 1.0, time.Hour)
	assert.ErrorContains(t, err, "invalid table name")

	_, err = repo.GetIfFresh("unknown", "k", nil)
	assert.Error(t, err)
	_, err = repo.DeleteExpired("unknown")
	assert.Error(t, err)
	assert.Error(t, repo.Delete("unknown", "k"))
}
