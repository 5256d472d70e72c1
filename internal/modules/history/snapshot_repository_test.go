package history

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erold/cryptofolio/internal/domain"
)

func setupHistoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	_, err = db.Exec(Schema)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSnapshotRepository_UpsertAndRange(t *testing.T) {
	repo := NewSnapshotRepository(setupHistoryDB(t))

	require.NoError(t, repo.Upsert(domain.Snapshot{
		Date: "2026-08-29", Timestamp: 1000, Value: 500, Invested: 400, PnL: 100,
		Currency: domain.CurrencyEUR,
	}))
	require.NoError(t, repo.Upsert(domain.Snapshot{
		Date: "2026-08-30", Timestamp: 2000, Value: 520, Invested: 400, PnL: 120,
		Currency: domain.CurrencyEUR, Generated: true,
	}))

	snapshots, err := repo.Range("2026-08-29", "2026-08-30")
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "2026-08-29", snapshots[0].Date)
	assert.False(t, snapshots[0].Generated)
	assert.Equal(t, 500.0, snapshots[0].Value)
	assert.True(t, snapshots[1].Generated)

	// Range bounds are inclusive.
	snapshots, err = repo.Range("2026-08-30", "2026-08-30")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "2026-08-30", snapshots[0].Date)
}

func TestSnapshotRepository_RejectsInvalidDate(t *testing.T) {
	repo := NewSnapshotRepository(setupHistoryDB(t))

	err := repo.Upsert(domain.Snapshot{Date: "29-08-2026", Value: 500})
	assert.ErrorContains(t, err, "invalid snapshot date")
}

func TestSnapshotRepository_GeneratedNeverOverwritesReal(t *testing.T) {
	repo := NewSnapshotRepository(setupHistoryDB(t))

	require.NoError(t, repo.Upsert(domain.Snapshot{
		Date: "2026-08-30", Timestamp: 1000, Value: 500, Currency: domain.CurrencyEUR,
	}))
	require.NoError(t, repo.Upsert(domain.Snapshot{
		Date: "2026-08-30", Timestamp: 2000, Value: 999, Currency: domain.CurrencyEUR,
		Generated: true,
	}))

	latest, err := repo.Latest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 500.0, latest.Value)
	assert.False(t, latest.Generated)
}

func TestSnapshotRepository_RealOverwritesGenerated(t *testing.T) {
	repo := NewSnapshotRepository(setupHistoryDB(t))

	require.NoError(t, repo.Upsert(domain.Snapshot{
		Date: "2026-08-30", Timestamp: 1000, Value: 480, Currency: domain.CurrencyEUR,
		Generated: true,
	}))
	require.NoError(t, repo.Upsert(domain.Snapshot{
		Date: "2026-08-30", Timestamp: 2000, Value: 500, Currency: domain.CurrencyEUR,
	}))

	latest, err := repo.Latest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 500.0, latest.Value)
	assert.False(t, latest.Generated)
}

func TestSnapshotRepository_GeneratedRefreshesGenerated(t *testing.T) {
	repo := NewSnapshotRepository(setupHistoryDB(t))

	require.NoError(t, repo.Upsert(domain.Snapshot{
		Date: "2026-08-30", Value: 480, Currency: domain.CurrencyEUR, Generated: true,
	}))
	require.NoError(t, repo.Upsert(domain.Snapshot{
		Date: "2026-08-30", Value: 490, Currency: domain.CurrencyEUR, Generated: true,
	}))

	latest, err := repo.Latest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 490.0, latest.Value)
	assert.True(t, latest.Generated)
}

func TestSnapshotRepository_LatestEmpty(t *testing.T) {
	repo := NewSnapshotRepository(setupHistoryDB(t))

	latest, err := repo.Latest()
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSnapshotRepository_Prune(t *testing.T) {
	repo := NewSnapshotRepository(setupHistoryDB(t))

	today := time.Now().UTC().Format(domain.DateFormat)
	stale := time.Now().UTC().AddDate(0, 0, -40).Format(domain.DateFormat)

	require.NoError(t, repo.Upsert(domain.Snapshot{Date: today, Value: 500, Currency: domain.CurrencyEUR}))
	require.NoError(t, repo.Upsert(domain.Snapshot{Date: stale, Value: 400, Currency: domain.CurrencyEUR}))

	pruned, err := repo.Prune(30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	latest, err := repo.Latest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, today, latest.Date)
}
