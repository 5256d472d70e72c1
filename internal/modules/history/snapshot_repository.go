package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/erold/cryptofolio/internal/domain"
)

// SnapshotRepository persists daily portfolio valuations in history.db.
// One row per calendar day. A real (observed) snapshot always wins over a
// generated (back-filled) one for the same date; a generated snapshot never
// overwrites a real one.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new snapshot repository.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Upsert inserts or updates the snapshot for its date, honoring the
// real-over-generated precedence.
func (r *SnapshotRepository) Upsert(s domain.Snapshot) error {
	if _, err := time.Parse(domain.DateFormat, s.Date); err != nil {
		return fmt.Errorf("invalid snapshot date %q: %w", s.Date, err)
	}

	generated := 0
	if s.Generated {
		generated = 1
	}

	// The WHERE clause on the conflict update makes a generated snapshot a
	// no-op when a real one already holds the date.
	_, err := r.db.Exec(
		`INSERT INTO snapshots (date, timestamp, value, invested, pnl, currency, generated)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (date) DO UPDATE SET
		     timestamp = excluded.timestamp,
		     value = excluded.value,
		     invested = excluded.invested,
		     pnl = excluded.pnl,
		     currency = excluded.currency,
		     generated = excluded.generated
		 WHERE NOT (snapshots.generated = 0 AND excluded.generated = 1)`,
		s.Date, s.Timestamp, s.Value, s.Invested, s.PnL, s.Currency, generated,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot %s: %w", s.Date, err)
	}
	return nil
}

// Range returns the snapshots between fromDate and toDate inclusive, oldest
// first.
func (r *SnapshotRepository) Range(fromDate, toDate string) ([]domain.Snapshot, error) {
	rows, err := r.db.Query(
		`SELECT date, timestamp, value, invested, pnl, currency, generated
		 FROM snapshots WHERE date >= ? AND date <= ? ORDER BY date`,
		fromDate, toDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return snapshots, nil
}

// Latest returns the most recent snapshot, or nil when none exist.
func (r *SnapshotRepository) Latest() (*domain.Snapshot, error) {
	row := r.db.QueryRow(
		`SELECT date, timestamp, value, invested, pnl, currency, generated
		 FROM snapshots ORDER BY date DESC LIMIT 1`,
	)
	s, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Prune deletes snapshots older than the retention window. Returns the
// number of rows removed.
func (r *SnapshotRepository) Prune(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays).Format(domain.DateFormat)

	result, err := r.db.Exec(`DELETE FROM snapshots WHERE date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

func scanSnapshot(s interface{ Scan(...interface{}) error }) (domain.Snapshot, error) {
	var snap domain.Snapshot
	var generated int
	err := s.Scan(&snap.Date, &snap.Timestamp, &snap.Value, &snap.Invested, &snap.PnL, &snap.Currency, &generated)
	if err == sql.ErrNoRows {
		return snap, err
	}
	if err != nil {
		return snap, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	snap.Generated = generated != 0
	return snap, nil
}
