package history

import (
	"database/sql"
	"fmt"

	"github.com/erold/cryptofolio/internal/database"
	"github.com/erold/cryptofolio/internal/domain"
)

// PriceRepository persists daily close series in history.db. Fresh fetches
// are merged by timestamp, so a shorter fetch window never truncates the
// series already on disk.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new price history repository.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// Merge upserts a batch of points for one symbol inside a transaction.
func (r *PriceRepository) Merge(symbol string, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(
			`INSERT INTO price_history (symbol, time, close) VALUES (?, ?, ?)
			 ON CONFLICT (symbol, time) DO UPDATE SET close = excluded.close`,
		)
		if err != nil {
			return fmt.Errorf("failed to prepare merge: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			if p.Close <= 0 {
				continue
			}
			if _, err := stmt.Exec(symbol, p.Time, p.Close); err != nil {
				return fmt.Errorf("failed to merge point %s@%d: %w", symbol, p.Time, err)
			}
		}
		return nil
	})
}

// Series returns one symbol's close series, oldest first.
func (r *PriceRepository) Series(symbol string) ([]domain.PricePoint, error) {
	rows, err := r.db.Query(
		`SELECT time, close FROM price_history WHERE symbol = ? ORDER BY time`,
		symbol,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history for %s: %w", symbol, err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Time, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price history: %w", err)
	}
	return points, nil
}

// Symbols returns the distinct symbols with stored history.
func (r *PriceRepository) Symbols() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT symbol FROM price_history ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate symbols: %w", err)
	}
	return symbols, nil
}
