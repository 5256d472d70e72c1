package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/erold/cryptofolio/internal/domain"
)

// LedgerRepository persists the append-only transaction ledger in ledger.db.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new ledger repository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append validates and inserts a transaction, returning its assigned ID.
// IDs are unix-millisecond timestamps taken at append time, which keeps them
// unique, sortable and stable across exports.
func (r *LedgerRepository) Append(tx domain.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, fmt.Errorf("invalid transaction: %w", err)
	}

	id := tx.ID
	if id == 0 {
		id = time.Now().UnixMilli()
	}

	_, err := r.db.Exec(
		`INSERT INTO transactions (id, date, type, asset, qty, price, note) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, tx.Date, tx.Type, tx.Asset, tx.Qty, tx.Price, tx.Note,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to append transaction: %w", err)
	}
	return id, nil
}

// Delete removes a transaction by ID. Deleting is a correction path for entry
// mistakes; callers must reconcile holdings afterwards.
func (r *LedgerRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %d not found", id)
	}
	return nil
}

// All returns all transactions ordered by date, then ID.
func (r *LedgerRepository) All() ([]domain.Transaction, error) {
	return r.query(`SELECT id, date, type, asset, qty, price, note FROM transactions ORDER BY date, id`)
}

// ByAsset returns all transactions for one asset ordered by date, then ID.
func (r *LedgerRepository) ByAsset(symbol string) ([]domain.Transaction, error) {
	return r.query(
		`SELECT id, date, type, asset, qty, price, note FROM transactions WHERE asset = ? ORDER BY date, id`,
		symbol,
	)
}

func (r *LedgerRepository) query(q string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.Date, &tx.Type, &tx.Asset, &tx.Qty, &tx.Price, &tx.Note); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}
