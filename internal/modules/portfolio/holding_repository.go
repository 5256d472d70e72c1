package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/erold/cryptofolio/internal/domain"
)

// HoldingRepository persists tracked asset rows in portfolio.db.
type HoldingRepository struct {
	db *sql.DB
}

// NewHoldingRepository creates a new holding repository.
func NewHoldingRepository(db *sql.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

const holdingColumns = `symbol, name, qty, avg_price, avg_price_eur, cost_basis, cost_basis_eur, original_qty, last_updated`

// All returns all holdings ordered by symbol.
func (r *HoldingRepository) All() ([]domain.Holding, error) {
	rows, err := r.db.Query(`SELECT ` + holdingColumns + ` FROM holdings ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holdings: %w", err)
	}
	return holdings, nil
}

// Get returns one holding, or nil if the symbol is not tracked.
func (r *HoldingRepository) Get(symbol string) (*domain.Holding, error) {
	row := r.db.QueryRow(`SELECT `+holdingColumns+` FROM holdings WHERE symbol = ?`, symbol)
	h, err := scanHolding(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Upsert inserts or replaces a holding row.
func (r *HoldingRepository) Upsert(h domain.Holding) error {
	if err := domain.ValidateSymbol(h.Symbol); err != nil {
		return err
	}
	_, err := r.db.Exec(
		`INSERT INTO holdings (`+holdingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (symbol) DO UPDATE SET
		     name = excluded.name,
		     qty = excluded.qty,
		     avg_price = excluded.avg_price,
		     avg_price_eur = excluded.avg_price_eur,
		     cost_basis = excluded.cost_basis,
		     cost_basis_eur = excluded.cost_basis_eur,
		     original_qty = excluded.original_qty,
		     last_updated = excluded.last_updated`,
		h.Symbol, h.Name, h.Qty, h.AvgPrice, h.AvgPriceEUR, h.CostBasis, h.CostBasisEUR, h.OriginalQty, h.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert holding %s: %w", h.Symbol, err)
	}
	return nil
}

// UpdateQty sets the live quantity of a holding. This is the wallet-sync /
// manual-edit path; derived cost fields are untouched.
func (r *HoldingRepository) UpdateQty(symbol string, qty float64) error {
	now := time.Now().Unix()
	result, err := r.db.Exec(
		`UPDATE holdings SET qty = ?, last_updated = ? WHERE symbol = ?`,
		qty, now, symbol,
	)
	if err != nil {
		return fmt.Errorf("failed to update qty for %s: %w", symbol, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("holding %s not found", symbol)
	}
	return nil
}

// UpdateDerived sets the ledger-derived cost fields. Only the reconciler
// calls this.
func (r *HoldingRepository) UpdateDerived(symbol string, costBasisEUR, avgPriceEUR, originalQty float64) error {
	result, err := r.db.Exec(
		`UPDATE holdings SET cost_basis_eur = ?, avg_price_eur = ?, original_qty = ? WHERE symbol = ?`,
		costBasisEUR, avgPriceEUR, originalQty, symbol,
	)
	if err != nil {
		return fmt.Errorf("failed to update derived fields for %s: %w", symbol, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("holding %s not found", symbol)
	}
	return nil
}

// Delete removes a holding row.
func (r *HoldingRepository) Delete(symbol string) error {
	if _, err := r.db.Exec(`DELETE FROM holdings WHERE symbol = ?`, symbol); err != nil {
		return fmt.Errorf("failed to delete holding %s: %w", symbol, err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanHolding(s scanner) (domain.Holding, error) {
	var h domain.Holding
	err := s.Scan(&h.Symbol, &h.Name, &h.Qty, &h.AvgPrice, &h.AvgPriceEUR, &h.CostBasis, &h.CostBasisEUR, &h.OriginalQty, &h.LastUpdated)
	if err == sql.ErrNoRows {
		return h, err
	}
	if err != nil {
		return h, fmt.Errorf("failed to scan holding: %w", err)
	}
	return h, nil
}
