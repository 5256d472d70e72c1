package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/erold/cryptofolio/internal/domain"
)

// TargetRepository persists user-defined price targets in portfolio.db.
type TargetRepository struct {
	db *sql.DB
}

// NewTargetRepository creates a new price target repository.
func NewTargetRepository(db *sql.DB) *TargetRepository {
	return &TargetRepository{db: db}
}

// Create inserts a price target and returns its ID.
func (r *TargetRepository) Create(t domain.PriceTarget) (int64, error) {
	if err := domain.ValidateSymbol(t.Symbol); err != nil {
		return 0, err
	}
	if t.Type != domain.TxBuy && t.Type != domain.TxSell {
		return 0, fmt.Errorf("invalid target type %q", t.Type)
	}
	if t.Price <= 0 {
		return 0, fmt.Errorf("target price must be > 0, got %v", t.Price)
	}

	createdAt := t.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}

	result, err := r.db.Exec(
		`INSERT INTO price_targets (symbol, price, type, note, created_at, triggered) VALUES (?, ?, ?, ?, ?, 0)`,
		t.Symbol, t.Price, t.Type, t.Note, createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create price target: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get target id: %w", err)
	}
	return id, nil
}

// All returns all price targets ordered by symbol, then price.
func (r *TargetRepository) All() ([]domain.PriceTarget, error) {
	rows, err := r.db.Query(
		`SELECT id, symbol, price, type, note, created_at, triggered FROM price_targets ORDER BY symbol, price`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query price targets: %w", err)
	}
	defer rows.Close()

	var targets []domain.PriceTarget
	for rows.Next() {
		var t domain.PriceTarget
		var triggered int
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Price, &t.Type, &t.Note, &t.CreatedAt, &triggered); err != nil {
			return nil, fmt.Errorf("failed to scan price target: %w", err)
		}
		t.Triggered = triggered != 0
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price targets: %w", err)
	}
	return targets, nil
}

// MarkTriggered flags a target as hit. Triggered targets stay visible until
// the user deletes them.
func (r *TargetRepository) MarkTriggered(id int64) error {
	result, err := r.db.Exec(`UPDATE price_targets SET triggered = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark target %d triggered: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a price target.
func (r *TargetRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM price_targets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete target %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("price target %d not found", id)
	}
	return nil
}
