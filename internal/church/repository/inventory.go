package repository

import (
	"context"
	"database/sql"
	"time"

	"church-portal/internal/church/domain"
)

// PostgresInventoryRepository implements InventoryRepository.
type PostgresInventoryRepository struct {
	db *sql.DB
}

// NewPostgresInventoryRepository returns an inventory repository backed by db.
func NewPostgresInventoryRepository(db *sql.DB) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{db: db}
}

// Create inserts item.
func (r *PostgresInventoryRepository) Create(ctx context.Context, item *domain.InventoryItem) error {
	item.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO inventory_items (id, church_id, name, category, quantity, unit, location, condition, value_cents, notes, last_checked, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		item.ID, item.ChurchID, item.Name, item.Category, item.Quantity, nullString(item.Unit), nullString(item.Location),
		string(item.Condition), nullInt64(item.ValueCents), nullString(item.Notes), nullTime(item.LastChecked), item.CreatedAt)
	return err
}

// ListByChurch returns the church's items grouped by category.
func (r *PostgresInventoryRepository) ListByChurch(ctx context.Context, churchID string) ([]*domain.InventoryItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, church_id, name, category, quantity, unit, location, condition, value_cents, notes, last_checked, created_at
FROM inventory_items WHERE church_id = $1 ORDER BY category, name`, churchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.InventoryItem
	for rows.Next() {
		var (
			it               domain.InventoryItem
			unit, loc, notes sql.NullString
			condition        string
			value            sql.NullInt64
			lastChecked      sql.NullTime
		)
		if err := rows.Scan(&it.ID, &it.ChurchID, &it.Name, &it.Category, &it.Quantity, &unit, &loc, &condition, &value, &notes, &lastChecked, &it.CreatedAt); err != nil {
			return nil, err
		}
		it.Unit, it.Location, it.Notes = unit.String, loc.String, notes.String
		it.Condition, it.ValueCents, it.LastChecked = domain.Condition(condition), int64Ptr(value), timePtr(lastChecked)
		out = append(out, &it)
	}
	return out, rows.Err()
}

// CountByChurch returns the number of inventory items in the church.
func (r *PostgresInventoryRepository) CountByChurch(ctx context.Context, churchID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM inventory_items WHERE church_id = $1`, churchID).Scan(&n)
	return n, err
}
