package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"church-portal/internal/church/domain"
)

// PostgresChurchRepository implements ChurchRepository.
type PostgresChurchRepository struct {
	db *sql.DB
}

// NewPostgresChurchRepository returns a church repository backed by db.
func NewPostgresChurchRepository(db *sql.DB) *PostgresChurchRepository {
	return &PostgresChurchRepository{db: db}
}

const selectChurch = `
SELECT id, name, slug, address, city, state, zip, phone, email, website, denomination, created_at, updated_at
FROM churches`

// GetByID returns the church for id, or nil if not found.
func (r *PostgresChurchRepository) GetByID(ctx context.Context, id string) (*domain.Church, error) {
	c, err := scanChurch(r.db.QueryRowContext(ctx, selectChurch+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// List returns all churches by name.
func (r *PostgresChurchRepository) List(ctx context.Context) ([]*domain.Church, error) {
	rows, err := r.db.QueryContext(ctx, selectChurch+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Church
	for rows.Next() {
		c, err := scanChurch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts c. CreatedAt and UpdatedAt are set to now.
func (r *PostgresChurchRepository) Create(ctx context.Context, c *domain.Church) error {
	return insertChurch(ctx, r.db, c)
}

// Update writes the editable fields of c. Returns domain.ErrNotFound if the church does not exist.
func (r *PostgresChurchRepository) Update(ctx context.Context, c *domain.Church) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE churches SET name = $2, address = $3, city = $4, state = $5, zip = $6, phone = $7,
	email = $8, website = $9, denomination = $10, updated_at = $11
WHERE id = $1`,
		c.ID, c.Name, nullString(c.Address), nullString(c.City), nullString(c.State), nullString(c.Zip),
		nullString(c.Phone), nullString(c.Email), nullString(c.Website), nullString(c.Denomination), c.UpdatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("church %s: %w", c.ID, domain.ErrNotFound)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertChurch(ctx context.Context, db execer, c *domain.Church) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := db.ExecContext(ctx, `
INSERT INTO churches (id, name, slug, address, city, state, zip, phone, email, website, denomination, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		c.ID, c.Name, nullString(c.Slug), nullString(c.Address), nullString(c.City), nullString(c.State),
		nullString(c.Zip), nullString(c.Phone), nullString(c.Email), nullString(c.Website), nullString(c.Denomination), now)
	return err
}

func scanChurch(s scanner) (*domain.Church, error) {
	var (
		c                                                        domain.Church
		slug, addr, city, state, zip, phone, email, web, denomin sql.NullString
	)
	if err := s.Scan(&c.ID, &c.Name, &slug, &addr, &city, &state, &zip, &phone, &email, &web, &denomin, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Slug, c.Address, c.City, c.State, c.Zip = slug.String, addr.String, city.String, state.String, zip.String
	c.Phone, c.Email, c.Website, c.Denomination = phone.String, email.String, web.String, denomin.String
	return &c, nil
}
