package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"church-portal/internal/profile/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a profile repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectProfile = `
SELECT p.id, p.email, p.name, p.phone, p.avatar_url, p.role, p.church_id, c.name, p.created_at, p.updated_at
FROM profiles p
LEFT JOIN churches c ON c.id = p.church_id`

// GetByID returns the profile for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, selectProfile+` WHERE p.id = $1`, id)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ListByChurch returns all profiles of the church. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByChurch(ctx context.Context, churchID string) ([]*domain.Profile, error) {
	return r.list(ctx, selectProfile+` WHERE p.church_id = $1 ORDER BY p.name NULLS LAST, p.email`, churchID)
}

// ListByEmail returns the profiles whose email equals email, ignoring case.
func (r *PostgresRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Profile, error) {
	return r.list(ctx, selectProfile+` WHERE lower(p.email) = lower($1) ORDER BY p.created_at`, email)
}

func (r *PostgresRepository) list(ctx context.Context, q string, args ...any) ([]*domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountByChurch returns the number of profiles in the church.
func (r *PostgresRepository) CountByChurch(ctx context.Context, churchID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM profiles WHERE church_id = $1`, churchID).Scan(&n)
	return n, err
}

// Upsert persists p. Used when the provisioning trigger is absent and by seeding.
func (r *PostgresRepository) Upsert(ctx context.Context, p *domain.Profile) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO profiles (id, email, name, phone, role, church_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, church_id = EXCLUDED.church_id, updated_at = EXCLUDED.updated_at`,
		p.ID, nullString(p.Email), nullString(p.Name), nullString(p.Phone), string(p.Role), nullString(p.ChurchID), now)
	return err
}

// Assign updates role and church of an existing profile.
func (r *PostgresRepository) Assign(ctx context.Context, id string, role domain.Role, churchID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET role = $2, church_id = $3, updated_at = now() WHERE id = $1`,
		id, string(role), nullString(churchID))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*domain.Profile, error) {
	var (
		p                                         domain.Profile
		email, name, phone, avatar, church, cname sql.NullString
		role                                      string
	)
	if err := s.Scan(&p.ID, &email, &name, &phone, &avatar, &role, &church, &cname, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, ok := domain.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("profile %s: unknown role %q", p.ID, role)
	}
	p.Role = parsed
	p.Email, p.Name, p.Phone, p.AvatarURL = email.String, name.String, phone.String, avatar.String
	p.ChurchID, p.ChurchName = church.String, cname.String
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
