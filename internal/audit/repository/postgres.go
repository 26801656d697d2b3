package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"church-portal/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	var meta []byte
	if len(a.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(a.Metadata); err != nil {
			return fmt.Errorf("audit: encode metadata: %w", err)
		}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO audit_logs (id, church_id, user_id, action, resource, ip, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, nullUUID(a.ChurchID), nullUUID(a.UserID), a.Action, a.Resource, a.IP, nullJSON(meta), a.CreatedAt)
	return err
}

// ListByChurch returns audit logs for the church, newest first.
func (r *PostgresRepository) ListByChurch(ctx context.Context, churchID string, limit int) ([]*domain.AuditLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, church_id, user_id, action, resource, ip, metadata, created_at
FROM audit_logs WHERE church_id = $1 ORDER BY created_at DESC LIMIT $2`, churchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a                domain.AuditLog
			church, user, ip sql.NullString
			meta             []byte
		)
		if err := rows.Scan(&a.ID, &church, &user, &a.Action, &a.Resource, &ip, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ChurchID, a.UserID, a.IP = church.String, user.String, ip.String
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &a.Metadata); err != nil {
				return nil, fmt.Errorf("audit: decode metadata: %w", err)
			}
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func nullUUID(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
