package repository

import (
	"context"
	"database/sql"
	"time"

	"church-portal/internal/church/domain"
)

// PostgresFileRepository implements FileRepository.
type PostgresFileRepository struct {
	db *sql.DB
}

// NewPostgresFileRepository returns a file repository backed by db.
func NewPostgresFileRepository(db *sql.DB) *PostgresFileRepository {
	return &PostgresFileRepository{db: db}
}

// Create inserts f.
func (r *PostgresFileRepository) Create(ctx context.Context, f *domain.File) error {
	f.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO church_files (id, church_id, name, kind, category, size_bytes, uploaded_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.ID, f.ChurchID, f.Name, string(f.Kind), f.Category, nullInt64(f.SizeBytes), f.UploadedBy, f.CreatedAt)
	return err
}

// ListByChurch returns folders first, then files by name.
func (r *PostgresFileRepository) ListByChurch(ctx context.Context, churchID string) ([]*domain.File, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, church_id, name, kind, category, size_bytes, uploaded_by, created_at
FROM church_files WHERE church_id = $1 ORDER BY kind <> 'folder', name`, churchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.File
	for rows.Next() {
		var (
			f    domain.File
			kind string
			size sql.NullInt64
		)
		if err := rows.Scan(&f.ID, &f.ChurchID, &f.Name, &kind, &f.Category, &size, &f.UploadedBy, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.Kind, f.SizeBytes = domain.FileKind(kind), int64Ptr(size)
		out = append(out, &f)
	}
	return out, rows.Err()
}

// CountByChurch returns the number of files in the church, folders excluded.
func (r *PostgresFileRepository) CountByChurch(ctx context.Context, churchID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM church_files WHERE church_id = $1 AND kind <> 'folder'`, churchID).Scan(&n)
	return n, err
}
