package repository

import (
	"context"
	"database/sql"
	"time"

	"church-portal/internal/church/domain"
)

// PostgresEventRepository implements EventRepository.
type PostgresEventRepository struct {
	db *sql.DB
}

// NewPostgresEventRepository returns an event repository backed by db.
func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

const selectEvent = `
SELECT id, church_id, created_by, title, description, event_type, location, start_time, end_time, visibility, created_at
FROM church_events`

// Create inserts e.
func (r *PostgresEventRepository) Create(ctx context.Context, e *domain.Event) error {
	e.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO church_events (id, church_id, created_by, title, description, event_type, location, start_time, end_time, visibility, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.ChurchID, e.CreatedBy, e.Title, nullString(e.Description), string(e.Type), nullString(e.Location),
		e.StartTime, nullTime(e.EndTime), string(e.Visibility), e.CreatedAt)
	return err
}

// ListByChurch returns all events of the church, newest start first.
func (r *PostgresEventRepository) ListByChurch(ctx context.Context, churchID string) ([]*domain.Event, error) {
	return r.query(ctx, selectEvent+` WHERE church_id = $1 ORDER BY start_time DESC`, churchID)
}

// ListUpcoming returns up to limit events starting at or after from, soonest first.
func (r *PostgresEventRepository) ListUpcoming(ctx context.Context, churchID string, from time.Time, limit int) ([]*domain.Event, error) {
	return r.query(ctx, selectEvent+` WHERE church_id = $1 AND start_time >= $2 ORDER BY start_time LIMIT $3`, churchID, from, limit)
}

// CountUpcoming returns the number of events starting at or after from.
func (r *PostgresEventRepository) CountUpcoming(ctx context.Context, churchID string, from time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM church_events WHERE church_id = $1 AND start_time >= $2`, churchID, from).Scan(&n)
	return n, err
}

func (r *PostgresEventRepository) query(ctx context.Context, q string, args ...any) ([]*domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Event
	for rows.Next() {
		var (
			e                   domain.Event
			desc, loc           sql.NullString
			eventType, visibility string
			end                 sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.ChurchID, &e.CreatedBy, &e.Title, &desc, &eventType, &loc, &e.StartTime, &end, &visibility, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Description, e.Location, e.EndTime = desc.String, loc.String, timePtr(end)
		e.Type, e.Visibility = domain.EventType(eventType), domain.Visibility(visibility)
		out = append(out, &e)
	}
	return out, rows.Err()
}
