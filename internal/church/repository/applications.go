package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"church-portal/internal/church/domain"
)

// PostgresApplicationRepository implements ApplicationRepository.
type PostgresApplicationRepository struct {
	db *sql.DB
}

// NewPostgresApplicationRepository returns an application repository backed by db.
func NewPostgresApplicationRepository(db *sql.DB) *PostgresApplicationRepository {
	return &PostgresApplicationRepository{db: db}
}

const applicationColumns = `id, application_type, status, applicant_user_id, applicant_name, applicant_email,
	applicant_phone, applicant_title, church_name, church_address, church_city, church_state, church_zip,
	church_phone, church_email, church_website, church_denomination, church_founded_year,
	estimated_congregation_size, current_church_software, leadership_position, years_in_position,
	leadership_verification_method, motivation, current_challenges, approval_notes, rejection_reason,
	reviewed_by, reviewed_at, created_church_id, submitted_at, updated_at`

// Create inserts a. Status defaults to PENDING; SubmittedAt and UpdatedAt are set to now.
func (r *PostgresApplicationRepository) Create(ctx context.Context, a *domain.Application) error {
	now := time.Now().UTC()
	if a.Status == "" {
		a.Status = domain.StatusPending
	}
	a.SubmittedAt, a.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx, `
INSERT INTO church_applications (`+applicationColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
	$21, $22, $23, $24, $25, NULL, NULL, NULL, NULL, NULL, $26, $26)`,
		a.ID, string(a.Type), string(a.Status), nullString(a.ApplicantUserID), a.ApplicantName, a.ApplicantEmail,
		nullString(a.ApplicantPhone), nullString(a.ApplicantTitle), a.ChurchName, nullString(a.ChurchAddress),
		nullString(a.ChurchCity), nullString(a.ChurchState), nullString(a.ChurchZip), nullString(a.ChurchPhone),
		nullString(a.ChurchEmail), nullString(a.ChurchWebsite), nullString(a.ChurchDenomination),
		nullInt(a.ChurchFoundedYear), nullInt(a.CongregationSize), nullString(a.CurrentSoftware),
		a.LeadershipPosition, nullInt(a.YearsInPosition), nullString(a.VerificationMethod),
		nullString(a.Motivation), nullString(a.CurrentChallenges), now)
	return err
}

// GetByID returns the application for id, or nil if not found.
func (r *PostgresApplicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	a, err := scanApplication(r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM church_applications WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// ListOpen returns applications awaiting a decision, oldest first.
func (r *PostgresApplicationRepository) ListOpen(ctx context.Context) ([]*domain.Application, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+applicationColumns+` FROM church_applications
WHERE status IN ('PENDING', 'UNDER_REVIEW', 'ADDITIONAL_INFO_NEEDED') ORDER BY submitted_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Approve runs in one transaction. The church slug gets a numeric suffix when taken.
func (r *PostgresApplicationRepository) Approve(ctx context.Context, appID, reviewerID, notes string, church *domain.Church, adminID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM church_applications WHERE id = $1 FOR UPDATE`, appID,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("application %s: %w", appID, domain.ErrNotFound)
	}
	if err != nil {
		return false, err
	}
	if !domain.ApplicationStatus(status).Open() {
		return false, domain.ErrAlreadyReviewed
	}

	if church.Slug, err = uniqueSlug(ctx, tx, church.Slug); err != nil {
		return false, err
	}
	if err := insertChurch(ctx, tx, church); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE church_applications SET status = 'APPROVED', approval_notes = $2, reviewed_by = $3, reviewed_at = now(),
	created_church_id = $4, updated_at = now()
WHERE id = $1`, appID, nullString(notes), nullString(reviewerID), church.ID); err != nil {
		return false, err
	}
	var n int64
	if adminID != "" {
		res, err := tx.ExecContext(ctx, `
UPDATE profiles SET role = 'CHURCH_ADMIN', church_id = $1, updated_at = now()
WHERE id = $2 AND role <> 'SYSTEM_ADMIN'`, church.ID, adminID)
		if err != nil {
			return false, err
		}
		n, _ = res.RowsAffected()
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Reject closes an open application with reason.
func (r *PostgresApplicationRepository) Reject(ctx context.Context, appID, reviewerID, reason string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE church_applications SET status = 'REJECTED', rejection_reason = $2, reviewed_by = $3, reviewed_at = now(), updated_at = now()
WHERE id = $1 AND status IN ('PENDING', 'UNDER_REVIEW', 'ADDITIONAL_INFO_NEEDED')`,
		appID, nullString(reason), nullString(reviewerID))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		a, err := r.GetByID(ctx, appID)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("application %s: %w", appID, domain.ErrNotFound)
		}
		return domain.ErrAlreadyReviewed
	}
	return nil
}

func uniqueSlug(ctx context.Context, tx *sql.Tx, base string) (string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT slug FROM churches WHERE slug = $1 OR slug LIKE $1 || '-%'`, base)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	taken := make(map[string]bool)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return "", err
		}
		taken[s] = true
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return NextSlug(base, taken), nil
}

// NextSlug returns base, or base-N with the smallest N >= 2 not in taken.
func NextSlug(base string, taken map[string]bool) string {
	if !taken[base] {
		return base
	}
	for i := 2; ; i++ {
		s := base + "-" + strconv.Itoa(i)
		if !taken[s] {
			return s
		}
	}
}

func scanApplication(s scanner) (*domain.Application, error) {
	var (
		a                                                      domain.Application
		appType, status                                        string
		userID, phone, title, addr, city, state, zip           sql.NullString
		cphone, cemail, web, denomin, software, verify, motive sql.NullString
		challenges, notes, reason, reviewer, created           sql.NullString
		founded, size, years                                   sql.NullInt64
		reviewedAt                                             sql.NullTime
	)
	err := s.Scan(&a.ID, &appType, &status, &userID, &a.ApplicantName, &a.ApplicantEmail,
		&phone, &title, &a.ChurchName, &addr, &city, &state, &zip,
		&cphone, &cemail, &web, &denomin, &founded,
		&size, &software, &a.LeadershipPosition, &years,
		&verify, &motive, &challenges, &notes, &reason,
		&reviewer, &reviewedAt, &created, &a.SubmittedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Type, a.Status = domain.ApplicationType(appType), domain.ApplicationStatus(status)
	a.ApplicantUserID, a.ApplicantPhone, a.ApplicantTitle = userID.String, phone.String, title.String
	a.ChurchAddress, a.ChurchCity, a.ChurchState, a.ChurchZip = addr.String, city.String, state.String, zip.String
	a.ChurchPhone, a.ChurchEmail, a.ChurchWebsite, a.ChurchDenomination = cphone.String, cemail.String, web.String, denomin.String
	a.ChurchFoundedYear, a.CongregationSize, a.YearsInPosition = intPtr(founded), intPtr(size), intPtr(years)
	a.CurrentSoftware, a.VerificationMethod, a.Motivation = software.String, verify.String, motive.String
	a.CurrentChallenges, a.ApprovalNotes, a.RejectionReason = challenges.String, notes.String, reason.String
	a.ReviewedBy, a.ReviewedAt, a.CreatedChurchID = reviewer.String, timePtr(reviewedAt), created.String
	return &a, nil
}
