package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// LicenseRepositoryPG implements domain.LicenseRepository backed by PostgreSQL.
type LicenseRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewLicenseRepository creates a new LicenseRepositoryPG.
func NewLicenseRepository(pool *pgxpool.Pool) *LicenseRepositoryPG {
	return &LicenseRepositoryPG{pool: pool}
}

// Create inserts a license record. A key collision surfaces as
// domain.ErrDuplicateKey so the caller can regenerate.
func (r *LicenseRepositoryPG) Create(ctx context.Context, record *domain.LicenseRecord) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO licenses (id, key, plan, status, created_at, expires_at, assigned_to)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
`, record.ID, record.Key, record.Plan, record.Status, record.CreatedAt, record.ExpiresAt, record.AssignedTo)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateKey
		}
		return err
	}
	return nil
}

// GetByID fetches a license record by id.
func (r *LicenseRepositoryPG) GetByID(ctx context.Context, id string) (*domain.LicenseRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, key, plan, status, created_at, expires_at, COALESCE(assigned_to, '') FROM licenses WHERE id = $1`, id)
	return scanLicense(row)
}

// GetByKey fetches a license record by its unique key.
func (r *LicenseRepositoryPG) GetByKey(ctx context.Context, key string) (*domain.LicenseRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, key, plan, status, created_at, expires_at, COALESCE(assigned_to, '') FROM licenses WHERE key = $1`, key)
	return scanLicense(row)
}

// List returns every license record, newest first.
func (r *LicenseRepositoryPG) List(ctx context.Context) ([]domain.LicenseRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, key, plan, status, created_at, expires_at, COALESCE(assigned_to, '') FROM licenses ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.LicenseRecord
	for rows.Next() {
		record, err := scanLicense(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// UpdateStatus sets a record's status.
func (r *LicenseRepositoryPG) UpdateStatus(ctx context.Context, id string, status domain.LicenseStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE licenses SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateExpiration sets a record's expiration timestamp.
func (r *LicenseRepositoryPG) UpdateExpiration(ctx context.Context, id string, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE licenses SET expires_at = $2 WHERE id = $1`, id, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Assign binds a record to a user. Only unassigned records or records already
// held by the same user are written, keeping the first-use claim idempotent.
func (r *LicenseRepositoryPG) Assign(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE licenses SET assigned_to = $2
WHERE id = $1 AND (assigned_to IS NULL OR assigned_to = $2)
`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a record permanently.
func (r *LicenseRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM licenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanLicense(row pgx.Row) (*domain.LicenseRecord, error) {
	var l domain.LicenseRecord
	if err := row.Scan(&l.ID, &l.Key, &l.Plan, &l.Status, &l.CreatedAt, &l.ExpiresAt, &l.AssignedTo); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}
