package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
	"server/internal/entitlement"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
// The license snapshot is stored denormalized as jsonb on the user row, so it
// survives deletion of the source license record.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

type licenseJSON struct {
	Key       string    `json:"key"`
	Plan      string    `json:"plan"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Create inserts a new user profile.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.UserProfile) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO users (id, name, email, plan, message_count, today_message_count, message_count_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, user.ID, user.Name, user.Email, user.Plan, user.MessageCount, user.TodayMessageCount, user.MessageCountDate, user.CreatedAt)
	return err
}

// GetByID fetches a user profile by id.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, name, email, plan, message_count, today_message_count, message_count_date, license, created_at
FROM users WHERE id = $1
`, id)
	return scanUser(row)
}

// AttachLicense merges a license snapshot into the profile, leaving every
// other field untouched. A profile that does not exist yet is created with
// free-tier defaults, so activating before first sign-in still succeeds.
func (r *UserRepositoryPG) AttachLicense(ctx context.Context, userID string, snapshot domain.LicenseSnapshot) error {
	payload, err := json.Marshal(licenseJSON{
		Key:       snapshot.Key,
		Plan:      string(snapshot.Plan),
		ExpiresAt: snapshot.ExpiresAt,
	})
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
INSERT INTO users (id, name, email, plan, license)
VALUES ($1, '', '', 'Free', $2::jsonb)
ON CONFLICT (id) DO UPDATE SET license = EXCLUDED.license
`, userID, payload)
	return err
}

// RecordMessage performs the quota check and the counter advance in a single
// conditional update keyed by user id and the stored counter date. The daily
// counter restarts at 1 on the first message of a new calendar date. When the
// row does not qualify the user either does not exist or is over quota.
func (r *UserRepositoryPG) RecordMessage(ctx context.Context, userID string, now time.Time) (*domain.UserProfile, error) {
	row := r.pool.QueryRow(ctx, `
WITH standing AS (
    SELECT id,
           CASE WHEN license IS NOT NULL AND (license->>'expires_at')::timestamptz > $2
                THEN license->>'plan'
                ELSE CASE WHEN license IS NULL THEN plan ELSE 'Free' END
           END AS effective_plan,
           CASE WHEN message_count_date::date = $2::date THEN today_message_count ELSE 0 END AS today_count,
           message_count
    FROM users
    WHERE id = $1
)
UPDATE users u SET
    message_count = u.message_count + 1,
    today_message_count = CASE WHEN u.message_count_date::date = $2::date THEN u.today_message_count + 1 ELSE 1 END,
    message_count_date = $2
FROM standing s
WHERE u.id = s.id AND (
    CASE s.effective_plan
        WHEN 'Classic' THEN s.today_count < $4
        WHEN 'Pro'     THEN s.today_count < $5
        ELSE s.message_count < $3
    END
)
RETURNING u.id, u.name, u.email, u.plan, u.message_count, u.today_message_count, u.message_count_date, u.license, u.created_at
`, userID, now, entitlement.FreeLifetimeLimit, entitlement.ClassicDailyLimit, entitlement.ProDailyLimit)

	user, err := scanUser(row)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	// No row updated: distinguish a missing user from an exhausted quota.
	if _, err := r.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return nil, domain.ErrQuotaExceeded
}

func scanUser(row pgx.Row) (*domain.UserProfile, error) {
	var (
		u       domain.UserProfile
		license []byte
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Plan, &u.MessageCount, &u.TodayMessageCount, &u.MessageCountDate, &license, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(license) > 0 {
		var lj licenseJSON
		if err := json.Unmarshal(license, &lj); err != nil {
			return nil, err
		}
		u.License = &domain.LicenseSnapshot{
			Key:       lj.Key,
			Plan:      domain.Plan(lj.Plan),
			ExpiresAt: lj.ExpiresAt,
		}
	}
	return &u, nil
}
