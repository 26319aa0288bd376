package license

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
)

// Batch creation and expiration bounds enforced by the admin operations.
const (
	MinBatchSize      = 1
	MaxBatchSize      = 100
	MinExpirationDays = 1
	MaxExpirationDays = 365
)

// How many times a batch insert retries a colliding key before giving up.
const keyRetries = 3

// Registry exposes the admin-side license operations over an injected
// repository.
type Registry struct {
	repo   domain.LicenseRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewRegistry creates a Registry. The now function may be nil, in which case
// time.Now is used.
func NewRegistry(repo domain.LicenseRepository, logger zerolog.Logger, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{repo: repo, logger: logger, now: now}
}

// CreateBatch mints count license records sharing a plan, status and
// expiration policy. Each record gets its own id, key and creation timestamp.
func (r *Registry) CreateBatch(ctx context.Context, plan domain.Plan, status domain.LicenseStatus, expirationDays, count int) ([]domain.LicenseRecord, error) {
	if !plan.Paid() {
		return nil, fmt.Errorf("%w: plan %q is not licensable", domain.ErrValidation, plan)
	}
	if status == "" {
		status = domain.LicenseStatusActive
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	if count < MinBatchSize || count > MaxBatchSize {
		return nil, fmt.Errorf("%w: count must be between %d and %d", domain.ErrValidation, MinBatchSize, MaxBatchSize)
	}
	if expirationDays < MinExpirationDays || expirationDays > MaxExpirationDays {
		return nil, fmt.Errorf("%w: expiration must be between %d and %d days", domain.ErrValidation, MinExpirationDays, MaxExpirationDays)
	}

	created := make([]domain.LicenseRecord, 0, count)
	for i := 0; i < count; i++ {
		record, err := r.createOne(ctx, plan, status, expirationDays)
		if err != nil {
			return created, err
		}
		created = append(created, *record)
	}

	r.logger.Info().
		Str("plan", string(plan)).
		Str("status", string(status)).
		Int("count", len(created)).
		Int("expiration_days", expirationDays).
		Msg("license batch created")
	return created, nil
}

func (r *Registry) createOne(ctx context.Context, plan domain.Plan, status domain.LicenseStatus, expirationDays int) (*domain.LicenseRecord, error) {
	now := r.now()
	expiresAt := now.AddDate(0, 0, expirationDays)

	for attempt := 0; attempt <= keyRetries; attempt++ {
		key, err := GenerateKey(plan)
		if err != nil {
			return nil, err
		}
		record := &domain.LicenseRecord{
			ID:        uuid.NewString(),
			Key:       key,
			Plan:      plan,
			Status:    status,
			CreatedAt: now,
			ExpiresAt: &expiresAt,
		}
		err = r.repo.Create(ctx, record)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, domain.ErrDuplicateKey) {
			return nil, err
		}
		r.logger.Warn().Str("key", key).Msg("license key collision, regenerating")
	}
	return nil, domain.ErrDuplicateKey
}

// ToggleStatus flips an active record to maintenance and any other record
// back to active. Reaching inactive takes an explicit SetStatus.
func (r *Registry) ToggleStatus(ctx context.Context, id string) (*domain.LicenseRecord, error) {
	record, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := domain.LicenseStatusActive
	if record.Status == domain.LicenseStatusActive {
		next = domain.LicenseStatusMaintenance
	}
	if err := r.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	record.Status = next
	return record, nil
}

// SetStatus sets a record to any known status, including inactive.
func (r *Registry) SetStatus(ctx context.Context, id string, status domain.LicenseStatus) (*domain.LicenseRecord, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	record, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	record.Status = status
	return record, nil
}

// SetExpiration recomputes a record's expiration as now + days.
func (r *Registry) SetExpiration(ctx context.Context, id string, days int) (*domain.LicenseRecord, error) {
	if days < MinExpirationDays || days > MaxExpirationDays {
		return nil, fmt.Errorf("%w: expiration must be between %d and %d days", domain.ErrValidation, MinExpirationDays, MaxExpirationDays)
	}
	record, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	expiresAt := r.now().AddDate(0, 0, days)
	if err := r.repo.UpdateExpiration(ctx, id, expiresAt); err != nil {
		return nil, err
	}
	record.ExpiresAt = &expiresAt
	return record, nil
}

// Delete removes a record permanently. Users who already activated the key
// keep their denormalized snapshot; there is no cascade.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	r.logger.Info().Str("license_id", id).Msg("license deleted")
	return nil
}

// List returns every record in the registry.
func (r *Registry) List(ctx context.Context) ([]domain.LicenseRecord, error) {
	return r.repo.List(ctx)
}

// Stats aggregates the registry: totals per status plus how many records
// were minted since local midnight.
func (r *Registry) Stats(ctx context.Context) (*domain.LicenseStats, error) {
	records, err := r.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	stats := &domain.LicenseStats{TotalKeys: len(records)}
	for _, record := range records {
		switch record.Status {
		case domain.LicenseStatusActive:
			stats.ActiveKeys++
		case domain.LicenseStatusMaintenance:
			stats.InMaintenance++
		}
		if domain.SameDay(record.CreatedAt, now) {
			stats.GeneratedToday++
		}
	}
	return stats, nil
}
