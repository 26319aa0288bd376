package license

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// Rejection reasons returned by Activate, in the order the checks run.
const (
	ReasonMissingFields   = "Missing userId or licenseKey"
	ReasonInvalidKey      = "Invalid license key"
	ReasonInactive        = "License is inactive"
	ReasonAlreadyAssigned = "License is already assigned to another account"
	ReasonNoExpiration    = "License has no expiration date set"
	ReasonExpired         = "License has expired"
)

// RejectedError is returned when an activation fails one of the validation
// checks. It maps to a 400 at the request boundary.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return e.Reason }

// ActivationResult is the successful outcome of redeeming a key.
type ActivationResult struct {
	Key           string
	Plan          domain.Plan
	ExpiresAt     time.Time
	DaysRemaining int
}

// Activator redeems license keys against user accounts.
type Activator struct {
	licenses domain.LicenseRepository
	users    domain.UserRepository
	logger   zerolog.Logger
	now      func() time.Time
}

// NewActivator creates an Activator. The now function may be nil, in which
// case time.Now is used.
func NewActivator(licenses domain.LicenseRepository, users domain.UserRepository, logger zerolog.Logger, now func() time.Time) *Activator {
	if now == nil {
		now = time.Now
	}
	return &Activator{licenses: licenses, users: users, logger: logger, now: now}
}

// Activate validates a submitted key and, when every check passes, merges a
// license snapshot into the user's profile and claims the record for that
// user. Repeating a valid activation is safe: the same snapshot is written
// again. Validation failures return *RejectedError; anything else is a
// persistence failure.
func (a *Activator) Activate(ctx context.Context, userID, licenseKey string) (*ActivationResult, error) {
	if userID == "" || licenseKey == "" {
		return nil, &RejectedError{Reason: ReasonMissingFields}
	}

	record, err := a.licenses.GetByKey(ctx, licenseKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &RejectedError{Reason: ReasonInvalidKey}
		}
		return nil, err
	}

	if record.Status != domain.LicenseStatusActive {
		return nil, &RejectedError{Reason: ReasonInactive}
	}
	if record.AssignedTo != "" && record.AssignedTo != userID {
		return nil, &RejectedError{Reason: ReasonAlreadyAssigned}
	}
	if record.ExpiresAt == nil {
		return nil, &RejectedError{Reason: ReasonNoExpiration}
	}

	now := a.now()
	if record.Expired(now) {
		return nil, &RejectedError{Reason: ReasonExpired}
	}

	snapshot := domain.LicenseSnapshot{
		Key:       record.Key,
		Plan:      record.Plan,
		ExpiresAt: *record.ExpiresAt,
	}
	if err := a.users.AttachLicense(ctx, userID, snapshot); err != nil {
		return nil, err
	}

	// First successful use binds the key to this account. A failure here
	// leaves the snapshot in place; the next activation simply re-claims.
	if record.AssignedTo == "" {
		if err := a.licenses.Assign(ctx, record.ID, userID); err != nil {
			return nil, err
		}
	}

	a.logger.Info().
		Str("user_id", userID).
		Str("plan", string(record.Plan)).
		Msg("license activated")

	return &ActivationResult{
		Key:           record.Key,
		Plan:          record.Plan,
		ExpiresAt:     *record.ExpiresAt,
		DaysRemaining: snapshot.DaysRemaining(now),
	}, nil
}
