package domain

import (
	"context"
	"time"
)

// LicenseRepository defines persistence for license records.
type LicenseRepository interface {
	Create(ctx context.Context, record *LicenseRecord) error
	GetByID(ctx context.Context, id string) (*LicenseRecord, error)
	GetByKey(ctx context.Context, key string) (*LicenseRecord, error)
	List(ctx context.Context) ([]LicenseRecord, error)
	UpdateStatus(ctx context.Context, id string, status LicenseStatus) error
	UpdateExpiration(ctx context.Context, id string, expiresAt time.Time) error
	Assign(ctx context.Context, id, userID string) error
	Delete(ctx context.Context, id string) error
}

// UserRepository defines persistence for user profiles.
type UserRepository interface {
	Create(ctx context.Context, user *UserProfile) error
	GetByID(ctx context.Context, id string) (*UserProfile, error)
	// AttachLicense merges a license snapshot into the profile without
	// touching other fields, creating the profile with free-tier defaults
	// when it does not exist yet.
	AttachLicense(ctx context.Context, userID string, snapshot LicenseSnapshot) error
	// RecordMessage checks the user's quota and advances both counters in a
	// single conditional update, returning the profile after the write.
	// ErrQuotaExceeded is returned when the plan limit has been reached.
	RecordMessage(ctx context.Context, userID string, now time.Time) (*UserProfile, error)
}
