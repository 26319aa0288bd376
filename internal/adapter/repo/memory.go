package repo

import (
	"context"
	"sync"
	"time"

	"server/internal/domain"
	"server/internal/entitlement"
)

// MemoryLicenseRepository is an in-memory domain.LicenseRepository. It backs
// the tests and store-less development runs.
type MemoryLicenseRepository struct {
	mu      sync.Mutex
	byID    map[string]*domain.LicenseRecord
	keyToID map[string]string
}

// NewMemoryLicenseRepository creates an empty in-memory license repository.
func NewMemoryLicenseRepository() *MemoryLicenseRepository {
	return &MemoryLicenseRepository{
		byID:    make(map[string]*domain.LicenseRecord),
		keyToID: make(map[string]string),
	}
}

func (r *MemoryLicenseRepository) Create(_ context.Context, record *domain.LicenseRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.keyToID[record.Key]; exists {
		return domain.ErrDuplicateKey
	}
	clone := *record
	r.byID[record.ID] = &clone
	r.keyToID[record.Key] = record.ID
	return nil
}

func (r *MemoryLicenseRepository) GetByID(_ context.Context, id string) (*domain.LicenseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (r *MemoryLicenseRepository) GetByKey(_ context.Context, key string) (*domain.LicenseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.keyToID[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *r.byID[id]
	return &clone, nil
}

func (r *MemoryLicenseRepository) List(_ context.Context) ([]domain.LicenseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := make([]domain.LicenseRecord, 0, len(r.byID))
	for _, record := range r.byID {
		records = append(records, *record)
	}
	return records, nil
}

func (r *MemoryLicenseRepository) UpdateStatus(_ context.Context, id string, status domain.LicenseStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	record.Status = status
	return nil
}

func (r *MemoryLicenseRepository) UpdateExpiration(_ context.Context, id string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	record.ExpiresAt = &expiresAt
	return nil
}

func (r *MemoryLicenseRepository) Assign(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if record.AssignedTo != "" && record.AssignedTo != userID {
		return domain.ErrNotFound
	}
	record.AssignedTo = userID
	return nil
}

func (r *MemoryLicenseRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.keyToID, record.Key)
	delete(r.byID, id)
	return nil
}

// MemoryUserRepository is an in-memory domain.UserRepository. RecordMessage
// mirrors the conditional check-and-advance of the Postgres implementation
// under a mutex.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.UserProfile
}

// NewMemoryUserRepository creates an empty in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*domain.UserProfile)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *user
	if user.License != nil {
		snapshot := *user.License
		clone.License = &snapshot
	}
	return &clone, nil
}

func (r *MemoryUserRepository) AttachLicense(_ context.Context, userID string, snapshot domain.LicenseSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		user = &domain.UserProfile{ID: userID, Plan: domain.PlanFree, CreatedAt: time.Now()}
		r.users[userID] = user
	}
	user.License = &snapshot
	return nil
}

func (r *MemoryUserRepository) RecordMessage(_ context.Context, userID string, now time.Time) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if decision := entitlement.Check(user, now); !decision.Allowed {
		return nil, domain.ErrQuotaExceeded
	}
	user.MessageCount, user.TodayMessageCount = entitlement.Advance(user, now)
	user.MessageCountDate = now
	clone := *user
	if user.License != nil {
		snapshot := *user.License
		clone.License = &snapshot
	}
	return &clone, nil
}
