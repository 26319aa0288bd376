package license

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/adapter/repo"
	"server/internal/domain"
)

type activationFixture struct {
	licenses  *repo.MemoryLicenseRepository
	users     *repo.MemoryUserRepository
	activator *Activator
	now       time.Time
}

func newActivationFixture(t *testing.T) *activationFixture {
	t.Helper()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	licenses := repo.NewMemoryLicenseRepository()
	users := repo.NewMemoryUserRepository()
	return &activationFixture{
		licenses:  licenses,
		users:     users,
		activator: NewActivator(licenses, users, zerolog.Nop(), func() time.Time { return now }),
		now:       now,
	}
}

func (f *activationFixture) addUser(t *testing.T, id string) {
	t.Helper()
	err := f.users.Create(context.Background(), &domain.UserProfile{
		ID: id, Name: id, Email: id + "@example.com", Plan: domain.PlanFree, CreatedAt: f.now,
	})
	if err != nil {
		t.Fatalf("users.Create() error: %v", err)
	}
}

func (f *activationFixture) addLicense(t *testing.T, mutate func(*domain.LicenseRecord)) *domain.LicenseRecord {
	t.Helper()
	expiresAt := f.now.AddDate(0, 0, 30)
	record := &domain.LicenseRecord{
		ID:        "lic-1",
		Key:       "PRO-ABCDEFGH12345678",
		Plan:      domain.PlanPro,
		Status:    domain.LicenseStatusActive,
		CreatedAt: f.now,
		ExpiresAt: &expiresAt,
	}
	if mutate != nil {
		mutate(record)
	}
	if err := f.licenses.Create(context.Background(), record); err != nil {
		t.Fatalf("licenses.Create() error: %v", err)
	}
	return record
}

func assertRejected(t *testing.T, err error, reason string) {
	t.Helper()
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("Activate() error = %v, want RejectedError", err)
	}
	if rejected.Reason != reason {
		t.Fatalf("Activate() reason = %q, want %q", rejected.Reason, reason)
	}
}

func TestActivateMissingFields(t *testing.T) {
	f := newActivationFixture(t)
	_, err := f.activator.Activate(context.Background(), "", "PRO-ABCDEFGH12345678")
	assertRejected(t, err, ReasonMissingFields)
	_, err = f.activator.Activate(context.Background(), "u1", "")
	assertRejected(t, err, ReasonMissingFields)
}

func TestActivateInvalidKey(t *testing.T) {
	f := newActivationFixture(t)
	f.addUser(t, "u1")
	_, err := f.activator.Activate(context.Background(), "u1", "PRO-DOESNOTEXIST0000")
	assertRejected(t, err, ReasonInvalidKey)
}

func TestActivateInactiveStatuses(t *testing.T) {
	for _, status := range []domain.LicenseStatus{domain.LicenseStatusMaintenance, domain.LicenseStatusInactive} {
		t.Run(string(status), func(t *testing.T) {
			f := newActivationFixture(t)
			f.addUser(t, "u1")
			record := f.addLicense(t, func(l *domain.LicenseRecord) { l.Status = status })
			_, err := f.activator.Activate(context.Background(), "u1", record.Key)
			assertRejected(t, err, ReasonInactive)
		})
	}
}

func TestActivateAlreadyAssigned(t *testing.T) {
	f := newActivationFixture(t)
	f.addUser(t, "u2")
	record := f.addLicense(t, func(l *domain.LicenseRecord) { l.AssignedTo = "u1" })
	_, err := f.activator.Activate(context.Background(), "u2", record.Key)
	assertRejected(t, err, ReasonAlreadyAssigned)
}

func TestActivateNoExpiration(t *testing.T) {
	f := newActivationFixture(t)
	f.addUser(t, "u1")
	record := f.addLicense(t, func(l *domain.LicenseRecord) { l.ExpiresAt = nil })
	_, err := f.activator.Activate(context.Background(), "u1", record.Key)
	assertRejected(t, err, ReasonNoExpiration)
}

func TestActivateExpired(t *testing.T) {
	f := newActivationFixture(t)
	f.addUser(t, "u1")

	tests := []struct {
		name      string
		expiresAt time.Time
		wantErr   bool
	}{
		{"past", f.now.Add(-time.Hour), true},
		{"exactly now", f.now, true},
		{"one second ahead", f.now.Add(time.Second), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newActivationFixture(t)
			f.addUser(t, "u1")
			record := f.addLicense(t, func(l *domain.LicenseRecord) { l.ExpiresAt = &tt.expiresAt })
			_, err := f.activator.Activate(context.Background(), "u1", record.Key)
			if tt.wantErr {
				assertRejected(t, err, ReasonExpired)
			} else if err != nil {
				t.Fatalf("Activate() unexpected error: %v", err)
			}
		})
	}
}

func TestActivateSuccess(t *testing.T) {
	f := newActivationFixture(t)
	f.addUser(t, "u1")
	record := f.addLicense(t, nil)

	result, err := f.activator.Activate(context.Background(), "u1", record.Key)
	if err != nil {
		t.Fatalf("Activate() error: %v", err)
	}
	if result.Plan != domain.PlanPro || result.Key != record.Key {
		t.Fatalf("Activate() = %+v, want key %q plan Pro", result, record.Key)
	}
	if result.DaysRemaining != 30 {
		t.Fatalf("Activate() daysRemaining = %d, want 30", result.DaysRemaining)
	}

	user, err := f.users.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if user.License == nil || user.License.Key != record.Key || user.License.Plan != domain.PlanPro {
		t.Fatalf("user license snapshot = %+v, want key %q plan Pro", user.License, record.Key)
	}
	if user.Name != "u1" || user.Email != "u1@example.com" {
		t.Fatalf("activation must merge, not replace: user = %+v", user)
	}

	stored, err := f.licenses.GetByID(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("licenses.GetByID() error: %v", err)
	}
	if stored.AssignedTo != "u1" {
		t.Fatalf("license assigned to %q, want u1", stored.AssignedTo)
	}
}

func TestActivateCreatesMissingUser(t *testing.T) {
	f := newActivationFixture(t)
	record := f.addLicense(t, nil)

	result, err := f.activator.Activate(context.Background(), "fresh", record.Key)
	if err != nil {
		t.Fatalf("Activate() for an unregistered user error: %v", err)
	}
	if result.Plan != domain.PlanPro {
		t.Fatalf("Activate() plan = %q, want Pro", result.Plan)
	}

	user, err := f.users.GetByID(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("GetByID() after activation error: %v", err)
	}
	if user.License == nil || user.License.Key != record.Key {
		t.Fatalf("created profile license = %+v, want key %q", user.License, record.Key)
	}
	if got := user.EffectivePlan(f.now); got != domain.PlanPro {
		t.Fatalf("EffectivePlan() = %q, want Pro", got)
	}

	stored, err := f.licenses.GetByID(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("licenses.GetByID() error: %v", err)
	}
	if stored.AssignedTo != "fresh" {
		t.Fatalf("license assigned to %q, want fresh", stored.AssignedTo)
	}
}

func TestActivateIdempotentForSameUser(t *testing.T) {
	f := newActivationFixture(t)
	f.addUser(t, "u1")
	record := f.addLicense(t, nil)

	first, err := f.activator.Activate(context.Background(), "u1", record.Key)
	if err != nil {
		t.Fatalf("Activate() first call error: %v", err)
	}
	second, err := f.activator.Activate(context.Background(), "u1", record.Key)
	if err != nil {
		t.Fatalf("Activate() second call error: %v", err)
	}
	if first.Plan != second.Plan || !first.ExpiresAt.Equal(second.ExpiresAt) {
		t.Fatalf("repeat activation diverged: first %+v, second %+v", first, second)
	}
}

func TestActivateSecondUserRejected(t *testing.T) {
	f := newActivationFixture(t)
	f.addUser(t, "u1")
	f.addUser(t, "u2")
	record := f.addLicense(t, nil)

	if _, err := f.activator.Activate(context.Background(), "u1", record.Key); err != nil {
		t.Fatalf("Activate() for u1 error: %v", err)
	}
	_, err := f.activator.Activate(context.Background(), "u2", record.Key)
	assertRejected(t, err, ReasonAlreadyAssigned)
}

func TestSnapshotSurvivesLicenseDeletion(t *testing.T) {
	f := newActivationFixture(t)
	f.addUser(t, "u1")
	record := f.addLicense(t, nil)

	if _, err := f.activator.Activate(context.Background(), "u1", record.Key); err != nil {
		t.Fatalf("Activate() error: %v", err)
	}
	if err := f.licenses.Delete(context.Background(), record.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	user, err := f.users.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if user.License == nil || user.License.Key != record.Key {
		t.Fatalf("snapshot gone after license deletion: %+v", user.License)
	}
	if got := user.EffectivePlan(f.now); got != domain.PlanPro {
		t.Fatalf("EffectivePlan() = %q, want Pro while snapshot is valid", got)
	}
}
