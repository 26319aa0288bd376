// Package domain holds the core types of the licensing and entitlement
// layer, free of transport and persistence concerns.
package domain

import "time"

// Plan is a subscription tier.
type Plan string

const (
	PlanFree    Plan = "Free"
	PlanClassic Plan = "Classic"
	PlanPro     Plan = "Pro"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanClassic, PlanPro:
		return true
	}
	return false
}

// Paid reports whether p is a tier that license keys exist for.
func (p Plan) Paid() bool {
	return p == PlanClassic || p == PlanPro
}

// LicenseStatus is the administrative state of a license record.
type LicenseStatus string

const (
	LicenseStatusActive      LicenseStatus = "active"
	LicenseStatusMaintenance LicenseStatus = "maintenance"
	LicenseStatusInactive    LicenseStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s LicenseStatus) Valid() bool {
	switch s {
	case LicenseStatusActive, LicenseStatusMaintenance, LicenseStatusInactive:
		return true
	}
	return false
}

// LicenseRecord is an entry in the license registry. AssignedTo is empty
// until the key's first successful activation binds it to a user.
type LicenseRecord struct {
	ID         string
	Key        string
	Plan       Plan
	Status     LicenseStatus
	CreatedAt  time.Time
	ExpiresAt  *time.Time
	AssignedTo string
}

// Expired reports whether the record's expiration has passed at now. A
// record without an expiration never expires; an expiration equal to now
// counts as expired.
func (l LicenseRecord) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

// LicenseSnapshot is the subset of a license denormalized onto the user
// profile at activation time. It survives deletion of the source record.
type LicenseSnapshot struct {
	Key       string
	Plan      Plan
	ExpiresAt time.Time
}

// Expired reports whether the snapshot's expiration has passed at now.
func (s LicenseSnapshot) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// DaysRemaining returns the number of calendar days until the snapshot
// expires, rounding partial days up and clamping at zero once expired.
func (s LicenseSnapshot) DaysRemaining(now time.Time) int {
	remaining := s.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// LicenseStats aggregates the registry for the admin dashboard.
type LicenseStats struct {
	TotalKeys      int
	ActiveKeys     int
	InMaintenance  int
	GeneratedToday int
}
