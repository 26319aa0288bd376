package domain

import "time"

// UserProfile represents an account within the messaging platform.
// MessageCount is the lifetime counter and only gates the free plan;
// TodayMessageCount gates paid plans and is stale once MessageCountDate
// falls on an earlier calendar day.
type UserProfile struct {
	ID                string
	Name              string
	Email             string
	Plan              Plan
	MessageCount      int
	TodayMessageCount int
	MessageCountDate  time.Time
	License           *LicenseSnapshot
	CreatedAt         time.Time
}

// EffectivePlan resolves the plan that actually applies at now. An expired
// license snapshot reverts the user to the free tier; the stored Plan field
// is left untouched and the reversion is recomputed on every read.
func (u UserProfile) EffectivePlan(now time.Time) Plan {
	if u.License != nil {
		if u.License.Expired(now) {
			return PlanFree
		}
		return u.License.Plan
	}
	if u.Plan.Valid() {
		return u.Plan
	}
	return PlanFree
}

// TodayCount returns the daily counter as of now, treating a counter last
// touched on a different calendar day as zero.
func (u UserProfile) TodayCount(now time.Time) int {
	if !SameDay(u.MessageCountDate, now) {
		return 0
	}
	return u.TodayMessageCount
}

// SameDay reports whether a and b fall on the same local calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
