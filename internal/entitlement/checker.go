// Package entitlement decides whether a user's next message is within their
// plan's quota. The check is a pure function of the profile so it can be
// evaluated against any store, or none at all; the authoritative
// check-and-increment lives in the user repository as a single conditional
// update.
package entitlement

import (
	"fmt"
	"time"

	"server/internal/domain"
)

// Plan quotas. Free is a lifetime cap, the paid tiers are per calendar day.
const (
	FreeLifetimeLimit = 10
	ClassicDailyLimit = 1000
	ProDailyLimit     = 5000
)

// Decision is the outcome of an entitlement check.
type Decision struct {
	Allowed bool
	Reason  string
}

// LimitInfo describes a user's current standing against their quota.
type LimitInfo struct {
	Plan      domain.Plan
	Limit     int
	Current   int
	Remaining int
}

// Check reports whether the user may send one more message at now.
func Check(user *domain.UserProfile, now time.Time) Decision {
	if user == nil {
		return Decision{Allowed: false, Reason: "Not authenticated"}
	}

	switch user.EffectivePlan(now) {
	case domain.PlanFree:
		if user.MessageCount >= FreeLifetimeLimit {
			return Decision{Allowed: false, Reason: fmt.Sprintf("Free plan limit reached (%d messages)", FreeLifetimeLimit)}
		}
	case domain.PlanClassic:
		if user.TodayCount(now) >= ClassicDailyLimit {
			return Decision{Allowed: false, Reason: fmt.Sprintf("Daily limit reached (%d messages)", ClassicDailyLimit)}
		}
	case domain.PlanPro:
		if user.TodayCount(now) >= ProDailyLimit {
			return Decision{Allowed: false, Reason: fmt.Sprintf("Daily limit reached (%d messages)", ProDailyLimit)}
		}
	default:
		return Decision{Allowed: false}
	}

	return Decision{Allowed: true}
}

// Advance computes the counter values after one successful send. The daily
// counter resets to 1 on the first send of a new calendar date; the lifetime
// counter always moves by one.
func Advance(user *domain.UserProfile, now time.Time) (total, today int) {
	today = 1
	if domain.SameDay(user.MessageCountDate, now) {
		today = user.TodayMessageCount + 1
	}
	return user.MessageCount + 1, today
}

// Limits summarizes the user's quota standing at now.
func Limits(user *domain.UserProfile, now time.Time) LimitInfo {
	if user == nil {
		return LimitInfo{}
	}

	info := LimitInfo{Plan: user.EffectivePlan(now)}
	switch info.Plan {
	case domain.PlanFree:
		info.Limit = FreeLifetimeLimit
		info.Current = user.MessageCount
	case domain.PlanClassic:
		info.Limit = ClassicDailyLimit
		info.Current = user.TodayCount(now)
	case domain.PlanPro:
		info.Limit = ProDailyLimit
		info.Current = user.TodayCount(now)
	}
	if info.Remaining = info.Limit - info.Current; info.Remaining < 0 {
		info.Remaining = 0
	}
	return info
}

// LimitFor returns the message limit applying to a plan.
func LimitFor(plan domain.Plan) int {
	switch plan {
	case domain.PlanClassic:
		return ClassicDailyLimit
	case domain.PlanPro:
		return ProDailyLimit
	default:
		return FreeLifetimeLimit
	}
}
