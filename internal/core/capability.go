package core

import (
	"time"

	"qaflow-backend-go/internal/models"
)

// Capabilities is the derived, point-in-time resolution of what an account
// is allowed to do. It is computed from the persisted subscription record
// and never stored.
type Capabilities struct {
	IsTrialActive             bool             `json:"isTrialActive"`
	TrialDaysRemaining        int              `json:"trialDaysRemaining"`
	CanCreateMultipleProjects bool             `json:"canCreateMultipleProjects"`
	CanAccessAdvancedReports  bool             `json:"canAccessAdvancedReports"`
	CanInviteTeamMembers      bool             `json:"canInviteTeamMembers"`
	CanUseAPI                 bool             `json:"canUseAPI"`
	CanUseAutomation          bool             `json:"canUseAutomation"`
	Limits                    map[string]int64 `json:"limits"`
}

// FreeLimits returns the restrictive default limits applied when plan
// metadata is missing or malformed, and to free accounts without a trial.
func FreeLimits() map[string]int64 {
	return map[string]int64{
		models.LimitProjects:    1,
		models.LimitTestScripts: 10,
		models.LimitRecordings:  3,
		models.LimitTeamMembers: 1,
	}
}

// planLimits returns the limit set for a known plan tier. Unknown tiers fall
// back to the free defaults.
func planLimits(tier string) map[string]int64 {
	switch tier {
	case models.PlanPro:
		return map[string]int64{
			models.LimitProjects:    10,
			models.LimitTestScripts: 500,
			models.LimitRecordings:  100,
			models.LimitTeamMembers: 10,
		}
	case models.PlanEnterprise:
		return map[string]int64{
			models.LimitProjects:    models.Unlimited,
			models.LimitTestScripts: models.Unlimited,
			models.LimitRecordings:  models.Unlimited,
			models.LimitTeamMembers: models.Unlimited,
		}
	default:
		return FreeLimits()
	}
}

// validLimits reports whether a persisted limits map carries every known
// resource with a usable value. Malformed maps are discarded in favor of
// tier defaults.
func validLimits(limits map[string]int64) bool {
	if limits == nil {
		return false
	}
	for _, key := range []string{models.LimitProjects, models.LimitTestScripts, models.LimitRecordings, models.LimitTeamMembers} {
		v, ok := limits[key]
		if !ok || (v < 0 && v != models.Unlimited) {
			return false
		}
	}
	return true
}

// DeriveCapabilities computes the capability set for a profile and its
// subscription record at the given time. It is pure: no I/O, no clock reads,
// identical inputs always yield deep-equal outputs.
//
// A nil subscription yields the maximally restricted set (all features off,
// free limits) rather than an error.
func DeriveCapabilities(profile *models.UserProfile, sub *models.SubscriptionRecord, now time.Time) Capabilities {
	if sub == nil {
		return Capabilities{Limits: FreeLimits()}
	}

	trialActive := sub.IsTrialActive && sub.TrialEndDate != nil && now.Before(*sub.TrialEndDate)

	daysRemaining := 0
	if trialActive {
		remaining := sub.TrialEndDate.Sub(now)
		daysRemaining = int((remaining + 24*time.Hour - 1) / (24 * time.Hour))
	}

	tier := sub.SubscriptionType
	paid := tier != "" && tier != models.PlanFree && sub.SubscriptionStatus == models.SubscriptionActive
	elevated := trialActive || paid

	caps := Capabilities{
		IsTrialActive:             trialActive,
		TrialDaysRemaining:        daysRemaining,
		CanCreateMultipleProjects: elevated,
		CanAccessAdvancedReports:  elevated,
		CanInviteTeamMembers:      elevated,
		CanUseAPI:                 trialActive || (paid && (tier == models.PlanPro || tier == models.PlanEnterprise)),
		CanUseAutomation:          trialActive || (paid && tier == models.PlanEnterprise),
	}

	switch {
	case validLimits(sub.Limits):
		// Copy so callers cannot mutate the persisted record through the
		// capability set.
		caps.Limits = make(map[string]int64, len(sub.Limits))
		for k, v := range sub.Limits {
			caps.Limits[k] = v
		}
	case trialActive && !paid:
		// A trial grants pro-level capacity to free accounts.
		caps.Limits = planLimits(models.PlanPro)
	case paid:
		caps.Limits = planLimits(tier)
	default:
		caps.Limits = FreeLimits()
	}

	return caps
}

// LimitFor returns the capacity for the named resource, falling back to the
// free default when the capability set does not carry it.
func (c Capabilities) LimitFor(resource string) int64 {
	if v, ok := c.Limits[resource]; ok {
		return v
	}
	if v, ok := FreeLimits()[resource]; ok {
		return v
	}
	return 0
}

// Allows reports whether count more of the named resource fits under the
// limit. Unlimited always allows.
func (c Capabilities) Allows(resource string, current int) bool {
	limit := c.LimitFor(resource)
	if limit == models.Unlimited {
		return true
	}
	return int64(current) < limit
}
