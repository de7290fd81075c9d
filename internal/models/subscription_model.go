package models

import "time"

// Subscription plan tiers.
const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Subscription statuses.
const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
)

// Unlimited is the sentinel value for a resource limit with no cap.
const Unlimited int64 = -1

// Resource names used as keys in SubscriptionRecord.Limits.
const (
	LimitProjects    = "projects"
	LimitTestScripts = "testScripts"
	LimitRecordings  = "recordings"
	LimitTeamMembers = "teamMembers"
)

// SubscriptionRecord holds the persisted subscription and trial state for an
// account. It lives embedded in the user profile document (one-to-one).
//
// Invariants: IsTrialActive implies the current time is before TrialEndDate;
// once a trial expires, HasUsedTrial is true and stays true (the trial is
// single-use per account).
type SubscriptionRecord struct {
	SubscriptionType   string           `json:"subscriptionType" firestore:"subscriptionType"`     // "free", "pro", "enterprise"
	SubscriptionStatus string           `json:"subscriptionStatus" firestore:"subscriptionStatus"` // "active" or "inactive"
	IsTrialActive      bool             `json:"isTrialActive" firestore:"isTrialActive"`
	TrialStartDate     *time.Time       `json:"trialStartDate,omitempty" firestore:"trialStartDate,omitempty"`
	TrialEndDate       *time.Time       `json:"trialEndDate,omitempty" firestore:"trialEndDate,omitempty"`
	TrialDaysRemaining int              `json:"trialDaysRemaining" firestore:"trialDaysRemaining"`
	HasUsedTrial       bool             `json:"hasUsedTrial" firestore:"hasUsedTrial"`
	Limits             map[string]int64 `json:"limits,omitempty" firestore:"limits,omitempty"`
}

// TrialDays is the default trial window granted at registration.
const TrialDays = 30

// NewTrialSubscription returns the subscription record created at
// registration: a free plan with the default trial window open.
func NewTrialSubscription(now time.Time) SubscriptionRecord {
	start := now.UTC()
	end := start.AddDate(0, 0, TrialDays)
	return SubscriptionRecord{
		SubscriptionType:   PlanFree,
		SubscriptionStatus: SubscriptionActive,
		IsTrialActive:      true,
		TrialStartDate:     &start,
		TrialEndDate:       &end,
		TrialDaysRemaining: TrialDays,
		HasUsedTrial:       false,
	}
}
