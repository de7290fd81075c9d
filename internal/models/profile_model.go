package models

import "time"

// Account types supported for a user profile.
const (
	AccountTypeIndividual   = "individual"
	AccountTypeOrganization = "organization"
)

// OnboardingStatus tracks per-step onboarding completion for a user.
// OnboardingComplete must only be true when every step required for the
// user's account type is true.
type OnboardingStatus struct {
	ProfileCompleted   bool `json:"profileCompleted" firestore:"profileCompleted"`
	FirstSuiteCreated  bool `json:"firstSuiteCreated" firestore:"firstSuiteCreated"`
	FirstReportFiled   bool `json:"firstReportFiled" firestore:"firstReportFiled"`
	TeamInvited        bool `json:"teamInvited" firestore:"teamInvited"` // organization accounts only
	OnboardingComplete bool `json:"onboardingComplete" firestore:"onboardingComplete"`
}

// UserProfile represents a user in the system.
// The Firebase Auth UID is used as the Firestore document ID.
type UserProfile struct {
	UID            string             `json:"uid" firestore:"-"`
	Email          string             `json:"email" firestore:"email"`
	DisplayName    string             `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	AccountType    string             `json:"accountType" firestore:"accountType"` // "individual" or "organization"
	OrganizationID string             `json:"organizationId,omitempty" firestore:"organizationId,omitempty"`
	EmailVerified  bool               `json:"emailVerified" firestore:"emailVerified"`
	Onboarding     OnboardingStatus   `json:"onboardingStatus" firestore:"onboardingStatus"`
	Subscription   SubscriptionRecord `json:"subscription" firestore:"subscription"`
	CreatedAt      time.Time          `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt      time.Time          `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// AccountOwnerID returns the ID that suites belonging to this account are
// keyed by: the organization ID for organization accounts, the user's own
// UID otherwise.
func (p *UserProfile) AccountOwnerID() string {
	if p.AccountType == AccountTypeOrganization && p.OrganizationID != "" {
		return p.OrganizationID
	}
	return p.UID
}
