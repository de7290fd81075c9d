package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qaflow-backend-go/internal/models"
)

func testProfile(uid string) *models.UserProfile {
	return &models.UserProfile{
		UID:         uid,
		Email:       uid + "@example.com",
		AccountType: models.AccountTypeIndividual,
	}
}

func TestDeriveCapabilities_NilSubscription(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	caps := DeriveCapabilities(testProfile("u1"), nil, now)

	assert.False(t, caps.IsTrialActive)
	assert.Zero(t, caps.TrialDaysRemaining)
	assert.False(t, caps.CanCreateMultipleProjects)
	assert.False(t, caps.CanAccessAdvancedReports)
	assert.False(t, caps.CanInviteTeamMembers)
	assert.False(t, caps.CanUseAPI)
	assert.False(t, caps.CanUseAutomation)
	assert.Equal(t, FreeLimits(), caps.Limits)
}

func TestDeriveCapabilities_Deterministic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sub := models.NewTrialSubscription(now.AddDate(0, 0, -10))

	first := DeriveCapabilities(testProfile("u1"), &sub, now)
	second := DeriveCapabilities(testProfile("u1"), &sub, now)

	assert.Equal(t, first, second)
}

func TestDeriveCapabilities_ActiveTrial(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sub := models.NewTrialSubscription(now.AddDate(0, 0, -10))

	caps := DeriveCapabilities(testProfile("u1"), &sub, now)

	assert.True(t, caps.IsTrialActive)
	assert.Equal(t, 20, caps.TrialDaysRemaining)
	assert.True(t, caps.CanCreateMultipleProjects)
	assert.True(t, caps.CanAccessAdvancedReports)
	assert.True(t, caps.CanInviteTeamMembers)
	assert.True(t, caps.CanUseAPI)
	assert.True(t, caps.CanUseAutomation)
	// A trial grants pro-level capacity.
	assert.Equal(t, planLimits(models.PlanPro), caps.Limits)
}

func TestDeriveCapabilities_DaysRemainingRoundsUp(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(36 * time.Hour) // 1.5 days left
	sub := models.SubscriptionRecord{
		SubscriptionType: models.PlanFree,
		IsTrialActive:    true,
		TrialEndDate:     &end,
	}

	caps := DeriveCapabilities(testProfile("u1"), &sub, now)

	require.True(t, caps.IsTrialActive)
	assert.Equal(t, 2, caps.TrialDaysRemaining)
}

func TestDeriveCapabilities_ExpiredTrial(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(-time.Minute)
	sub := models.SubscriptionRecord{
		SubscriptionType:   models.PlanFree,
		SubscriptionStatus: models.SubscriptionActive,
		IsTrialActive:      true, // persisted flag is stale
		TrialEndDate:       &end,
	}

	caps := DeriveCapabilities(testProfile("u1"), &sub, now)

	assert.False(t, caps.IsTrialActive, "derived state wins over the stale persisted flag")
	assert.Zero(t, caps.TrialDaysRemaining)
	assert.False(t, caps.CanCreateMultipleProjects)
	assert.Equal(t, FreeLimits(), caps.Limits)
}

func TestDeriveCapabilities_TrialFlagWithoutEndDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sub := models.SubscriptionRecord{IsTrialActive: true}

	caps := DeriveCapabilities(testProfile("u1"), &sub, now)

	assert.False(t, caps.IsTrialActive, "a trial without an end date is not active")
}

func TestDeriveCapabilities_PaidTiers(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		tier           string
		status         string
		wantElevated   bool
		wantAPI        bool
		wantAutomation bool
		wantLimits     map[string]int64
	}{
		{
			name:           "active pro",
			tier:           models.PlanPro,
			status:         models.SubscriptionActive,
			wantElevated:   true,
			wantAPI:        true,
			wantAutomation: false,
			wantLimits:     planLimits(models.PlanPro),
		},
		{
			name:           "active enterprise",
			tier:           models.PlanEnterprise,
			status:         models.SubscriptionActive,
			wantElevated:   true,
			wantAPI:        true,
			wantAutomation: true,
			wantLimits:     planLimits(models.PlanEnterprise),
		},
		{
			name:       "inactive pro is not paid",
			tier:       models.PlanPro,
			status:     models.SubscriptionInactive,
			wantLimits: FreeLimits(),
		},
		{
			name:       "free without trial",
			tier:       models.PlanFree,
			status:     models.SubscriptionActive,
			wantLimits: FreeLimits(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := models.SubscriptionRecord{
				SubscriptionType:   tt.tier,
				SubscriptionStatus: tt.status,
			}
			caps := DeriveCapabilities(testProfile("u1"), &sub, now)

			assert.Equal(t, tt.wantElevated, caps.CanCreateMultipleProjects)
			assert.Equal(t, tt.wantElevated, caps.CanInviteTeamMembers)
			assert.Equal(t, tt.wantAPI, caps.CanUseAPI)
			assert.Equal(t, tt.wantAutomation, caps.CanUseAutomation)
			assert.Equal(t, tt.wantLimits, caps.Limits)
		})
	}
}

func TestDeriveCapabilities_MalformedLimitsFallBack(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sub := models.SubscriptionRecord{
		SubscriptionType:   models.PlanPro,
		SubscriptionStatus: models.SubscriptionActive,
		Limits: map[string]int64{
			models.LimitProjects: 5, // missing the other resources
		},
	}

	caps := DeriveCapabilities(testProfile("u1"), &sub, now)

	assert.Equal(t, planLimits(models.PlanPro), caps.Limits)
}

func TestDeriveCapabilities_PersistedLimitsAreCopied(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sub := models.SubscriptionRecord{
		SubscriptionType:   models.PlanPro,
		SubscriptionStatus: models.SubscriptionActive,
		Limits: map[string]int64{
			models.LimitProjects:    7,
			models.LimitTestScripts: 70,
			models.LimitRecordings:  7,
			models.LimitTeamMembers: 7,
		},
	}

	caps := DeriveCapabilities(testProfile("u1"), &sub, now)
	caps.Limits[models.LimitProjects] = 999

	assert.Equal(t, int64(7), sub.Limits[models.LimitProjects])
}

func TestCapabilities_Allows(t *testing.T) {
	caps := Capabilities{Limits: map[string]int64{
		models.LimitProjects:   2,
		models.LimitRecordings: models.Unlimited,
	}}

	assert.True(t, caps.Allows(models.LimitProjects, 1))
	assert.False(t, caps.Allows(models.LimitProjects, 2))
	assert.True(t, caps.Allows(models.LimitRecordings, 1000000))
	// Unknown resource falls back to the free default.
	assert.Equal(t, FreeLimits()[models.LimitTeamMembers], caps.LimitFor(models.LimitTeamMembers))
}
