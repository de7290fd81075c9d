package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qaflow-backend-go/internal/identity"
	"qaflow-backend-go/internal/models"
)

func readyInputs(now time.Time) Inputs {
	profile := trialProfile("u1", now.AddDate(0, 0, -5))
	suite := &models.Suite{ID: "s1", Name: "Alpha", OwnerID: "u1", CreatedAt: now}
	return Inputs{
		SessionResolved:  true,
		Session:          &identity.Session{UID: "u1", Email: "tester@gmail.com", EmailVerified: true},
		Loading:          false,
		Phase:            PhaseSettled,
		Profile:          profile,
		Suites:           []*models.Suite{suite},
		ActiveSuite:      suite,
		InteractionCount: TipsInteractionThreshold,
		Route:            "/dashboard",
		Now:              now,
	}
}

func TestResolveState_Ready(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	res := ResolveState(readyInputs(now))

	assert.Equal(t, StateReady, res.State)
	assert.False(t, res.ShowTipsOverlay)
	assert.Empty(t, res.Effects)
}

func TestResolveState_PrecedenceOrder(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Each mutation breaks one more condition; states must fall out in
	// strict precedence order even when several conditions hold at once.
	tests := []struct {
		name   string
		mutate func(*Inputs)
		want   UIState
	}{
		{
			name:   "session unresolved wins over everything",
			mutate: func(in *Inputs) { in.SessionResolved = false; in.Session = nil; in.Loading = true },
			want:   StateInitializing,
		},
		{
			name: "unverified email wins over loading and expiry",
			mutate: func(in *Inputs) {
				in.Session.EmailVerified = false
				in.Loading = true
				expireTrial(in, now)
			},
			want: StateNeedsEmailVerification,
		},
		{
			name:   "no session",
			mutate: func(in *Inputs) { in.Session = nil; in.Profile = nil },
			want:   StateUnauthenticated,
		},
		{
			name:   "settled load without profile is unauthenticated",
			mutate: func(in *Inputs) { in.Profile = nil },
			want:   StateUnauthenticated,
		},
		{
			name: "loading wins over expiry and missing suites",
			mutate: func(in *Inputs) {
				in.Loading = true
				in.Phase = PhaseSuites
				expireTrial(in, now)
				in.Suites = nil
				in.ActiveSuite = nil
			},
			want: StateLoadingWorkspace,
		},
		{
			name: "trial expiry wins over missing suites",
			mutate: func(in *Inputs) {
				expireTrial(in, now)
				in.Suites = nil
				in.ActiveSuite = nil
			},
			want: StateTrialExpiredBlocking,
		},
		{
			name:   "no suites forces creation",
			mutate: func(in *Inputs) { in.Suites = nil; in.ActiveSuite = nil },
			want:   StateSuiteCreationRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := readyInputs(now)
			tt.mutate(&in)
			assert.Equal(t, tt.want, ResolveState(in).State)
		})
	}
}

func expireTrial(in *Inputs, now time.Time) {
	end := now.Add(-time.Hour)
	in.Profile.Subscription.IsTrialActive = true
	in.Profile.Subscription.TrialEndDate = &end
}

func TestResolveState_UnverifiedEmailEffects(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	in := readyInputs(now)
	in.Session.EmailVerified = false

	res := ResolveState(in)

	require.Equal(t, StateNeedsEmailVerification, res.State)
	kinds := effectKinds(res)
	assert.Contains(t, kinds, EffectNavigate)
	assert.Contains(t, kinds, EffectDismissForcedSuiteModal)
	assert.Contains(t, kinds, EffectClearSuiteCache)
	for _, ef := range res.Effects {
		if ef.Kind == EffectNavigate {
			assert.Equal(t, EmailVerificationPath, ef.Path)
		}
	}
}

func TestResolveState_TrialExpiryUsesPersistedRecord(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	in := readyInputs(now)
	expireTrial(&in, now)

	res := ResolveState(in)

	require.Equal(t, StateTrialExpiredBlocking, res.State)
	assert.Equal(t, []EffectKind{EffectHandleTrialExpiry}, effectKinds(res))

	// Once the expiry handler has persisted the downgrade, the same inputs
	// resolve past the blocking state.
	in.Profile.Subscription.IsTrialActive = false
	in.Profile.Subscription.HasUsedTrial = true
	res = ResolveState(in)
	assert.Equal(t, StateReady, res.State)
}

func TestResolveState_SuiteModalDismissibility(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// No suites at all: creating one is the only way forward.
	in := readyInputs(now)
	in.Suites = nil
	in.ActiveSuite = nil
	res := ResolveState(in)
	require.Equal(t, StateSuiteCreationRequired, res.State)
	assert.False(t, res.SuiteModalDismissible)

	// Suites exist but none resolved active: the modal can be dismissed.
	in = readyInputs(now)
	in.ActiveSuite = nil
	res = ResolveState(in)
	require.Equal(t, StateSuiteCreationRequired, res.State)
	assert.True(t, res.SuiteModalDismissible)
}

func TestResolveState_LoadingMessages(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		phase LoadPhase
		want  string
	}{
		{PhaseAuthenticating, "Authenticating..."},
		{PhaseProfile, "Loading your profile..."},
		{PhaseSubscription, "Checking your subscription..."},
		{PhaseSuites, "Loading your test suites..."},
	}
	for _, tt := range tests {
		in := readyInputs(now)
		in.Loading = true
		in.Phase = tt.phase
		res := ResolveState(in)
		require.Equal(t, StateLoadingWorkspace, res.State)
		assert.Equal(t, tt.want, res.LoadingMessage)
	}

	// Before the session resolves the message is the initializing one.
	in := readyInputs(now)
	in.SessionResolved = false
	res := ResolveState(in)
	assert.Equal(t, "Initializing...", res.LoadingMessage)
}

func TestResolveState_TipsOverlay(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		count int
		route string
		want  bool
	}{
		{"below threshold", 0, "/dashboard", true},
		{"one below threshold", TipsInteractionThreshold - 1, "/dashboard", true},
		{"at threshold", TipsInteractionThreshold, "/dashboard", false},
		{"bypass route settings", 0, "/settings", false},
		{"bypass route billing", 0, "/billing", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := readyInputs(now)
			in.InteractionCount = tt.count
			in.Route = tt.route
			res := ResolveState(in)
			require.Equal(t, StateReady, res.State)
			assert.Equal(t, tt.want, res.ShowTipsOverlay)
		})
	}
}

func TestResolveState_Pure(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	in := readyInputs(now)
	assert.Equal(t, ResolveState(in), ResolveState(in))
}

func effectKinds(res Resolution) []EffectKind {
	kinds := make([]EffectKind, 0, len(res.Effects))
	for _, ef := range res.Effects {
		kinds = append(kinds, ef.Kind)
	}
	return kinds
}
