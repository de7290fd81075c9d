package core

import (
	"time"

	"qaflow-backend-go/internal/identity"
	"qaflow-backend-go/internal/models"
	"qaflow-backend-go/internal/notify"
)

// UIState is the single surface the application presents for a given input
// combination. States are mutually exclusive and evaluated in strict
// precedence order; the first matching condition wins.
type UIState int

const (
	StateInitializing UIState = iota
	StateNeedsEmailVerification
	StateUnauthenticated
	StateLoadingWorkspace
	StateTrialExpiredBlocking
	StateSuiteCreationRequired
	StateReady
)

// String returns the wire name of the state.
func (s UIState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateNeedsEmailVerification:
		return "needs_email_verification"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateLoadingWorkspace:
		return "loading_workspace"
	case StateTrialExpiredBlocking:
		return "trial_expired"
	case StateSuiteCreationRequired:
		return "suite_creation_required"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// EmailVerificationPath is the navigation target forced when a session's
// email is unverified.
const EmailVerificationPath = "/verify-email"

// tipsBypassRoutes are routes on which the onboarding tips overlay is never
// shown even below the interaction threshold.
var tipsBypassRoutes = map[string]struct{}{
	"/settings": {},
	"/billing":  {},
	"/account":  {},
}

// EffectKind enumerates the one-shot side effects the state machine can
// request. Effects are returned as data and executed by the EffectRunner.
type EffectKind int

const (
	EffectNavigate EffectKind = iota
	EffectClearSuiteCache
	EffectDismissForcedSuiteModal
	EffectHandleTrialExpiry
	EffectNotify
)

// Effect is a single side effect requested by a state resolution.
type Effect struct {
	Kind         EffectKind
	Path         string // EffectNavigate only
	Notification notify.Notification
}

// Inputs is the full input set of one state resolution. Building it is the
// caller's job; resolution itself is a pure, synchronous, total function of
// this snapshot and never awaits mid-computation.
type Inputs struct {
	SessionResolved  bool
	Session          *identity.Session
	Loading          bool
	Phase            LoadPhase
	Profile          *models.UserProfile
	Suites           []*models.Suite
	ActiveSuite      *models.Suite
	InteractionCount int
	Route            string
	Now              time.Time
}

// Resolution is the outcome of one state computation.
type Resolution struct {
	State                 UIState
	LoadingMessage        string
	SuiteModalDismissible bool
	ShowTipsOverlay       bool
	Effects               []Effect
}

// ResolveState maps an input snapshot to exactly one UI state plus its side
// effects. Every recomputation runs the full precedence chain from the top;
// nothing is diffed incrementally, so no state can get stuck on a missed
// transition.
func ResolveState(in Inputs) Resolution {
	// 1. Identity/session not yet resolved.
	if !in.SessionResolved {
		return Resolution{State: StateInitializing, LoadingMessage: loadingMessage(PhaseIdle)}
	}

	// 2. Authenticated but unverified email. Forces navigation to the
	// verification screen and drops any suite state accumulated so far.
	if in.Session != nil && !in.Session.EmailVerified {
		return Resolution{
			State: StateNeedsEmailVerification,
			Effects: []Effect{
				{Kind: EffectNavigate, Path: EmailVerificationPath},
				{Kind: EffectDismissForcedSuiteModal},
				{Kind: EffectClearSuiteCache},
			},
		}
	}

	// 3. No authenticated user, or an authenticated identity whose profile
	// resolution settled empty. This is a terminal UI state, not a redirect
	// target; rendering the sign-in surface here avoids redirect loops.
	if in.Session == nil || (!in.Loading && in.Phase == PhaseSettled && in.Profile == nil) {
		return Resolution{State: StateUnauthenticated}
	}

	// 4. Workspace still loading.
	if in.Loading || in.Profile == nil {
		return Resolution{State: StateLoadingWorkspace, LoadingMessage: loadingMessage(in.Phase)}
	}

	// 5. Trial expiry transition: the persisted record still claims an
	// active trial but the window has passed. The expiry handler runs as a
	// one-shot effect before the blocking modal is shown.
	sub := in.Profile.Subscription
	if sub.IsTrialActive && sub.TrialEndDate != nil && in.Now.After(*sub.TrialEndDate) {
		return Resolution{
			State:   StateTrialExpiredBlocking,
			Effects: []Effect{{Kind: EffectHandleTrialExpiry}},
		}
	}

	// 6. No usable suite: force the creation modal. It is non-dismissible
	// exactly when creating a suite is the sole path forward.
	if len(in.Suites) == 0 || in.ActiveSuite == nil {
		return Resolution{
			State:                 StateSuiteCreationRequired,
			SuiteModalDismissible: len(in.Suites) > 0,
		}
	}

	// 7. Ready. Below the interaction threshold the one-time tips overlay
	// replaces normal content, unless the current route bypasses it.
	_, bypass := tipsBypassRoutes[in.Route]
	return Resolution{
		State:           StateReady,
		ShowTipsOverlay: in.InteractionCount < TipsInteractionThreshold && !bypass,
	}
}

// loadingMessage selects the human-readable reason string for a loading
// surface. Selection order: initializing > authenticating > awaiting-profile
// > awaiting-subscription > awaiting-suites > generic.
func loadingMessage(phase LoadPhase) string {
	switch phase {
	case PhaseIdle:
		return "Initializing..."
	case PhaseAuthenticating:
		return "Authenticating..."
	case PhaseProfile:
		return "Loading your profile..."
	case PhaseSubscription:
		return "Checking your subscription..."
	case PhaseSuites:
		return "Loading your test suites..."
	default:
		return "Preparing workspace..."
	}
}
