package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"qaflow-backend-go/internal/identity"
	"qaflow-backend-go/internal/models"
	"qaflow-backend-go/internal/notify"
)

// WorkspaceView is the full workspace picture handed to the API layer: the
// resolved UI state plus everything the surfaces behind it need. Profile
// carries the reconciled subscription record, so it always agrees with
// Capabilities.
type WorkspaceView struct {
	Resolution       Resolution
	Capabilities     Capabilities
	Profile          *models.UserProfile
	Suites           []*models.Suite
	ActiveSuite      *models.Suite
	PartialFailure   bool
	InteractionCount int
	Notifications    []notify.Notification
	ForcedNavigation string
}

// WorkspaceController orchestrates one user's workspace: it snapshots the
// profile store, derives capabilities, reconciles the persisted trial record,
// selects the active suite and resolves the UI state, then runs the
// resolution's side effects.
type WorkspaceController struct {
	store      *ProfileStore
	reconciler *TrialReconciler
	activation *ActivationPolicy
	tracker    *InteractionTracker
	runner     *EffectRunner
	logger     *zap.Logger
	clock      func() time.Time
}

func NewWorkspaceController(store *ProfileStore, reconciler *TrialReconciler, activation *ActivationPolicy, tracker *InteractionTracker, runner *EffectRunner, logger *zap.Logger, clock func() time.Time) *WorkspaceController {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &WorkspaceController{
		store:      store,
		reconciler: reconciler,
		activation: activation,
		tracker:    tracker,
		runner:     runner,
		logger:     logger,
		clock:      clock,
	}
}

// Resolve computes the current workspace view for the given route and runs
// any side effects the resolution requests. The state itself is computed from
// the persisted subscription record, so an expiry transition is observed here
// exactly once before its handler brings the record up to date.
func (c *WorkspaceController) Resolve(ctx context.Context, route string) WorkspaceView {
	snap := c.store.Snapshot()
	now := c.clock().UTC()

	var (
		caps      Capabilities
		active    *models.Suite
		count     int
		effective = snap.Profile
	)

	if snap.Profile != nil {
		sub := snap.Profile.Subscription
		caps = DeriveCapabilities(snap.Profile, &sub, now)
		effective = c.reconciler.Reconcile(ctx, snap.Profile, caps, now)

		persistedID := c.activation.PersistedID(ctx, snap.Profile.UID)
		active = c.activation.SelectActive(snap.Suites, persistedID)
		count = c.tracker.Count(ctx, snap.Profile.UID)
	} else {
		caps = DeriveCapabilities(nil, nil, now)
	}

	res := ResolveState(Inputs{
		SessionResolved:  snap.SessionResolved,
		Session:          snap.Session,
		Loading:          snap.Loading,
		Phase:            snap.Phase,
		Profile:          snap.Profile,
		Suites:           snap.Suites,
		ActiveSuite:      active,
		InteractionCount: count,
		Route:            route,
		Now:              now,
	})

	uid := ""
	if snap.Session != nil {
		uid = snap.Session.UID
	}
	c.runner.Run(ctx, uid, snap.Epoch, route, res)
	notifications, forcedNav := c.runner.DrainOutputs()

	return WorkspaceView{
		Resolution:       res,
		Capabilities:     caps,
		Profile:          effective,
		Suites:           snap.Suites,
		ActiveSuite:      active,
		PartialFailure:   snap.PartialFailure,
		InteractionCount: count,
		Notifications:    notifications,
		ForcedNavigation: forcedNav,
	}
}

// RefreshProfile forces or serves a profile read. A forced refresh re-arms
// the reconciliation write guard before the next resolution.
func (c *WorkspaceController) RefreshProfile(ctx context.Context, force bool) (*models.UserProfile, error) {
	if force {
		c.reconciler.ResetGuard()
	}
	return c.store.RefreshProfile(ctx, force)
}

// UpdateProfile applies a partial profile update and re-arms the
// reconciliation write guard.
func (c *WorkspaceController) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.UserProfile, error) {
	c.reconciler.ResetGuard()
	return c.store.UpdateProfile(ctx, req)
}

// Store exposes the controller's profile store.
func (c *WorkspaceController) Store() *ProfileStore {
	return c.store
}

// Activation exposes the controller's suite activation policy.
func (c *WorkspaceController) Activation() *ActivationPolicy {
	return c.activation
}

// Tracker exposes the controller's interaction tracker.
func (c *WorkspaceController) Tracker() *InteractionTracker {
	return c.tracker
}

// SignOut tears the session down: the guard re-arms for the next session and
// all in-memory state clears synchronously.
func (c *WorkspaceController) SignOut(ctx context.Context) error {
	c.reconciler.ResetGuard()
	c.runner.Reset()
	return c.store.OnSessionChanged(ctx, nil)
}

// SignIn establishes a session and runs the full workspace load.
func (c *WorkspaceController) SignIn(ctx context.Context, session *identity.Session) error {
	c.reconciler.ResetGuard()
	c.runner.Reset()
	return c.store.OnSessionChanged(ctx, session)
}
