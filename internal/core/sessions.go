package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"qaflow-backend-go/internal/db"
	"qaflow-backend-go/internal/identity"
	"qaflow-backend-go/internal/kvstore"
	"qaflow-backend-go/internal/notify"
)

// SessionManager owns one WorkspaceController per authenticated user. A
// controller is created lazily on the user's first authenticated request and
// torn down on sign-out.
type SessionManager struct {
	profileRepo db.ProfileRepository
	suiteRepo   db.SuiteRepository
	kv          kvstore.Store
	expiry      ExpiryHandler
	logger      *zap.Logger
	clock       func() time.Time

	mu          sync.Mutex
	controllers map[string]*WorkspaceController
}

func NewSessionManager(profileRepo db.ProfileRepository, suiteRepo db.SuiteRepository, kv kvstore.Store, logger *zap.Logger, clock func() time.Time) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &SessionManager{
		profileRepo: profileRepo,
		suiteRepo:   suiteRepo,
		kv:          kv,
		logger:      logger,
		clock:       clock,
		controllers: make(map[string]*WorkspaceController),
	}
}

// SetExpiryHandler wires the trial expiry processor. It is injected after
// construction because the suite service that implements it also depends on
// the manager's repositories.
func (m *SessionManager) SetExpiryHandler(h ExpiryHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiry = h
}

// Controller returns the workspace controller for the session, establishing
// it (and running the initial workspace load) on first sight of the UID.
func (m *SessionManager) Controller(ctx context.Context, session *identity.Session) (*WorkspaceController, error) {
	m.mu.Lock()
	ctrl, ok := m.controllers[session.UID]
	if !ok {
		ctrl = m.build()
		m.controllers[session.UID] = ctrl
	}
	m.mu.Unlock()

	if !ok {
		if err := ctrl.SignIn(ctx, session); err != nil {
			// The controller stays registered: the load failure is cached
			// state the readiness machine knows how to present.
			m.logger.Warn("Initial workspace load failed",
				zap.String("uid", session.UID), zap.Error(err))
		}
	}
	return ctrl, nil
}

// SignOut tears down the user's controller, if any.
func (m *SessionManager) SignOut(ctx context.Context, uid string) error {
	m.mu.Lock()
	ctrl, ok := m.controllers[uid]
	delete(m.controllers, uid)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return ctrl.SignOut(ctx)
}

func (m *SessionManager) build() *WorkspaceController {
	store := NewProfileStore(m.profileRepo, m.suiteRepo, m.kv, m.logger, m.clock)
	reconciler := NewTrialReconciler(m.profileRepo, m.logger)
	activation := NewActivationPolicy(m.kv, m.logger)
	tracker := NewInteractionTracker(m.kv, m.logger)
	runner := NewEffectRunner(store, m.expiry, NewNavBuffer(), notify.NewDedupSink(m.logger), m.logger)
	return NewWorkspaceController(store, reconciler, activation, tracker, runner, m.logger, m.clock)
}
