package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"qaflow-backend-go/internal/db"
	"qaflow-backend-go/internal/identity"
	"qaflow-backend-go/internal/kvstore"
	"qaflow-backend-go/internal/models"
)

// ProfileCacheTTL is how long a successfully fetched profile is served from
// memory before the store is consulted again.
const ProfileCacheTTL = 5 * time.Minute

// LoadPhase identifies where a workspace load sequence currently is. It
// drives the loading message shown while the workspace is not ready.
type LoadPhase int

const (
	PhaseIdle LoadPhase = iota
	PhaseAuthenticating
	PhaseProfile
	PhaseSubscription
	PhaseSuites
	PhaseSettled
)

// publicMailDomains are consumer mail providers; an email under any of them
// bootstraps an individual account, anything else an organization account.
var publicMailDomains = map[string]struct{}{
	"gmail.com":      {},
	"googlemail.com": {},
	"yahoo.com":      {},
	"outlook.com":    {},
	"hotmail.com":    {},
	"live.com":       {},
	"icloud.com":     {},
	"me.com":         {},
	"proton.me":      {},
	"protonmail.com": {},
	"gmx.com":        {},
	"aol.com":        {},
}

// ErrNoProfile is surfaced when no profile could be resolved for an
// authenticated identity and no cached fallback exists. The state machine
// treats it as unauthenticated-equivalent, not as a crash.
var ErrNoProfile = errors.New("no profile available")

// Snapshot is an immutable view of the store taken under lock, consumed by
// the readiness state machine.
type Snapshot struct {
	Epoch           uint64
	SessionResolved bool
	Session         *identity.Session
	Loading         bool
	Phase           LoadPhase
	Profile         *models.UserProfile
	Suites          []*models.Suite
	PartialFailure  bool
}

// ProfileStore owns one authenticated user's profile, subscription and suite
// collections in memory. Reads are served from a time-boxed cache; identity
// session changes drive full reloads; a session change while a load is in
// flight invalidates the in-flight result via the epoch counter captured at
// load start.
type ProfileStore struct {
	profileRepo db.ProfileRepository
	suiteRepo   db.SuiteRepository
	kv          kvstore.Store
	logger      *zap.Logger
	clock       func() time.Time

	mu             sync.Mutex
	epoch          uint64
	resolved       bool
	session        *identity.Session
	profile        *models.UserProfile
	suites         []*models.Suite
	partialFailure bool
	fetchedAt      time.Time
	loading        bool
	phase          LoadPhase
}

// NewProfileStore creates a ProfileStore. clock may be nil, in which case
// time.Now is used.
func NewProfileStore(profileRepo db.ProfileRepository, suiteRepo db.SuiteRepository, kv kvstore.Store, logger *zap.Logger, clock func() time.Time) *ProfileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &ProfileStore{
		profileRepo: profileRepo,
		suiteRepo:   suiteRepo,
		kv:          kv,
		logger:      logger,
		clock:       clock,
		phase:       PhaseIdle,
	}
}

// Epoch returns the current session epoch.
func (s *ProfileStore) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Snapshot returns a consistent view of the store's state.
func (s *ProfileStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Epoch:           s.epoch,
		SessionResolved: s.resolved,
		Session:         s.session,
		Loading:         s.loading,
		Phase:           s.phase,
		Profile:         s.profile,
		Suites:          s.suites,
		PartialFailure:  s.partialFailure,
	}
}

// OnSessionChanged handles an identity session transition.
//
// Sign-in advances the epoch and runs the full load sequence: profile first
// (bootstrapping a default profile for a first-time identity), then suites
// scoped to the resolved account. Sign-out synchronously clears all
// in-memory state and the active-suite entry in client storage; no network
// calls are made.
func (s *ProfileStore) OnSessionChanged(ctx context.Context, session *identity.Session) error {
	s.mu.Lock()
	s.epoch++
	s.resolved = true
	previous := s.session
	s.session = session

	if session == nil {
		s.profile = nil
		s.suites = nil
		s.partialFailure = false
		s.fetchedAt = time.Time{}
		s.loading = false
		s.phase = PhaseIdle
		s.mu.Unlock()

		if previous != nil {
			if err := s.kv.Remove(ctx, activeSuiteKey(previous.UID)); err != nil {
				s.logger.Warn("Failed to clear active suite selection on sign-out",
					zap.String("uid", previous.UID), zap.Error(err))
			}
		}
		return nil
	}

	token := s.epoch
	s.loading = true
	s.phase = PhaseAuthenticating
	s.mu.Unlock()

	return s.runLoadSequence(ctx, token, session)
}

// runLoadSequence performs the profile-then-suites load for the session that
// held the given epoch token. Results are discarded if the epoch advanced
// while the sequence was in flight.
func (s *ProfileStore) runLoadSequence(ctx context.Context, token uint64, session *identity.Session) error {
	if !s.advancePhase(token, PhaseProfile) {
		return nil // superseded before the first fetch
	}

	profile, err := s.fetchOrBootstrapProfile(ctx, session)
	if err != nil {
		// Fall back to the last good cached profile when one exists; the
		// failure is non-fatal either way.
		s.logger.Warn("Profile load failed", zap.String("uid", session.UID), zap.Error(err))
		s.settleLoad(token, nil, nil, false, false)
		return fmt.Errorf("profile load for '%s' failed: %w", session.UID, err)
	}

	// The embedded subscription record arrives with the profile document;
	// the phase is still reported so the loading message sequence holds.
	if !s.advancePhase(token, PhaseSubscription) {
		return nil
	}

	if !s.advancePhase(token, PhaseSuites) {
		return nil
	}

	// Suite queries depend on the resolved account owner, so the profile
	// load always precedes them within one sequence.
	result, err := s.suiteRepo.ListVisible(ctx, profile.AccountOwnerID(), session.UID)
	if err != nil {
		s.logger.Warn("Suite load failed", zap.String("uid", session.UID), zap.Error(err))
		s.settleLoad(token, profile, nil, false, true)
		return fmt.Errorf("suite load for '%s' failed: %w", session.UID, err)
	}

	s.settleLoad(token, profile, result.Suites, result.PartialFailure, true)
	return nil
}

// advancePhase moves the load sequence to the next phase if the epoch token
// is still current. Reports false when the sequence has been superseded.
func (s *ProfileStore) advancePhase(token uint64, phase LoadPhase) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != token {
		return false
	}
	s.phase = phase
	return true
}

// settleLoad commits (or discards, when superseded) the outcome of a load
// sequence.
func (s *ProfileStore) settleLoad(token uint64, profile *models.UserProfile, suites []*models.Suite, partial bool, cacheProfile bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != token {
		return // superseded result, ignore its resolution
	}
	if profile != nil {
		s.profile = profile
		if cacheProfile {
			s.fetchedAt = s.clock()
		}
	}
	if suites != nil {
		s.suites = suites
	}
	s.partialFailure = partial
	s.loading = false
	s.phase = PhaseSettled
}

// fetchOrBootstrapProfile fetches the profile for the session identity,
// creating the default first-time profile when none exists.
func (s *ProfileStore) fetchOrBootstrapProfile(ctx context.Context, session *identity.Session) (*models.UserProfile, error) {
	profile, err := s.profileRepo.GetByUID(ctx, session.UID)
	if err == nil {
		// Keep verification state in step with the identity provider.
		profile.EmailVerified = session.EmailVerified
		return profile, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	// Data-integrity gap, not an error: an authenticated identity with no
	// profile document gets the first-time bootstrap.
	fresh := s.bootstrapProfile(session)
	if createErr := s.profileRepo.Create(ctx, fresh); createErr != nil {
		return nil, fmt.Errorf("failed to bootstrap profile for '%s': %w", session.UID, createErr)
	}
	s.logger.Info("Bootstrapped default profile for first-time identity",
		zap.String("uid", session.UID),
		zap.String("accountType", fresh.AccountType),
	)
	return fresh, nil
}

// bootstrapProfile builds the default profile for a first-time identity.
// The account type comes from the email domain heuristic and a fresh trial
// window is opened.
func (s *ProfileStore) bootstrapProfile(session *identity.Session) *models.UserProfile {
	now := s.clock().UTC()
	accountType := models.AccountTypeIndividual
	organizationID := ""
	if domain := emailDomain(session.Email); domain != "" {
		if _, public := publicMailDomains[domain]; !public {
			accountType = models.AccountTypeOrganization
			organizationID = domain
		}
	}

	return &models.UserProfile{
		UID:            session.UID,
		Email:          session.Email,
		DisplayName:    session.DisplayName,
		AccountType:    accountType,
		OrganizationID: organizationID,
		EmailVerified:  session.EmailVerified,
		Onboarding:     models.OnboardingStatus{},
		Subscription:   models.NewTrialSubscription(now),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// RefreshProfile returns the current profile, consulting the store only when
// the cache is cold, stale, or explicitly bypassed. A failed fetch falls
// back to the last good cached profile if present.
func (s *ProfileStore) RefreshProfile(ctx context.Context, forceBypassCache bool) (*models.UserProfile, error) {
	s.mu.Lock()
	session := s.session
	cached := s.profile
	fresh := cached != nil && !s.fetchedAt.IsZero() && s.clock().Sub(s.fetchedAt) < ProfileCacheTTL
	token := s.epoch
	s.mu.Unlock()

	if session == nil {
		return nil, ErrNoProfile
	}
	if fresh && !forceBypassCache {
		return cached, nil
	}

	profile, err := s.fetchOrBootstrapProfile(ctx, session)
	if err != nil {
		if cached != nil {
			s.logger.Warn("Profile refresh failed; serving last good cached profile",
				zap.String("uid", session.UID), zap.Error(err))
			return cached, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrNoProfile, err)
	}

	s.mu.Lock()
	if s.epoch == token {
		s.profile = profile
		s.fetchedAt = s.clock()
	}
	s.mu.Unlock()
	return profile, nil
}

// UpdateProfile applies a partial profile update and persists it. Any
// successful write invalidates the cache immediately.
func (s *ProfileStore) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.UserProfile, error) {
	profile, err := s.RefreshProfile(ctx, false)
	if err != nil {
		return nil, err
	}

	updated := *profile
	if req.DisplayName != nil {
		updated.DisplayName = *req.DisplayName
	}
	if req.Onboarding != nil {
		updated.Onboarding = *req.Onboarding
	}
	updated.UpdatedAt = s.clock().UTC()

	if err := s.profileRepo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to persist profile update for '%s': %w", profile.UID, err)
	}

	s.mu.Lock()
	s.profile = &updated
	s.fetchedAt = time.Time{} // cache invalidated by the write
	s.mu.Unlock()
	return &updated, nil
}

// RefetchSuites reloads the suite collections for the current session.
func (s *ProfileStore) RefetchSuites(ctx context.Context) ([]*models.Suite, error) {
	s.mu.Lock()
	session := s.session
	profile := s.profile
	token := s.epoch
	s.mu.Unlock()

	if session == nil || profile == nil {
		return nil, ErrNoProfile
	}

	result, err := s.suiteRepo.ListVisible(ctx, profile.AccountOwnerID(), session.UID)
	if err != nil {
		return nil, fmt.Errorf("failed to refetch suites for '%s': %w", session.UID, err)
	}

	s.mu.Lock()
	if s.epoch == token {
		s.suites = result.Suites
		s.partialFailure = result.PartialFailure
	}
	s.mu.Unlock()
	return result.Suites, nil
}

// ClearSuiteCache drops the in-memory suite list, forcing the next load to
// consult the store. Used by the email-verification side effect.
func (s *ProfileStore) ClearSuiteCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suites = nil
	s.partialFailure = false
}

// emailDomain extracts the lower-cased domain of an email address, or ""
// when the address has no domain part.
func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// activeSuiteKey is the client-storage key holding a user's last-used suite.
func activeSuiteKey(uid string) string {
	return "activeSuite:" + uid
}
