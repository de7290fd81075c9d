package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"qaflow-backend-go/internal/db"
	"qaflow-backend-go/internal/models"
)

// Custom errors for the SuiteService.
var (
	ErrSuiteNotFound     = errors.New("suite not found")
	ErrForbiddenAccess   = errors.New("user does not have permission for this action on the suite")
	ErrSuiteLimitReached = errors.New("suite limit reached for the current plan")
	ErrInvalidRole       = errors.New("invalid member role")
)

// suiteService implements the SuiteService interface.
type suiteService struct {
	suiteRepo    db.SuiteRepository
	profileRepo  db.ProfileRepository
	auditService AuditService
	logger       *zap.Logger
	clock        func() time.Time
}

// NewSuiteService creates a new SuiteService instance.
func NewSuiteService(sr db.SuiteRepository, pr db.ProfileRepository, as AuditService, logger *zap.Logger, clock func() time.Time) SuiteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &suiteService{
		suiteRepo:    sr,
		profileRepo:  pr,
		auditService: as,
		logger:       logger,
		clock:        clock,
	}
}

// CreateSuite creates a new suite for the account after checking plan limits.
// The profile is passed in by the caller so the limit check uses the same
// derived capabilities the workspace presents.
func (s *suiteService) CreateSuite(ctx context.Context, uid string, profile *models.UserProfile, req models.CreateSuiteRequest) (*models.Suite, error) {
	if s.suiteRepo == nil || s.auditService == nil {
		return nil, errors.New("suiteService: component not initialized")
	}
	if profile == nil {
		var err error
		profile, err = s.profileRepo.GetByUID(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("failed to get profile '%s' for plan check: %w", uid, err)
		}
	}

	now := s.clock().UTC()
	sub := profile.Subscription
	caps := DeriveCapabilities(profile, &sub, now)

	ownerID := profile.AccountOwnerID()
	current, err := s.suiteRepo.CountByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count suites for owner '%s': %w", ownerID, err)
	}
	if !caps.Allows(models.LimitProjects, current) {
		return nil, fmt.Errorf("%w: plan allows %d suite(s), current count %d",
			ErrSuiteLimitReached, caps.LimitFor(models.LimitProjects), current)
	}

	ownerType := models.OwnerTypeIndividual
	if profile.AccountType == models.AccountTypeOrganization {
		ownerType = models.OwnerTypeOrganization
	}
	newSuite := &models.Suite{
		Name:      req.Name,
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Admins:    []string{uid},
		CreatedAt: now,
		UpdatedAt: now,
	}

	suiteID, err := s.suiteRepo.Create(ctx, newSuite)
	if err != nil {
		return nil, fmt.Errorf("failed to create suite in repository: %w", err)
	}
	newSuite.ID = suiteID

	// First-suite onboarding milestone, best effort.
	if !profile.Onboarding.FirstSuiteCreated {
		fields := map[string]interface{}{
			"onboardingStatus.firstSuiteCreated": true,
			"updatedAt":                          now,
		}
		if err := s.profileRepo.UpdateFields(ctx, uid, fields); err != nil {
			s.logger.Warn("Failed to record first-suite milestone",
				zap.String("uid", uid), zap.Error(err))
		}
	}

	s.audit(ctx, models.AuditLog{
		UserID:     uid,
		Action:     "SUITE_CREATE",
		TargetType: "SUITE",
		TargetID:   newSuite.ID,
		Timestamp:  now,
		Details:    map[string]interface{}{"name": newSuite.Name, "ownerId": ownerID},
	})

	return newSuite, nil
}

// GetSuiteByID retrieves a suite if the user is an owner, admin or member.
func (s *suiteService) GetSuiteByID(ctx context.Context, uid, suiteID string) (*models.Suite, error) {
	return s.loadVisibleSuite(ctx, uid, suiteID, false)
}

// UpdateSuite updates a suite's mutable fields. Requires admin access.
func (s *suiteService) UpdateSuite(ctx context.Context, uid, suiteID string, req models.UpdateSuiteRequest) (*models.Suite, error) {
	suite, err := s.loadVisibleSuite(ctx, uid, suiteID, true)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		suite.Name = *req.Name
	}
	if req.Inactive != nil {
		suite.Inactive = *req.Inactive
	}
	suite.UpdatedAt = s.clock().UTC()

	if err := s.suiteRepo.Update(ctx, suite); err != nil {
		return nil, fmt.Errorf("failed to update suite '%s': %w", suiteID, err)
	}

	s.audit(ctx, models.AuditLog{
		UserID:     uid,
		Action:     "SUITE_UPDATE",
		TargetType: "SUITE",
		TargetID:   suiteID,
		Timestamp:  suite.UpdatedAt,
		Details:    map[string]interface{}{"name": suite.Name, "inactive": suite.Inactive},
	})
	return suite, nil
}

// DeleteSuite deletes a suite. Requires admin access.
func (s *suiteService) DeleteSuite(ctx context.Context, uid, suiteID string) error {
	suite, err := s.loadVisibleSuite(ctx, uid, suiteID, true)
	if err != nil {
		return err
	}

	if err := s.suiteRepo.Delete(ctx, suiteID); err != nil {
		return fmt.Errorf("failed to delete suite '%s': %w", suiteID, err)
	}

	s.audit(ctx, models.AuditLog{
		UserID:     uid,
		Action:     "SUITE_DELETE",
		TargetType: "SUITE",
		TargetID:   suiteID,
		Timestamp:  s.clock().UTC(),
		Details:    map[string]interface{}{"deleted_suite_name": suite.Name},
	})
	return nil
}

// ModifyMembers adds or removes members or admins. Requires admin access.
func (s *suiteService) ModifyMembers(ctx context.Context, uid, suiteID string, req models.SuiteMembersRequest, add bool) (*models.Suite, error) {
	if req.Role != "member" && req.Role != "admin" {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidRole, req.Role)
	}

	suite, err := s.loadVisibleSuite(ctx, uid, suiteID, true)
	if err != nil {
		return nil, err
	}

	target := &suite.Members
	if req.Role == "admin" {
		target = &suite.Admins
	}
	for _, userID := range req.UserIDs {
		if add {
			*target = appendUnique(*target, userID)
		} else {
			*target = removeAll(*target, userID)
		}
	}
	suite.UpdatedAt = s.clock().UTC()

	if err := s.suiteRepo.Update(ctx, suite); err != nil {
		return nil, fmt.Errorf("failed to update members of suite '%s': %w", suiteID, err)
	}

	action := "SUITE_MEMBERS_ADD"
	if !add {
		action = "SUITE_MEMBERS_REMOVE"
	}
	s.audit(ctx, models.AuditLog{
		UserID:     uid,
		Action:     action,
		TargetType: "SUITE",
		TargetID:   suiteID,
		Timestamp:  suite.UpdatedAt,
		Details:    map[string]interface{}{"userIds": req.UserIDs, "role": req.Role},
	})
	return suite, nil
}

// HandleTrialExpiry processes the end of an account's trial window: the
// persisted subscription drops to the free tier (HasUsedTrial latches true),
// and any suites above the free suite limit are flagged inactive, oldest
// suites surviving.
func (s *suiteService) HandleTrialExpiry(ctx context.Context, uid string) error {
	profile, err := s.profileRepo.GetByUID(ctx, uid)
	if err != nil {
		return fmt.Errorf("failed to get profile '%s' for trial expiry: %w", uid, err)
	}

	now := s.clock().UTC()
	fields := map[string]interface{}{
		"subscription.subscriptionType":   models.PlanFree,
		"subscription.subscriptionStatus": models.SubscriptionInactive,
		"subscription.isTrialActive":      false,
		"subscription.hasUsedTrial":       true,
		"subscription.trialDaysRemaining": 0,
		"subscription.limits":             FreeLimits(),
		"updatedAt":                       now,
	}
	if err := s.profileRepo.UpdateFields(ctx, uid, fields); err != nil {
		return fmt.Errorf("failed to downgrade subscription for '%s': %w", uid, err)
	}

	ownerID := profile.AccountOwnerID()
	excess, err := s.excessSuiteIDs(ctx, ownerID, uid, FreeLimits()[models.LimitProjects])
	if err != nil {
		return err
	}
	if len(excess) > 0 {
		if err := s.suiteRepo.FlagInactive(ctx, excess); err != nil {
			return fmt.Errorf("failed to deactivate excess suites for '%s': %w", ownerID, err)
		}
	}

	s.audit(ctx, models.AuditLog{
		UserID:     uid,
		Action:     "TRIAL_EXPIRED",
		TargetType: "PROFILE",
		TargetID:   uid,
		Timestamp:  now,
		Details:    map[string]interface{}{"deactivated_suites": excess},
	})

	s.logger.Info("Trial expired; account downgraded to free tier",
		zap.String("uid", uid), zap.Int("deactivatedSuites", len(excess)))
	return nil
}

// excessSuiteIDs returns the IDs of owned suites beyond the allowed count,
// newest first chosen for deactivation.
func (s *suiteService) excessSuiteIDs(ctx context.Context, ownerID, uid string, allowed int64) ([]string, error) {
	result, err := s.suiteRepo.ListVisible(ctx, ownerID, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list suites for owner '%s': %w", ownerID, err)
	}

	var owned []*models.Suite
	for _, suite := range result.Suites {
		if suite.OwnerID == ownerID && !suite.Inactive {
			owned = append(owned, suite)
		}
	}
	if int64(len(owned)) <= allowed {
		return nil, nil
	}

	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.Before(owned[j].CreatedAt)
	})
	var ids []string
	for _, suite := range owned[allowed:] {
		ids = append(ids, suite.ID)
	}
	return ids, nil
}

// loadVisibleSuite fetches a suite and checks the caller's access. With
// adminOnly set, membership alone is not enough.
func (s *suiteService) loadVisibleSuite(ctx context.Context, uid, suiteID string, adminOnly bool) (*models.Suite, error) {
	suite, err := s.suiteRepo.GetByID(ctx, suiteID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: suite '%s'", ErrSuiteNotFound, suiteID)
		}
		return nil, fmt.Errorf("failed to get suite '%s' from repository: %w", suiteID, err)
	}

	isOwner := suite.OwnerID == uid
	if adminOnly {
		if !isOwner && !suite.HasAdmin(uid) {
			return nil, fmt.Errorf("%w: user '%s' is not an admin of suite '%s'", ErrForbiddenAccess, uid, suiteID)
		}
	} else if !isOwner && !suite.HasAdmin(uid) && !suite.HasMember(uid) {
		return nil, fmt.Errorf("%w: user '%s' has no access to suite '%s'", ErrForbiddenAccess, uid, suiteID)
	}
	return suite, nil
}

// audit records an audit log entry; failures are logged but never fail the
// main operation.
func (s *suiteService) audit(ctx context.Context, entry models.AuditLog) {
	if err := s.auditService.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("Failed to create audit log",
			zap.String("action", entry.Action), zap.String("targetId", entry.TargetID), zap.Error(err))
	}
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func removeAll(list []string, value string) []string {
	out := list[:0]
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
