package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"qaflow-backend-go/internal/db"
	"qaflow-backend-go/internal/models"
)

// Custom errors for the SprintService.
var (
	ErrSprintNotFound    = errors.New("sprint not found")
	ErrInvalidSprintDate = errors.New("invalid sprint date")
)

// sprintService implements the SprintService interface.
type sprintService struct {
	sprintRepo   db.SprintRepository
	suiteRepo    db.SuiteRepository
	auditService AuditService
	logger       *zap.Logger
	clock        func() time.Time
}

// NewSprintService creates a new SprintService instance.
func NewSprintService(spr db.SprintRepository, sr db.SuiteRepository, as AuditService, logger *zap.Logger, clock func() time.Time) SprintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &sprintService{
		sprintRepo:   spr,
		suiteRepo:    sr,
		auditService: as,
		logger:       logger,
		clock:        clock,
	}
}

// CreateSprint creates a new sprint in the suite.
func (s *sprintService) CreateSprint(ctx context.Context, uid, suiteID string, req models.CreateSprintRequest) (*models.Sprint, error) {
	if err := s.checkSuiteAccess(ctx, uid, suiteID); err != nil {
		return nil, err
	}

	start, err := parseSprintDate(req.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseSprintDate(req.End)
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrInvalidSprintDate)
	}

	now := s.clock().UTC()
	sprint := &models.Sprint{
		SuiteID:   suiteID,
		Name:      req.Name,
		Goal:      req.Goal,
		Status:    models.SprintPlanned,
		StartDate: start,
		EndDate:   end,
		CreatedBy: uid,
		CreatedAt: now,
		UpdatedAt: now,
	}

	sprintID, err := s.sprintRepo.Create(ctx, suiteID, sprint)
	if err != nil {
		return nil, fmt.Errorf("failed to create sprint in suite '%s': %w", suiteID, err)
	}
	sprint.ID = sprintID

	s.audit(ctx, models.AuditLog{
		UserID:     uid,
		Action:     "SPRINT_CREATE",
		TargetType: "SPRINT",
		TargetID:   sprintID,
		Timestamp:  now,
		Details:    map[string]interface{}{"suiteId": suiteID, "name": sprint.Name},
	})
	return sprint, nil
}

// GetSprintByID retrieves a single sprint.
func (s *sprintService) GetSprintByID(ctx context.Context, uid, suiteID, sprintID string) (*models.Sprint, error) {
	if err := s.checkSuiteAccess(ctx, uid, suiteID); err != nil {
		return nil, err
	}
	sprint, err := s.sprintRepo.GetByID(ctx, suiteID, sprintID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: sprint '%s' in suite '%s'", ErrSprintNotFound, sprintID, suiteID)
		}
		return nil, fmt.Errorf("failed to get sprint '%s': %w", sprintID, err)
	}
	return sprint, nil
}

// ListSprints retrieves the suite's sprints, newest first.
func (s *sprintService) ListSprints(ctx context.Context, uid, suiteID string) ([]*models.Sprint, error) {
	if err := s.checkSuiteAccess(ctx, uid, suiteID); err != nil {
		return nil, err
	}
	sprints, err := s.sprintRepo.GetBySuiteID(ctx, suiteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints for suite '%s': %w", suiteID, err)
	}
	return sprints, nil
}

// UpdateSprint applies a partial update to a sprint.
func (s *sprintService) UpdateSprint(ctx context.Context, uid, suiteID, sprintID string, req models.UpdateSprintRequest) (*models.Sprint, error) {
	sprint, err := s.GetSprintByID(ctx, uid, suiteID, sprintID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		sprint.Name = *req.Name
	}
	if req.Goal != nil {
		sprint.Goal = *req.Goal
	}
	if req.Status != nil {
		switch *req.Status {
		case models.SprintPlanned, models.SprintActive, models.SprintCompleted:
			sprint.Status = *req.Status
		default:
			return nil, fmt.Errorf("invalid sprint status '%s'", *req.Status)
		}
	}
	sprint.UpdatedAt = s.clock().UTC()

	if err := s.sprintRepo.Update(ctx, suiteID, sprint); err != nil {
		return nil, fmt.Errorf("failed to update sprint '%s': %w", sprintID, err)
	}

	s.audit(ctx, models.AuditLog{
		UserID:     uid,
		Action:     "SPRINT_UPDATE",
		TargetType: "SPRINT",
		TargetID:   sprintID,
		Timestamp:  sprint.UpdatedAt,
		Details:    map[string]interface{}{"suiteId": suiteID, "status": sprint.Status},
	})
	return sprint, nil
}

// DeleteSprint removes a sprint from its suite.
func (s *sprintService) DeleteSprint(ctx context.Context, uid, suiteID, sprintID string) error {
	if err := s.checkSuiteAccess(ctx, uid, suiteID); err != nil {
		return err
	}
	if err := s.sprintRepo.Delete(ctx, suiteID, sprintID); err != nil {
		return fmt.Errorf("failed to delete sprint '%s': %w", sprintID, err)
	}

	s.audit(ctx, models.AuditLog{
		UserID:     uid,
		Action:     "SPRINT_DELETE",
		TargetType: "SPRINT",
		TargetID:   sprintID,
		Timestamp:  s.clock().UTC(),
		Details:    map[string]interface{}{"suiteId": suiteID},
	})
	return nil
}

func (s *sprintService) checkSuiteAccess(ctx context.Context, uid, suiteID string) error {
	suite, err := s.suiteRepo.GetByID(ctx, suiteID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: suite '%s'", ErrSuiteNotFound, suiteID)
		}
		return fmt.Errorf("failed to get suite '%s' for access check: %w", suiteID, err)
	}
	if suite.OwnerID != uid && !suite.HasAdmin(uid) && !suite.HasMember(uid) {
		return fmt.Errorf("%w: user '%s' has no access to suite '%s'", ErrForbiddenAccess, uid, suiteID)
	}
	return nil
}

func (s *sprintService) audit(ctx context.Context, entry models.AuditLog) {
	if err := s.auditService.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("Failed to create audit log",
			zap.String("action", entry.Action), zap.String("targetId", entry.TargetID), zap.Error(err))
	}
}

// parseSprintDate parses an optional RFC 3339 date string.
func parseSprintDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSprintDate, value)
	}
	return &t, nil
}
