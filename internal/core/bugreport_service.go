package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"qaflow-backend-go/internal/ai"
	"qaflow-backend-go/internal/db"
	"qaflow-backend-go/internal/models"
)

// Custom errors for the BugReportService.
var (
	ErrReportNotFound  = errors.New("bug report not found")
	ErrInvalidSeverity = errors.New("invalid severity")
	ErrDraftUnusable   = errors.New("generated draft could not be parsed")
)

var validSeverities = map[string]struct{}{
	models.SeverityLow:      {},
	models.SeverityMedium:   {},
	models.SeverityHigh:     {},
	models.SeverityCritical: {},
}

// bugReportService implements the BugReportService interface.
type bugReportService struct {
	reportRepo   db.BugReportRepository
	suiteRepo    db.SuiteRepository
	profileRepo  db.ProfileRepository
	generator    ai.Generator
	auditService AuditService
	logger       *zap.Logger
	clock        func() time.Time
}

// NewBugReportService creates a new BugReportService instance.
func NewBugReportService(rr db.BugReportRepository, sr db.SuiteRepository, pr db.ProfileRepository, gen ai.Generator, as AuditService, logger *zap.Logger, clock func() time.Time) BugReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &bugReportService{
		reportRepo:   rr,
		suiteRepo:    sr,
		profileRepo:  pr,
		generator:    gen,
		auditService: as,
		logger:       logger,
		clock:        clock,
	}
}

// CreateReport files a new bug report in the suite.
func (s *bugReportService) CreateReport(ctx context.Context, uid, suiteID string, req models.CreateBugReportRequest) (*models.BugReport, error) {
	if err := s.checkSuiteAccess(ctx, uid, suiteID); err != nil {
		return nil, err
	}
	if _, ok := validSeverities[req.Severity]; !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidSeverity, req.Severity)
	}

	now := s.clock().UTC()
	report := &models.BugReport{
		SuiteID:          suiteID,
		Title:            req.Title,
		Summary:          req.Summary,
		Severity:         req.Severity,
		Status:           models.ReportOpen,
		StepsToReproduce: req.StepsToReproduce,
		ExpectedBehavior: req.ExpectedBehavior,
		ActualBehavior:   req.ActualBehavior,
		Environment:      req.Environment,
		SprintID:         req.SprintID,
		ReportedBy:       uid,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	reportID, err := s.reportRepo.Create(ctx, suiteID, report)
	if err != nil {
		return nil, fmt.Errorf("failed to create bug report in suite '%s': %w", suiteID, err)
	}
	report.ID = reportID

	s.recordFirstReportMilestone(ctx, uid, now)
	s.audit(ctx, models.AuditLog{
		UserID:     uid,
		Action:     "REPORT_CREATE",
		TargetType: "REPORT",
		TargetID:   reportID,
		Timestamp:  now,
		Details:    map[string]interface{}{"suiteId": suiteID, "severity": report.Severity},
	})
	return report, nil
}

// GetReportByID retrieves a bug report.
func (s *bugReportService) GetReportByID(ctx context.Context, uid, suiteID, reportID string) (*models.BugReport, error) {
	if err := s.checkSuiteAccess(ctx, uid, suiteID); err != nil {
		return nil, err
	}
	report, err := s.reportRepo.GetByID(ctx, suiteID, reportID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: report '%s' in suite '%s'", ErrReportNotFound, reportID, suiteID)
		}
		return nil, fmt.Errorf("failed to get report '%s': %w", reportID, err)
	}
	return report, nil
}

// ListReports retrieves the suite's bug reports, newest first.
func (s *bugReportService) ListReports(ctx context.Context, uid, suiteID string, limit int) ([]*models.BugReport, error) {
	if err := s.checkSuiteAccess(ctx, uid, suiteID); err != nil {
		return nil, err
	}
	reports, err := s.reportRepo.GetBySuiteID(ctx, suiteID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports for suite '%s': %w", suiteID, err)
	}
	return reports, nil
}

// UpdateReport applies a partial update to a bug report.
func (s *bugReportService) UpdateReport(ctx context.Context, uid, suiteID, reportID string, req models.UpdateBugReportRequest) (*models.BugReport, error) {
	report, err := s.GetReportByID(ctx, uid, suiteID, reportID)
	if err != nil {
		return nil, err
	}

	if req.Severity != nil {
		if _, ok := validSeverities[*req.Severity]; !ok {
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidSeverity, *req.Severity)
		}
		report.Severity = *req.Severity
	}
	if req.Title != nil {
		report.Title = *req.Title
	}
	if req.Summary != nil {
		report.Summary = *req.Summary
	}
	if req.Status != nil {
		report.Status = *req.Status
	}
	if req.StepsToReproduce != nil {
		report.StepsToReproduce = *req.StepsToReproduce
	}
	if req.ExpectedBehavior != nil {
		report.ExpectedBehavior = *req.ExpectedBehavior
	}
	if req.ActualBehavior != nil {
		report.ActualBehavior = *req.ActualBehavior
	}
	if req.SprintID != nil {
		report.SprintID = *req.SprintID
	}
	report.UpdatedAt = s.clock().UTC()

	if err := s.reportRepo.Update(ctx, suiteID, report); err != nil {
		return nil, fmt.Errorf("failed to update report '%s': %w", reportID, err)
	}

	s.audit(ctx, models.AuditLog{
		UserID:     uid,
		Action:     "REPORT_UPDATE",
		TargetType: "REPORT",
		TargetID:   reportID,
		Timestamp:  report.UpdatedAt,
		Details:    map[string]interface{}{"suiteId": suiteID, "status": report.Status},
	})
	return report, nil
}

// DeleteReport removes a bug report from its suite.
func (s *bugReportService) DeleteReport(ctx context.Context, uid, suiteID, reportID string) error {
	if err := s.checkSuiteAccess(ctx, uid, suiteID); err != nil {
		return err
	}
	if err := s.reportRepo.Delete(ctx, suiteID, reportID); err != nil {
		return fmt.Errorf("failed to delete report '%s': %w", reportID, err)
	}

	s.audit(ctx, models.AuditLog{
		UserID:     uid,
		Action:     "REPORT_DELETE",
		TargetType: "REPORT",
		TargetID:   reportID,
		Timestamp:  s.clock().UTC(),
		Details:    map[string]interface{}{"suiteId": suiteID},
	})
	return nil
}

// draftPayload is the structured shape the generation backend is asked to
// return.
type draftPayload struct {
	Title            string   `json:"title"`
	Summary          string   `json:"summary"`
	Severity         string   `json:"severity"`
	StepsToReproduce []string `json:"stepsToReproduce"`
	ExpectedBehavior string   `json:"expectedBehavior"`
	ActualBehavior   string   `json:"actualBehavior"`
}

// GenerateDraft turns a tester's free-form description into a structured
// report draft via the generation backend. The draft is not persisted; the
// caller reviews it and files it through CreateReport.
func (s *bugReportService) GenerateDraft(ctx context.Context, uid, suiteID string, req models.GenerateBugReportRequest) (*models.BugReport, error) {
	if s.generator == nil {
		return nil, errors.New("bugReportService: generator not configured")
	}
	if err := s.checkSuiteAccess(ctx, uid, suiteID); err != nil {
		return nil, err
	}

	prompt := "Convert the following bug description into a structured bug report. " +
		"Respond with a JSON object holding title, summary, severity (low|medium|high|critical), " +
		"stepsToReproduce (array of strings), expectedBehavior and actualBehavior.\n\n" +
		req.Description

	contextData := map[string]string{"suiteId": suiteID}
	if req.Environment != "" {
		contextData["environment"] = req.Environment
	}
	raw, err := s.generator.Generate(ctx, prompt, contextData)
	if err != nil {
		return nil, fmt.Errorf("draft generation failed: %w", err)
	}

	var payload draftPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDraftUnusable, err)
	}
	if _, ok := validSeverities[payload.Severity]; !ok {
		payload.Severity = models.SeverityMedium
	}
	if payload.Title == "" {
		return nil, fmt.Errorf("%w: missing title", ErrDraftUnusable)
	}

	return &models.BugReport{
		SuiteID:          suiteID,
		Title:            payload.Title,
		Summary:          payload.Summary,
		Severity:         payload.Severity,
		Status:           models.ReportOpen,
		StepsToReproduce: payload.StepsToReproduce,
		ExpectedBehavior: payload.ExpectedBehavior,
		ActualBehavior:   payload.ActualBehavior,
		Environment:      req.Environment,
		ReportedBy:       uid,
		AIGenerated:      true,
	}, nil
}

// checkSuiteAccess verifies the user can see the suite at all.
func (s *bugReportService) checkSuiteAccess(ctx context.Context, uid, suiteID string) error {
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

// recordFirstReportMilestone flips the onboarding milestone, best effort.
func (s *bugReportService) recordFirstReportMilestone(ctx context.Context, uid string, now time.Time) {
	profile, err := s.profileRepo.GetByUID(ctx, uid)
	if err != nil || profile.Onboarding.FirstReportFiled {
		return
	}
	fields := map[string]interface{}{
		"onboardingStatus.firstReportFiled": true,
		"updatedAt":                         now,
	}
	if err := s.profileRepo.UpdateFields(ctx, uid, fields); err != nil {
		s.logger.Warn("Failed to record first-report milestone",
			zap.String("uid", uid), zap.Error(err))
	}
}

func (s *bugReportService) audit(ctx context.Context, entry models.AuditLog) {
	if err := s.auditService.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("Failed to create audit log",
			zap.String("action", entry.Action), zap.String("targetId", entry.TargetID), zap.Error(err))
	}
}
