package core

import (
	"context"

	"qaflow-backend-go/internal/models"
)

// SuiteService defines the interface for suite-related operations.
type SuiteService interface {
	CreateSuite(ctx context.Context, uid string, profile *models.UserProfile, req models.CreateSuiteRequest) (*models.Suite, error)
	GetSuiteByID(ctx context.Context, uid, suiteID string) (*models.Suite, error)
	UpdateSuite(ctx context.Context, uid, suiteID string, req models.UpdateSuiteRequest) (*models.Suite, error)
	DeleteSuite(ctx context.Context, uid, suiteID string) error
	ModifyMembers(ctx context.Context, uid, suiteID string, req models.SuiteMembersRequest, add bool) (*models.Suite, error)
	// HandleTrialExpiry downgrades the user to the free tier and deactivates
	// suites above the free limit.
	HandleTrialExpiry(ctx context.Context, uid string) error
}

// BugReportService defines the interface for bug report operations.
type BugReportService interface {
	CreateReport(ctx context.Context, uid, suiteID string, req models.CreateBugReportRequest) (*models.BugReport, error)
	GetReportByID(ctx context.Context, uid, suiteID, reportID string) (*models.BugReport, error)
	ListReports(ctx context.Context, uid, suiteID string, limit int) ([]*models.BugReport, error)
	UpdateReport(ctx context.Context, uid, suiteID, reportID string, req models.UpdateBugReportRequest) (*models.BugReport, error)
	DeleteReport(ctx context.Context, uid, suiteID, reportID string) error
	// GenerateDraft turns a free-form description into a structured report
	// draft. The draft is returned, not persisted.
	GenerateDraft(ctx context.Context, uid, suiteID string, req models.GenerateBugReportRequest) (*models.BugReport, error)
}

// SprintService defines the interface for sprint operations.
type SprintService interface {
	CreateSprint(ctx context.Context, uid, suiteID string, req models.CreateSprintRequest) (*models.Sprint, error)
	GetSprintByID(ctx context.Context, uid, suiteID, sprintID string) (*models.Sprint, error)
	ListSprints(ctx context.Context, uid, suiteID string) ([]*models.Sprint, error)
	UpdateSprint(ctx context.Context, uid, suiteID, sprintID string, req models.UpdateSprintRequest) (*models.Sprint, error)
	DeleteSprint(ctx context.Context, uid, suiteID, sprintID string) error
}

// AuditService defines the interface for audit logging operations.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}
