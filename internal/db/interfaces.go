package db

import (
	"context"

	"qaflow-backend-go/internal/models"
)

// ProfileRepository defines the interface for user profile storage
// operations. The profile document carries the embedded subscription record.
type ProfileRepository interface {
	GetByUID(ctx context.Context, uid string) (*models.UserProfile, error)
	Create(ctx context.Context, profile *models.UserProfile) error
	Update(ctx context.Context, profile *models.UserProfile) error
	// UpdateFields writes only the given field paths, for partial updates
	// such as trial reconciliation.
	UpdateFields(ctx context.Context, uid string, fields map[string]interface{}) error
}

// SuiteListResult is the outcome of a merged visibility query. Partial
// permission failures are tolerated; PartialFailure reports whether any of
// the underlying queries was denied.
type SuiteListResult struct {
	Suites         []*models.Suite
	PartialFailure bool
}

// SuiteRepository defines the interface for suite storage operations.
type SuiteRepository interface {
	Create(ctx context.Context, suite *models.Suite) (string, error) // Returns new suite ID
	GetByID(ctx context.Context, suiteID string) (*models.Suite, error)
	// ListVisible merges the suites owned by the account, and those where
	// uid is a member or an admin, ordered by descending creation time.
	ListVisible(ctx context.Context, ownerID, uid string) (*SuiteListResult, error)
	CountByOwnerID(ctx context.Context, ownerID string) (int, error) // For plan limits
	Update(ctx context.Context, suite *models.Suite) error
	Delete(ctx context.Context, suiteID string) error
	// FlagInactive marks the given suites inactive in a single batch.
	FlagInactive(ctx context.Context, suiteIDs []string) error
}

// BugReportRepository defines the interface for bug report storage
// operations. Reports live in a subcollection of their suite.
type BugReportRepository interface {
	Create(ctx context.Context, suiteID string, report *models.BugReport) (string, error)
	GetByID(ctx context.Context, suiteID, reportID string) (*models.BugReport, error)
	GetBySuiteID(ctx context.Context, suiteID string, limit int) ([]*models.BugReport, error)
	Update(ctx context.Context, suiteID string, report *models.BugReport) error
	Delete(ctx context.Context, suiteID, reportID string) error
}

// SprintRepository defines the interface for sprint storage operations.
// Sprints live in a subcollection of their suite.
type SprintRepository interface {
	Create(ctx context.Context, suiteID string, sprint *models.Sprint) (string, error)
	GetByID(ctx context.Context, suiteID, sprintID string) (*models.Sprint, error)
	GetBySuiteID(ctx context.Context, suiteID string) ([]*models.Sprint, error)
	Update(ctx context.Context, suiteID string, sprint *models.Sprint) error
	Delete(ctx context.Context, suiteID, sprintID string) error
}

// AuditRepository defines the interface for audit log storage operations.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}
