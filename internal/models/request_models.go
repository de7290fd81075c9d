package models

// CreateSuiteRequest represents the request body for creating a new suite.
type CreateSuiteRequest struct {
	Name string `json:"name" binding:"required,min=3"`
}

// UpdateSuiteRequest represents the request body for updating a suite.
// Pointers distinguish fields not provided from fields set to a zero value.
type UpdateSuiteRequest struct {
	Name     *string `json:"name,omitempty"`
	Inactive *bool   `json:"inactive,omitempty"`
}

// SuiteMembersRequest represents the request body for adding or removing
// suite members.
type SuiteMembersRequest struct {
	UserIDs []string `json:"userIds" binding:"required"`
	Role    string   `json:"role" binding:"required"` // "member" or "admin"
}

// UpdateProfileRequest represents a partial profile update.
type UpdateProfileRequest struct {
	DisplayName *string           `json:"displayName,omitempty"`
	Onboarding  *OnboardingStatus `json:"onboardingStatus,omitempty"`
}

// CreateBugReportRequest represents the request body for filing a bug report.
type CreateBugReportRequest struct {
	Title            string   `json:"title" binding:"required"`
	Summary          string   `json:"summary,omitempty"`
	Severity         string   `json:"severity" binding:"required"`
	StepsToReproduce []string `json:"stepsToReproduce,omitempty"`
	ExpectedBehavior string   `json:"expectedBehavior,omitempty"`
	ActualBehavior   string   `json:"actualBehavior,omitempty"`
	Environment      string   `json:"environment,omitempty"`
	SprintID         string   `json:"sprintId,omitempty"`
}

// UpdateBugReportRequest represents a partial bug report update.
type UpdateBugReportRequest struct {
	Title            *string   `json:"title,omitempty"`
	Summary          *string   `json:"summary,omitempty"`
	Severity         *string   `json:"severity,omitempty"`
	Status           *string   `json:"status,omitempty"`
	StepsToReproduce *[]string `json:"stepsToReproduce,omitempty"`
	ExpectedBehavior *string   `json:"expectedBehavior,omitempty"`
	ActualBehavior   *string   `json:"actualBehavior,omitempty"`
	SprintID         *string   `json:"sprintId,omitempty"`
}

// GenerateBugReportRequest represents the request body for AI-assisted bug
// report drafting. Description is the tester's free-form account of the bug.
type GenerateBugReportRequest struct {
	Description string `json:"description" binding:"required"`
	Environment string `json:"environment,omitempty"`
}

// CreateSprintRequest represents the request body for creating a sprint.
type CreateSprintRequest struct {
	Name  string `json:"name" binding:"required"`
	Goal  string `json:"goal,omitempty"`
	Start string `json:"startDate,omitempty"` // RFC 3339
	End   string `json:"endDate,omitempty"`   // RFC 3339
}

// UpdateSprintRequest represents a partial sprint update.
type UpdateSprintRequest struct {
	Name   *string `json:"name,omitempty"`
	Goal   *string `json:"goal,omitempty"`
	Status *string `json:"status,omitempty"`
}
