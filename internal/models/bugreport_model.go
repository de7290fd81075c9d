package models

import "time"

// Bug report severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Bug report statuses.
const (
	ReportOpen       = "open"
	ReportInProgress = "in_progress"
	ReportResolved   = "resolved"
	ReportClosed     = "closed"
)

// BugReport represents a bug report filed within a suite. Reports are stored
// as a subcollection of the owning suite document.
type BugReport struct {
	ID               string    `json:"id" firestore:"-"`
	SuiteID          string    `json:"suiteId" firestore:"-"` // Inferred from subcollection path
	Title            string    `json:"title" firestore:"title"`
	Summary          string    `json:"summary,omitempty" firestore:"summary,omitempty"`
	Severity         string    `json:"severity" firestore:"severity"`
	Status           string    `json:"status" firestore:"status"`
	StepsToReproduce []string  `json:"stepsToReproduce,omitempty" firestore:"stepsToReproduce,omitempty"`
	ExpectedBehavior string    `json:"expectedBehavior,omitempty" firestore:"expectedBehavior,omitempty"`
	ActualBehavior   string    `json:"actualBehavior,omitempty" firestore:"actualBehavior,omitempty"`
	Environment      string    `json:"environment,omitempty" firestore:"environment,omitempty"`
	SprintID         string    `json:"sprintId,omitempty" firestore:"sprintId,omitempty"`
	ReportedBy       string    `json:"reportedBy" firestore:"reportedBy"` // UID of the reporter
	AIGenerated      bool      `json:"aiGenerated,omitempty" firestore:"aiGenerated,omitempty"`
	CreatedAt        time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt        time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
