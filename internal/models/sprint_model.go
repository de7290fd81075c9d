package models

import "time"

// Sprint statuses.
const (
	SprintPlanned   = "planned"
	SprintActive    = "active"
	SprintCompleted = "completed"
)

// Sprint represents a time-boxed iteration within a suite. Sprints are stored
// as a subcollection of the owning suite document.
type Sprint struct {
	ID        string     `json:"id" firestore:"-"`
	SuiteID   string     `json:"suiteId" firestore:"-"` // Inferred from subcollection path
	Name      string     `json:"name" firestore:"name"`
	Goal      string     `json:"goal,omitempty" firestore:"goal,omitempty"`
	Status    string     `json:"status" firestore:"status"`
	StartDate *time.Time `json:"startDate,omitempty" firestore:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty" firestore:"endDate,omitempty"`
	CreatedBy string     `json:"createdBy" firestore:"createdBy"`
	CreatedAt time.Time  `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time  `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
