package models

import "time"

// AuditLog represents an audit trail event.
type AuditLog struct {
	ID         string                 `json:"id" firestore:"-"`
	Timestamp  time.Time              `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	UserID     string                 `json:"userId" firestore:"userId"` // Who performed the action
	Action     string                 `json:"action" firestore:"action"` // e.g., "SUITE_CREATE", "TRIAL_EXPIRED", "REPORT_CREATE"
	TargetType string                 `json:"targetType,omitempty" firestore:"targetType,omitempty"` // e.g., "SUITE", "REPORT", "SPRINT", "PROFILE"
	TargetID   string                 `json:"targetId,omitempty" firestore:"targetId,omitempty"`   // ID of the affected entity
	Details    map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"` // Additional information
}
