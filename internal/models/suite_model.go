package models

import "time"

// Suite owner types. A suite is owned either by an individual user (OwnerID
// is the user's UID) or by an organization (OwnerID is the organization ID).
const (
	OwnerTypeIndividual   = "individual"
	OwnerTypeOrganization = "organization"
)

// Suite represents a test suite: the workspace scoping test cases, bug
// reports and sprints.
type Suite struct {
	ID        string    `json:"id" firestore:"-"` // Document ID, auto-generated
	Name      string    `json:"name" firestore:"name"`
	OwnerType string    `json:"ownerType" firestore:"ownerType"`
	OwnerID   string    `json:"ownerId" firestore:"ownerId"`
	Admins    []string  `json:"admins,omitempty" firestore:"admins,omitempty"`   // UIDs with admin access
	Members   []string  `json:"members,omitempty" firestore:"members,omitempty"` // UIDs with member access
	Inactive  bool      `json:"inactive,omitempty" firestore:"inactive,omitempty"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// HasMember reports whether uid appears in the suite's member list.
func (s *Suite) HasMember(uid string) bool {
	for _, m := range s.Members {
		if m == uid {
			return true
		}
	}
	return false
}

// HasAdmin reports whether uid appears in the suite's admin list.
func (s *Suite) HasAdmin(uid string) bool {
	for _, a := range s.Admins {
		if a == uid {
			return true
		}
	}
	return false
}
