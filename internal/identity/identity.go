// Package identity is the boundary to the external identity provider. The
// rest of the application only sees Session values and the Provider
// interface; the Firebase implementation lives behind it.
package identity

import "context"

// Session describes a resolved identity session.
type Session struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// Provider verifies bearer tokens issued by the identity provider and
// resolves them to sessions.
type Provider interface {
	VerifySession(ctx context.Context, idToken string) (*Session, error)
}
