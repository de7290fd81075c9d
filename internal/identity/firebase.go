package identity

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

// firebaseProvider implements Provider on top of the Firebase Auth client.
type firebaseProvider struct {
	client *auth.Client
}

// NewFirebaseProvider creates a Provider backed by Firebase Auth.
func NewFirebaseProvider(client *auth.Client) Provider {
	if client == nil {
		panic("identity: Firebase Auth client is not initialized")
	}
	return &firebaseProvider{client: client}
}

// VerifySession verifies a Firebase ID token and maps its claims to a
// Session. Invalid or expired tokens return an error.
func (p *firebaseProvider) VerifySession(ctx context.Context, idToken string) (*Session, error) {
	token, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	session := &Session{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		session.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		session.DisplayName = name
	}
	if verified, ok := token.Claims["email_verified"].(bool); ok {
		session.EmailVerified = verified
	}
	return session, nil
}
