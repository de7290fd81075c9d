package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"qaflow-backend-go/internal/identity"
)

// ErrorResponse mirrors the one in internal/api/dto_models.go to avoid an
// import cycle.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SessionKey is the Gin context key the verified identity session is stored
// under.
const SessionKey = "identitySession"

// AuthMiddleware verifies bearer tokens against the identity provider and
// places the resolved session in the request context.
type AuthMiddleware struct {
	provider identity.Provider
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance. A nil provider is
// a setup error and panics.
func NewAuthMiddleware(provider identity.Provider, logger *zap.Logger) *AuthMiddleware {
	if provider == nil {
		panic("identity provider is not initialized for AuthMiddleware")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{provider: provider, logger: logger}
}

// VerifyToken verifies the Authorization header token. On success the
// identity session is set in the Gin context for downstream handlers.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}

		session, err := m.provider.VerifySession(c.Request.Context(), parts[1])
		if err != nil {
			// Generic message to the client; details stay server-side.
			m.logger.Warn("Token verification failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
			return
		}

		c.Set(SessionKey, session)
		c.Next()
	}
}

// SessionFromContext extracts the verified identity session set by
// VerifyToken. The second return is false when the middleware did not run.
func SessionFromContext(c *gin.Context) (*identity.Session, bool) {
	value, ok := c.Get(SessionKey)
	if !ok {
		return nil, false
	}
	session, ok := value.(*identity.Session)
	return session, ok
}
