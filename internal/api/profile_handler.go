package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"qaflow-backend-go/internal/core"
	"qaflow-backend-go/internal/middleware"
	"qaflow-backend-go/internal/models"
)

// ProfileHandler exposes profile initialization and maintenance endpoints.
type ProfileHandler struct {
	sessions *core.SessionManager
	logger   *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(sessions *core.SessionManager, logger *zap.Logger) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{sessions: sessions, logger: logger}
}

func mapProfileErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, core.ErrNoProfile):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: core.ErrNoProfile.Error()})
	default:
		logger.Error("Profile operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
	}
}

// Initialize handles POST /profile/initialize. Called after client-side
// sign-in; establishes the workspace session and ensures the backend profile
// exists, bootstrapping a default one for a first-time identity.
func (h *ProfileHandler) Initialize(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	ctrl, err := h.sessions.Controller(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to establish workspace session"})
		return
	}

	profile, err := ctrl.RefreshProfile(c.Request.Context(), false)
	if err != nil {
		mapProfileErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Me handles GET /profile/me: the current profile, served from cache when
// fresh.
func (h *ProfileHandler) Me(c *gin.Context) {
	h.serveProfile(c, false)
}

// Refresh handles POST /profile/refresh: a forced re-read bypassing the
// cache.
func (h *ProfileHandler) Refresh(c *gin.Context) {
	h.serveProfile(c, true)
}

func (h *ProfileHandler) serveProfile(c *gin.Context, force bool) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	ctrl, err := h.sessions.Controller(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to establish workspace session"})
		return
	}

	profile, err := ctrl.RefreshProfile(c.Request.Context(), force)
	if err != nil {
		mapProfileErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Update handles PUT /profile: a partial profile update.
func (h *ProfileHandler) Update(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	ctrl, err := h.sessions.Controller(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to establish workspace session"})
		return
	}

	profile, err := ctrl.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		mapProfileErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
