package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"qaflow-backend-go/internal/core"
	"qaflow-backend-go/internal/middleware"
	"qaflow-backend-go/internal/models"
)

// WorkspaceHandler exposes the resolved workspace state and the operations
// that feed back into it: interaction tracking, active-suite selection and
// sign-out.
type WorkspaceHandler struct {
	sessions *core.SessionManager
	logger   *zap.Logger
}

// NewWorkspaceHandler creates a new WorkspaceHandler.
func NewWorkspaceHandler(sessions *core.SessionManager, logger *zap.Logger) *WorkspaceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkspaceHandler{sessions: sessions, logger: logger}
}

// GetState handles GET /workspace/state. The optional "route" query
// parameter tells the resolver which client route the state is rendered on.
func (h *WorkspaceHandler) GetState(c *gin.Context) {
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

	view := ctrl.Resolve(c.Request.Context(), c.Query("route"))
	c.JSON(http.StatusOK, workspaceStateResponse(view))
}

// RecordInteraction handles POST /workspace/interactions.
func (h *WorkspaceHandler) RecordInteraction(c *gin.Context) {
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

	count, err := ctrl.Tracker().RecordInteraction(c.Request.Context(), session.UID)
	if err != nil {
		// Tracking is advisory; the count still reflects best knowledge.
		h.logger.Warn("Failed to record interaction", zap.String("uid", session.UID), zap.Error(err))
	}
	c.JSON(http.StatusOK, InteractionResponse{
		Count:           count,
		ShowTipsOverlay: count < core.TipsInteractionThreshold,
	})
}

// SetActiveSuite handles PUT /workspace/active-suite. The suite must be
// visible to the caller; an empty suite ID clears the stored selection.
func (h *WorkspaceHandler) SetActiveSuite(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	var req ActiveSuiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	ctrl, err := h.sessions.Controller(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to establish workspace session"})
		return
	}

	var target *models.Suite
	if req.SuiteID != "" {
		for _, suite := range ctrl.Store().Snapshot().Suites {
			if suite.ID == req.SuiteID {
				target = suite
				break
			}
		}
		if target == nil {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Suite is not visible to the current user"})
			return
		}
	}

	if err := ctrl.Activation().Activate(c.Request.Context(), session.UID, target); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to store active suite selection"})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Active suite updated"})
}

// SignOut handles POST /session/signout: tears down the caller's workspace
// session and clears the stored active-suite selection.
func (h *WorkspaceHandler) SignOut(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	if err := h.sessions.SignOut(c.Request.Context(), session.UID); err != nil {
		h.logger.Warn("Sign-out cleanup failed", zap.String("uid", session.UID), zap.Error(err))
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Signed out"})
}
