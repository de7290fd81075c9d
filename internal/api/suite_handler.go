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

// SuiteHandler handles API endpoints related to test suites.
type SuiteHandler struct {
	suiteService core.SuiteService
	sessions     *core.SessionManager
	logger       *zap.Logger
}

// NewSuiteHandler creates a new SuiteHandler.
func NewSuiteHandler(ss core.SuiteService, sessions *core.SessionManager, logger *zap.Logger) *SuiteHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuiteHandler{suiteService: ss, sessions: sessions, logger: logger}
}

// mapSuiteErrorToStatus maps errors from core services to HTTP status codes.
func mapSuiteErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, core.ErrSuiteNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: core.ErrSuiteNotFound.Error()})
	case errors.Is(err, core.ErrForbiddenAccess):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: core.ErrForbiddenAccess.Error()})
	case errors.Is(err, core.ErrSuiteLimitReached):
		c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: core.ErrSuiteLimitReached.Error(), Details: err.Error()})
	case errors.Is(err, core.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: core.ErrInvalidRole.Error()})
	default:
		logger.Error("Suite operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
	}
}

// CreateSuite handles POST /suites.
func (h *SuiteHandler) CreateSuite(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	var req models.CreateSuiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	ctrl, err := h.sessions.Controller(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to establish workspace session"})
		return
	}
	profile := ctrl.Store().Snapshot().Profile

	suite, err := h.suiteService.CreateSuite(c.Request.Context(), session.UID, profile, req)
	if err != nil {
		mapSuiteErrorToStatus(c, h.logger, err)
		return
	}

	// Bring the workspace's suite list in step with the write.
	if _, err := ctrl.Store().RefetchSuites(c.Request.Context()); err != nil {
		h.logger.Warn("Suite refetch after create failed", zap.String("uid", session.UID), zap.Error(err))
	}

	// Suite creation is a qualifying action for the onboarding tips gate.
	if _, err := ctrl.Tracker().RecordInteraction(c.Request.Context(), session.UID); err != nil {
		h.logger.Warn("Failed to record suite creation interaction", zap.String("uid", session.UID), zap.Error(err))
	}
	c.JSON(http.StatusCreated, suite)
}

// ListSuites handles GET /suites: all suites visible to the caller.
func (h *SuiteHandler) ListSuites(c *gin.Context) {
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

	suites, err := ctrl.Store().RefetchSuites(c.Request.Context())
	if err != nil {
		mapProfileErrorToStatus(c, h.logger, err)
		return
	}
	if suites == nil {
		suites = []*models.Suite{}
	}
	c.JSON(http.StatusOK, suites)
}

// GetSuite handles GET /suites/:suiteId.
func (h *SuiteHandler) GetSuite(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	suite, err := h.suiteService.GetSuiteByID(c.Request.Context(), session.UID, c.Param("suiteId"))
	if err != nil {
		mapSuiteErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, suite)
}

// UpdateSuite handles PUT /suites/:suiteId.
func (h *SuiteHandler) UpdateSuite(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	var req models.UpdateSuiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	suite, err := h.suiteService.UpdateSuite(c.Request.Context(), session.UID, c.Param("suiteId"), req)
	if err != nil {
		mapSuiteErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, suite)
}

// DeleteSuite handles DELETE /suites/:suiteId.
func (h *SuiteHandler) DeleteSuite(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	if err := h.suiteService.DeleteSuite(c.Request.Context(), session.UID, c.Param("suiteId")); err != nil {
		mapSuiteErrorToStatus(c, h.logger, err)
		return
	}

	if ctrl, err := h.sessions.Controller(c.Request.Context(), session); err == nil {
		if _, err := ctrl.Store().RefetchSuites(c.Request.Context()); err != nil {
			h.logger.Warn("Suite refetch after delete failed", zap.String("uid", session.UID), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Suite deleted"})
}

// AddMembers handles POST /suites/:suiteId/members.
func (h *SuiteHandler) AddMembers(c *gin.Context) {
	h.modifyMembers(c, true)
}

// RemoveMembers handles DELETE /suites/:suiteId/members.
func (h *SuiteHandler) RemoveMembers(c *gin.Context) {
	h.modifyMembers(c, false)
}

func (h *SuiteHandler) modifyMembers(c *gin.Context, add bool) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	var req models.SuiteMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	suite, err := h.suiteService.ModifyMembers(c.Request.Context(), session.UID, c.Param("suiteId"), req, add)
	if err != nil {
		mapSuiteErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, suite)
}
