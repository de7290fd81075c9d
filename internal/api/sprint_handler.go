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

// SprintHandler handles API endpoints related to sprints.
type SprintHandler struct {
	sprintService core.SprintService
	logger        *zap.Logger
}

// NewSprintHandler creates a new SprintHandler.
func NewSprintHandler(ss core.SprintService, logger *zap.Logger) *SprintHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SprintHandler{sprintService: ss, logger: logger}
}

func mapSprintErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, core.ErrSuiteNotFound), errors.Is(err, core.ErrSprintNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrForbiddenAccess):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: core.ErrForbiddenAccess.Error()})
	case errors.Is(err, core.ErrInvalidSprintDate):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: core.ErrInvalidSprintDate.Error(), Details: err.Error()})
	default:
		logger.Error("Sprint operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
	}
}

// CreateSprint handles POST /suites/:suiteId/sprints.
func (h *SprintHandler) CreateSprint(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	var req models.CreateSprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	sprint, err := h.sprintService.CreateSprint(c.Request.Context(), session.UID, c.Param("suiteId"), req)
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, sprint)
}

// ListSprints handles GET /suites/:suiteId/sprints.
func (h *SprintHandler) ListSprints(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	sprints, err := h.sprintService.ListSprints(c.Request.Context(), session.UID, c.Param("suiteId"))
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	if sprints == nil {
		sprints = []*models.Sprint{}
	}
	c.JSON(http.StatusOK, sprints)
}

// GetSprint handles GET /suites/:suiteId/sprints/:sprintId.
func (h *SprintHandler) GetSprint(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	sprint, err := h.sprintService.GetSprintByID(c.Request.Context(), session.UID, c.Param("suiteId"), c.Param("sprintId"))
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sprint)
}

// UpdateSprint handles PUT /suites/:suiteId/sprints/:sprintId.
func (h *SprintHandler) UpdateSprint(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	var req models.UpdateSprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	sprint, err := h.sprintService.UpdateSprint(c.Request.Context(), session.UID, c.Param("suiteId"), c.Param("sprintId"), req)
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sprint)
}

// DeleteSprint handles DELETE /suites/:suiteId/sprints/:sprintId.
func (h *SprintHandler) DeleteSprint(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	if err := h.sprintService.DeleteSprint(c.Request.Context(), session.UID, c.Param("suiteId"), c.Param("sprintId")); err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Sprint deleted"})
}
