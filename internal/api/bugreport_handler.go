package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"qaflow-backend-go/internal/ai"
	"qaflow-backend-go/internal/core"
	"qaflow-backend-go/internal/middleware"
	"qaflow-backend-go/internal/models"
)

// BugReportHandler handles API endpoints related to bug reports.
type BugReportHandler struct {
	reportService core.BugReportService
	logger        *zap.Logger
}

// NewBugReportHandler creates a new BugReportHandler.
func NewBugReportHandler(rs core.BugReportService, logger *zap.Logger) *BugReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BugReportHandler{reportService: rs, logger: logger}
}

func mapReportErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, core.ErrSuiteNotFound), errors.Is(err, core.ErrReportNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrForbiddenAccess):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: core.ErrForbiddenAccess.Error()})
	case errors.Is(err, core.ErrInvalidSeverity):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: core.ErrInvalidSeverity.Error(), Details: err.Error()})
	case errors.Is(err, core.ErrDraftUnusable), errors.Is(err, ai.ErrGenerationFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Draft generation failed", Details: err.Error()})
	default:
		logger.Error("Bug report operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
	}
}

// CreateReport handles POST /suites/:suiteId/reports.
func (h *BugReportHandler) CreateReport(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	var req models.CreateBugReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	report, err := h.reportService.CreateReport(c.Request.Context(), session.UID, c.Param("suiteId"), req)
	if err != nil {
		mapReportErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// ListReports handles GET /suites/:suiteId/reports.
func (h *BugReportHandler) ListReports(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	reports, err := h.reportService.ListReports(c.Request.Context(), session.UID, c.Param("suiteId"), limit)
	if err != nil {
		mapReportErrorToStatus(c, h.logger, err)
		return
	}
	if reports == nil {
		reports = []*models.BugReport{}
	}
	c.JSON(http.StatusOK, reports)
}

// GetReport handles GET /suites/:suiteId/reports/:reportId.
func (h *BugReportHandler) GetReport(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	report, err := h.reportService.GetReportByID(c.Request.Context(), session.UID, c.Param("suiteId"), c.Param("reportId"))
	if err != nil {
		mapReportErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// UpdateReport handles PUT /suites/:suiteId/reports/:reportId.
func (h *BugReportHandler) UpdateReport(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	var req models.UpdateBugReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	report, err := h.reportService.UpdateReport(c.Request.Context(), session.UID, c.Param("suiteId"), c.Param("reportId"), req)
	if err != nil {
		mapReportErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// DeleteReport handles DELETE /suites/:suiteId/reports/:reportId.
func (h *BugReportHandler) DeleteReport(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	if err := h.reportService.DeleteReport(c.Request.Context(), session.UID, c.Param("suiteId"), c.Param("reportId")); err != nil {
		mapReportErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Bug report deleted"})
}

// GenerateDraft handles POST /suites/:suiteId/reports/generate: an
// AI-assisted structured draft from a free-form description. The draft is
// returned for review, not persisted.
func (h *BugReportHandler) GenerateDraft(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return
	}

	var req models.GenerateBugReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	draft, err := h.reportService.GenerateDraft(c.Request.Context(), session.UID, c.Param("suiteId"), req)
	if err != nil {
		mapReportErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}
