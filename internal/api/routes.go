package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"qaflow-backend-go/internal/core"
	"qaflow-backend-go/internal/identity"
	"qaflow-backend-go/internal/middleware"
)

// SetupRoutes configures all application routes. Global middleware (logging,
// recovery, CORS) is expected to be applied to the router before this is
// called.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	provider identity.Provider,
	sessions *core.SessionManager,
	suiteService core.SuiteService,
	reportService core.BugReportService,
	sprintService core.SprintService,
) {
	authMW := middleware.NewAuthMiddleware(provider, logger)

	workspaceHandler := NewWorkspaceHandler(sessions, logger)
	profileHandler := NewProfileHandler(sessions, logger)
	suiteHandler := NewSuiteHandler(suiteService, sessions, logger)
	reportHandler := NewBugReportHandler(reportService, logger)
	sprintHandler := NewSprintHandler(sprintService, logger)

	apiV1 := router.Group("/api/v1")
	{
		// Workspace state and session lifecycle.
		workspaceGroup := apiV1.Group("/workspace", authMW.VerifyToken())
		{
			workspaceGroup.GET("/state", workspaceHandler.GetState)
			workspaceGroup.POST("/interactions", workspaceHandler.RecordInteraction)
			workspaceGroup.PUT("/active-suite", workspaceHandler.SetActiveSuite)
		}
		apiV1.POST("/session/signout", authMW.VerifyToken(), workspaceHandler.SignOut)

		// Profile endpoints.
		profileGroup := apiV1.Group("/profile", authMW.VerifyToken())
		{
			profileGroup.POST("/initialize", profileHandler.Initialize)
			profileGroup.GET("/me", profileHandler.Me)
			profileGroup.PUT("", profileHandler.Update)
			profileGroup.POST("/refresh", profileHandler.Refresh)
		}

		// Suite endpoints.
		suitesGroup := apiV1.Group("/suites", authMW.VerifyToken())
		{
			suitesGroup.POST("", suiteHandler.CreateSuite)
			suitesGroup.GET("", suiteHandler.ListSuites)
			suitesGroup.GET("/:suiteId", suiteHandler.GetSuite)
			suitesGroup.PUT("/:suiteId", suiteHandler.UpdateSuite)
			suitesGroup.DELETE("/:suiteId", suiteHandler.DeleteSuite)
			suitesGroup.POST("/:suiteId/members", suiteHandler.AddMembers)
			suitesGroup.DELETE("/:suiteId/members", suiteHandler.RemoveMembers)

			// Bug reports, nested under their suite.
			reportsGroup := suitesGroup.Group("/:suiteId/reports")
			{
				reportsGroup.POST("", reportHandler.CreateReport)
				reportsGroup.GET("", reportHandler.ListReports)
				reportsGroup.POST("/generate", reportHandler.GenerateDraft)
				reportsGroup.GET("/:reportId", reportHandler.GetReport)
				reportsGroup.PUT("/:reportId", reportHandler.UpdateReport)
				reportsGroup.DELETE("/:reportId", reportHandler.DeleteReport)
			}

			// Sprints, nested under their suite.
			sprintsGroup := suitesGroup.Group("/:suiteId/sprints")
			{
				sprintsGroup.POST("", sprintHandler.CreateSprint)
				sprintsGroup.GET("", sprintHandler.ListSprints)
				sprintsGroup.GET("/:sprintId", sprintHandler.GetSprint)
				sprintsGroup.PUT("/:sprintId", sprintHandler.UpdateSprint)
				sprintsGroup.DELETE("/:sprintId", sprintHandler.DeleteSprint)
			}
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "QAFlow backend is healthy."})
	})

	logger.Info("API routes configured under /api/v1 and /health.")
}
