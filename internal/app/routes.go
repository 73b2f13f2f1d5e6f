package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Routes registers every endpoint on router. Health and the OAuth callback
// stay outside of auth.
func (a *App) Routes(router *gin.Engine, auth gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// OAuth2 callback (must be before auth middleware)
	router.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)

	api := router.Group("/api")
	if auth != nil {
		api.Use(auth)
	}
	{
		api.POST("/conflicts", a.CheckConflictHandler)
		api.GET("/slots", a.GetSlotsHandler)
		api.POST("/alternatives", a.SuggestAlternativesHandler)
		api.POST("/free-windows", a.FreeWindowsHandler)

		analysis := api.Group("/analysis")
		{
			analysis.PUT("/:key", a.PutAnalysisHandler)
			analysis.PATCH("/:key", a.RefreshAnalysisHandler)
			analysis.GET("/:key", a.GetAnalysisHandler)
			analysis.GET("/:key/status", a.AnalysisStatusHandler)
			analysis.DELETE("/:key", a.DeleteAnalysisHandler)
		}

		events := api.Group("/events")
		{
			events.PUT("/:event_id/tasks", a.SetTasksHandler)
			events.POST("/:event_id/tasks/complete", a.CompleteTasksHandler)
			events.GET("/:event_id/tasks", a.ListTasksHandler)
			events.DELETE("/:event_id/tasks", a.ClearTasksHandler)
		}
		api.DELETE("/tasks", a.ClearAllTasksHandler)

		// Calendar provider routes
		calendar := api.Group("/calendar")
		{
			calendar.GET("/auth", a.GoogleAuthHandler)
			calendar.GET("/events", a.ListEventsHandler)
			calendar.GET("/calendars", a.ListCalendarsHandler)
			calendar.POST("/import", a.ImportICSHandler)
		}
	}
}
