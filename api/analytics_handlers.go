package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetAnalyticsHandler handles the request to get analytics data
func (api *API) GetAnalyticsHandler(c *gin.Context) {
	dashboard, err := api.analytics.GetDashboardData()
	if err != nil {
		SendInternalError(c, "retrieve analytics data", err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// HealthCheckHandler reports liveness along with the index backend and the
// number of runs the server is tracking
func (api *API) HealthCheckHandler(c *gin.Context) {
	metrics := api.runs.GetMetrics()
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"index_backend":   api.backend,
		"active_runs":     metrics.ActiveRuns,
		"registered_runs": metrics.RegisteredRuns,
		"time":            time.Now().UTC().Format(time.RFC3339),
	})
}
