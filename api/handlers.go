package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gcbaptista/chess-retrieval-bench/services"
)

// MaxRequestBodySize bounds JSON request bodies
const MaxRequestBodySize = 1 << 20

// Dependencies are the services the HTTP layer talks to
type Dependencies struct {
	Runs      services.RunManager
	Reports   services.ReportStore
	Games     services.GameStore
	Analytics services.AnalyticsProvider
	Logger    zerolog.Logger
	// IndexBackend names the position index the retrieval player reads from
	IndexBackend string
}

// API holds dependencies for API handlers.
type API struct {
	runs      services.RunManager
	reports   services.ReportStore
	games     services.GameStore
	analytics services.AnalyticsProvider
	log       zerolog.Logger
	backend   string
}

// NewAPI creates a new API handler structure.
func NewAPI(deps Dependencies) *API {
	return &API{
		runs:      deps.Runs,
		reports:   deps.Reports,
		games:     deps.Games,
		analytics: deps.Analytics,
		log:       deps.Logger,
		backend:   deps.IndexBackend,
	}
}

// SetupRoutes defines all the API routes of the benchmark server.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	apiHandler := NewAPI(deps)

	router.Use(RequestIDMiddleware(), CORSMiddleware(), RequestSizeLimitMiddleware(MaxRequestBodySize))

	// Health check route
	router.GET("/health", apiHandler.HealthCheckHandler)

	apiRoutes := router.Group("/api")
	{
		// Analytics route
		apiRoutes.GET("/analytics", apiHandler.GetAnalyticsHandler)

		benchmarkRoutes := apiRoutes.Group("/benchmarks")
		{
			benchmarkRoutes.POST("/run", apiHandler.StartBenchmarkHandler)           // Start a run in the background
			benchmarkRoutes.GET("/stream/:runId", apiHandler.StreamBenchmarkHandler) // Server-sent events
			benchmarkRoutes.GET("/ws/:runId", apiHandler.WebSocketHandler)           // Same events over a websocket
			benchmarkRoutes.GET("/metrics", apiHandler.GetRunMetricsHandler)         // Run counters
			benchmarkRoutes.GET("/runs/:runId", apiHandler.GetRunHandler)            // Poll a run snapshot
			benchmarkRoutes.POST("/runs/:runId/cancel", apiHandler.CancelRunHandler) // Stop scheduling games
			benchmarkRoutes.DELETE("/runs/:runId", apiHandler.DeleteRunHandler)      // Reclaim a finished run
			benchmarkRoutes.GET("", apiHandler.ListReportsHandler)                   // List persisted reports
			benchmarkRoutes.GET("/:filename", apiHandler.GetReportHandler)           // Fetch one report
		}

		gameRoutes := apiRoutes.Group("/games")
		{
			gameRoutes.GET("", apiHandler.ListGamesHandler)
			gameRoutes.GET("/:filename", apiHandler.GetGameHandler)
		}
	}
}
