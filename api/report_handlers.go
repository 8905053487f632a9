package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/chess-retrieval-bench/model"
)

// ListReportsHandler lists persisted benchmark reports, newest first
func (api *API) ListReportsHandler(c *gin.Context) {
	listings, err := api.reports.ListReports()
	if err != nil {
		SendDomainError(c, "list reports", err)
		return
	}
	if listings == nil {
		listings = []model.ReportListing{}
	}
	c.JSON(http.StatusOK, listings)
}

// GetReportHandler returns one persisted report
func (api *API) GetReportHandler(c *gin.Context) {
	filename := c.Param("filename")
	if validation := ValidateFilename(filename); validation.HasErrors() {
		SendStructuredValidationError(c, validation)
		return
	}

	report, err := api.reports.LoadReport(filename)
	if err != nil {
		SendDomainError(c, "load report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListGamesHandler lists persisted PGN files, newest first
func (api *API) ListGamesHandler(c *gin.Context) {
	names, err := api.games.ListGames()
	if err != nil {
		SendDomainError(c, "list games", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, names)
}

// GetGameHandler returns the raw PGN of one stored game
func (api *API) GetGameHandler(c *gin.Context) {
	filename := c.Param("filename")
	if validation := ValidateFilename(filename); validation.HasErrors() {
		SendStructuredValidationError(c, validation)
		return
	}

	record, err := api.games.LoadGame(filename)
	if err != nil {
		SendDomainError(c, "load game", err)
		return
	}
	c.JSON(http.StatusOK, record)
}
