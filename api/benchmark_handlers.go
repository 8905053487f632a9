package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gcbaptista/chess-retrieval-bench/model"
	"github.com/gcbaptista/chess-retrieval-bench/services"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is already open for every origin
	},
}

// StartBenchmarkHandler starts a benchmark run in the background.
// Request Body: {"num_games": 5, "workers": 5}, both optional
func (api *API) StartBenchmarkHandler(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		SendInvalidJSONError(c, err)
		return
	}

	numGames, workers, validation := req.Resolve()
	if validation.HasErrors() {
		SendStructuredValidationError(c, validation)
		return
	}

	// the run must outlive this request
	runID, err := api.runs.Start(c.Request.Context(), numGames, workers)
	if err != nil {
		SendDomainError(c, "start benchmark", err)
		return
	}

	api.log.Info().Str("run_id", runID).Int("num_games", numGames).Int("workers", workers).Msg("benchmark run accepted")
	c.JSON(http.StatusAccepted, gin.H{
		"run_id":    runID,
		"num_games": numGames,
		"workers":   workers,
	})
}

// subscribe validates the run id and resolves the starting cursor from the
// query string or a Last-Event-ID header
func (api *API) subscribe(c *gin.Context) (services.EventStream, int, bool) {
	runID := c.Param("runId")
	if validation := ValidateRunID(runID); validation.HasErrors() {
		SendStructuredValidationError(c, validation)
		return nil, 0, false
	}

	raw := c.Query("cursor")
	if raw == "" {
		if last := c.GetHeader("Last-Event-ID"); last != "" {
			if seq, err := strconv.Atoi(last); err == nil {
				raw = strconv.Itoa(seq + 1)
			}
		}
	}
	cursor, validation := ParseCursor(raw)
	if validation.HasErrors() {
		SendStructuredValidationError(c, validation)
		return nil, 0, false
	}

	stream, err := api.runs.Subscribe(runID)
	if err != nil {
		SendDomainError(c, "subscribe to run", err)
		return nil, 0, false
	}
	return stream, cursor, true
}

// StreamBenchmarkHandler streams a run's events as server-sent events, one
// JSON object per event, and closes after the terminal event.
func (api *API) StreamBenchmarkHandler(c *gin.Context) {
	stream, cursor, ok := api.subscribe(c)
	if !ok {
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		events, closed, err := stream.Next(ctx, cursor)
		if err != nil {
			return false
		}
		for _, ev := range events {
			c.Render(-1, sse.Event{Id: strconv.Itoa(ev.Seq), Data: ev})
		}
		cursor += len(events)
		return !closed
	})
}

// WebSocketHandler sends a run's events as JSON text messages and closes the
// connection normally after the terminal event.
func (api *API) WebSocketHandler(c *gin.Context) {
	stream, cursor, ok := api.subscribe(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		api.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// the read side only watches for the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		events, closed, err := stream.Next(ctx, cursor)
		if err != nil {
			return
		}
		for _, ev := range events {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				api.log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		}
		cursor += len(events)
		if closed {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteTimeout))
			return
		}
	}
}

// GetRunHandler returns a polling snapshot of a run with the events from ?cursor= on
func (api *API) GetRunHandler(c *gin.Context) {
	runID := c.Param("runId")
	if validation := ValidateRunID(runID); validation.HasErrors() {
		SendStructuredValidationError(c, validation)
		return
	}
	cursor, validation := ParseCursor(c.Query("cursor"))
	if validation.HasErrors() {
		SendStructuredValidationError(c, validation)
		return
	}

	snapshot, err := api.runs.Snapshot(runID, cursor)
	if err != nil {
		SendDomainError(c, "get run", err)
		return
	}
	if snapshot.Events == nil {
		snapshot.Events = []model.RunEvent{}
	}
	c.JSON(http.StatusOK, snapshot)
}

// CancelRunHandler stops scheduling new games for a run
func (api *API) CancelRunHandler(c *gin.Context) {
	runID := c.Param("runId")
	if validation := ValidateRunID(runID); validation.HasErrors() {
		SendStructuredValidationError(c, validation)
		return
	}
	if err := api.runs.Cancel(runID); err != nil {
		SendDomainError(c, "cancel run", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Run '" + runID + "' will stop after its in-flight games",
		"run_id":  runID,
	})
}

// DeleteRunHandler removes a finished run
func (api *API) DeleteRunHandler(c *gin.Context) {
	runID := c.Param("runId")
	if validation := ValidateRunID(runID); validation.HasErrors() {
		SendStructuredValidationError(c, validation)
		return
	}
	if err := api.runs.Delete(runID); err != nil {
		SendDomainError(c, "delete run", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Run '" + runID + "' deleted"})
}

// GetRunMetricsHandler returns run and game counters
func (api *API) GetRunMetricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"metrics": api.runs.GetMetrics()})
}
