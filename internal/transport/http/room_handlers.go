package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/codepad-io/codepad-server/internal/core"
	"github.com/codepad-io/codepad-server/internal/metrics"
	"github.com/codepad-io/codepad-server/internal/store"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	registry *core.Registry
	store    store.Store
	log      *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(reg *core.Registry, st store.Store, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		registry: reg,
		store:    st,
		log:      logger,
	}
}

// CreateRoomResponse represents the create room response body.
type CreateRoomResponse struct {
	RoomID string `json:"room_id"`
}

// StatusResponse represents a plain status response body.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RunResponse represents one execution record in API responses.
type RunResponse struct {
	ID         int64  `json:"id"`
	Backend    string `json:"backend"`
	Status     string `json:"status"`
	Output     string `json:"output"`
	DurationMs int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

// CreateRoom handles room creation. It never fails.
// POST /create-room
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	id := h.registry.CreateRoom()
	metrics.RoomsCreated.Inc()

	h.log.Info().Str("room_id", id).Msg("room created")
	c.JSON(http.StatusOK, CreateRoomResponse{RoomID: id})
}

// JoinRoom reports whether a room can be joined.
// GET /join-room/:room_id
func (h *RoomHandlers) JoinRoom(c *gin.Context) {
	id := c.Param("room_id")
	if !h.registry.RoomExists(id) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Status: "success"})
}

// ListRuns returns the most recent executions for a room, newest first.
// GET /api/rooms/:room_id/runs
func (h *RoomHandlers) ListRuns(c *gin.Context) {
	id := c.Param("room_id")
	if !h.registry.RoomExists(id) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(c.Request.Context(), id, limit)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", id).Msg("failed to list runs")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		response = append(response, RunResponse{
			ID:         run.ID,
			Backend:    run.Backend,
			Status:     run.Status,
			Output:     run.Output,
			DurationMs: run.Duration.Milliseconds(),
			CreatedAt:  run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	c.JSON(http.StatusOK, response)
}
