// Package transport exposes the Pilot's public surface as a JSON HTTP API.
package transport

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	querypilot "github.com/querypilot/querypilot"
	"github.com/querypilot/querypilot/core"
)

// Handler handles HTTP requests.
type Handler struct {
	pilot *querypilot.Pilot
}

// NewHandler creates a new handler.
func NewHandler(pilot *querypilot.Pilot) *Handler {
	return &Handler{pilot: pilot}
}

// RegisterRoutes registers the public routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/understand", h.Understand)
	e.POST("/v1/converse", h.Converse)
	e.POST("/v1/voice", h.Voice)
	e.POST("/v1/feedback", h.Feedback)
	e.POST("/v1/users/:user_id/memories", h.RememberPreference)
	e.GET("/v1/users/:user_id/profile", h.GetUserProfile)
	e.POST("/v1/retrain", h.Retrain)
	e.GET("/v1/stats", h.Stats)
	e.GET("/v1/health", h.Health)
	e.DELETE("/v1/sessions/:session_id", h.ClearSession)
}

type understandRequest struct {
	Query string `json:"query"`
}

type understandResponse struct {
	Filters   core.ExtractedFilters `json:"filters"`
	Path      string                `json:"path"`
	LatencyMS int64                 `json:"latency_ms"`
}

// Understand parses a query without session state.
// POST /v1/understand
func (h *Handler) Understand(c echo.Context) error {
	var req understandRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Query == "" {
		return badRequest(c, "query is required")
	}

	result := h.pilot.UnderstandQuery(c.Request().Context(), req.Query)
	return c.JSON(http.StatusOK, understandResponse{
		Filters:   result.Filters,
		Path:      result.Path,
		LatencyMS: result.Latency.Milliseconds(),
	})
}

type converseRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	Text      string `json:"text"`
}

// Converse drives one conversational turn.
// POST /v1/converse
func (h *Handler) Converse(c echo.Context) error {
	var req converseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.SessionID == "" || req.Text == "" {
		return badRequest(c, "session_id and text are required")
	}

	result, err := h.pilot.Converse(c.Request().Context(), req.SessionID, req.UserID, req.Text)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type voiceRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	Audio     []byte `json:"audio"` // base64 via encoding/json
	Format    string `json:"format"`
	Language  string `json:"language,omitempty"`
}

// Voice runs a voice interaction: transcribe, converse, synthesize.
// POST /v1/voice
func (h *Handler) Voice(c echo.Context) error {
	var req voiceRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.SessionID == "" || len(req.Audio) == 0 {
		return badRequest(c, "session_id and audio are required")
	}

	result, err := h.pilot.VoiceSearch(c.Request().Context(), req.SessionID, req.UserID, req.Audio, req.Format, req.Language)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type feedbackRequest struct {
	SessionID     string `json:"session_id"`
	Clicked       bool   `json:"clicked,omitempty"`
	ClickPosition int    `json:"click_position,omitempty"`
	AddedToCart   bool   `json:"added_to_cart,omitempty"`
	Ordered       bool   `json:"ordered,omitempty"`
}

// Feedback patches a user-action outcome onto the session's interaction.
// POST /v1/feedback
func (h *Handler) Feedback(c echo.Context) error {
	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.SessionID == "" {
		return badRequest(c, "session_id is required")
	}

	action := core.UserAction{
		Clicked:       req.Clicked,
		ClickPosition: req.ClickPosition,
		AddedToCart:   req.AddedToCart,
		Ordered:       req.Ordered,
	}
	if err := h.pilot.SubmitFeedback(c.Request().Context(), req.SessionID, action); err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "recorded"})
}

type rememberRequest struct {
	Type    string `json:"type,omitempty"`
	Content string `json:"content"`
}

// RememberPreference appends an explicit user memory.
// POST /v1/users/:user_id/memories
func (h *Handler) RememberPreference(c echo.Context) error {
	userID := c.Param("user_id")
	var req rememberRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Content == "" {
		return badRequest(c, "content is required")
	}

	err := h.pilot.RememberPreference(c.Request().Context(), userID, core.MemoryType(req.Type), req.Content)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"status": "remembered"})
}

// GetUserProfile returns the user's memories and derived preferences.
// GET /v1/users/:user_id/profile
func (h *Handler) GetUserProfile(c echo.Context) error {
	profile, err := h.pilot.GetUserProfile(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

// Retrain triggers manual training-sample extraction and forwarding.
// POST /v1/retrain
func (h *Handler) Retrain(c echo.Context) error {
	count, err := h.pilot.TriggerRetrain(c.Request().Context())
	if err != nil {
		if errors.Is(err, core.ErrNotEnoughData) {
			return c.JSON(http.StatusConflict, map[string]any{
				"error":   "not enough data",
				"samples": count,
			})
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "submitted", "samples": count})
}

// Stats returns aggregate interaction statistics.
// GET /v1/stats
func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.pilot.Stats(c.Request().Context())
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// Health reports per-dependency health.
// GET /v1/health
func (h *Handler) Health(c echo.Context) error {
	status := h.pilot.Health(c.Request().Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

// ClearSession discards a session's conversation context.
// DELETE /v1/sessions/:session_id
func (h *Handler) ClearSession(c echo.Context) error {
	if err := h.pilot.ClearSession(c.Request().Context(), c.Param("session_id")); err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

func internalError(c echo.Context, err error) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
