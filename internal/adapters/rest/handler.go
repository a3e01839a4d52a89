// Package rest serves the reading API as JSON over HTTP.
package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/glucose-log/internal/domain"
	"github.com/quentinrf/glucose-log/internal/ports"
	"github.com/quentinrf/glucose-log/internal/views"
)

// Handler implements the /api/records endpoints
type Handler struct {
	svc *ports.ReadingService
}

// NewHandler creates a new HTTP handler
func NewHandler(svc *ports.ReadingService) *Handler {
	return &Handler{svc: svc}
}

// createRecordRequest keeps every field untyped so the service can apply
// the validation rules to whatever the client sent
type createRecordRequest struct {
	MealType   any `json:"mealType"`
	SugarLevel any `json:"sugarLevel"`
	Comment    any `json:"comment"`
}

// RecordResponse is the wire shape of a stored reading
type RecordResponse struct {
	ID         int64   `json:"id"`
	MealType   string  `json:"meal_type"`
	SugarLevel int     `json:"sugar_level"`
	Comment    *string `json:"comment"`
	CreatedAt  string  `json:"created_at"`
}

// CreateRecord validates and stores a reading
func (h *Handler) CreateRecord(c *gin.Context) {
	var body createRecordRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	reading, err := h.svc.CreateReading(c.Request.Context(), ports.CreateReadingInput{
		MealContext: body.MealType,
		Level:       body.SugarLevel,
		Comment:     body.Comment,
	})
	if err != nil {
		h.fail(c, err, "failed to save reading")
		return
	}

	c.JSON(http.StatusCreated, NewRecordResponse(reading))
}

// ListRecords returns every reading in chronological order
func (h *Handler) ListRecords(c *gin.Context) {
	readings, ok := h.list(c)
	if !ok {
		return
	}

	out := make([]RecordResponse, len(readings))
	for i, r := range readings {
		out[i] = NewRecordResponse(r)
	}
	c.JSON(http.StatusOK, out)
}

// Table returns the per-context tables, newest first
func (h *Handler) Table(c *gin.Context) {
	readings, ok := h.list(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, views.Table(readings))
}

// Chart returns the per-context series with out-of-range flags
func (h *Handler) Chart(c *gin.Context) {
	readings, ok := h.list(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, views.Chart(readings))
}

// Summary returns per-context statistics
func (h *Handler) Summary(c *gin.Context) {
	readings, ok := h.list(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, views.Summarize(readings))
}

// Health reports whether storage is reachable
func (h *Handler) Health(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		log.Warn().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) list(c *gin.Context) ([]*domain.Reading, bool) {
	readings, err := h.svc.ListReadings(c.Request.Context())
	if err != nil {
		h.fail(c, err, "failed to get readings")
		return nil, false
	}
	return readings, true
}

// fail maps client input errors to 400 and everything else to 500
func (h *Handler) fail(c *gin.Context, err error, internalMsg string) {
	if domain.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Error().Err(err).Str("path", c.FullPath()).Msg(internalMsg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": internalMsg})
}

// NewRecordResponse converts the domain model to its wire shape
func NewRecordResponse(r *domain.Reading) RecordResponse {
	return RecordResponse{
		ID:         r.ID,
		MealType:   string(r.MealContext),
		SugarLevel: r.Level,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt.UTC().Format(domain.TimeLayout),
	}
}
