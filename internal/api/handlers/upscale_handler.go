// internal/api/handlers/upscale_handler.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/upscalely/upscale-go/internal/domain"
	"github.com/upscalely/upscale-go/internal/pipeline"
	"github.com/upscalely/upscale-go/internal/status"
)

// UpscaleRunner is the pipeline capability the handler drives. Satisfied by
// pipeline.Pipeline.
type UpscaleRunner interface {
	Run(ctx context.Context, req domain.UpscaleRequest) (*pipeline.Result, error)
}

type UpscaleHandler struct {
	runner UpscaleRunner
	store  status.Store
}

func NewUpscaleHandler(runner UpscaleRunner, store status.Store) *UpscaleHandler {
	return &UpscaleHandler{runner: runner, store: store}
}

// Upscale runs the full pipeline for one request and blocks until it
// completes or fails.
func (h *UpscaleHandler) Upscale(c *gin.Context) {
	var req domain.UpscaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No data provided"})
		return
	}
	if !req.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing requestId or imageUrl"})
		return
	}

	res, err := h.runner.Run(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing requestId or imageUrl"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "outputUrl": res.OutputURL})
}

// GetStatus returns the persisted status record for a request.
func (h *UpscaleHandler) GetStatus(c *gin.Context) {
	requestID := c.Param("requestId")

	rec, err := h.store.Get(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
			return
		}
		log.Error().Err(err).Str("request_id", requestID).Msg("failed to load status record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load status record"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// SubmitRequest registers a new pending request document. The pipeline itself
// never creates documents, so callers go through here (or an equivalent
// client-side write) before triggering /upscale.
func (h *UpscaleHandler) SubmitRequest(c *gin.Context) {
	var req domain.UpscaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No data provided"})
		return
	}
	if req.ImageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing imageUrl"})
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	rec := domain.StatusRecord{
		RequestID: req.RequestID,
		Status:    domain.StatusPending,
		ImageURL:  req.ImageURL,
		UserID:    req.UserID,
	}
	if err := h.store.Create(c.Request.Context(), rec); err != nil {
		log.Error().Err(err).Str("request_id", req.RequestID).Msg("failed to create status record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register request"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"requestId": req.RequestID,
		"status":    domain.StatusPending,
	})
}
