package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsroom-publishing-api/internal/auth"
	"github.com/newsroom-publishing-api/internal/models"
	"github.com/newsroom-publishing-api/internal/service"
	"github.com/rs/zerolog"
)

// ReviewHandler handles admin review and user management endpoints
type ReviewHandler struct {
	services  *service.Services
	authority *auth.Authority
	log       zerolog.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(services *service.Services, authority *auth.Authority, log zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		services:  services,
		authority: authority,
		log:       log.With().Str("handler", "review").Logger(),
	}
}

// GetQueue handles GET /v1/review/queue
func (h *ReviewHandler) GetQueue(c *gin.Context) {
	caller, err := resolveCaller(c, h.authority)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	entries, err := h.services.Review.ListSubmitted(c.Request.Context(), caller)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if entries == nil {
		entries = []*models.ReviewQueueEntry{}
	}

	c.JSON(http.StatusOK, gin.H{"queue": entries})
}

// GetDetail handles GET /v1/review/:id
func (h *ReviewHandler) GetDetail(c *gin.Context) {
	caller, err := resolveCaller(c, h.authority)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	detail, err := h.services.Review.GetReviewDetail(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// updateStatusRequest is the transition payload
type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles POST /v1/review/:id/status. "approved" runs the full
// lock+publish sequence before returning.
func (h *ReviewHandler) UpdateStatus(c *gin.Context) {
	caller, err := resolveCaller(c, h.authority)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required (approved, rejected)"})
		return
	}

	draftID := c.Param("id")
	var draft *models.Draft

	switch models.DraftStatus(req.Status) {
	case models.StatusApproved:
		draft, err = h.services.Review.Approve(c.Request.Context(), caller, draftID)
	case models.StatusRejected:
		draft, err = h.services.Review.Reject(c.Request.Context(), caller, draftID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of: approved, rejected"})
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, draft)
}

// RetryPublish handles POST /v1/review/:id/retry-publish
func (h *ReviewHandler) RetryPublish(c *gin.Context) {
	caller, err := resolveCaller(c, h.authority)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	draft, err := h.services.Review.RetryPublish(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, draft)
}

// InviteWriter handles POST /v1/writers/invite
func (h *ReviewHandler) InviteWriter(c *gin.Context) {
	caller, err := resolveCaller(c, h.authority)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req service.InviteWriterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and name are required"})
		return
	}

	user, err := h.services.User.InviteWriter(c.Request.Context(), caller, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}
