package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsroom-publishing-api/internal/auth"
	"github.com/newsroom-publishing-api/internal/models"
	"github.com/newsroom-publishing-api/internal/service"
	"github.com/newsroom-publishing-api/internal/validation"
	"github.com/rs/zerolog"
)

// DraftHandler handles writer draft endpoints
type DraftHandler struct {
	services  *service.Services
	authority *auth.Authority
	log       zerolog.Logger
}

// NewDraftHandler creates a new DraftHandler
func NewDraftHandler(services *service.Services, authority *auth.Authority, log zerolog.Logger) *DraftHandler {
	return &DraftHandler{
		services:  services,
		authority: authority,
		log:       log.With().Str("handler", "draft").Logger(),
	}
}

// CreateDraft handles POST /v1/drafts
func (h *DraftHandler) CreateDraft(c *gin.Context) {
	caller, err := resolveCaller(c, h.authority)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var seed models.DraftUpdate
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&seed); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if verrs := validation.ValidateDraftUpdate(&seed); len(verrs) > 0 {
		respondError(c, h.log, &validation.InvalidPayloadError{Errors: verrs})
		return
	}

	draft, err := h.services.Draft.Create(c.Request.Context(), caller, &seed)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, draft)
}

// ListDrafts handles GET /v1/drafts
func (h *DraftHandler) ListDrafts(c *gin.Context) {
	caller, err := resolveCaller(c, h.authority)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	drafts, err := h.services.Draft.ListMine(c.Request.Context(), caller)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if drafts == nil {
		drafts = []*models.Draft{}
	}

	c.JSON(http.StatusOK, gin.H{"drafts": drafts})
}

// GetDraft handles GET /v1/drafts/:id
func (h *DraftHandler) GetDraft(c *gin.Context) {
	caller, err := resolveCaller(c, h.authority)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	draft, err := h.services.Draft.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, draft)
}

// AutosaveDraft handles PATCH /v1/drafts/:id
func (h *DraftHandler) AutosaveDraft(c *gin.Context) {
	caller, err := resolveCaller(c, h.authority)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var upd models.DraftUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if verrs := validation.ValidateDraftUpdate(&upd); len(verrs) > 0 {
		respondError(c, h.log, &validation.InvalidPayloadError{Errors: verrs})
		return
	}

	draft, err := h.services.Draft.Autosave(c.Request.Context(), caller, c.Param("id"), &upd)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, draft)
}

// SubmitDraft handles POST /v1/drafts/:id/submit
func (h *DraftHandler) SubmitDraft(c *gin.Context) {
	caller, err := resolveCaller(c, h.authority)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	draft, err := h.services.Review.Submit(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, draft)
}
