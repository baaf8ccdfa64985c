package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dhanavadh/aiform-backend/internal/auth"
	"github.com/dhanavadh/aiform-backend/internal/render"
	"github.com/dhanavadh/aiform-backend/internal/schema"
	"github.com/dhanavadh/aiform-backend/internal/services"
)

// PublicHandler serves the JSON side of a shared form for client renderers.
type PublicHandler struct {
	formService     *services.FormService
	responseService *services.ResponseService
}

func NewPublicHandler(formService *services.FormService, responseService *services.ResponseService) *PublicHandler {
	return &PublicHandler{
		formService:     formService,
		responseService: responseService,
	}
}

func (h *PublicHandler) GetForm(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	rec, err := h.formService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	form, err := schema.Parse(rec.JSONForm)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"id": rec.ID, "status": statusUnavailable})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            rec.ID,
		"status":        statusAvailable,
		"schema":        form,
		"theme":         rec.Theme,
		"background":    rec.Background,
		"style":         render.ParseStyle(rec.Style),
		"enabledSignIn": rec.EnabledSignIn,
	})
}

// SubmitResponse stores a JSON response record in the same shape as an
// HTML submission of the same form.
func (h *PublicHandler) SubmitResponse(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var record map[string]any
	if err := c.ShouldBindJSON(&record); err != nil || record == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Response must be a JSON object"})
		return
	}

	rec, err := h.formService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	form, err := schema.Parse(rec.JSONForm)
	if err != nil {
		respondError(c, err)
		return
	}

	body, err := render.FromRecord(form, record).Encode()
	if err != nil {
		respondError(c, err)
		return
	}

	email, _ := auth.Email(c)
	resp, err := h.responseService.Submit(c.Request.Context(), id, email, string(body))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      resp.ID,
		"message": "Response submitted successfully",
	})
}
