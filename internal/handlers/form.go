package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dhanavadh/aiform-backend/internal/auth"
	"github.com/dhanavadh/aiform-backend/internal/config"
	"github.com/dhanavadh/aiform-backend/internal/editor"
	gormmodels "github.com/dhanavadh/aiform-backend/internal/models/gorm"
	"github.com/dhanavadh/aiform-backend/internal/render"
	"github.com/dhanavadh/aiform-backend/internal/schema"
	"github.com/dhanavadh/aiform-backend/internal/services"
)

type FormHandler struct {
	formService *services.FormService
	server      config.ServerConfig
}

func NewFormHandler(formService *services.FormService, server config.ServerConfig) *FormHandler {
	return &FormHandler{
		formService: formService,
		server:      server,
	}
}

type CreateFormRequest struct {
	Description string `json:"description" binding:"required"`
}

type OverwriteSchemaRequest struct {
	// Schema is either the schema object itself or a string holding it.
	Schema  json.RawMessage `json:"schema" binding:"required"`
	Version *int            `json:"version"`
}

type UpdateStyleRequest struct {
	Theme         string        `json:"theme"`
	Background    string        `json:"background"`
	Style         *render.Style `json:"style"`
	EnabledSignIn bool          `json:"enabledSignIn"`
}

type FormResponse struct {
	ID            uint         `json:"id"`
	Status        string       `json:"status"`
	Schema        *schema.Form `json:"schema,omitempty"`
	Theme         string       `json:"theme"`
	Background    string       `json:"background"`
	Style         render.Style `json:"style"`
	EnabledSignIn bool         `json:"enabledSignIn"`
	Version       int          `json:"version"`
	ShareURL      string       `json:"shareUrl"`
	EditURL       string       `json:"editUrl"`
	CreatedAt     time.Time    `json:"createdAt"`
}

type FormSummaryResponse struct {
	ID            uint      `json:"id"`
	Status        string    `json:"status"`
	Title         string    `json:"title,omitempty"`
	Subheading    string    `json:"subheading,omitempty"`
	ResponseCount int64     `json:"responseCount"`
	ShareURL      string    `json:"shareUrl"`
	EditURL       string    `json:"editUrl"`
	CreatedAt     time.Time `json:"createdAt"`
}

const (
	statusAvailable   = "available"
	statusUnavailable = "unavailable"
)

func editURL(id uint) string {
	return fmt.Sprintf("/edit-style/%d", id)
}

func (h *FormHandler) toResponse(rec *gormmodels.FormRecord) FormResponse {
	resp := FormResponse{
		ID:            rec.ID,
		Status:        statusUnavailable,
		Theme:         rec.Theme,
		Background:    rec.Background,
		Style:         render.ParseStyle(rec.Style),
		EnabledSignIn: rec.EnabledSignIn,
		Version:       rec.Version,
		ShareURL:      h.server.ShareURL(rec.ID),
		EditURL:       editURL(rec.ID),
		CreatedAt:     rec.CreatedAt,
	}
	if form, err := schema.Parse(rec.JSONForm); err == nil {
		resp.Status = statusAvailable
		resp.Schema = form
	}
	return resp
}

func (h *FormHandler) Create(c *gin.Context) {
	email, _ := auth.Email(c)

	var req CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	rec, err := h.formService.CreateFromDescription(c.Request.Context(), email, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       rec.ID,
		"editUrl":  editURL(rec.ID),
		"shareUrl": h.server.ShareURL(rec.ID),
	})
}

func (h *FormHandler) List(c *gin.Context) {
	email, _ := auth.Email(c)

	summaries, err := h.formService.ListByOwner(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]FormSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		item := FormSummaryResponse{
			ID:            s.Record.ID,
			Status:        statusUnavailable,
			ResponseCount: s.ResponseCount,
			ShareURL:      h.server.ShareURL(s.Record.ID),
			EditURL:       editURL(s.Record.ID),
			CreatedAt:     s.Record.CreatedAt,
		}
		if s.Available {
			item.Status = statusAvailable
			item.Title = s.Title
			item.Subheading = s.Subheading
		}
		out = append(out, item)
	}

	c.JSON(http.StatusOK, gin.H{"forms": out})
}

func (h *FormHandler) GetByID(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	email, _ := auth.Email(c)

	rec, err := h.formService.GetOwned(c.Request.Context(), id, email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toResponse(rec))
}

func (h *FormHandler) OverwriteSchema(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	email, _ := auth.Email(c)

	var req OverwriteSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	text := string(req.Schema)
	var quoted string
	if err := json.Unmarshal(req.Schema, &quoted); err == nil {
		text = quoted
	}

	rec, err := h.formService.OverwriteSchema(c.Request.Context(), id, email, text, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toResponse(rec))
}

func (h *FormHandler) EditField(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	index, ok := intParam(c, "index")
	if !ok {
		return
	}
	email, _ := auth.Email(c)

	var req editor.Edit
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	rec, err := h.formService.EditField(c.Request.Context(), id, email, index, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toResponse(rec))
}

func (h *FormHandler) DeleteField(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	index, ok := intParam(c, "index")
	if !ok {
		return
	}
	email, _ := auth.Email(c)

	rec, err := h.formService.DeleteField(c.Request.Context(), id, email, index, c.Query("confirm") == "true")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toResponse(rec))
}

func (h *FormHandler) UpdateStyle(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	email, _ := auth.Email(c)

	var req UpdateStyleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	style := ""
	if req.Style != nil {
		b, err := json.Marshal(req.Style)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid style"})
			return
		}
		style = string(b)
	}

	rec, err := h.formService.UpdateStyle(c.Request.Context(), id, email, services.Style{
		Theme:         req.Theme,
		Background:    req.Background,
		Style:         style,
		EnabledSignIn: req.EnabledSignIn,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toResponse(rec))
}

func (h *FormHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	email, _ := auth.Email(c)

	removed, err := h.formService.Delete(c.Request.Context(), id, email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Form deleted successfully",
		"responsesRemoved": removed,
	})
}
