package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dhanavadh/aiform-backend/internal/auth"
	"github.com/dhanavadh/aiform-backend/internal/export"
	"github.com/dhanavadh/aiform-backend/internal/pdf"
	"github.com/dhanavadh/aiform-backend/internal/render"
	"github.com/dhanavadh/aiform-backend/internal/schema"
	"github.com/dhanavadh/aiform-backend/internal/services"
)

type ResponseHandler struct {
	formService     *services.FormService
	responseService *services.ResponseService
	exportService   *services.ExportService
	printer         pdf.Printer
}

func NewResponseHandler(formService *services.FormService, responseService *services.ResponseService, exportService *services.ExportService, printer pdf.Printer) *ResponseHandler {
	return &ResponseHandler{
		formService:     formService,
		responseService: responseService,
		exportService:   exportService,
		printer:         printer,
	}
}

// ResponseItem carries the stored response as JSON when it parses and as
// the raw text otherwise.
type ResponseItem struct {
	ID        uint      `json:"id"`
	Response  any       `json:"response"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *ResponseHandler) List(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	email, _ := auth.Email(c)

	records, err := h.responseService.ListOwned(c.Request.Context(), id, email)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]ResponseItem, 0, len(records))
	for _, r := range records {
		var body any = r.JSONResponse
		if json.Valid([]byte(r.JSONResponse)) {
			body = json.RawMessage(r.JSONResponse)
		}
		items = append(items, ResponseItem{
			ID:        r.ID,
			Response:  body,
			CreatedBy: r.CreatedBy,
			CreatedAt: r.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"count":     len(items),
		"responses": items,
	})
}

// Export sends the xlsx file, or with ?destination=gcs a signed link to a
// stored copy.
func (h *ResponseHandler) Export(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	email, _ := auth.Email(c)

	artifact, err := h.exportService.Build(c.Request.Context(), id, email)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("destination") == "gcs" {
		url, err := h.exportService.Upload(c.Request.Context(), id, artifact)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"url":      url,
			"filename": artifact.Filename,
			"rows":     len(artifact.Table.Rows),
			"dropped":  artifact.Table.Dropped,
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, artifact.Filename))
	c.Data(http.StatusOK, services.XLSXContentType, artifact.Data)
}

// PDF prints the public rendering of a form.
func (h *ResponseHandler) PDF(c *gin.Context) {
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

	form, err := schema.Parse(rec.JSONForm)
	if err != nil {
		respondError(c, err)
		return
	}

	view := styledView(rec)
	view.Action = publicAction(rec.ID)

	var buf bytes.Buffer
	if err := render.Render(&buf, form, render.Mode{SubmissionDisabled: true}, view); err != nil {
		respondError(c, err)
		return
	}

	pdfBytes, err := h.printer.Print(c.Request.Context(), buf.String())
	if err != nil {
		respondError(c, err)
		return
	}

	filename := strings.TrimSuffix(export.Filename(form), ".xlsx") + ".pdf"
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
