package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dhanavadh/aiform-backend/internal/auth"
	"github.com/dhanavadh/aiform-backend/internal/editor"
	"github.com/dhanavadh/aiform-backend/internal/errorz"
	gormmodels "github.com/dhanavadh/aiform-backend/internal/models/gorm"
	"github.com/dhanavadh/aiform-backend/internal/render"
	"github.com/dhanavadh/aiform-backend/internal/schema"
	"github.com/dhanavadh/aiform-backend/internal/services"
)

const (
	submitSuccessMessage = "Response submitted successfully !!!"
	submitFailureMessage = "Error while saving your form. Please try again."
	signInMessage        = "Sign in before submitting this form."
)

// PageHandler serves the server-rendered public form and the field editor.
type PageHandler struct {
	formService     *services.FormService
	responseService *services.ResponseService
	signInURL       string
	logger          *zap.Logger
}

func NewPageHandler(formService *services.FormService, responseService *services.ResponseService, signInURL string, logger *zap.Logger) *PageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageHandler{
		formService:     formService,
		responseService: responseService,
		signInURL:       signInURL,
		logger:          logger,
	}
}

func publicAction(id uint) string {
	return fmt.Sprintf("/aiform/%d", id)
}

func styledView(rec *gormmodels.FormRecord) render.View {
	return render.View{
		FormID:     rec.ID,
		Theme:      rec.Theme,
		Background: rec.Background,
		Style:      render.ParseStyle(rec.Style),
		EditIndex:  -1,
	}
}

func writeHTML(c *gin.Context, status int, fn func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Failed to render form")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (h *PageHandler) notFound(c *gin.Context, err error) bool {
	if errors.Is(err, errorz.ErrNotFound) {
		c.String(http.StatusNotFound, "Form not found")
		return true
	}
	return false
}

// PublicForm renders a fillable form at its share URL.
func (h *PageHandler) PublicForm(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	rec, err := h.formService.GetByID(c.Request.Context(), id)
	if err != nil {
		if !h.notFound(c, err) {
			_ = c.Error(err)
			c.String(http.StatusInternalServerError, "Failed to load form")
		}
		return
	}

	h.renderPublic(c, http.StatusOK, rec, nil, nil)
}

// SubmitForm stores an urlencoded submission. On failure the page comes back
// with everything the respondent entered.
func (h *PageHandler) SubmitForm(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	rec, err := h.formService.GetByID(c.Request.Context(), id)
	if err != nil {
		if !h.notFound(c, err) {
			_ = c.Error(err)
			c.String(http.StatusInternalServerError, "Failed to load form")
		}
		return
	}

	form, err := schema.Parse(rec.JSONForm)
	if err != nil {
		writeHTML(c, http.StatusUnprocessableEntity, func(buf *bytes.Buffer) error {
			return render.RenderUnavailable(buf, rec.ID)
		})
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "Invalid form submission")
		return
	}
	values := render.FromValues(form, c.Request.PostForm)

	body, err := values.Encode()
	if err != nil {
		h.renderPublic(c, http.StatusInternalServerError, rec, values, &render.Notice{Kind: render.NoticeError, Message: submitFailureMessage})
		return
	}

	email, _ := auth.Email(c)
	if _, err := h.responseService.Submit(c.Request.Context(), rec.ID, email, body); err != nil {
		_ = c.Error(err)
		message := submitFailureMessage
		if errors.Is(err, errorz.ErrUnauthenticated) {
			message = signInMessage
		}
		h.renderPublic(c, statusFor(err), rec, values, &render.Notice{Kind: render.NoticeError, Message: message})
		return
	}

	values.Reset()
	h.renderPublic(c, http.StatusCreated, rec, values, &render.Notice{Kind: render.NoticeSuccess, Message: submitSuccessMessage})
}

func (h *PageHandler) renderPublic(c *gin.Context, status int, rec *gormmodels.FormRecord, values *render.Collector, notice *render.Notice) {
	form, err := schema.Parse(rec.JSONForm)
	if err != nil {
		h.logger.Warn("stored schema does not parse", zap.Uint("formId", rec.ID), zap.Error(err))
		writeHTML(c, http.StatusOK, func(buf *bytes.Buffer) error {
			return render.RenderUnavailable(buf, rec.ID)
		})
		return
	}

	_, authenticated := auth.Email(c)
	view := styledView(rec)
	view.Action = publicAction(rec.ID)
	view.Authenticated = authenticated
	view.SignInURL = h.signInURL
	view.Notice = notice
	view.Values = values

	writeHTML(c, status, func(buf *bytes.Buffer) error {
		return render.Render(buf, form, render.Mode{RequireSignIn: rec.EnabledSignIn}, view)
	})
}

// EditPage renders the owner's form with edit and delete controls per field.
func (h *PageHandler) EditPage(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	email, _ := auth.Email(c)

	rec, err := h.formService.GetOwned(c.Request.Context(), id, email)
	if err != nil {
		if !h.notFound(c, err) {
			_ = c.Error(err)
			c.String(http.StatusInternalServerError, "Failed to load form")
		}
		return
	}

	h.renderEditor(c, http.StatusOK, rec, func(*render.View) {})
}

// EditFieldForm applies the label/placeholder edit posted from the editor.
func (h *PageHandler) EditFieldForm(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	index, ok := intParam(c, "index")
	if !ok {
		return
	}
	email, _ := auth.Email(c)

	edit := editor.Edit{Label: c.PostForm("label"), Placeholder: c.PostForm("placeholder")}
	_, err := h.formService.EditField(c.Request.Context(), id, email, index, edit)
	if err != nil {
		h.editorError(c, id, email, err, func(v *render.View) {
			v.EditIndex = index
			v.EditError = err.Error()
			v.EditLabel = edit.Label
			v.EditPlaceholder = edit.Placeholder
		})
		return
	}

	c.Redirect(http.StatusSeeOther, editURL(id))
}

// DeleteFieldForm removes a field once the confirm flag is posted.
func (h *PageHandler) DeleteFieldForm(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	index, ok := intParam(c, "index")
	if !ok {
		return
	}
	email, _ := auth.Email(c)

	_, err := h.formService.DeleteField(c.Request.Context(), id, email, index, c.PostForm("confirm") == "true")
	if err != nil {
		h.editorError(c, id, email, err, func(v *render.View) {
			message := err.Error()
			if errors.Is(err, errorz.ErrConfirmationRequired) {
				message = editor.DeletePrompt
			}
			v.Notice = &render.Notice{Kind: render.NoticeError, Message: message}
		})
		return
	}

	c.Redirect(http.StatusSeeOther, editURL(id))
}

func (h *PageHandler) editorError(c *gin.Context, id uint, email string, cause error, decorate func(*render.View)) {
	_ = c.Error(cause)
	rec, err := h.formService.GetOwned(c.Request.Context(), id, email)
	if err != nil {
		if !h.notFound(c, err) {
			c.String(http.StatusInternalServerError, "Failed to load form")
		}
		return
	}
	h.renderEditor(c, statusFor(cause), rec, decorate)
}

func (h *PageHandler) renderEditor(c *gin.Context, status int, rec *gormmodels.FormRecord, decorate func(*render.View)) {
	form, err := schema.Parse(rec.JSONForm)
	if err != nil {
		writeHTML(c, http.StatusOK, func(buf *bytes.Buffer) error {
			return render.RenderUnavailable(buf, rec.ID)
		})
		return
	}

	view := styledView(rec)
	view.EditAction = editURL(rec.ID)
	decorate(&view)

	writeHTML(c, status, func(buf *bytes.Buffer) error {
		return render.Render(buf, form, render.Mode{Editable: true, SubmissionDisabled: true}, view)
	})
}
