package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dhanavadh/aiform-backend/internal/editor"
	"github.com/dhanavadh/aiform-backend/internal/errorz"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, errorz.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errorz.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errorz.ErrForbidden), errors.Is(err, errorz.ErrQuotaExceeded):
		return http.StatusForbidden
	case errors.Is(err, errorz.ErrMalformedSchema),
		errors.Is(err, errorz.ErrEmptyExport),
		errors.Is(err, errorz.ErrEmptyEdit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errorz.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, errorz.ErrFieldIndex):
		return http.StatusBadRequest
	case errors.Is(err, errorz.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, errorz.ErrGeneration), errors.Is(err, errorz.ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the JSON error body for err. Persistence and unknown
// errors are reported generically; the detail goes to the request log.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	body := gin.H{"error": err.Error()}
	switch {
	case status == http.StatusInternalServerError:
		body["error"] = "Internal server error"
	case errors.Is(err, errorz.ErrConfirmationRequired):
		body["confirm"] = editor.DeletePrompt
	case errors.Is(err, errorz.ErrQuotaExceeded):
		body["upgrade"] = "/api/payments/checkout"
	}
	c.JSON(status, body)
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(v), true
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return v, true
}
