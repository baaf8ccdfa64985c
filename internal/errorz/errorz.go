package errorz

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("authentication required")

	ErrMalformedSchema = errors.New("malformed form schema")
	ErrQuotaExceeded   = errors.New("form quota exceeded")
	ErrPersistence     = errors.New("persistence failure")
	ErrEmptyExport     = errors.New("nothing to export")
	ErrGateway         = errors.New("payment gateway failure")
	ErrGeneration      = errors.New("schema generation failed")

	ErrEmptyEdit            = errors.New("label and placeholder must not be empty")
	ErrConfirmationRequired = errors.New("destructive action requires confirmation")
	ErrFieldIndex           = errors.New("field index out of range")
	ErrVersionConflict      = errors.New("form was modified by another editor")
)
