package dto

import "net/http"

// General error codes used by the HTTP layer itself
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when tenant resolution fails
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes absent from the map fall back to 400: every unmapped domain code is
// a validation or state-guard rejection caused by the request.
var errorCodeHTTPStatus = map[string]int{
	// Resource errors
	"NOT_FOUND":            http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"REFERENCE_EXHAUSTED":  http.StatusConflict,

	// Access errors
	"UNAUTHORIZED": http.StatusUnauthorized,
	"FORBIDDEN":    http.StatusForbidden,

	// Dispatch failures surface as server errors, not client mistakes
	"PDF_GENERATION_FAILED": http.StatusInternalServerError,
	"EMAIL_SEND_FAILED":     http.StatusInternalServerError,

	// Server errors
	"INTERNAL": http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for a domain error code
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusBadRequest
}
