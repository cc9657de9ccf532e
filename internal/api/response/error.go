package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wonny/sectorwatch/internal/domain/quote"
	"github.com/wonny/sectorwatch/internal/domain/watchlist"
	"github.com/wonny/sectorwatch/internal/pkg/reqctx"
)

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details
type ErrorDetail struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Details   string       `json:"details,omitempty"`
	RequestID string       `json:"request_id"`
	Timestamp time.Time    `json:"timestamp"`
	Fields    []FieldError `json:"fields,omitempty"`
}

// FieldError represents a field-level validation error
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrCodeInvalidParameter = "INVALID_PARAMETER"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnauthorized     = "UNAUTHORIZED"

	ErrCodeSectorNotFound  = "SECTOR_NOT_FOUND"
	ErrCodeEmptyCandidates = "EMPTY_CANDIDATES"

	ErrCodeDatabaseError    = "DATABASE_ERROR"
	ErrCodeExternalAPIError = "EXTERNAL_API_ERROR"
)

// Error sends an error response
func Error(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	ErrorWithDetails(w, r, statusCode, code, message, "")
}

// ErrorWithDetails sends an error response with additional details
func ErrorWithDetails(w http.ResponseWriter, r *http.Request, statusCode int, code, message, details string) {
	writeError(w, r, statusCode, ErrorDetail{Code: code, Message: message, Details: details})
}

// ValidationError sends a 400 with field errors
func ValidationError(w http.ResponseWriter, r *http.Request, fields []FieldError) {
	message := "Request validation failed"
	if len(fields) == 1 {
		message = fields[0].Field + " " + fields[0].Message
	}
	writeError(w, r, http.StatusBadRequest, ErrorDetail{
		Code:    ErrCodeValidation,
		Message: message,
		Fields:  fields,
	})
}

// BadRequest sends a 400 Bad Request error
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusBadRequest, ErrCodeInvalidParameter, message)
}

// NotFound sends a 404 Not Found error
func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusNotFound, ErrCodeNotFound, message)
}

// Unauthorized sends a 401 Unauthorized error
func Unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// InternalError sends a 500 Internal Server Error
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	details := ""
	if err != nil {
		details = err.Error()
	}
	ErrorWithDetails(w, r, http.StatusInternalServerError, ErrCodeInternalServer, "An unexpected error occurred", details)
}

// DatabaseError sends a database error response
func DatabaseError(w http.ResponseWriter, r *http.Request, err error) {
	details := ""
	if err != nil {
		details = err.Error()
	}
	ErrorWithDetails(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "Database operation failed", details)
}

// ExternalAPIError sends an external API error response
func ExternalAPIError(w http.ResponseWriter, r *http.Request, serviceName string, err error) {
	message := "External service error"
	if serviceName != "" {
		message = serviceName + " service error"
	}
	details := ""
	if err != nil {
		details = err.Error()
	}
	ErrorWithDetails(w, r, http.StatusBadGateway, ErrCodeExternalAPIError, message, details)
}

// FromError maps a service error to its HTTP response
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *watchlist.ValidationError
	switch {
	case errors.As(err, &verr):
		ValidationError(w, r, []FieldError{{Field: verr.Field, Message: verr.Message}})
	case errors.Is(err, watchlist.ErrValidation):
		Error(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, watchlist.ErrWatchlistNotFound):
		NotFound(w, r, "Watchlist not found")
	case errors.Is(err, watchlist.ErrItemNotFound):
		NotFound(w, r, "Watchlist item not found")
	case errors.Is(err, watchlist.ErrUnknownSector):
		Error(w, r, http.StatusNotFound, ErrCodeSectorNotFound, "No companies found for this sector")
	case errors.Is(err, watchlist.ErrEmptyCandidates):
		Error(w, r, http.StatusConflict, ErrCodeEmptyCandidates, "No new companies left to add from this sector")
	case errors.Is(err, quote.ErrSymbolNotFound):
		NotFound(w, r, "Symbol not found")
	case errors.Is(err, quote.ErrUpstreamUnavailable):
		ExternalAPIError(w, r, "Quote provider", err)
	default:
		DatabaseError(w, r, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, detail ErrorDetail) {
	detail.RequestID = reqctx.RequestID(r.Context())
	detail.Timestamp = time.Now()

	event := log.Warn()
	if statusCode >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.
		Str("request_id", detail.RequestID).
		Str("error_code", detail.Code).
		Str("message", detail.Message).
		Str("details", detail.Details).
		Int("status", statusCode).
		Msg("API error response")

	JSON(w, statusCode, ErrorResponse{Error: detail})
}
