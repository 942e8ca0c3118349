// Package apierr implements the JSON error envelope returned by every
// non-2xx API response. Internal diagnostics stay server-side; only the
// code and a human-readable message reach the client.
package apierr

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Code is an application-level error code. The set is closed; clients
// switch on these values.
type Code string

const (
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeValidationError      Code = "VALIDATION_ERROR"
	CodeResourceNotFound     Code = "RESOURCE_NOT_FOUND"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"
	CodeAIServiceUnavailable Code = "AI_SERVICE_UNAVAILABLE"
	CodeInternalError        Code = "INTERNAL_ERROR"
)

// Detail points a validation message at a specific request field.
type Detail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Body is the envelope serialized on error responses.
type Body struct {
	Error Payload `json:"error"`
}

// Payload carries the error itself. ID is a fresh UUID per response so
// users can quote it when reporting problems.
type Payload struct {
	ID      string   `json:"id"`
	Code    Code     `json:"code"`
	Message string   `json:"message"`
	Details []Detail `json:"details,omitempty"`
}

// New builds an envelope with a generated error id.
func New(code Code, message string, details ...Detail) Body {
	return Body{
		Error: Payload{
			ID:      uuid.New().String(),
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// Respond writes the envelope with the given status and aborts the
// handler chain.
func Respond(c *gin.Context, status int, code Code, message string, details ...Detail) {
	c.AbortWithStatusJSON(status, New(code, message, details...))
}

// Convenience writers for the common status/code pairings.

func BadRequest(c *gin.Context, message string, details ...Detail) {
	Respond(c, http.StatusBadRequest, CodeValidationError, message, details...)
}

func Unauthorized(c *gin.Context, message string) {
	Respond(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

func NotFound(c *gin.Context, message string) {
	Respond(c, http.StatusNotFound, CodeResourceNotFound, message)
}

func Internal(c *gin.Context, message string) {
	Respond(c, http.StatusInternalServerError, CodeInternalError, message)
}

func Unavailable(c *gin.Context, message string) {
	Respond(c, http.StatusServiceUnavailable, CodeAIServiceUnavailable, message)
}
