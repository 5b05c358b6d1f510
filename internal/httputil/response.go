// Package httputil holds the JSON error envelope shared by handlers and
// middleware.
package httputil

import "github.com/gin-gonic/gin"

// RequestIDKey is the gin context key holding the canonical request ID.
const RequestIDKey = "request_id"

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RequestID returns the request ID stored on c, or "".
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// RespondError aborts c with status and an ErrorBody.
func RespondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: RequestID(c),
	})
}
