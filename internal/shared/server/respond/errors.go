package respond

import (
	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Failure reports a server-side failure. The underlying error is always
// logged but only echoed to the client when expose is true.
func Failure(c *gin.Context, status int, code, message string, err error, expose bool, details any) {
	if err != nil {
		telemetry.Error("http.failure", map[string]any{
			"code":       code,
			"request_id": c.GetString("requestId"),
			"error":      err.Error(),
		})
	}
	if !expose {
		Error(c, status, code, message, nil)
		return
	}
	detail := map[string]any{}
	if err != nil {
		detail["error"] = err.Error()
	}
	if details != nil {
		detail["diagnostics"] = details
	}
	Error(c, status, code, message, detail)
}
