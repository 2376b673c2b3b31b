package handlers

import (
	"net/http"

	"apiscaffold/internal/domain"

	"github.com/gin-gonic/gin"
)

// RespondError sends an error envelope with a plain message.
func RespondError(c *gin.Context, status int, message string, err error) {
	errs := gin.H{"error": message}
	if err != nil {
		errs["error"] = "#Message: " + err.Error()
	}
	writeResponse(c, Response{
		StatusCode:   status,
		ResponseCode: domain.ResponseCodeInternalError,
		Message:      message,
		Errors:       errs,
	})
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		RespondError(c, http.StatusBadRequest, "Request body is empty.", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "Invalid payload.", err)
		return false
	}
	return true
}
