package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
)

// errorResponse is the error body every endpoint uses; the client reads
// code and message from it.
type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func respondError(c *gin.Context, httpStatus int, code, message string) {
	c.AbortWithStatusJSON(httpStatus, errorResponse{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
