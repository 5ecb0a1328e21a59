package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/codemap/internal/common"
	"github.com/dmitrijs2005/codemap/internal/logging"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

func (s *Server) accessTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeader)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			respondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "missing bearer token")
			return
		}

		userID, err := s.users.Authenticate(token)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				respondError(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "access token expired")
				return
			}
			respondError(c, http.StatusUnauthorized, "INVALID_TOKEN", "invalid access token")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func loggingMiddleware(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetHeader(common.RequestIDHeader),
		)
	}
}

// latencyMiddleware delays every response by d, giving up early when the
// client goes away.
func latencyMiddleware(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			c.Next()
		case <-c.Request.Context().Done():
			c.Abort()
		}
	}
}
