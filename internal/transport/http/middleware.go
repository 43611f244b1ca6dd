package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hexpanel/usdt-reconciler/internal/utils/config"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
	"github.com/hexpanel/usdt-reconciler/internal/view"
)

const (
	apiKeyHeader    = "X-Api-Key"
	requestIDHeader = "X-Request-Id"
)

// apiKeyMiddleware guards operational endpoints with the shared panel key.
func apiKeyMiddleware(appConfig *config.AppConfig, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(apiKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(appConfig.ApiServer.ApiKey)) != 1 {
			logger.Error("[apiKeyMiddleware] rejected request", map[string]string{
				"path": c.FullPath(),
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				view.CreateResponse[any](nil, nil, "invalid api key"))
			return
		}
		c.Next()
	}
}

// requestIDMiddleware tags every request so log lines can be correlated with
// the panel's own request logs.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}
