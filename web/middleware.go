// ABOUTME: Gin middleware for request logging and panic recovery
// ABOUTME: Tags every request with a request id and logs it through logrus
package web

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-Id"

const loggerKey = "logger"

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(requestIDHeader, requestID)

		entry := log.WithFields(logrus.Fields{
			"request-id": requestID,
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
		})
		c.Set(loggerKey, entry)

		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"duration":     time.Since(start),
			"status-code":  status,
			"status-class": status / 100,
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		if status >= http.StatusInternalServerError {
			entry.WithFields(fields).Error("request completed")
		} else {
			entry.WithFields(fields).Info("request completed")
		}
	}
}

func recovery(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				logger(c, log).WithFields(logrus.Fields{
					"panic": recovered,
					"stack": string(debug.Stack()),
				}).Error("panic recovered in request handler")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			}
		}()
		c.Next()
	}
}

// logger returns the request-scoped logger, or fallback outside a request.
func logger(c *gin.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(logrus.FieldLogger); ok {
			return l
		}
	}
	return fallback
}
