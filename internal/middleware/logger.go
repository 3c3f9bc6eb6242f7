package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"equiprent/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RequestObserver records request latency; *metrics.Metrics satisfies it.
type RequestObserver interface {
	ObserveRequest(method, route, status string, seconds float64)
}

// RequestID reuses the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs every request through zap, recovers from panics and
// reports latency to obs when it is non-nil.
func RequestLogger(log *zap.Logger, obs RequestObserver) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Error("panic recovered",
					append(requestFields(c, start),
						zap.Error(fmt.Errorf("%v", recovered)),
						zap.ByteString("stack", debug.Stack()),
					)...,
				)
				response.Abort(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal Server Error")
			}

			status := c.Writer.Status()
			if obs != nil {
				route := c.FullPath()
				if route == "" {
					route = "unmatched"
				}
				obs.ObserveRequest(c.Request.Method, route, strconv.Itoa(status), time.Since(start).Seconds())
			}

			fields := requestFields(c, start)
			for _, e := range c.Errors {
				fields = append(fields, zap.NamedError("error", e.Err))
			}

			switch {
			case status >= http.StatusInternalServerError:
				log.Error("request failed", fields...)
			case len(c.Errors) > 0:
				log.Warn("request error", fields...)
			default:
				log.Info("request", fields...)
			}
		}()

		c.Next()
	}
}

func requestFields(c *gin.Context, start time.Time) []zap.Field {
	return []zap.Field{
		zap.String("request_id", c.GetString("request_id")),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.String("client_ip", c.ClientIP()),
		zap.Int64("user_id", c.GetInt64("user_id")),
		zap.String("role", c.GetString("role")),
		zap.Duration("latency", time.Since(start)),
	}
}
