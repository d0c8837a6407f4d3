package middleware

import (
	"time"

	"github.com/annel0/parkour-course/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDKey ключ trace-id в gin.Context
const TraceIDKey = "trace_id"

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи.
type RequestLogger struct {
	log *logging.Logger
}

func NewRequestLogger(log *logging.Logger) *RequestLogger {
	if log == nil {
		log = logging.GetAPILogger()
	}
	return &RequestLogger{log: log}
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Пытаемся извлечь trace-id из OpenTelemetry, если уже создан.
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set(TraceIDKey, traceID)
		c.Header("X-Trace-Id", traceID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		reqLog := rl.log.With("trace", traceID)

		reqLog.Debug("[HTTP] ▶ %s %s ip=%s", method, path, c.ClientIP())

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		if status >= 500 {
			reqLog.Warn("[HTTP] ◀ %s %s %d %s", method, path, status, latency)
			return
		}
		reqLog.Info("[HTTP] ◀ %s %s %d %s", method, path, status, latency)
	}
}
