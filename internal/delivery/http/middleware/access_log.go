package middleware

import (
	"strconv"
	"time"

	"learnfinity/internal/metrics"
	"learnfinity/internal/pkg/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const (
	HeaderRequestID   = "X-Request-ID"
	CtxRequestIDKey   = "request_id"
	maxRequestIDBytes = 128
)

type AccessLogMiddleware struct {
	log *logger.Logger
}

func NewAccessLogMiddleware(log *logger.Logger) *AccessLogMiddleware {
	if log == nil {
		log = logger.Nop()
	}
	return &AccessLogMiddleware{log: log}
}

func (m *AccessLogMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		rid := c.Get(HeaderRequestID)
		if rid == "" || len(rid) > maxRequestIDBytes {
			rid = uuid.NewString()
		}
		c.Set(HeaderRequestID, rid)
		c.Locals(CtxRequestIDKey, rid)

		err := c.Next()

		status := c.Response().StatusCode()
		elapsed := time.Since(start)
		route := c.Route().Path
		metrics.HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Method(), route).Observe(elapsed.Seconds())

		kv := []interface{}{
			"request_id", rid,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency_ms", elapsed.Milliseconds(),
			"ip", c.IP(),
			"req_bytes", c.Request().Header.ContentLength(),
			"resp_bytes", len(c.Response().Body()),
			"ua", c.Get("User-Agent"),
		}
		if uid, ok := c.Locals(CtxUserIDKey).(uuid.UUID); ok {
			kv = append(kv, "user_id", uid)
		}

		switch {
		case status >= 500:
			m.log.Error("http access", kv...)
		case status >= 400:
			m.log.Warn("http access", kv...)
		default:
			m.log.Info("http access", kv...)
		}
		return err
	}
}

func RequestID(c fiber.Ctx) string {
	rid, _ := c.Locals(CtxRequestIDKey).(string)
	return rid
}
