package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/aescanero/itemapi/pkg/adapters/metrics/prometheus"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader carries the per-request correlation ID
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
)

// requestID reuses a client supplied ID or generates one
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)

		c.Next()
	}
}

// requestLogger is a middleware for request logging
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		duration := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDKey)))
	}
}

// requestMetrics records request counts and latency by route template
func requestMetrics(metrics *prometheus.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// recovery turns a panic into a 500 with the standard error body, unless
// the response has already been sent
func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Stack("stack"))

		if c.Writer.Written() {
			c.Abort()
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    CodeInternal,
				Message: "Internal server error",
			},
		})
	})
}

// OriginMatcher decides whether a browser origin may call the API.
// Patterns are exact origins, "*", or a scheme with a single wildcard
// label such as "https://*.vercel.app".
type OriginMatcher struct {
	anyOrigin bool
	exact     map[string]bool
	suffixes  []wildcard
}

type wildcard struct {
	prefix string
	suffix string
}

// NewOriginMatcher builds a matcher from the configured patterns
func NewOriginMatcher(patterns []string) *OriginMatcher {
	m := &OriginMatcher{exact: make(map[string]bool)}

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
		case p == "*":
			m.anyOrigin = true
		case strings.Contains(p, "*"):
			prefix, suffix, _ := strings.Cut(p, "*")
			m.suffixes = append(m.suffixes, wildcard{prefix: prefix, suffix: suffix})
		default:
			m.exact[strings.TrimRight(p, "/")] = true
		}
	}

	return m
}

// Allowed reports whether origin matches one of the patterns
func (m *OriginMatcher) Allowed(origin string) bool {
	if m == nil || origin == "" {
		return false
	}
	if m.anyOrigin || m.exact[origin] {
		return true
	}

	for _, w := range m.suffixes {
		if !strings.HasPrefix(origin, w.prefix) || !strings.HasSuffix(origin, w.suffix) {
			continue
		}
		label := origin[len(w.prefix) : len(origin)-len(w.suffix)]
		if label != "" && !strings.ContainsAny(label, "./:") {
			return true
		}
	}

	return false
}

// corsMiddleware echoes allowed origins and answers preflight requests
func corsMiddleware(origins *OriginMatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if origins.Allowed(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Content-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
