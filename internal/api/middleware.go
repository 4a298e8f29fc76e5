package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"videogen/internal/logging"
	"videogen/internal/services"
)

const requestIDHeader = "X-Request-ID"

// requestID honours an incoming X-Request-ID or generates one, and tags the
// request context so every log line of the job carries it.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// accessLog writes one structured line per request and feeds the HTTP metrics.
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		if s.metrics != nil {
			s.metrics.ObserveHTTP(route, status)
		}
		logger := logging.WithContext(c.Request.Context(), s.logger)
		attrs := []logging.Attr{
			logging.String("method", c.Request.Method),
			logging.String("route", route),
			logging.Int("status", status),
			logging.Duration("elapsed", time.Since(started)),
			logging.String("client_ip", c.ClientIP()),
		}
		if route == "/health" || route == "/metrics" {
			logger.Debug("http request", logging.Args(attrs...)...)
			return
		}
		logger.Info("http request", logging.Args(attrs...)...)
	}
}

// bearerAuth requires "Authorization: Bearer <token>" when token is set.
func (s *Server) bearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		auth := c.GetHeader("Authorization")
		presented, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			s.writeError(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		c.Next()
	}
}

// rateLimit applies one token bucket to the generation endpoints; rendering
// is CPU bound, so the limit is per instance rather than per client.
func (s *Server) rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			s.writeError(c, http.StatusTooManyRequests, "too many requests, please try again later")
			return
		}
		c.Next()
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.ErrorWithContext(logging.WithContext(c.Request.Context(), s.logger), "handler panic", "handler_panic",
			logging.Any("panic", recovered),
		)
		s.writeError(c, http.StatusInternalServerError, "internal error")
	})
}
