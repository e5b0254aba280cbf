package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/javiermolinar/weekplan/internal/api"
	"github.com/javiermolinar/weekplan/internal/auth"
)

const (
	headerRequestID = "X-Request-ID"
	userKey         = "weekplan.user"
	tokenKey        = "weekplan.token"
)

// requestLogger logs one line per request.
func (srv *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(headerRequestID, reqID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", reqID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if u, ok := currentUser(c); ok {
			fields = append(fields, zap.String("user_id", u.ID))
		}
		if c.Writer.Status() >= 500 {
			srv.logger.Warn("request", fields...)
			return
		}
		srv.logger.Info("request", fields...)
	}
}

// rateLimit rejects clients that exceed their per-IP budget.
func (srv *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := srv.limiter.Allow(c.ClientIP()); err != nil {
			srv.logger.Debug("rate limited", zap.String("client_ip", c.ClientIP()))
			fail(c, http.StatusTooManyRequests, api.CodeRateLimited, "Too many requests", nil)
			return
		}
		c.Next()
	}
}

// requireUser resolves the bearer token to a user or responds 401.
func (srv *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c)
			return
		}
		u, err := srv.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			srv.writeError(c, err)
			return
		}
		c.Set(userKey, u)
		c.Set(tokenKey, token)
		c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), u))
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func currentUser(c *gin.Context) (auth.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return auth.User{}, false
	}
	u, ok := v.(auth.User)
	return u, ok
}
