package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/matthieukhl/freshmart/internal/auth"
	"github.com/matthieukhl/freshmart/internal/models"
	"github.com/matthieukhl/freshmart/internal/session"
	"github.com/matthieukhl/freshmart/internal/types"
	"go.opentelemetry.io/otel/trace"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	userKey         = "user"
	customerKey     = "customer_name"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(requestIDKey),
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			attrs = append(attrs, "trace_id", sc.TraceID().String())
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			s.logger.Error("Request completed", attrs...)
		case c.Request.URL.Path == "/api/health":
			s.logger.Debug("Request completed", attrs...)
		default:
			s.logger.Info("Request completed", attrs...)
		}
	}
}

// recovery turns a panic into a 500 envelope
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Panic recovered",
					"panic", fmt.Sprint(r),
					"path", c.Request.URL.Path,
					"request_id", c.GetString(requestIDKey))

				body := envelope{Success: false, Message: "Internal server error", Error: "Something went wrong"}
				if s.deps.Config.IsDevelopment() {
					body.Error = fmt.Sprint(r)
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()
		c.Next()
	}
}

// bearerToken reads the staff token from the auth cookie or the Authorization header
// bearerToken prefers an explicit Authorization header over the cookie
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token)
	}
	if cookie, err := c.Cookie(auth.CookieName); err == nil && cookie != "" {
		return cookie
	}
	return ""
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.deps.Auth.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// require lets the request through only when the user's role grants capability
func (s *Server) require(capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			s.respondError(c, types.Unauthenticated("server.require", "Not authenticated. Please login."))
			return
		}
		if !auth.Allows(user.Role, capability) {
			s.logger.Warn("Permission denied",
				"user_id", user.ID,
				"role", user.Role,
				"capability", capability.String())
			s.respondError(c, types.Forbidden("server.require", "You do not have permission to perform this action"))
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// requireCustomerSession rejects requests without a valid customer session
func (s *Server) requireCustomerSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(session.CookieName)
		if err != nil || raw == "" {
			s.respondError(c, types.Unauthenticated("server.requireCustomerSession",
				"Customer session required. Please enter your name."))
			return
		}

		result := s.deps.Sessions.Verify(raw)
		if !result.Valid {
			s.respondError(c, types.Unauthenticated("server.requireCustomerSession",
				"Invalid customer session. Please enter your name again."))
			return
		}

		c.Set(customerKey, result.CustomerName)
		c.Next()
	}
}

func (s *Server) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, token, maxAge, "/", "", s.deps.Config.IsProduction(), true)
}

func (s *Server) setAuthCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, maxAge, "/", "", s.deps.Config.IsProduction(), true)
}
