package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tessera-chat/tessera/internal/session"
)

// Context keys for values the middleware stores per request. Constants so
// a typo is a compile error, not a silent nil.
const (
	ContextKeyUserID     = "user_id"
	ContextKeyCredential = "credential"
)

// AuthMiddleware resolves the bearer credential through the session
// authority and stores the resulting user id on the request context.
// Handlers never see raw credentials except logout, which needs the
// credential itself to invalidate it.
func AuthMiddleware(sessions session.Authority) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format, expected: Bearer <credential>",
			})
			return
		}
		credential := parts[1]

		userID, err := sessions.Resolve(c.Request.Context(), credential)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired session",
			})
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyCredential, credential)
		c.Next()
	}
}

// RateLimit throttles a route group with a shared token bucket. Used on
// the credential endpoints where brute force is the concern.
func RateLimit(perSecond float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
			})
			return
		}
		c.Next()
	}
}

// GetUserID returns the resolved actor id for the request, or -1 when the
// middleware did not run.
func GetUserID(c *gin.Context) int64 {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return -1
	}
	id, ok := val.(int64)
	if !ok {
		return -1
	}
	return id
}

// GetCredential returns the raw bearer credential for the request.
func GetCredential(c *gin.Context) string {
	val, exists := c.Get(ContextKeyCredential)
	if !exists {
		return ""
	}
	credential, ok := val.(string)
	if !ok {
		return ""
	}
	return credential
}
