package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MrNobodyNowhere/secure-chat-app/internal/auth"
	"github.com/MrNobodyNowhere/secure-chat-app/pkg/response"
)

const (
	UserIDKey     = "user_id"
	UsernameKey   = "username"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// AuthMiddleware validates bearer tokens against the process-wide
// token manager.
type AuthMiddleware struct {
	tokens *auth.Manager
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(tokens *auth.Manager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth returns a Gin middleware that validates the bearer token
// and stores the caller's identity in the request context. Auth
// failures are expected client errors, not system faults.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			response.Unauthorized(c, "invalid authorization format")
			c.Abort()
			return
		}

		claims, err := m.tokens.Validate(strings.TrimPrefix(header, BearerPrefix))
		if err != nil {
			response.Unauthorized(c, "could not validate credentials")
			c.Abort()
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			response.Unauthorized(c, "could not validate credentials")
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(UsernameKey, claims.Username)

		c.Next()
	}
}

// GetUserID extracts the authenticated user ID from the Gin context.
func GetUserID(c *gin.Context) int64 {
	if id, exists := c.Get(UserIDKey); exists {
		if v, ok := id.(int64); ok {
			return v
		}
	}
	return 0
}

// GetUsername extracts the authenticated username from the Gin context.
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get(UsernameKey); exists {
		if v, ok := username.(string); ok {
			return v
		}
	}
	return ""
}
