package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/metrics"
	"github.com/hostdeck/panel/backend/internal/models"
)

const (
	UserKey   = "user"
	UserIDKey = "userID"
	RoleKey   = "role"

	// SessionCookie carries the session token for browser clients.
	SessionCookie = "session_token"
)

// TokenVerifier resolves a session token to a user.
type TokenVerifier interface {
	VerifyToken(token string) (*models.User, error)
}

// LoginRecorder tracks per-IP login outcomes.
type LoginRecorder interface {
	RecordLoginAttempt(ctx context.Context, ip string, success bool)
}

// SessionToken extracts the token from the Authorization header or the
// session cookie.
func SessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware rejects requests without a valid session. It does not feed
// the ban manager: only the session exchange endpoint counts login attempts,
// so a stale cookie on a polling dashboard cannot get its owner banned.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		user, err := verifier.VerifyToken(token)
		if err != nil {
			metrics.IncLoginFailure()
			GetRequestLogger(c).WithError(err).WithField("client", c.ClientIP()).Debug("rejected session token")
			if _, cerr := c.Cookie(SessionCookie); cerr == nil {
				c.SetSameSite(http.SameSiteStrictMode)
				c.SetCookie(SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Set(RoleKey, user.Role)
		c.Next()
	}
}

// RequireRole allows the request only when the authenticated role matches.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleKey) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok
}
