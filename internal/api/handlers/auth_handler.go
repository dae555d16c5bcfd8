package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/api/middleware"
	"github.com/hostdeck/panel/backend/internal/metrics"
	"github.com/hostdeck/panel/backend/internal/services"
)

// AuthHandler exchanges provider-issued session tokens for a panel session.
type AuthHandler struct {
	auth         *services.AuthService
	logins       middleware.LoginRecorder
	secureCookie bool
}

func NewAuthHandler(auth *services.AuthService, logins middleware.LoginRecorder, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, logins: logins, secureCookie: secureCookie}
}

// RegisterPublicRoutes registers the endpoints reachable without a session.
func (h *AuthHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/auth/session", h.Session)
	r.POST("/auth/logout", h.Logout)
}

func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/auth/me", h.Me)
}

type sessionRequest struct {
	Token string `json:"token" binding:"required"`
}

// Session verifies the token, records the login attempt for the client IP
// and sets the session cookie.
func (h *AuthHandler) Session(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token := strings.TrimSpace(req.Token)

	user, err := h.auth.VerifyToken(token)
	if h.logins != nil {
		h.logins.RecordLoginAttempt(c.Request.Context(), c.ClientIP(), err == nil)
	}
	if err != nil {
		metrics.IncLoginFailure()
		middleware.GetRequestLogger(c).WithError(err).WithField("client", c.ClientIP()).Warn("session exchange failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, token, int(services.SessionDuration.Seconds()), "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.JSON(http.StatusOK, user)
}
