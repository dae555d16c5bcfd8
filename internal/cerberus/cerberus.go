package cerberus

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hostdeck/panel/backend/internal/config"
	"github.com/hostdeck/panel/backend/internal/logger"
	"github.com/hostdeck/panel/backend/internal/metrics"
)

// BanChecker answers whether an IP is currently banned.
type BanChecker interface {
	IsIPBanned(ctx context.Context, ip string) bool
}

// Whitelist answers whether an IP bypasses the ban gate.
type Whitelist interface {
	IsWhitelisted(ip string) (bool, error)
}

// Cerberus is the request gate in front of the API. It rejects clients whose
// IP is banned unless the IP is whitelisted.
type Cerberus struct {
	cfg       config.SecurityConfig
	bans      BanChecker
	whitelist Whitelist
}

// New creates a new Cerberus instance. whitelist may be nil.
func New(cfg config.SecurityConfig, bans BanChecker, whitelist Whitelist) *Cerberus {
	return &Cerberus{cfg: cfg, bans: bans, whitelist: whitelist}
}

// IsEnabled returns whether the gate is active.
func (c *Cerberus) IsEnabled() bool {
	return c.cfg.CerberusEnabled && c.bans != nil
}

// Middleware returns a Gin middleware that enforces the ban list when enabled.
func (c *Cerberus) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !c.IsEnabled() {
			ctx.Next()
			return
		}

		ip := ctx.ClientIP()
		if c.whitelisted(ip) {
			ctx.Next()
			return
		}

		if c.bans.IsIPBanned(ctx.Request.Context(), ip) {
			logger.WithFields(logrus.Fields{
				"source":   "cerberus",
				"decision": "block",
				"client":   ip,
				"path":     ctx.Request.URL.Path,
			}).Warn("blocked request from banned IP")
			metrics.IncBlockedRequest()
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "ip banned"})
			return
		}

		ctx.Next()
	}
}

func (c *Cerberus) whitelisted(ip string) bool {
	if c.whitelist == nil {
		return false
	}
	ok, err := c.whitelist.IsWhitelisted(ip)
	if err != nil {
		// A lookup error falls through to the ban check.
		logger.Log().WithError(err).Warn("whitelist lookup failed")
		return false
	}
	return ok
}
