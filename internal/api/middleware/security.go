package middleware

import (
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeadersConfig controls SecurityHeaders.
type SecurityHeadersConfig struct {
	// IsDevelopment relaxes the CSP for the dev server and skips HSTS.
	IsDevelopment bool
	// CustomCSPDirectives override or extend the default directives.
	CustomCSPDirectives map[string]string
}

var baseCSP = map[string]string{
	"default-src": "'self'",
	"script-src":  "'self'",
	"style-src":   "'self' 'unsafe-inline'",
	"img-src":     "'self' data: https:",
	"font-src":    "'self' data:",
	"connect-src": "'self'",
	"frame-src":   "'none'",
	"object-src":  "'none'",
	"base-uri":    "'self'",
	"form-action": "'self'",
}

var permissionsPolicy = strings.Join([]string{
	"accelerometer=()",
	"camera=()",
	"geolocation=()",
	"gyroscope=()",
	"magnetometer=()",
	"microphone=()",
	"payment=()",
	"usb=()",
}, ", ")

// SecurityHeaders sets the browser hardening headers on every response.
func SecurityHeaders(cfg SecurityHeadersConfig) gin.HandlerFunc {
	csp := buildCSP(cfg)
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Content-Security-Policy", csp)
		if !cfg.IsDevelopment {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", permissionsPolicy)
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		c.Next()
	}
}

// buildCSP renders the policy with directives in sorted order.
func buildCSP(cfg SecurityHeadersConfig) string {
	directives := make(map[string]string, len(baseCSP))
	for k, v := range baseCSP {
		directives[k] = v
	}
	if cfg.IsDevelopment {
		directives["script-src"] = "'self' 'unsafe-inline' 'unsafe-eval'"
		directives["connect-src"] = "'self' ws: wss:"
	}
	for k, v := range cfg.CustomCSPDirectives {
		directives[k] = v
	}

	keys := make([]string, 0, len(directives))
	for k := range directives {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+directives[k])
	}
	return strings.Join(parts, "; ")
}
