package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostdeck_http_requests_total",
		Help: "Total number of HTTP requests handled, by method and status class",
	}, []string{"method", "status"})
	httpErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostdeck_http_errors_total",
		Help: "Total number of HTTP requests that ended with a 5xx status",
	})
	bansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostdeck_ip_bans_total",
		Help: "Total number of IP bans, by origin (automatic or manual)",
	}, []string{"origin"})
	unbansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostdeck_ip_unbans_total",
		Help: "Total number of IP bans lifted manually or by expiry",
	})
	blockedRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostdeck_blocked_requests_total",
		Help: "Total number of requests rejected because the client IP is banned",
	})
	loginFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostdeck_login_failures_total",
		Help: "Total number of failed session verifications",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(httpRequestsTotal, httpErrorsTotal, bansTotal, unbansTotal, blockedRequestsTotal, loginFailuresTotal)
}

// IncHTTPRequest counts one handled request. status is a class such as "2xx".
func IncHTTPRequest(method, status string) { httpRequestsTotal.WithLabelValues(method, status).Inc() }

// IncHTTPError counts one request that ended with a server error.
func IncHTTPError() { httpErrorsTotal.Inc() }

// IncBan counts a new ban.
func IncBan(automatic bool) {
	origin := "manual"
	if automatic {
		origin = "automatic"
	}
	bansTotal.WithLabelValues(origin).Inc()
}

func IncUnban() { unbansTotal.Inc() }

// IncBlockedRequest counts a request rejected for a banned IP.
func IncBlockedRequest() { blockedRequestsTotal.Inc() }

func IncLoginFailure() { loginFailuresTotal.Inc() }
