// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts login outcomes: success, failure, error.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})

	// RateLimited counts requests rejected by the fixed-window limiter.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_rate_limited_total",
		Help: "Requests rejected with 429 by bucket.",
	}, []string{"bucket"})

	// SessionsRevoked counts sessions removed by logout or expiry cleanup.
	SessionsRevoked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_sessions_revoked_total",
		Help: "Sessions removed by reason.",
	}, []string{"reason"})
)
