// Package metrics defines and registers all custom Prometheus metrics for the
// identity API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default Prometheus registry at import time via
// promauto; expose them by mounting promhttp on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// LoginAttemptsTotal counts login attempts by outcome.
// Label:
//   - outcome: "success", "rejected" (invalid credentials), or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// OTPVerificationsTotal counts second-factor verifications.
// Label:
//   - outcome: "success", "rejected" (bad or expired code), or "error"
var OTPVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verifications_total",
		Help:      "Total number of OTP verification attempts, by outcome.",
	},
	[]string{"outcome"},
)

// PasswordResetsTotal counts reset-flow activity.
// Label:
//   - stage: "requested", "completed", or "rejected"
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of password reset requests and consumptions, by stage.",
	},
	[]string{"stage"},
)

// TokensBlacklistedTotal counts tokens written to the blacklist (logouts and
// consumed reset tokens).
var TokensBlacklistedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_blacklisted_total",
		Help:      "Total number of tokens written to the blacklist.",
	},
)

// LoginDuration measures the full login operation, including the bcrypt
// comparison and OTP dispatch.
var LoginDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "login_duration_seconds",
		Help:      "Duration of login requests from bind to response.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)
