package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// OTPIssued counts registration OTP codes issued.
	OTPIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prism_otp_issued_total",
			Help: "Total number of registration OTP codes issued",
		},
	)

	// EmailsSent counts outbound emails by kind (otp|reset|activity) and result.
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_emails_sent_total",
			Help: "Total number of outbound emails",
		},
		[]string{"kind", "result"},
	)

	// ActiveAssociations tracks active user-worklet associations.
	ActiveAssociations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prism_active_associations",
			Help: "Number of active user-worklet associations",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prism_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
