package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "opencourse", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "opencourse", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	OTPIssued = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "opencourse", Name: "otp_issued_total", Help: "Number of one-time passcodes issued."},
	)
	OTPVerified = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "opencourse", Name: "otp_verified_total", Help: "Number of OTP verification attempts by result."},
		[]string{"result"},
	)
	Logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "opencourse", Name: "logins_total", Help: "Number of successful logins by method."},
		[]string{"method"},
	)
	TokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "opencourse", Name: "token_refreshes_total", Help: "Number of access-token refreshes by result."},
		[]string{"result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(OTPIssued)
	reg.MustRegister(OTPVerified)
	reg.MustRegister(Logins)
	reg.MustRegister(TokenRefreshes)
}
