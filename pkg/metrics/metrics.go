package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "stdtrack", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "stdtrack", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	LineageOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "stdtrack", Name: "lineage_ops_total", Help: "Number of document lineage operations by op and outcome."},
		[]string{"op", "outcome"},
	)
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "stdtrack", Name: "uploads_total", Help: "Number of document uploads by kind."},
		[]string{"kind"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(LineageOps)
	reg.MustRegister(UploadsTotal)
}
