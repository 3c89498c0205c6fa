package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	UploadsInitiated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "docuflow", Name: "uploads_initiated_total", Help: "Number of upload sessions created."},
	)
	UploadsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "docuflow", Name: "uploads_confirmed_total", Help: "Number of uploads promoted to documents."},
	)
	UploadConfirmFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docuflow", Name: "upload_confirm_failures_total", Help: "Number of failed confirmation attempts by reason."},
		[]string{"reason"},
	)
	SignedURLsIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docuflow", Name: "signed_urls_issued_total", Help: "Number of signed URLs issued by operation."},
		[]string{"op"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docuflow", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docuflow", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(UploadsInitiated)
	reg.MustRegister(UploadsConfirmed)
	reg.MustRegister(UploadConfirmFailures)
	reg.MustRegister(SignedURLsIssued)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
