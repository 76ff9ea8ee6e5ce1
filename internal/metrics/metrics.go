// Package metrics exposes Prometheus instrumentation for the captcha
// lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "captcha_sessions_created_total",
		Help: "Total number of captcha sessions created.",
	})

	ChallengesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "captcha_challenges_issued_total",
		Help: "Total number of captcha challenges issued, including re-issues.",
	})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "captcha_verifications_total",
		Help: "Total number of verification attempts by outcome.",
	}, []string{"result"})

	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "captcha_sessions_swept_total",
		Help: "Total number of expired sessions removed by the cleanup job.",
	})
)

// RegisterActiveSessions registers a gauge backed by the session table size.
func RegisterActiveSessions(count func() int) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "captcha_sessions_active",
		Help: "Number of sessions currently held in the session table.",
	}, func() float64 {
		return float64(count())
	}))
}
