// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/rollcall/rollmatch"
)

const namespace = "rollcall"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	Verifications   *prometheus.CounterVec
	MatchScores     prometheus.Histogram
	Registrations   *prometheus.CounterVec
	Ballots         *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roll_verifications_total",
			Help:      "Roll verifications by verdict.",
		}, []string{"verdict"}),
		MatchScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "roll_match_score",
			Help:      "Match scores of verifications that found a roll record.",
			Buckets:   []float64{0.2, 0.45, 0.5, 0.55, 0.75, 0.8, 1},
		}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Stored voter registrations by resulting status.",
		}, []string{"status"}),
		Ballots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ballots_total",
			Help:      "Accepted ballots, split into first votes and changed votes.",
		}, []string{"kind"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.Registry.MustRegister(
		m.Verifications,
		m.MatchScores,
		m.Registrations,
		m.Ballots,
		m.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveVerification records one rollmatch result.
func (m *Metrics) ObserveVerification(result rollmatch.VerificationResult) {
	m.Verifications.WithLabelValues(string(result.Verdict)).Inc()
	if result.Found {
		m.MatchScores.Observe(result.MatchScore)
	}
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
