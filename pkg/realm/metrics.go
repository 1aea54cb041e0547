package realm

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks Prometheus metrics for realm operations.
//
// All metrics use the "sqlrealm_" prefix. Methods handle a nil receiver,
// so a nil *Metrics is a no-op when metrics are disabled.
type Metrics struct {
	// QueryDuration tracks authentication query latency, including
	// connection acquisition and release.
	// Labels: datasource
	QueryDuration *prometheus.HistogramVec

	// QueriesTotal counts authentication queries by outcome.
	// Labels: datasource, outcome=[ok, connection_unavailable, processing_fault]
	QueriesTotal *prometheus.CounterVec

	// VerificationsTotal counts credential verifications by result.
	// Labels: result=[verified, rejected, error]
	VerificationsTotal *prometheus.CounterVec

	// ReleaseFailuresTotal counts failed Close calls on database resources.
	// Labels: resource=[connection, statement, result_set]
	ReleaseFailuresTotal *prometheus.CounterVec
}

// NewMetrics creates realm metrics registered with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sqlrealm_query_duration_seconds",
				Help:    "Authentication query latency by data source",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"datasource"},
		),
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlrealm_queries_total",
				Help: "Total authentication queries by data source and outcome",
			},
			[]string{"datasource", "outcome"},
		),
		VerificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlrealm_verifications_total",
				Help: "Total credential verifications by result",
			},
			[]string{"result"},
		),
		ReleaseFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlrealm_release_failures_total",
				Help: "Total database resources whose Close call failed",
			},
			[]string{"resource"},
		),
	}
}

// ObserveQuery records one authentication query.
func (m *Metrics) ObserveQuery(dataSource string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(dataSource).Observe(duration.Seconds())
	m.QueriesTotal.WithLabelValues(dataSource, queryOutcome(err)).Inc()
}

// ObserveVerification records a verification outcome.
func (m *Metrics) ObserveVerification(verified bool, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.VerificationsTotal.WithLabelValues("error").Inc()
	case verified:
		m.VerificationsTotal.WithLabelValues("verified").Inc()
	default:
		m.VerificationsTotal.WithLabelValues("rejected").Inc()
	}
}

// ObserveReleaseFailure records a failed Close on resource.
func (m *Metrics) ObserveReleaseFailure(resource string) {
	if m == nil {
		return
	}
	m.ReleaseFailuresTotal.WithLabelValues(resource).Inc()
}

func queryOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConnectionUnavailable):
		return "connection_unavailable"
	default:
		return "processing_fault"
	}
}
