// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttendanceMarks counts ledger writes by outcome.
	AttendanceMarks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollbook",
		Name:      "attendance_marks_total",
		Help:      "Ledger writes by outcome (created, updated).",
	}, []string{"outcome"})

	// Reports counts report requests by kind and cache hit or miss.
	Reports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollbook",
		Name:      "reports_total",
		Help:      "Generated reports by kind and cache result.",
	}, []string{"kind", "cache"})

	// ReportDuration times report builds on a cache miss.
	ReportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rollbook",
		Name:      "report_duration_seconds",
		Help:      "Time spent building reports on a cache miss.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	// EventsConsumed counts queue messages by type and handling result.
	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollbook",
		Name:      "events_consumed_total",
		Help:      "Queue messages handled by type and result.",
	}, []string{"type", "result"})
)

// ObserveMark counts one ledger write.
func ObserveMark(created bool) {
	if created {
		AttendanceMarks.WithLabelValues("created").Inc()
		return
	}
	AttendanceMarks.WithLabelValues("updated").Inc()
}
