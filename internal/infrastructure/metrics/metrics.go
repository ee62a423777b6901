// Package metrics provides Prometheus metrics for the inbox-sync service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_sync_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration tracks HTTP request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inbox_sync_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// SendsTotal counts send attempts by outcome.
	SendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_sync_sends_total",
			Help: "Total send attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ComplianceDenials counts sends blocked by the compliance gate.
	ComplianceDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_sync_compliance_denials_total",
			Help: "Sends blocked by the compliance gate, by reason code",
		},
		[]string{"reason"},
	)

	// StreamEventsTotal counts decoded stream events by type.
	StreamEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_sync_stream_events_total",
			Help: "Decoded send-stream events by type",
		},
		[]string{"type"},
	)

	// StreamDuration tracks how long a send stream stays open.
	StreamDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inbox_sync_stream_duration_seconds",
			Help:    "Duration of send streams from open to terminal event",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PollCycles counts fallback poll results per conversation.
	PollCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_sync_poll_cycles_total",
			Help: "Fallback poll results by outcome",
		},
		[]string{"result"},
	)

	// ActiveStreams tracks how many send streams are currently open.
	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inbox_sync_active_streams",
			Help: "Number of currently open send streams",
		},
	)
)
